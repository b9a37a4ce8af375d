package transport

import (
	"log/slog"
	"net/http"
	"time"

	logctx "github.com/pribylovaa/go-taskboard/internal/pkg/log"
)

// WithLogging - логирование исходящих запросов.
// Поведение:
//   - берёт логгер из контекста запроса (pkg/log), иначе base;
//   - добавляет request_id из X-Request-Id, если он уже выставлен;
//   - пишет одну финальную запись уровня Info: msg="http", method, path, status, dur.
//
// Безопасность: не логирует тела и заголовки (Authorization в том числе).
func WithLogging(base *slog.Logger) Middleware {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()

			l := logctx.FromOr(r.Context(), base)
			if rid := r.Header.Get(HeaderRequestID); rid != "" {
				l = l.With(slog.String("request_id", rid))
			}

			resp, err := next.RoundTrip(r)

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Duration("dur", time.Since(start)),
			}

			if err != nil {
				attrs = append(attrs, slog.String("err", err.Error()))
				l.LogAttrs(r.Context(), slog.LevelWarn, "http", attrs...)
				return nil, err
			}

			attrs = append(attrs, slog.Int("status", resp.StatusCode))
			l.LogAttrs(r.Context(), slog.LevelInfo, "http", attrs...)

			return resp, nil
		})
	}
}
