package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	logctx "github.com/pribylovaa/go-taskboard/internal/pkg/log"
)

// Logging кладёт в контекст логгер с request_id и после ответа пишет
// запись "http". Уровень зависит от статуса: 5xx Error, 4xx Warn, иначе Info.
// Заголовки и тела не логируются.
func Logging(l *slog.Logger) Middleware {
	if l == nil {
		l = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lg := l
			if rid := RequestIDFrom(r.Context()); rid != "" {
				lg = lg.With(slog.String("request_id", rid))
			}

			ctx := logctx.Into(r.Context(), lg)
			rec := wrap(w)
			start := time.Now()

			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.Status()
			lg.LogAttrs(ctx, levelFor(status), "http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("route", routePattern(r)),
				slog.Int("status", status),
				slog.Int("bytes", rec.written),
				slog.Bool("bearer", r.Header.Get("Authorization") != ""),
				slog.Duration("dur", time.Since(start)),
			)
		})
	}
}

func levelFor(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// routePattern - шаблон маршрута chi; заполняется после обработки запроса.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		return rc.RoutePattern()
	}

	return ""
}
