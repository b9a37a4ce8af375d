package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/pribylovaa/go-taskboard/internal/apierror"
	logctx "github.com/pribylovaa/go-taskboard/internal/pkg/log"
)

// Recover превращает panic обработчика в 500 с конвертом internal.
// http.ErrAbortHandler пробрасывается дальше: net/http сам обрывает соединение.
// Если ответ уже начат, пишется только лог.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := wrap(w)

			defer func() {
				v := recover()
				if v == nil {
					return
				}

				if err, ok := v.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(v)
				}

				logctx.From(r.Context()).LogAttrs(r.Context(), slog.LevelError, "handler_panic",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Any("reason", v),
					slog.String("stack", string(debug.Stack())),
				)

				if !rec.started() {
					apierror.WriteInternal(rec, r)
				}
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
