package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/pribylovaa/go-taskboard/internal/apierror"
)

// Timeout ограничивает запрос сроком d, если у контекста нет своего дедлайна.
// Обработчик, не успевший ответить до дедлайна, получает 504 с кодом deadline_exceeded.
// d <= 0 отключает мидлвар.
func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := r.Context().Deadline(); ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			rec := wrap(w)
			next.ServeHTTP(rec, r.WithContext(ctx))

			if !rec.started() && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				apierror.Write(rec, r, http.StatusGatewayTimeout, "deadline_exceeded", "Request timed out")
			}
		})
	}
}
