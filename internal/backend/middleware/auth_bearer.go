package middleware

import (
	"context"
	"net/http"
	"strings"
)

// AuthBearer кладёт в контекст токен из "Authorization: Bearer <token>".
// Схема сравнивается без учёта регистра. Проверку токена делают обработчики:
// refresh ждёт refresh-токен, остальные эндпойнты access-токен.
func AuthBearer() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if token = strings.TrimSpace(token); ok && token != "" && strings.EqualFold(scheme, "Bearer") {
				r = r.WithContext(context.WithValue(r.Context(), ctxBearer, token))
			}

			next.ServeHTTP(w, r)
		})
	}
}
