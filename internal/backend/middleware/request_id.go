package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const (
	headerRequestID = "X-Request-Id"
	maxRequestIDLen = 128
)

// RequestID принимает X-Request-Id клиента, если он пригоден для логов,
// иначе выдаёт новый uuid. id попадает в заголовки запроса и ответа и в контекст:
// apierror.Write читает его из заголовка запроса.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(headerRequestID)
			if !validRequestID(id) {
				id = uuid.NewString()
				r.Header.Set(headerRequestID, id)
			}
			w.Header().Set(headerRequestID, id)

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxRequestID, id)))
		})
	}
}

// validRequestID - непустой, не длиннее maxRequestIDLen, только видимый ASCII.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}

	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}

	return true
}
