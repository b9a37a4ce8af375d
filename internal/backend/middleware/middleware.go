// middleware - net/http middleware dev-бэкенда: request id, логирование,
// восстановление после panic, таймаут запроса и извлечение Bearer-токена.
package middleware

import (
	"context"
	"net/http"
)

// Middleware - обёртка над http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain оборачивает h так, что первый в списке выполняется первым.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

type ctxKey int

const (
	ctxRequestID ctxKey = iota
	ctxBearer
)

// RequestIDFrom - id текущего запроса или пустая строка.
func RequestIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(ctxRequestID).(string)
	return v
}

// BearerFrom - Bearer-токен из Authorization, без проверки.
func BearerFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxBearer).(string)
	return v, ok && v != ""
}

// responseRecorder запоминает статус и размер ответа и то, начат ли он.
type responseRecorder struct {
	http.ResponseWriter
	status  int
	written int
}

func wrap(w http.ResponseWriter) *responseRecorder {
	if rec, ok := w.(*responseRecorder); ok {
		return rec
	}

	return &responseRecorder{ResponseWriter: w}
}

func (w *responseRecorder) WriteHeader(code int) {
	if w.status != 0 {
		return
	}

	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}

	n, err := w.ResponseWriter.Write(p)
	w.written += n
	return n, err
}

func (w *responseRecorder) started() bool { return w.status != 0 }

// Status - отправленный статус; 200, если обработчик ничего не писал.
func (w *responseRecorder) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}

	return w.status
}

func (w *responseRecorder) Unwrap() http.ResponseWriter { return w.ResponseWriter }
