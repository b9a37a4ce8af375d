// transport предоставляет набор middleware для исходящих HTTP-запросов
// клиента (http.RoundTripper). Каждый middleware клонирует запрос перед
// изменением заголовков: исходный *http.Request вызывающего не мутируется.
package transport

import "net/http"

// Middleware - обёртка над http.RoundTripper.
type Middleware func(http.RoundTripper) http.RoundTripper

// RoundTripperFunc - адаптер функции к http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// Chain применяет middleware к base в порядке перечисления:
// первый в списке - самый внешний.
func Chain(base http.RoundTripper, mws ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}

	for i := len(mws) - 1; i >= 0; i-- {
		base = mws[i](base)
	}

	return base
}

// Header - имена заголовков, которые выставляет цепочка.
const (
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-Id"
	HeaderUserAgent     = "User-Agent"
)
