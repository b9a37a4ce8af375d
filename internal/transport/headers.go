package transport

import (
	"net/http"

	"github.com/google/uuid"
)

// WithRequestID добавляет X-Request-Id (UUID), если вызывающий его не задал.
func WithRequestID() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if r.Header.Get(HeaderRequestID) != "" {
				return next.RoundTrip(r)
			}

			r = r.Clone(r.Context())
			r.Header.Set(HeaderRequestID, uuid.NewString())

			return next.RoundTrip(r)
		})
	}
}

// WithUserAgent выставляет User-Agent; пустое значение - no-op.
func WithUserAgent(ua string) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		if ua == "" {
			return next
		}

		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			r = r.Clone(r.Context())
			r.Header.Set(HeaderUserAgent, ua)

			return next.RoundTrip(r)
		})
	}
}
