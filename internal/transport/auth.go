package transport

import (
	"errors"
	"log/slog"
	"net/http"

	logctx "github.com/pribylovaa/go-taskboard/internal/pkg/log"
	"github.com/pribylovaa/go-taskboard/internal/tokenstore"
)

// WithAuth подставляет Authorization: Bearer <token> из хранилища:
//   - для запроса на refreshPath - refresh-токен;
//   - для всех остальных - access-токен.
//
// Пары нет - запрос уходит без заголовка (публичные эндпойнты,
// login/register). Ошибка чтения хранилища логируется и тоже не
// блокирует запрос. Заголовок, выставленный вызывающим, не переписывается.
func WithAuth(store tokenstore.Store, refreshPath string) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if r.Header.Get(HeaderAuthorization) != "" {
				return next.RoundTrip(r)
			}

			pair, err := store.Get(r.Context())
			if err != nil {
				if !errors.Is(err, tokenstore.ErrNotFound) {
					logctx.From(r.Context()).Warn("token_store_read_failed",
						slog.String("path", r.URL.Path),
						slog.String("err", err.Error()),
					)
				}

				return next.RoundTrip(r)
			}

			token := pair.AccessToken
			if r.URL.Path == refreshPath {
				token = pair.RefreshToken
			}

			r = r.Clone(r.Context())
			r.Header.Set(HeaderAuthorization, "Bearer "+token)

			return next.RoundTrip(r)
		})
	}
}
