package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/pribylovaa/go-taskboard/internal/apierror"
	"github.com/pribylovaa/go-taskboard/internal/metrics"
	"github.com/pribylovaa/go-taskboard/internal/models"
	"github.com/pribylovaa/go-taskboard/internal/tokenstore"
)

// TokenSource отдаёт сессию как oauth2.TokenSource для сторонних
// HTTP-клиентов (oauth2.NewClient). Токен внутри окна RefreshThreshold
// обновляется через Manager, отказ в обновлении с 401 завершает сессию.
func (m *Manager) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, m: m}
}

type tokenSource struct {
	ctx context.Context
	m   *Manager
}

func (s *tokenSource) Token() (*oauth2.Token, error) {
	const op = "session.TokenSource"

	pair, err := s.m.store.Get(s.ctx)
	if err != nil {
		if errors.Is(err, tokenstore.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNoSession)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	id, err := Decode(pair.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if id.ExpiresAt != 0 && id.Remaining(s.m.now()) < s.m.threshold {
		fl, rerr := s.m.refresh(s.ctx, metrics.TriggerProactive)
		switch {
		case rerr == nil:
			pair = fl.pair
			if id, err = Decode(pair.AccessToken); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}

		case apierror.IsUnauthorized(rerr):
			s.m.endSession(s.ctx, fl)
			return nil, fmt.Errorf("%s: %w: %w", op, ErrSessionExpired, rerr)

		case id.Remaining(s.m.now()) <= 0:
			return nil, fmt.Errorf("%s: %w", op, rerr)
		}
		// Иначе отдаём текущий, ещё живой токен.
	}

	return toOAuth2(pair, id), nil
}

func toOAuth2(pair models.TokenPair, id models.Identity) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  pair.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: pair.RefreshToken,
	}
	if id.ExpiresAt != 0 {
		tok.Expiry = time.Unix(id.ExpiresAt, 0)
	}

	return tok
}
