package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pribylovaa/go-taskboard/internal/models"
	"github.com/pribylovaa/go-taskboard/internal/tokenstore"
)

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Decode разбирает claims access-токена без проверки подписи.
// exp используется только как локальная подсказка «пора обновиться».
func Decode(token string) (models.Identity, error) {
	var c claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
		return models.Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	id := models.Identity{Subject: c.Subject, Email: c.Email}
	if c.IssuedAt != nil {
		id.IssuedAt = c.IssuedAt.Unix()
	}
	if c.ExpiresAt != nil {
		id.ExpiresAt = c.ExpiresAt.Unix()
	}

	return id, nil
}

// Identity - claims сохранённого access-токена.
func (m *Manager) Identity(ctx context.Context) (models.Identity, error) {
	const op = "session.Identity"

	pair, err := m.store.Get(ctx)
	if err != nil {
		if errors.Is(err, tokenstore.ErrNotFound) {
			return models.Identity{}, fmt.Errorf("%s: %w", op, ErrNoSession)
		}

		return models.Identity{}, fmt.Errorf("%s: %w", op, err)
	}

	id, err := Decode(pair.AccessToken)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}
