package backend

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pribylovaa/go-taskboard/internal/models"
)

type accessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (s *Service) signAccess(u *user, now time.Time) (string, error) {
	claims := accessClaims{
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTokenTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}

	return signed, nil
}

// parseAccess проверяет подпись и срок access-токена по часам Service.
func (s *Service) parseAccess(tokenStr string) (models.Identity, error) {
	if tokenStr == "" {
		return models.Identity{}, ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenStr, &accessClaims{},
		func(*jwt.Token) (any, error) { return []byte(s.cfg.JWTSecret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Identity{}, fmt.Errorf("%w: expired", ErrInvalidToken)
		}

		return models.Identity{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return models.Identity{}, ErrInvalidToken
	}

	return models.Identity{
		Subject:   claims.Subject,
		Email:     claims.Email,
		IssuedAt:  claims.IssuedAt.Unix(),
		ExpiresAt: claims.ExpiresAt.Unix(),
	}, nil
}

// newRefresh - случайный секрет (32 байта, base64url) и его хэш для хранения.
func newRefresh() (plain, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("refresh rand: %w", err)
	}

	plain = base64.RawURLEncoding.EncodeToString(b)
	return plain, hashRefresh(plain), nil
}

func hashRefresh(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
