package backend

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/go-taskboard/internal/models"
	logctx "github.com/pribylovaa/go-taskboard/internal/pkg/log"
	"github.com/pribylovaa/go-taskboard/internal/pkg/redact"
)

// Register регистрирует пользователя и сразу выпускает пару токенов.
func (s *Service) Register(ctx context.Context, creds models.Credentials) (models.TokenPair, error) {
	const op = "backend.Register"

	email, err := normalizeEmail(creds.Email)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	if len([]rune(creds.Password)) < minPasswordLen {
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), s.cost)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.users[email]; taken {
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, ErrUserExists)
	}

	u := &user{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	s.users[email] = u
	s.byID[u.ID] = u

	logctx.From(ctx).Info("user_registered",
		slog.String("user_id", u.ID),
		slog.String("email", redact.Email(email)),
	)

	return s.issuePairLocked(u, grantRegister)
}

// Login проверяет e-mail и пароль и выпускает пару токенов.
func (s *Service) Login(ctx context.Context, creds models.Credentials) (models.TokenPair, error) {
	const op = "backend.Login"

	email, err := normalizeEmail(creds.Email)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}

	s.mu.Lock()
	u, ok := s.users[email]
	s.mu.Unlock()

	if !ok {
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(creds.Password)) != nil {
		logctx.From(ctx).Warn("login_invalid_password", slog.String("user_id", u.ID))
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, ErrInvalidPassword)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.issuePairLocked(u, grantLogin)
}

// Refresh обменивает refresh-токен на новую пару. Предъявленный токен отзывается.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	const op = "backend.Refresh"

	lg := logctx.From(ctx)
	hash := hashRefresh(refreshToken)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.refresh[hash]
	if !ok {
		lg.Warn("refresh_lookup_not_found")
		s.metrics.rejected.WithLabelValues(rejectUnknown).Inc()
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if entry.Revoked {
		// Повторное использование ротированного токена: завершаем всю сессию.
		lg.Warn("refresh_reuse_detected", slog.String("user_id", entry.UserID))
		s.revokeUserLocked(entry.UserID)
		s.metrics.rejected.WithLabelValues(rejectReused).Inc()
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if s.now().After(entry.ExpiresAt) {
		lg.Warn("refresh_expired", slog.String("user_id", entry.UserID))
		s.metrics.rejected.WithLabelValues(rejectExpired).Inc()
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	u, ok := s.byID[entry.UserID]
	if !ok {
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	entry.Revoked = true

	return s.issuePairLocked(u, grantRefresh)
}

// Logout отзывает все refresh-токены владельца access-токена.
func (s *Service) Logout(ctx context.Context, accessToken string) error {
	const op = "backend.Logout"

	id, err := s.parseAccess(accessToken)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.revokeUserLocked(id.Subject)
	logctx.From(ctx).Info("user_logged_out", slog.String("user_id", id.Subject))

	return nil
}

// Me возвращает пользователя по access-токену.
func (s *Service) Me(_ context.Context, accessToken string) (models.User, error) {
	const op = "backend.Me"

	id, err := s.parseAccess(accessToken)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	u, ok := s.byID[id.Subject]
	s.mu.Unlock()

	if !ok {
		return models.User{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return models.User{ID: u.ID, Email: u.Email}, nil
}

// RevokeUser завершает все сессии пользователя (администрирование и тесты).
func (s *Service) RevokeUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.revokeUserLocked(userID)
}

func (s *Service) revokeUserLocked(userID string) {
	for _, e := range s.refresh {
		if e.UserID == userID {
			e.Revoked = true
		}
	}
}

// issuePairLocked выпускает access+refresh. Вызывается под s.mu.
func (s *Service) issuePairLocked(u *user, grant string) (models.TokenPair, error) {
	const op = "backend.issuePair"

	now := s.now()

	access, err := s.signAccess(u, now)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	plain, hash, err := newRefresh()
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	s.refresh[hash] = &refreshEntry{
		UserID:    u.ID,
		ExpiresAt: now.Add(s.cfg.RefreshTokenTTL),
	}
	s.metrics.issued.WithLabelValues(grant).Inc()

	return models.TokenPair{AccessToken: access, RefreshToken: plain}, nil
}

// normalizeEmail проверяет базовый формат email, обрезает пробелы и приводит к нижнему регистру.
func normalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return "", ErrInvalidEmail
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return "", ErrInvalidEmail
	}

	return strings.ToLower(email), nil
}
