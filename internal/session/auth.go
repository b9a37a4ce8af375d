package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pribylovaa/go-taskboard/internal/apierror"
	"github.com/pribylovaa/go-taskboard/internal/models"
	"github.com/pribylovaa/go-taskboard/internal/pkg/redact"
	"github.com/pribylovaa/go-taskboard/internal/querycache"
)

// Login входит по e-mail и паролю, сохраняет пару и возвращает пользователя.
// Ошибка бэкенда размечается apierror.Kind (password или user).
func (m *Manager) Login(ctx context.Context, creds models.Credentials) (models.User, error) {
	const op = "session.Login"

	pair, err := m.backend.Login(ctx, creds)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, apierror.Classify(err))
	}

	u, err := m.establish(ctx, pair)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	m.logger(ctx).Info("logged_in", slog.String("user_id", u.ID), slog.String("email", redact.Email(u.Email)))

	return u, nil
}

// Register регистрирует пользователя; в остальном как Login.
func (m *Manager) Register(ctx context.Context, creds models.Credentials) (models.User, error) {
	const op = "session.Register"

	pair, err := m.backend.Register(ctx, creds)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, apierror.Classify(err))
	}

	u, err := m.establish(ctx, pair)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	m.logger(ctx).Info("registered", slog.String("user_id", u.ID), slog.String("email", redact.Email(u.Email)))

	return u, nil
}

// establish сохраняет пару, декодирует access-токен и кладёт
// пользователя в кэш запросов. Данные прежнего аккаунта инвалидируются
// до заполнения кэша, даже если logout не вызывался.
func (m *Manager) establish(ctx context.Context, pair models.TokenPair) (models.User, error) {
	if err := m.store.Set(ctx, pair); err != nil {
		return models.User{}, fmt.Errorf("persist: %w", err)
	}
	m.bus.Broadcast(querycache.Message{Reason: querycache.ReasonLogin})

	id, err := Decode(pair.AccessToken)
	if err != nil {
		return models.User{}, err
	}

	u := id.User()
	m.cache.Set(KeyCurrentUser, u)

	return u, nil
}

// Logout завершает сессию. Вызов бэкенда best-effort: токены удаляются
// и кэш инвалидируется при любом его исходе. Ошибку возвращает только
// очистка хранилища.
func (m *Manager) Logout(ctx context.Context) error {
	const op = "session.Logout"

	if err := m.backend.Logout(ctx); err != nil {
		m.logger(ctx).Debug("logout_backend_failed", slog.String("err", err.Error()))
	}

	ctx = context.WithoutCancel(ctx)
	err := m.store.Clear(ctx)

	m.bus.Broadcast(querycache.Message{Reason: querycache.ReasonLogout})

	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	m.logger(ctx).Info("logged_out")

	return nil
}

// CurrentUser - текущий пользователь из кэша; при промахе GET /users/me
// через WithAutoRefresh.
func (m *Manager) CurrentUser(ctx context.Context) (models.User, error) {
	return querycache.Fetch(ctx, m.cache, KeyCurrentUser, m.fetchMe)
}

// RefetchCurrentUser игнорирует кэш и перечитывает пользователя.
func (m *Manager) RefetchCurrentUser(ctx context.Context) (models.User, error) {
	return querycache.Refetch(ctx, m.cache, KeyCurrentUser, m.fetchMe)
}

func (m *Manager) fetchMe(ctx context.Context) (models.User, error) {
	u, err := WithAutoRefresh(ctx, m, m.backend.Me)
	if err != nil {
		return models.User{}, fmt.Errorf("session.CurrentUser: %w", err)
	}

	return u, nil
}
