package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pribylovaa/go-taskboard/internal/apierror"
	"github.com/pribylovaa/go-taskboard/internal/metrics"
	"github.com/pribylovaa/go-taskboard/internal/notify"
	"github.com/pribylovaa/go-taskboard/internal/querycache"
	"github.com/pribylovaa/go-taskboard/internal/tokenstore"
)

// WithAutoRefresh выполняет op с политикой обновления токенов.
// Повтор op делается не больше одного раза за вызов.
func WithAutoRefresh[T any](ctx context.Context, m *Manager, op func(context.Context) (T, error)) (T, error) {
	pair, err := m.store.Get(ctx)
	if err != nil {
		if !errors.Is(err, tokenstore.ErrNotFound) {
			m.logger(ctx).Warn("token_store_read_failed", slog.String("err", err.Error()))
		}

		return op(ctx)
	}

	res, err := op(ctx)
	if err == nil {
		m.refreshIfExpiring(ctx, pair.AccessToken)
		return res, nil
	}

	if !apierror.IsUnauthorized(err) {
		m.metrics.ObserveRetry(metrics.RetryAfterError)
		return op(ctx)
	}

	fl, rerr := m.refresh(ctx, metrics.TriggerUnauthorized)
	switch {
	case rerr == nil:
		m.metrics.ObserveRetry(metrics.RetryAfterRefresh)

	case apierror.IsUnauthorized(rerr):
		m.endSession(ctx, fl)
		if m.skipRetry {
			var zero T
			return zero, fmt.Errorf("%w: %w", ErrSessionExpired, err)
		}
		m.metrics.ObserveRetry(metrics.RetryAfterTeardown)

	default:
		m.logger(ctx).Warn("refresh_failed", slog.String("err", rerr.Error()))
		m.metrics.ObserveRetry(metrics.RetryAfterError)
	}

	return op(ctx)
}

// Do - WithAutoRefresh для операций без результата.
func (m *Manager) Do(ctx context.Context, op func(context.Context) error) error {
	_, err := WithAutoRefresh(ctx, m, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})

	return err
}

// refreshIfExpiring - проактивное обновление после успешной операции.
// Ошибки только логируются: их поймает следующий вызов.
func (m *Manager) refreshIfExpiring(ctx context.Context, access string) {
	id, err := Decode(access)
	if err != nil || id.ExpiresAt == 0 {
		m.logger(ctx).Debug("access_token_expiry_unknown")
		return
	}

	if id.Remaining(m.now()) >= m.threshold {
		return
	}

	if _, err := m.refresh(ctx, metrics.TriggerProactive); err != nil {
		m.logger(ctx).Debug("proactive_refresh_failed", slog.String("err", err.Error()))
	}
}

// teardown завершает сессию после отказа в обновлении.
// Порядок: очистка хранилища, инвалидация кэша, уведомление.
func (m *Manager) teardown(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)

	if err := m.store.Clear(ctx); err != nil {
		m.logger(ctx).Error("token_store_clear_failed", slog.String("err", err.Error()))
	}

	m.bus.Broadcast(querycache.Message{Reason: querycache.ReasonSessionExpired})
	m.notifier.Notify(ctx, notify.Notice{Level: notify.LevelWarn, Message: notify.MsgLoginRequired})
	m.metrics.ObserveTeardown()

	m.logger(ctx).Info("session_expired")
}
