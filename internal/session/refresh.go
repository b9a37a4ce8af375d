package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/pribylovaa/go-taskboard/internal/apierror"
	"github.com/pribylovaa/go-taskboard/internal/metrics"
	"github.com/pribylovaa/go-taskboard/internal/models"
)

const refreshKey = "refresh"

// Refresh обменивает refresh-токен на новую пару и сохраняет её целиком.
// Ошибка бэкенда возвращается без изменений (в обёртке с op).
func (m *Manager) Refresh(ctx context.Context) (models.TokenPair, error) {
	fl, err := m.refresh(ctx, metrics.TriggerExplicit)
	if err != nil {
		return models.TokenPair{}, err
	}

	return fl.pair, nil
}

// flight - один запрос на обновление и все его ожидающие.
// Завершение сессии после отказа выполняется один раз на flight.
type flight struct {
	pair     models.TokenPair
	teardown sync.Once
}

// endSession завершает сессию один раз на flight; конкурентные вызовы
// ждут окончания первого.
func (m *Manager) endSession(ctx context.Context, fl *flight) {
	if fl == nil {
		m.teardown(ctx)
		return
	}

	fl.teardown.Do(func() { m.teardown(ctx) })
}

// refresh возвращает flight и при ошибке, если запрос к бэкенду состоялся;
// nil только когда вызывающий перестал ждать.
func (m *Manager) refresh(ctx context.Context, trigger string) (*flight, error) {
	if !m.coalesce {
		fl := &flight{}
		pair, err := m.doRefresh(ctx, trigger)
		fl.pair = pair
		return fl, err
	}

	// Общий запрос не должен обрываться отменой контекста самого первого вызывающего.
	ch := m.refreshing.DoChan(refreshKey, func() (any, error) {
		fl := &flight{}
		pair, err := m.doRefresh(context.WithoutCancel(ctx), trigger)
		fl.pair = pair
		return fl, err
	})

	select {
	case res := <-ch:
		fl, _ := res.Val.(*flight)
		return fl, res.Err

	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// doRefresh - один запрос к бэкенду; метрика пишется на запрос, а не на ожидающих.
func (m *Manager) doRefresh(ctx context.Context, trigger string) (models.TokenPair, error) {
	const op = "session.Refresh"

	pair, err := m.backend.Refresh(ctx)
	m.observeRefresh(trigger, err)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := m.store.Set(ctx, pair); err != nil {
		return models.TokenPair{}, fmt.Errorf("%s: persist: %w", op, err)
	}

	return pair, nil
}

func (m *Manager) observeRefresh(trigger string, err error) {
	switch {
	case err == nil:
		m.metrics.ObserveRefresh(trigger, metrics.ResultOK)
	case apierror.IsUnauthorized(err):
		m.metrics.ObserveRefresh(trigger, metrics.ResultUnauthorized)
	default:
		m.metrics.ObserveRefresh(trigger, metrics.ResultError)
	}
}
