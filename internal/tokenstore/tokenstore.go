// tokenstore - постоянное хранение пары токенов сессии.
//
// Пара лежит под двумя фиксированными ключами (models.AccessTokenKey,
// models.RefreshTokenKey). Частично записанная пара считается отсутствующей:
// Get возвращает ErrNotFound, если нет хотя бы одной половины.
// Модель записи - last-write-wins, без версионирования.
package tokenstore

import (
	"context"
	"errors"

	"github.com/pribylovaa/go-taskboard/internal/models"
)

var (
	// ErrNotFound - пары нет или записана только одна половина.
	ErrNotFound = errors.New("token pair not found")
	// ErrIncompletePair - попытка сохранить пару без одного из токенов.
	ErrIncompletePair = errors.New("incomplete token pair")
	// ErrUnknownKind - неизвестный тип хранилища в конфигурации.
	ErrUnknownKind = errors.New("unknown store kind")
)

// Store задаёт контракт хранилища пары токенов.
//
//go:generate mockgen -destination=../mocks/store.go -package=mocks github.com/pribylovaa/go-taskboard/internal/tokenstore Store
type Store interface {
	// Get возвращает сохранённую пару или ErrNotFound.
	Get(ctx context.Context) (models.TokenPair, error)
	// Set целиком заменяет сохранённую пару.
	Set(ctx context.Context, pair models.TokenPair) error
	// Clear удаляет обе половины; отсутствие пары не ошибка.
	Clear(ctx context.Context) error
}

// pairFrom собирает пару из значений по ключам и проверяет полноту.
func pairFrom(values map[string]string) (models.TokenPair, error) {
	pair := models.TokenPair{
		AccessToken:  values[models.AccessTokenKey],
		RefreshToken: values[models.RefreshTokenKey],
	}

	if !pair.Complete() {
		return models.TokenPair{}, ErrNotFound
	}

	return pair, nil
}

// valuesOf раскладывает пару по ключам хранилища.
func valuesOf(pair models.TokenPair) map[string]string {
	return map[string]string{
		models.AccessTokenKey:  pair.AccessToken,
		models.RefreshTokenKey: pair.RefreshToken,
	}
}
