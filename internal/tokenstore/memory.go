package tokenstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/pribylovaa/go-taskboard/internal/models"
)

// Memory - хранилище в памяти процесса.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory создаёт пустое хранилище.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string, 2)}
}

// NewMemoryFrom создаёт хранилище с заранее записанными ключами,
// в том числе с неполной парой.
func NewMemoryFrom(values map[string]string) *Memory {
	m := NewMemory()
	for k, v := range values {
		m.values[k] = v
	}

	return m
}

func (m *Memory) Get(_ context.Context) (models.TokenPair, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return pairFrom(m.values)
}

func (m *Memory) Set(_ context.Context, pair models.TokenPair) error {
	const op = "tokenstore.Memory.Set"

	if !pair.Complete() {
		return fmt.Errorf("%s: %w", op, ErrIncompletePair)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.values = valuesOf(pair)
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values = make(map[string]string, 2)
	return nil
}
