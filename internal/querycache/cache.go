package querycache

import (
	"context"
	"sync"
)

// Cache хранит последние успешные результаты запросов по ключу.
// Ошибки не кэшируются. Каждая инвалидация увеличивает поколение: результат
// запроса, начатого до инвалидации, в кэш не попадает.
type Cache struct {
	mu     sync.RWMutex
	values map[string]any
	gen    uint64

	unsubscribe func()
}

// NewCache создаёт кэш; если bus не nil, кэш подписывается на инвалидацию.
func NewCache(bus *Bus) *Cache {
	c := &Cache{values: make(map[string]any)}
	if bus != nil {
		c.unsubscribe = bus.Subscribe(c.Invalidate)
	}

	return c
}

// Close отписывает кэш от шины.
func (c *Cache) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}

func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.values[key]
	return v, ok
}

func (c *Cache) Set(key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.values[key] = v
}

// Invalidate удаляет перечисленные ключи или всё содержимое при пустом Keys.
func (c *Cache) Invalidate(msg Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	if len(msg.Keys) == 0 {
		c.values = make(map[string]any)
		return
	}

	for _, k := range msg.Keys {
		delete(c.values, k)
	}
}

func (c *Cache) generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.gen
}

// setIfCurrent кладёт значение, только если с момента gen не было инвалидаций.
func (c *Cache) setIfCurrent(key string, v any, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen == gen {
		c.values[key] = v
	}
}

// Len - число закэшированных ключей.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.values)
}

// Fetch возвращает значение из кэша или вызывает fn и кэширует успешный результат.
func Fetch[T any](ctx context.Context, c *Cache, key string, fn func(context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	return Refetch(ctx, c, key, fn)
}

// Refetch всегда вызывает fn и при успехе перезаписывает значение в кэше.
// Если пока fn выполнялся пришла инвалидация, результат возвращается
// вызывающему, но не кэшируется.
func Refetch[T any](ctx context.Context, c *Cache, key string, fn func(context.Context) (T, error)) (T, error) {
	gen := c.generation()

	v, err := fn(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	c.setIfCurrent(key, v, gen)
	return v, nil
}
