// querycache - кэш результатов запросов клиента и широковещательная
// инвалидация. Сессия не знает о подписчиках: при завершении сессии она
// отправляет одно сообщение в Bus, и каждый подписчик сбрасывает своё состояние.
package querycache

import "sync"

// Reasons - стандартные причины инвалидации.
const (
	ReasonSessionExpired = "session_expired"
	ReasonLogout         = "logout"
	ReasonLogin          = "login"
)

// Message - сообщение инвалидации. Пустой Keys - «сбросить всё».
type Message struct {
	Reason string
	Keys   []string
}

// Bus - синхронная рассылка сообщений подписчикам в порядке подписки.
// Безопасен для конкурентного использования.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(Message)
	order  []int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(Message))}
}

// Subscribe регистрирует обработчик и возвращает функцию отписки.
func (b *Bus) Subscribe(fn func(Message)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.order = append(b.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()

			delete(b.subs, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Broadcast доставляет сообщение всем текущим подписчикам.
// Обработчики вызываются вне блокировки и могут отписываться.
func (b *Bus) Broadcast(msg Message) {
	b.mu.RLock()
	handlers := make([]func(Message), 0, len(b.order))
	for _, id := range b.order {
		handlers = append(handlers, b.subs[id])
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(msg)
	}
}
