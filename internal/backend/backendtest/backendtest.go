// backendtest поднимает dev-бэкенд на httptest.Server для тестов клиента
// и сессии: управляемые часы и счётчики обращений к эндпойнтам.
package backendtest

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/go-taskboard/internal/backend"
	"github.com/pribylovaa/go-taskboard/internal/config"
)

// Clock - ручные часы бэкенда.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

// NewClock создаёт часы, выставленные на t.
func NewClock(t time.Time) *Clock { return &Clock{t: t} }

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// Options - параметры тестового бэкенда.
type Options struct {
	// AccessTokenTTL - время жизни access-токена (по умолчанию 15m).
	AccessTokenTTL time.Duration
	// BasePath - префикс роутов, например "/api".
	BasePath string
	// Clock - часы бэкенда (по умолчанию NewClock(time.Now())).
	Clock *Clock
}

// Server - запущенный бэкенд и доступ к его состоянию.
type Server struct {
	*httptest.Server

	Service *backend.Service
	Clock   *Clock

	mu    sync.Mutex
	calls map[string]*atomic.Int64
	fail  map[string]int
}

// Start запускает бэкенд; сервер закрывается в t.Cleanup.
func Start(t testing.TB, opts Options) *Server {
	t.Helper()

	if opts.AccessTokenTTL == 0 {
		opts.AccessTokenTTL = 15 * time.Minute
	}
	if opts.Clock == nil {
		opts.Clock = NewClock(time.Now())
	}

	svc := backend.New(config.BackendConfig{
		JWTSecret:       "backendtest-secret",
		AccessTokenTTL:  opts.AccessTokenTTL,
		RefreshTokenTTL: 24 * time.Hour,
	}, backend.Options{Now: opts.Clock.Now, BcryptCost: bcrypt.MinCost})

	router := backend.NewRouter(svc, backend.RouterOptions{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		BasePath: opts.BasePath,
	})

	s := &Server{
		Service: svc,
		Clock:   opts.Clock,
		calls:   make(map[string]*atomic.Int64),
		fail:    make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.counter(r.URL.Path).Add(1)

		if status := s.takeFailure(r.URL.Path); status != 0 {
			http.Error(w, http.StatusText(status), status)
			return
		}

		router.ServeHTTP(w, r)
	}))
	t.Cleanup(s.Close)

	return s
}

// Calls - сколько запросов пришло на path (с учётом BasePath).
func (s *Server) Calls(path string) int64 {
	return s.counter(path).Load()
}

// FailNext заставляет следующий запрос на path вернуть status.
func (s *Server) FailNext(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[path] = status
}

func (s *Server) counter(path string) *atomic.Int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.calls[path]
	if !ok {
		c = new(atomic.Int64)
		s.calls[path] = c
	}

	return c
}

func (s *Server) takeFailure(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := s.fail[path]
	delete(s.fail, path)

	return status
}
