// session - менеджер сессии клиента task-board.
//
// Manager хранит пару токенов в tokenstore.Store и оборачивает
// аутентифицированные операции политикой WithAutoRefresh:
//   - нет токенов: операция выполняется как есть;
//   - успех и до exp access-токена меньше RefreshThreshold: фоновое
//     (best-effort) обновление, ошибки которого не маскируют результат;
//   - ошибка не 401: один повтор операции;
//   - 401: ровно одно обновление и один повтор. Если само обновление
//     отвергнуто с 401, сессия завершается: токены удаляются, кэш запросов
//     инвалидируется, пользователь получает уведомление "please log in to continue".
//
// Конкурентные обновления по умолчанию склеиваются в один запрос к бэкенду.
package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pribylovaa/go-taskboard/internal/config"
	"github.com/pribylovaa/go-taskboard/internal/metrics"
	"github.com/pribylovaa/go-taskboard/internal/models"
	"github.com/pribylovaa/go-taskboard/internal/notify"
	logctx "github.com/pribylovaa/go-taskboard/internal/pkg/log"
	"github.com/pribylovaa/go-taskboard/internal/querycache"
	"github.com/pribylovaa/go-taskboard/internal/tokenstore"
)

// DefaultRefreshThreshold - окно проактивного обновления.
const DefaultRefreshThreshold = 60 * time.Second

// KeyCurrentUser - ключ текущего пользователя в кэше запросов.
const KeyCurrentUser = "users/me"

var (
	// ErrNoSession - токены не сохранены.
	ErrNoSession = errors.New("no session")
	// ErrInvalidToken - access-токен не разбирается как JWT.
	ErrInvalidToken = errors.New("malformed access token")
	// ErrSessionExpired - refresh-токен отвергнут бэкендом, сессия завершена.
	ErrSessionExpired = errors.New("session expired")
)

// Backend - эндпойнты аутентификации REST-бэкенда (реализует clients.Client).
//
//go:generate mockgen -destination=../mocks/backend.go -package=mocks github.com/pribylovaa/go-taskboard/internal/session Backend
type Backend interface {
	Register(ctx context.Context, creds models.Credentials) (models.TokenPair, error)
	Login(ctx context.Context, creds models.Credentials) (models.TokenPair, error)
	Refresh(ctx context.Context) (models.TokenPair, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (models.User, error)
}

// Options - зависимости и политика Manager. Нулевые значения заменяются умолчаниями.
type Options struct {
	// Invalidator получает широковещательную инвалидацию при logout и
	// завершении сессии.
	Invalidator *querycache.Bus
	// Cache - кэш текущего пользователя; по умолчанию создаётся на Invalidator.
	Cache    *querycache.Cache
	Notifier notify.Notifier
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Now      func() time.Time

	RefreshThreshold     time.Duration
	DisableCoalescing    bool
	SkipRetryAfterLogout bool
}

// OptionsFrom переносит политику из конфигурации.
func OptionsFrom(cfg config.SessionConfig) Options {
	return Options{
		RefreshThreshold:     cfg.RefreshThreshold,
		DisableCoalescing:    cfg.DisableCoalescing,
		SkipRetryAfterLogout: cfg.SkipRetryAfterLogout,
	}
}

// Manager - менеджер сессии. Безопасен для конкурентного использования.
type Manager struct {
	backend Backend
	store   tokenstore.Store

	bus      *querycache.Bus
	cache    *querycache.Cache
	notifier notify.Notifier
	log      *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	threshold  time.Duration
	coalesce   bool
	skipRetry  bool
	refreshing singleflight.Group
}

// New собирает Manager поверх бэкенда и хранилища токенов.
func New(backend Backend, store tokenstore.Store, opts Options) *Manager {
	if opts.Invalidator == nil {
		opts.Invalidator = querycache.NewBus()
	}
	if opts.Cache == nil {
		opts.Cache = querycache.NewCache(opts.Invalidator)
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RefreshThreshold <= 0 {
		opts.RefreshThreshold = DefaultRefreshThreshold
	}

	return &Manager{
		backend:   backend,
		store:     store,
		bus:       opts.Invalidator,
		cache:     opts.Cache,
		notifier:  opts.Notifier,
		log:       opts.Logger,
		metrics:   opts.Metrics,
		now:       opts.Now,
		threshold: opts.RefreshThreshold,
		coalesce:  !opts.DisableCoalescing,
		skipRetry: opts.SkipRetryAfterLogout,
	}
}

// logger - логгер запроса из ctx, иначе Options.Logger.
func (m *Manager) logger(ctx context.Context) *slog.Logger {
	return logctx.FromOr(ctx, m.log)
}

// Invalidator - шина инвалидации, на которую могут подписаться другие кэши.
func (m *Manager) Invalidator() *querycache.Bus { return m.bus }
