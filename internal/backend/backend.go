// backend - in-memory реализация REST-бэкенда task-board для локальной
// разработки и интеграционных тестов клиента.
//
// Основные аспекты:
//   - пользователи и refresh-токены живут в памяти процесса;
//   - access-токен - HS256 JWT с claims sub, email, iat, exp;
//   - refresh-токен - случайный секрет, хранится только его хэш (sha256);
//     одноразовый: каждое обновление отзывает предъявленный токен и выпускает новую пару;
//   - повторное предъявление отозванного refresh-токена отзывает всю сессию пользователя.
//
// Экземпляр Service безопасен для конкурентного использования.
package backend

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/go-taskboard/internal/config"
	"github.com/pribylovaa/go-taskboard/internal/models"
)

var (
	// ErrUserNotFound - пользователя с таким e-mail нет. HTTP 401 "User not found".
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidPassword - пароль не совпал. HTTP 401 "Invalid password".
	ErrInvalidPassword = errors.New("invalid password")

	// ErrUserExists - e-mail уже зарегистрирован. HTTP 409 "User already exists".
	ErrUserExists = errors.New("user already exists")

	// ErrInvalidToken - токен некорректен, просрочен или отозван. HTTP 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrInvalidEmail - e-mail не проходит базовую проверку формата. HTTP 400.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrWeakPassword - пароль короче minPasswordLen. HTTP 400.
	ErrWeakPassword = errors.New("password is too weak")
)

const minPasswordLen = 6

type user struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type refreshEntry struct {
	UserID    string
	ExpiresAt time.Time
	Revoked   bool
}

// Options - необязательные параметры Service.
type Options struct {
	// Now - источник времени (по умолчанию time.Now).
	Now func() time.Time
	// BcryptCost - стоимость bcrypt (по умолчанию bcrypt.DefaultCost).
	BcryptCost int
	// Registerer - куда регистрировать метрики; nil - не регистрировать.
	Registerer prometheus.Registerer
}

// Service - бизнес-логика эндпойнтов бэкенда.
type Service struct {
	cfg     config.BackendConfig
	now     func() time.Time
	cost    int
	metrics *serviceMetrics

	mu       sync.Mutex
	users    map[string]*user            // по e-mail
	byID     map[string]*user            // по ID
	refresh  map[string]*refreshEntry    // по хэшу refresh-токена
	projects map[string][]models.Project // по ID владельца
}

// New создаёт Service с пустым хранилищем.
func New(cfg config.BackendConfig, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}

	return &Service{
		cfg:      cfg,
		now:      opts.Now,
		cost:     opts.BcryptCost,
		metrics:  newServiceMetrics(opts.Registerer),
		users:    make(map[string]*user),
		byID:     make(map[string]*user),
		refresh:  make(map[string]*refreshEntry),
		projects: make(map[string][]models.Project),
	}
}
