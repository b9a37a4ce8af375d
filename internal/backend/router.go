package backend

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/go-taskboard/internal/apierror"
	"github.com/pribylovaa/go-taskboard/internal/backend/middleware"
)

// RouterOptions - параметры сборки HTTP-роутера.
type RouterOptions struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api"; если пустой - роуты регистрируются на корне.
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(s *Service, opts RouterOptions) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),
		middleware.RequestID(), // до логирования: id попадает в attrs
		middleware.Logging(opts.Logger),
		middleware.AuthBearer(),
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout))
	}

	root.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apierror.Write(w, r, http.StatusNotFound, "not_found", "Not Found")
	})
	root.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		apierror.Write(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "Method Not Allowed")
	})

	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, s)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, s)
	return root
}

// registerRoutes - единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, s *Service) {
	r.Post("/auth/local/register", s.handleRegister)
	r.Post("/auth/local/login", s.handleLogin)
	r.Post("/auth/refresh", s.handleRefresh)
	r.Post("/auth/logout", s.handleLogout)

	r.Get("/users/me", s.handleMe)

	r.Get("/projects", s.handleListProjects)
	r.Post("/projects", s.handleCreateProject)
}
