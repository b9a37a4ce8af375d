package backend

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pribylovaa/go-taskboard/internal/apierror"
	"github.com/pribylovaa/go-taskboard/internal/backend/middleware"
	"github.com/pribylovaa/go-taskboard/internal/models"
	logctx "github.com/pribylovaa/go-taskboard/internal/pkg/log"
)

func (s *Service) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in models.Credentials
	if err := decodeStrict(r, &in); err != nil {
		apierror.Write(w, r, http.StatusBadRequest, "invalid_argument", "Invalid request body")
		return
	}

	pair, err := s.Register(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, pair)
}

func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in models.Credentials
	if err := decodeStrict(r, &in); err != nil {
		apierror.Write(w, r, http.StatusBadRequest, "invalid_argument", "Invalid request body")
		return
	}

	pair, err := s.Login(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

func (s *Service) handleRefresh(w http.ResponseWriter, r *http.Request) {
	token, _ := middleware.BearerFrom(r.Context())

	pair, err := s.Refresh(r.Context(), token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

func (s *Service) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, _ := middleware.BearerFrom(r.Context())

	if err := s.Logout(r.Context(), token); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleMe(w http.ResponseWriter, r *http.Request) {
	token, _ := middleware.BearerFrom(r.Context())

	u, err := s.Me(r.Context(), token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, u)
}

// writeServiceError - маппинг ошибок Service на HTTP-статус и текст статуса.
// Текст для ошибок входа различает пароль и пользователя: клиент подсвечивает по нему поле формы.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		apierror.Write(w, r, http.StatusUnauthorized, "user_not_found", "User not found")
	case errors.Is(err, ErrInvalidPassword):
		apierror.Write(w, r, http.StatusUnauthorized, "invalid_password", "Invalid password")
	case errors.Is(err, ErrUserExists):
		apierror.Write(w, r, http.StatusConflict, "already_exists", "User already exists")
	case errors.Is(err, ErrInvalidToken):
		apierror.Write(w, r, http.StatusUnauthorized, "unauthenticated", "Unauthorized")
	case errors.Is(err, ErrInvalidEmail):
		apierror.Write(w, r, http.StatusBadRequest, "invalid_argument", "Invalid email")
	case errors.Is(err, ErrWeakPassword):
		apierror.Write(w, r, http.StatusBadRequest, "invalid_argument", "Password is too weak")
	default:
		logctx.From(r.Context()).Error("handler_failed",
			slog.String("path", r.URL.Path),
			slog.String("err", err.Error()),
		)
		apierror.WriteInternal(w, r)
	}
}

// writeJSON - единый ответ JSON с нужным Content-Type.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict - строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}
