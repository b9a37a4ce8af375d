package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-taskboard/internal/apierror"
	"github.com/pribylovaa/go-taskboard/internal/backend/middleware"
	"github.com/pribylovaa/go-taskboard/internal/models"
)

// ErrEmptyName - имя проекта пустое. HTTP 400.
var ErrEmptyName = errors.New("project name is empty")

// Projects возвращает проекты владельца access-токена.
func (s *Service) Projects(_ context.Context, accessToken string) ([]models.Project, error) {
	const op = "backend.Projects"

	id, err := s.parseAccess(accessToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Project, len(s.projects[id.Subject]))
	copy(out, s.projects[id.Subject])

	return out, nil
}

// CreateProject создаёт проект от имени владельца access-токена.
func (s *Service) CreateProject(_ context.Context, accessToken, name string) (models.Project, error) {
	const op = "backend.CreateProject"

	id, err := s.parseAccess(accessToken)
	if err != nil {
		return models.Project{}, fmt.Errorf("%s: %w", op, err)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return models.Project{}, fmt.Errorf("%s: %w", op, ErrEmptyName)
	}

	p := models.Project{ID: uuid.NewString(), Name: name, Owner: id.Subject}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.projects[id.Subject] = append(s.projects[id.Subject], p)

	return p, nil
}

type createProjectRequest struct {
	Name string `json:"name"`
}

func (s *Service) handleListProjects(w http.ResponseWriter, r *http.Request) {
	token, _ := middleware.BearerFrom(r.Context())

	list, err := s.Projects(r.Context(), token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, list)
}

func (s *Service) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var in createProjectRequest
	if err := decodeStrict(r, &in); err != nil {
		apierror.Write(w, r, http.StatusBadRequest, "invalid_argument", "Invalid request body")
		return
	}

	token, _ := middleware.BearerFrom(r.Context())

	p, err := s.CreateProject(r.Context(), token, in.Name)
	if err != nil {
		if errors.Is(err, ErrEmptyName) {
			apierror.Write(w, r, http.StatusBadRequest, "invalid_argument", "Project name is required")
			return
		}

		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, p)
}
