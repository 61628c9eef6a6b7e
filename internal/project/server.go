package project

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/kev1903/skrobakios/internal/eventbus"
	"github.com/kev1903/skrobakios/pkg/cerr"
	"github.com/kev1903/skrobakios/pkg/clog"
)

// TaskCleaner removes every task stored for a project.
type TaskCleaner interface {
	DeleteProject(ctx context.Context, projectID string) error
}

// SessionCloser drops the open session of a project.
type SessionCloser interface {
	Close(projectID string)
}

type Server struct {
	repo     Repository
	tasks    TaskCleaner
	sessions SessionCloser
	bus      *eventbus.Bus
}

func NewServer(repo Repository, tasks TaskCleaner, sessions SessionCloser, bus *eventbus.Bus) *Server {
	return &Server{repo: repo, tasks: tasks, sessions: sessions, bus: bus}
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/projects", s.ListProjects)
	r.Post("/projects", s.CreateProject)
	r.Get("/projects/{projectID}", s.GetProject)
	r.Patch("/projects/{projectID}", s.UpdateProject)
	r.Delete("/projects/{projectID}", s.DeleteProject)
}

type projectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	SiteAddress *string `json:"site_address"`
}

type listResponse struct {
	Projects []*Project `json:"projects"`
	Total    int        `json:"total"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return cerr.NewError(cerr.InvalidArgument, "invalid request body", err)
	}
	return nil
}

func (s *Server) CreateProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req projectRequest
	if err := decode(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		cerr.SetJSONError(ctx, cerr.NewError(cerr.InvalidArgument, "invalid project", nil).
			AddViolation("name_required", "name", "name must not be empty"))
		return
	}
	name := strings.TrimSpace(*req.Name)
	if _, err := s.repo.FindByName(ctx, name); err == nil {
		cerr.SetNewJSONError(ctx, cerr.AlreadyExists, "a project with this name already exists", nil)
		return
	} else if !cerr.IsCode(err, cerr.NotFound) {
		cerr.SetJSONError(ctx, err)
		return
	}

	now := time.Now()
	p := &Project{
		ID:        ulid.Make().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.SiteAddress != nil {
		p.SiteAddress = *req.SiteAddress
	}
	if err := s.repo.Create(ctx, p); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	clog.AddAttribute(ctx, "project_id", p.ID)
	s.bus.PublishNew(eventbus.EventProjectCreated, p.ID, p.ID, p.Name)
	cerr.SetJSONResponseStatus(ctx, http.StatusCreated, p)
}

func (s *Server) GetProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := s.repo.Get(ctx, chi.URLParam(r, "projectID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, p)
}

func (s *Server) ListProjects(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, offset := 50, 0
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
		offset = v
	}
	projects, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if projects == nil {
		projects = []*Project{}
	}
	cerr.SetJSONResponse(ctx, &listResponse{Projects: projects, Total: total, Limit: limit, Offset: offset})
}

func (s *Server) UpdateProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req projectRequest
	if err := decode(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	p, err := s.repo.Get(ctx, chi.URLParam(r, "projectID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			cerr.SetJSONError(ctx, cerr.NewError(cerr.InvalidArgument, "invalid project", nil).
				AddViolation("name_required", "name", "name must not be empty"))
			return
		}
		p.Name = name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.SiteAddress != nil {
		p.SiteAddress = *req.SiteAddress
	}
	p.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, p); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, p)
}

// DeleteProject removes the project with all of its tasks and closes its
// session.
func (s *Server) DeleteProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "projectID")
	if _, err := s.repo.Get(ctx, id); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	s.sessions.Close(id)
	if err := s.tasks.DeleteProject(ctx, id); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	s.bus.PublishNew(eventbus.EventProjectDeleted, id, id, "")
	w.WriteHeader(http.StatusNoContent)
}
