package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kev1903/skrobakios/internal/eventbus"
	"github.com/kev1903/skrobakios/internal/project"
	"github.com/kev1903/skrobakios/internal/schedule"
	"github.com/kev1903/skrobakios/pkg/cerr"
	"github.com/kev1903/skrobakios/pkg/clog"
)

// Server exposes the sessions of stored projects over JSON.
type Server struct {
	registry *Registry
	projects project.Repository
	bus      *eventbus.Bus
}

func NewServer(registry *Registry, projects project.Repository, bus *eventbus.Bus) *Server {
	return &Server{registry: registry, projects: projects, bus: bus}
}

func (s *Server) Routes(r chi.Router) {
	r.Post("/dependencies/parse", s.ParseDependencies)
	r.Route("/projects/{projectID}", func(r chi.Router) {
		r.Get("/schedule", s.GetSchedule)
		r.Post("/reload", s.Reload)
		r.Get("/events", s.StreamEvents)
		r.Post("/tasks", s.AddTask)
		r.Patch("/tasks/{taskID}", s.UpdateTask)
		r.Delete("/tasks/{taskID}", s.DeleteTask)
		r.Post("/tasks/{taskID}/toggle", s.ToggleTask)
	})
}

// session opens the session of the project named in the URL. Unknown
// projects are reported as not found.
func (s *Server) session(r *http.Request) (*Session, error) {
	ctx := r.Context()
	projectID := chi.URLParam(r, "projectID")
	clog.AddAttribute(ctx, "project_id", projectID)
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return nil, err
	}
	return s.registry.Open(ctx, projectID)
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return cerr.NewError(cerr.InvalidArgument, "invalid request body", err)
	}
	return nil
}

// respond renders the outcome of an edit: the new schedule or the error.
func respond(r *http.Request, status int, snap *schedule.Snapshot, err error) {
	ctx := r.Context()
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponseStatus(ctx, status, snap)
}

// filterFrom reads the caller's row filter from the query string.
func filterFrom(r *http.Request) (schedule.Filter, error) {
	var f schedule.Filter
	if v := r.URL.Query().Get("hide_completed"); v != "" {
		hide, err := strconv.ParseBool(v)
		if err != nil {
			return f, cerr.NewError(cerr.InvalidArgument, "invalid hide_completed", err)
		}
		f.HideCompleted = hide
	}
	return f, nil
}

func (s *Server) GetSchedule(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		cerr.SetJSONError(r.Context(), err)
		return
	}
	filter, err := filterFrom(r)
	if err != nil {
		cerr.SetJSONError(r.Context(), err)
		return
	}
	var snap *schedule.Snapshot
	if v := r.URL.Query().Get("width"); v != "" {
		width, perr := strconv.ParseFloat(v, 64)
		if perr != nil || width < 0 {
			cerr.SetJSONError(r.Context(), cerr.NewError(cerr.InvalidArgument, "invalid width", perr))
			return
		}
		snap, err = sess.SnapshotWidth(filter, width)
	} else {
		snap, err = sess.Snapshot(filter)
	}
	respond(r, http.StatusOK, snap, err)
}

func (s *Server) Reload(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		cerr.SetJSONError(r.Context(), err)
		return
	}
	filter, err := filterFrom(r)
	if err != nil {
		cerr.SetJSONError(r.Context(), err)
		return
	}
	if err := sess.Reload(r.Context()); err != nil {
		cerr.SetJSONError(r.Context(), err)
		return
	}
	snap, err := sess.Snapshot(filter)
	respond(r, http.StatusOK, snap, err)
}

type addTaskRequest struct {
	schedule.Filter
	ParentID string `json:"parent_id"`
	Title    string `json:"title"`
	Duration int    `json:"duration"`
}

type addTaskResponse struct {
	ID       string             `json:"id"`
	Schedule *schedule.Snapshot `json:"schedule"`
}

func (s *Server) AddTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := s.session(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	var req addTaskRequest
	if err := decode(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	id, snap, err := sess.AddTask(ctx, req.Filter, req.ParentID, req.Title, req.Duration)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	clog.AddAttribute(ctx, "task_id", id)
	cerr.SetJSONResponseStatus(ctx, http.StatusCreated, &addTaskResponse{ID: id, Schedule: snap})
}

func (s *Server) UpdateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := s.session(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	var e Edit
	if err := decode(r, &e); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	taskID := chi.URLParam(r, "taskID")
	clog.AddAttribute(ctx, "task_id", taskID)
	snap, err := sess.Update(ctx, taskID, e)
	respond(r, http.StatusOK, snap, err)
}

func (s *Server) DeleteTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := s.session(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	filter, err := filterFrom(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	taskID := chi.URLParam(r, "taskID")
	clog.AddAttribute(ctx, "task_id", taskID)
	snap, err := sess.DeleteTask(ctx, filter, taskID)
	respond(r, http.StatusOK, snap, err)
}

func (s *Server) ToggleTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := s.session(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	filter, err := filterFrom(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	snap, err := sess.ToggleExpanded(ctx, filter, chi.URLParam(r, "taskID"))
	respond(r, http.StatusOK, snap, err)
}

// parseRequest carries the filter of the view the text was typed in.
type parseRequest struct {
	schedule.Filter
	Text      string `json:"text"`
	ProjectID string `json:"project_id,omitempty"`
	TaskID    string `json:"task_id,omitempty"`
}

type parseResponse struct {
	Dependencies []schedule.RowDependency   `json:"dependencies"`
	Text         string                     `json:"text"`
	Validation   *schedule.ValidationResult `json:"validation,omitempty"`
}

// ParseDependencies runs the edit-field text through the codec. With a
// project and task it also validates the text against that task's view.
func (s *Server) ParseDependencies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req parseRequest
	if err := decode(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	deps := schedule.ParseDependencies(req.Text)
	if deps == nil {
		deps = []schedule.RowDependency{}
	}
	resp := &parseResponse{Dependencies: deps, Text: schedule.FormatDependencies(deps)}
	if req.ProjectID != "" && req.TaskID != "" {
		if _, err := s.projects.Get(ctx, req.ProjectID); err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
		sess, err := s.registry.Open(ctx, req.ProjectID)
		if err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
		result, err := sess.CheckDependencies(req.Filter, req.TaskID, req.Text)
		if err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
		resp.Validation = &result
	}
	cerr.SetJSONResponse(ctx, resp)
}

// StreamEvents sends the project's events as server-sent events until the
// client goes away.
func (s *Server) StreamEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID := chi.URLParam(r, "projectID")
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	subID, ch := s.bus.Subscribe(64)
	defer s.bus.Unsubscribe(subID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		slog.WarnContext(ctx, "event stream cannot flush", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if event.ProjectID != projectID {
				continue
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", event.ID, event.Type, data); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
