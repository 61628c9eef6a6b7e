package internal

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kev1903/skrobakios/internal/config"
	"github.com/kev1903/skrobakios/internal/eventbus"
	"github.com/kev1903/skrobakios/internal/project"
	projectrepo "github.com/kev1903/skrobakios/internal/project/repositoryimpl"
	"github.com/kev1903/skrobakios/internal/schedule"
	"github.com/kev1903/skrobakios/internal/session"
	taskrepo "github.com/kev1903/skrobakios/internal/task/repositoryimpl"
	"github.com/kev1903/skrobakios/pkg/storage"
)

const apiKey = "test-key"

type client struct {
	t   *testing.T
	srv *httptest.Server
}

func newTestServer(t *testing.T) *client {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	bus := eventbus.New()
	projects := projectrepo.NewYAMLRepository(store)
	tasks := taskrepo.NewYAMLRepository(store)
	registry := session.NewRegistry(tasks, bus, session.Options{
		Schedule: schedule.Options{Today: schedule.MustParseDate("2024-01-01")},
	})
	t.Cleanup(registry.Wait)

	env := &config.Env{BaseEnv: config.BaseEnv{APIKey: apiKey}}
	s := NewServer(env, store,
		project.NewServer(projects, tasks, registry, bus),
		session.NewServer(registry, projects, bus),
	)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return &client{t: t, srv: srv}
}

func (c *client) do(method, path string, body any, out any) int {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, c.srv.URL+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("X-API-Key", apiKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.srv.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type scheduleBody struct {
	Rows []struct {
		ID           string `json:"id"`
		RowNumber    int    `json:"row_number"`
		StartDate    string `json:"start_date"`
		EndDate      string `json:"end_date"`
		Dependencies string `json:"dependencies"`
		Critical     bool   `json:"critical"`
	} `json:"rows"`
	Stats struct {
		TotalTasks   int      `json:"total_tasks"`
		CriticalPath []string `json:"critical_path"`
	} `json:"stats"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details []struct {
		Rule    string `json:"rule"`
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"details"`
}

func TestServer_Auth(t *testing.T) {
	c := newTestServer(t)

	resp, err := c.srv.Client().Get(c.srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = c.srv.Client().Get(c.srv.URL + "/api/projects")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var e errorBody
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/api/nowhere", nil, &e))
	assert.Equal(t, "not_found", e.Code)
}

func TestServer_ScheduleFlow(t *testing.T) {
	c := newTestServer(t)

	var p project.Project
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/api/projects", map[string]string{
		"name":         "Harbour St duplex",
		"site_address": "12 Harbour St",
	}, &p))
	require.NotEmpty(t, p.ID)
	base := "/api/projects/" + p.ID

	var e errorBody
	assert.Equal(t, http.StatusConflict, c.do(http.MethodPost, "/api/projects", map[string]string{"name": "Harbour St duplex"}, &e))

	var added struct {
		ID string `json:"id"`
	}
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, base+"/tasks", map[string]any{"title": "Excavate", "duration": 3}, &added))
	a := added.ID
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, base+"/tasks", map[string]any{"title": "Footings", "duration": 2}, &added))
	b := added.ID

	var sched scheduleBody
	require.Equal(t, http.StatusOK, c.do(http.MethodPatch, base+"/tasks/"+b, map[string]any{"dependencies": "1FS+1"}, &sched))
	require.Len(t, sched.Rows, 2)
	assert.Equal(t, a, sched.Rows[0].ID)
	assert.Equal(t, "2024-01-03", sched.Rows[0].EndDate)
	assert.Equal(t, "2024-01-05", sched.Rows[1].StartDate)
	assert.Equal(t, "2024-01-06", sched.Rows[1].EndDate)
	assert.Equal(t, "1FS+1", sched.Rows[1].Dependencies)
	assert.Equal(t, []string{a, b}, sched.Stats.CriticalPath)

	e = errorBody{}
	require.Equal(t, http.StatusBadRequest, c.do(http.MethodPatch, base+"/tasks/"+a, map[string]any{"dependencies": "2"}, &e))
	assert.Equal(t, "invalid_argument", e.Code)
	require.Len(t, e.Details, 1)
	assert.Equal(t, "cycle", e.Details[0].Rule)
	assert.Equal(t, "dependencies", e.Details[0].Field)
	assert.Equal(t, "Circular dependency: row 1 → row 2 → row 1", e.Details[0].Message)

	var parsed struct {
		Text       string `json:"text"`
		Validation struct {
			IsValid bool `json:"is_valid"`
		} `json:"validation"`
	}
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/api/dependencies/parse", map[string]string{
		"text":       " 1fs+1 , junk",
		"project_id": p.ID,
		"task_id":    b,
	}, &parsed))
	assert.Equal(t, "1FS+1", parsed.Text)
	assert.True(t, parsed.Validation.IsValid)

	sched = scheduleBody{}
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, base+"/reload", nil, &sched))
	assert.Equal(t, "2024-01-05", sched.Rows[1].StartDate)
	assert.Equal(t, 2, sched.Stats.TotalTasks)

	require.Equal(t, http.StatusOK, c.do(http.MethodDelete, base+"/tasks/"+a, nil, &sched))
	assert.Len(t, sched.Rows, 1)

	assert.Equal(t, http.StatusNoContent, c.do(http.MethodDelete, base, nil, nil))
	e = errorBody{}
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, base+"/schedule", nil, &e))
}

func TestServer_DependencyRowsFollowTheCallersView(t *testing.T) {
	c := newTestServer(t)

	var p project.Project
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/api/projects", map[string]string{"name": "Fitzroy fitout"}, &p))
	base := "/api/projects/" + p.ID

	ids := map[string]string{}
	for _, title := range []string{"A", "B", "C", "D", "E"} {
		var added struct {
			ID string `json:"id"`
		}
		require.Equal(t, http.StatusCreated, c.do(http.MethodPost, base+"/tasks", map[string]any{"title": title, "duration": 1}, &added))
		ids[title] = added.ID
	}
	require.Equal(t, http.StatusOK, c.do(http.MethodPatch, base+"/tasks/"+ids["B"], map[string]any{"progress": 100}, nil))

	deps := func(sched scheduleBody, id string) string {
		for _, r := range sched.Rows {
			if r.ID == id {
				return r.Dependencies
			}
		}
		t.Fatalf("no row for %s", id)
		return ""
	}

	var full, filtered scheduleBody
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, base+"/schedule", nil, &full))
	assert.Equal(t, ids["C"], full.Rows[2].ID)

	// A second viewer hides completed work; the first viewer's numbering is unchanged.
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, base+"/schedule?hide_completed=true", nil, &filtered))
	require.Len(t, filtered.Rows, 4)
	assert.Equal(t, ids["D"], filtered.Rows[2].ID)

	var sched scheduleBody
	require.Equal(t, http.StatusOK, c.do(http.MethodPatch, base+"/tasks/"+ids["E"], map[string]any{"dependencies": "3"}, &sched))
	assert.Len(t, sched.Rows, 5)
	assert.Equal(t, "3", deps(sched, ids["E"]))

	filtered = scheduleBody{}
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, base+"/schedule?hide_completed=true", nil, &filtered))
	assert.Equal(t, "2", deps(filtered, ids["E"]))

	// The second viewer's row 3 is D.
	sched = scheduleBody{}
	require.Equal(t, http.StatusOK, c.do(http.MethodPatch, base+"/tasks/"+ids["E"], map[string]any{
		"dependencies":   "3",
		"hide_completed": true,
	}, &sched))
	assert.Len(t, sched.Rows, 4)
	assert.Equal(t, "3", deps(sched, ids["E"]))

	full = scheduleBody{}
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, base+"/schedule", nil, &full))
	assert.Equal(t, "4", deps(full, ids["E"]))

	var parsed struct {
		Validation struct {
			IsValid bool `json:"is_valid"`
		} `json:"validation"`
	}
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/api/dependencies/parse", map[string]any{
		"text":           "4",
		"project_id":     p.ID,
		"task_id":        ids["E"],
		"hide_completed": true,
	}, &parsed))
	assert.False(t, parsed.Validation.IsValid)

	e := errorBody{}
	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodGet, base+"/schedule?hide_completed=maybe", nil, &e))
	assert.Equal(t, "invalid_argument", e.Code)
}
