package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/swarmpilot/swarmpilot/internal/adapter/auditlog"
	sphttp "github.com/swarmpilot/swarmpilot/internal/adapter/http"
	"github.com/swarmpilot/swarmpilot/internal/config"
	"github.com/swarmpilot/swarmpilot/internal/service"
)

func newTestRouter(t *testing.T) (chi.Router, *service.Manager) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Dispatch{
		QueueCapacity: 16,
		Tick:          10 * time.Millisecond,
		ErrorBackoff:  10 * time.Millisecond,
		StopTimeout:   time.Second,
		Workspace:     dir,
	}
	m := service.NewManager(cfg, service.NewRegistry(nil))
	audit := auditlog.New(filepath.Join(dir, "activity.log"))
	m.SetAuditLog(audit)
	m.Start()
	t.Cleanup(m.Stop)

	r := chi.NewRouter()
	sphttp.MountRoutes(r, sphttp.NewHandlers(m, audit))
	return r, m
}

func postJSON(t *testing.T, r chi.Router, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCreateInstruction(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := postJSON(t, r, "/api/v1/instructions", map[string]string{
		"instruction": "create a file called api.txt",
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body)
	}

	var res service.DispatchResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.TaskID == "" || res.AgentID == "" {
		t.Fatalf("incomplete dispatch result: %+v", res)
	}
}

func TestCreateInstructionValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := postJSON(t, r, "/api/v1/instructions", map[string]string{"instruction": "   "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank instruction, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/instructions", bytes.NewReader([]byte("{not json")))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}
}

func TestCreateInstructionNoAgent(t *testing.T) {
	r, m := newTestRouter(t)
	for _, d := range service.DefaultAgents() {
		if !m.UpdateAgentStatus(d.ID, "working") {
			t.Fatalf("could not mark %s working", d.ID)
		}
	}

	rec := postJSON(t, r, "/api/v1/instructions", map[string]string{"instruction": "zzzz qqqq"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body)
	}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Error != "no suitable agent available" {
		t.Fatalf("unexpected error body: %q", body.Error)
	}
}

func TestGetStatus(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", http.NoBody)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var report service.StatusReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	if len(report.Agents) != 5 {
		t.Fatalf("expected 5 agents, got %d", len(report.Agents))
	}
}

func TestGetTask(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := postJSON(t, r, "/api/v1/instructions", map[string]string{
		"instruction": "create a file called lookup.txt",
	})
	var res service.DispatchResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks/"+res.TaskID, http.NoBody)
	rec2 := httptest.NewRecorder()
	r.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec2.Code)
	}

	var v service.TaskView
	if err := json.Unmarshal(rec2.Body.Bytes(), &v); err != nil {
		t.Fatal(err)
	}
	if v.ID != res.TaskID {
		t.Fatalf("task id mismatch: %s vs %s", v.ID, res.TaskID)
	}
}

func TestGetTaskNotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks/task_99_12345", http.NoBody)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Error != "task not found" {
		t.Fatalf("unexpected error body: %q", body.Error)
	}
}

func TestListTasks(t *testing.T) {
	r, _ := newTestRouter(t)

	for i := 0; i < 2; i++ {
		rec := postJSON(t, r, "/api/v1/instructions", map[string]string{
			"instruction": fmt.Sprintf("create a file called list%d.txt", i),
		})
		if rec.Code != http.StatusAccepted {
			t.Fatalf("dispatch %d failed with %d", i, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", http.NoBody)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Tasks []service.TaskView `json:"tasks"`
		Count int                `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 2 || len(body.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got count=%d len=%d", body.Count, len(body.Tasks))
	}
}

func TestUpdateAgentStatus(t *testing.T) {
	r, _ := newTestRouter(t)

	do := func(id, status string) int {
		data, _ := json.Marshal(map[string]string{"status": status})
		req := httptest.NewRequest(http.MethodPut, "/api/v1/agents/"+id+"/status", bytes.NewReader(data))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := do("analyst", "offline"); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if code := do("analyst", "working"); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for rejected transition, got %d", code)
	}
	if code := do("ghost", "idle"); code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown agent, got %d", code)
	}
	if code := do("analyst", "haywire"); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", code)
	}
}

func TestGetActivity(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/activity", http.NoBody)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 before any activity, got %d", rec.Code)
	}

	var body struct {
		Lines []string `json:"lines"`
		Count int      `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 0 || body.Lines == nil {
		t.Fatalf("expected empty lines array, got count=%d lines=%v", body.Count, body.Lines)
	}

	if rec := postJSON(t, r, "/api/v1/instructions", map[string]string{
		"instruction": "create a file called trace.txt",
	}); rec.Code != http.StatusAccepted {
		t.Fatalf("dispatch failed with %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/activity?lines=50", http.NoBody)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Count == 0 || len(body.Lines) == 0 {
		t.Fatal("expected recorded activity after a dispatch")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/activity?lines=nope", http.NoBody)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad lines param, got %d", rec.Code)
	}
}
