package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"task-tracker/models"
	"task-tracker/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	ctx := context.Background()
	db, err := utils.OpenDB(ctx, filepath.Join(t.TempDir(), "tasks.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Initialize(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return NewRouter(utils.NewTaskService(db), Options{RequestTimeout: 5 * time.Second})
}

func doRequest(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestTaskLifecycle(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t)

	rec := doRequest(t, r, http.MethodPost, "/tasks", `{"title":"Buy milk","description":"2%"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	created := decode[models.Task](t, rec)
	if created.ID <= 0 || created.Completed || created.Title != "Buy milk" {
		t.Fatalf("created = %+v", created)
	}

	rec = doRequest(t, r, http.MethodGet, "/tasks", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	tasks := decode[[]models.Task](t, rec)
	if len(tasks) != 1 || tasks[0].ID != created.ID {
		t.Fatalf("tasks = %+v", tasks)
	}

	rec = doRequest(t, r, http.MethodPut, fmt.Sprintf("/tasks/%d?completed=true", created.ID), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body)
	}
	updated := decode[models.Task](t, rec)
	if !updated.Completed || updated.Title != "Buy milk" {
		t.Fatalf("updated = %+v", updated)
	}

	rec = doRequest(t, r, http.MethodPut, fmt.Sprintf("/tasks/%d", created.ID), `{"completed":false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update by body status = %d, body %s", rec.Code, rec.Body)
	}
	if decode[models.Task](t, rec).Completed {
		t.Fatal("expected completed=false after body update")
	}

	rec = doRequest(t, r, http.MethodGet, fmt.Sprintf("/tasks/%d", created.ID), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	rec = doRequest(t, r, http.MethodDelete, fmt.Sprintf("/tasks/%d", created.ID), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if msg := decode[map[string]string](t, rec)["message"]; msg != "Task deleted successfully" {
		t.Fatalf("delete message = %q", msg)
	}

	rec = doRequest(t, r, http.MethodPut, fmt.Sprintf("/tasks/%d?completed=true", created.ID), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("update after delete status = %d, want 404", rec.Code)
	}
}

func TestStatusCodes(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"empty title", http.MethodPost, "/tasks", `{"title":""}`, http.StatusBadRequest},
		{"missing title", http.MethodPost, "/tasks", `{"description":"x"}`, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/tasks", `{"title":`, http.StatusBadRequest},
		{"update unknown", http.MethodPut, "/tasks/9999?completed=true", "", http.StatusNotFound},
		{"delete unknown", http.MethodDelete, "/tasks/9999", "", http.StatusNotFound},
		{"get unknown", http.MethodGet, "/tasks/9999", "", http.StatusNotFound},
		{"bad id", http.MethodDelete, "/tasks/abc", "", http.StatusBadRequest},
		{"bad completed", http.MethodPut, "/tasks/1?completed=maybe", "", http.StatusBadRequest},
		{"missing completed", http.MethodPut, "/tasks/1", `{}`, http.StatusBadRequest},
		{"health", http.MethodGet, "/healthz", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, r, tt.method, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/tasks", nil)
	req.Header.Set("Origin", "http://localhost:8501")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow origin = %q, want *", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "content-type" {
		t.Fatalf("allow headers = %q, want content-type", got)
	}

	rec = doRequest(t, r, http.MethodGet, "/tasks", "")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow origin on GET = %q, want *", got)
	}
}

func TestRequestIDHeader(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t)

	rec := doRequest(t, r, http.MethodGet, "/tasks", "")
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("request id = %q, want abc-123", got)
	}
}

type fakeTasks struct {
	err error
}

func (f fakeTasks) ListTasks(context.Context) ([]models.Task, error) { return nil, f.err }
func (f fakeTasks) GetTask(context.Context, int64) (models.Task, error) {
	return models.Task{}, f.err
}
func (f fakeTasks) AddTask(context.Context, models.NewTask) (models.Task, error) {
	return models.Task{}, f.err
}
func (f fakeTasks) SetTaskCompleted(context.Context, int64, bool) (models.Task, error) {
	return models.Task{}, f.err
}
func (f fakeTasks) DeleteTask(context.Context, int64) error { return f.err }
func (f fakeTasks) Ping(context.Context) error               { return f.err }

func TestStorageFailuresMapToServerErrors(t *testing.T) {
	t.Parallel()

	diskErr := errors.New("disk I/O error: /var/lib/tasks.db")
	r := NewRouter(fakeTasks{err: fmt.Errorf("list tasks: %w", diskErr)}, Options{})

	rec := doRequest(t, r, http.MethodGet, "/tasks", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "/var/lib") {
		t.Fatalf("storage cause leaked to caller: %s", rec.Body)
	}

	rec = doRequest(t, r, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("health status = %d, want 503", rec.Code)
	}

	r = NewRouter(fakeTasks{err: context.DeadlineExceeded}, Options{})
	rec = doRequest(t, r, http.MethodDelete, "/tasks/1", "")
	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("timeout status = %d, want 504", rec.Code)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	t.Parallel()

	srv, err := New("127.0.0.1:0", fakeTasks{}, Options{ShutdownTimeout: time.Second})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestTrailingSlashPathsCarryCORS(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t)

	tests := []struct {
		method string
		body   string
		want   int
	}{
		{http.MethodPost, `{"title":"Buy milk","description":"2%"}`, http.StatusCreated},
		{http.MethodGet, "", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, "/tasks/", strings.NewReader(tt.body))
		req.Header.Set("Origin", "http://localhost:8501")
		if tt.body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if rec.Code != tt.want {
			t.Fatalf("%s /tasks/ status = %d, want %d (body %s)", tt.method, rec.Code, tt.want, rec.Body)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Fatalf("%s /tasks/ allow origin = %q, want *", tt.method, got)
		}
	}

	rec := doRequest(t, r, http.MethodGet, "/tasks/", "")
	if tasks := decode[[]models.Task](t, rec); len(tasks) != 1 || tasks[0].Title != "Buy milk" {
		t.Fatalf("tasks = %+v, want the task created through /tasks/", tasks)
	}
}
