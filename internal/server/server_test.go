package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/usagelens/usagelens/internal/config"
	"github.com/usagelens/usagelens/internal/store"
	"github.com/usagelens/usagelens/internal/tools"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "usage.db"))
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.InsertEvents([]store.UsageEvent{
		{User: "alice", ApplicationName: "editor",
			LogDate: "2025-08-01", Platform: "windows",
			DurationSeconds: 3600},
		{User: "bob", ApplicationName: "editor",
			LogDate: "2025-08-02", Platform: "macos",
			DurationSeconds: 1800},
	}); err != nil {
		t.Fatalf("seeding events: %v", err)
	}
	if _, err := db.UpsertCatalog([]store.CatalogEntry{
		{AppName: "editor", Publisher: "Acme"},
	}); err != nil {
		t.Fatalf("seeding catalog: %v", err)
	}

	cfg := config.Config{WriteTimeout: 5 * time.Second}
	return New(cfg, db, tools.NewRegistry(),
		WithVersion(VersionInfo{Version: "test"}))
}

func doJSON(
	t *testing.T, s *Server, method, path string, body any,
) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestListTools(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, http.MethodGet, "/api/v1/tools", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	got := decodeBody(t, w)
	list, ok := got["tools"].([]any)
	if !ok || len(list) < 40 {
		t.Fatalf("tools list missing or short: %v", got["tools"])
	}
	first, _ := list[0].(map[string]any)
	if first["name"] == "" || first["description"] == "" {
		t.Errorf("tool entry incomplete: %v", first)
	}
}

func TestInvokeSuccess(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, http.MethodPost, "/api/v1/invoke", map[string]any{
		"tool": "usage_time_stats",
		"arguments": map[string]any{
			"start_date": "2025-08-01",
			"end_date":   "2025-08-31",
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	got := decodeBody(t, w)
	if got["tool"] != "usage_time_stats" {
		t.Errorf("tool = %v", got["tool"])
	}
	data, ok := got["data"].([]any)
	if !ok || len(data) != 1 {
		t.Fatalf("data = %v", got["data"])
	}
	row, _ := data[0].(map[string]any)
	if row["application_name"] != "editor" {
		t.Errorf("row = %v", row)
	}
	if _, present := got["query_time_ms"]; !present {
		t.Error("missing query_time_ms")
	}
}

func TestInvokeNamedPath(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, http.MethodPost,
		"/api/v1/tools/total_usage_period", map[string]any{
			"start_date": "2025-08-01", "end_date": "2025-08-31",
		})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	got := decodeBody(t, w)
	if got["tool"] != "total_usage_period" {
		t.Errorf("tool = %v", got["tool"])
	}
}

func TestInvokeNamedEmptyBody(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(
		http.MethodPost, "/api/v1/tools/platform_usage_stats", nil,
	)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestInvokeErrorStatuses(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name       string
		tool       string
		args       map[string]any
		wantStatus int
		wantError  string
	}{
		{
			name: "unknown parameter",
			tool: "usage_time_stats",
			args: map[string]any{"bogus": true},
			wantStatus: http.StatusBadRequest,
			wantError:  "InvalidParameter",
		},
		{
			name: "inverted range",
			tool: "usage_time_stats",
			args: map[string]any{
				"start_date": "2025-08-31", "end_date": "2025-08-01",
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "InvalidDateRange",
		},
		{
			name:       "empty dataset",
			tool:       "user_last_active",
			args:       map[string]any{"user": "nobody"},
			wantStatus: http.StatusNotFound,
			wantError:  "EmptyDataset",
		},
		{
			name:       "unknown tool",
			tool:       "no_such_tool",
			args:       map[string]any{},
			wantStatus: http.StatusBadRequest,
			wantError:  "InvalidParameter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, s, http.MethodPost, "/api/v1/invoke",
				map[string]any{"tool": tt.tool, "arguments": tt.args})
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)",
					w.Code, tt.wantStatus, w.Body.String())
			}
			got := decodeBody(t, w)
			if got["error"] != tt.wantError {
				t.Errorf("error = %v, want %s", got["error"], tt.wantError)
			}
			if got["tool"] != tt.tool {
				t.Errorf("tool = %v, want %s", got["tool"], tt.tool)
			}
		})
	}
}

func TestInvokeMalformedBody(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(
		http.MethodPost, "/api/v1/invoke",
		bytes.NewBufferString("{not json"),
	)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestGetStats(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, http.MethodGet, "/api/v1/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	got := decodeBody(t, w)
	if got["events"] != float64(2) {
		t.Errorf("events = %v, want 2", got["events"])
	}
	if got["catalog_entries"] != float64(1) {
		t.Errorf("catalog_entries = %v, want 1", got["catalog_entries"])
	}
}

func TestGetVersion(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, http.MethodGet, "/api/v1/version", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	got := decodeBody(t, w)
	if got["version"] != "test" {
		t.Errorf("version = %v", got["version"])
	}
}

func TestTimeoutProducesJSON503(t *testing.T) {
	s := newTestServer(t)
	s.cfg.WriteTimeout = 10 * time.Millisecond
	s.handlerDelay = 100 * time.Millisecond
	s.mux = http.NewServeMux()
	s.routes()

	w := doJSON(t, s, http.MethodGet, "/api/v1/stats", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	got := decodeBody(t, w)
	if got["error"] != "request timed out" {
		t.Errorf("body = %v", got)
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	s := newTestServer(t)
	s.cfg.Host = "127.0.0.1"
	s.cfg.Port = FindAvailablePort("127.0.0.1", 18080)

	errCh := make(chan error, 1)
	go func() { errCh <- s.ListenAndServe() }()

	url := fmt.Sprintf("http://127.0.0.1:%d/api/v1/version", s.cfg.Port)
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("version status = %d", resp.StatusCode)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never came up: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		t.Errorf("ListenAndServe returned %v, want ErrServerClosed", err)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/tools", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}
