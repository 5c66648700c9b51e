package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/prasanna12art/skill-boost-automator/internal/advisory"
	"github.com/prasanna12art/skill-boost-automator/internal/companion"
	"github.com/prasanna12art/skill-boost-automator/internal/copilot"
	"github.com/prasanna12art/skill-boost-automator/internal/labs"
	"github.com/prasanna12art/skill-boost-automator/internal/models"
	"github.com/prasanna12art/skill-boost-automator/internal/store"
)

type stubAdvisor struct {
	steps     []models.StepSuggestion
	stepsErr  error
	healthErr error
}

func (a *stubAdvisor) Name() string { return "stub" }

func (a *stubAdvisor) GenerateSteps(context.Context, string, string) ([]models.StepSuggestion, error) {
	return a.steps, a.stepsErr
}

func (a *stubAdvisor) GenerateInsights(context.Context, []models.LabSummary) (string, error) {
	return "### Analysis Summary\nKeep going.", nil
}

func (a *stubAdvisor) HealthCheck(context.Context) error { return a.healthErr }

type idleScheduler struct{}

type idleTask struct{}

func (idleTask) Cancel() bool { return true }

func (idleScheduler) Schedule(time.Duration, func()) copilot.Task { return idleTask{} }

type testServer struct {
	*httptest.Server
	labs *labs.Store
}

func newTestServer(t *testing.T, adv *stubAdvisor, apiKey string) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := store.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	kv := store.NewKVStore(db)

	st, err := labs.NewStore(kv, labs.DefaultSeed(), logger)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	eng := copilot.NewEngine(st, idleScheduler{}, copilot.DefaultOptions(), logger)
	ctrl := companion.New(st, eng, adv, kv, logger)
	t.Cleanup(ctrl.Close)

	srv := httptest.NewServer(NewRouter(ctrl, st, kv, adv, apiKey, logger))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, labs: st}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.URL+path, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestListLabs(t *testing.T) {
	s := newTestServer(t, &stubAdvisor{}, "")

	tests := []struct {
		name   string
		query  string
		status int
		want   []string
	}{
		{"all", "", http.StatusOK, []string{"1", "2", "3", "4"}},
		{"search", "?q=CLOUD", http.StatusOK, []string{"1", "4"}},
		{"status filter", "?status=Not%20Started", http.StatusOK, []string{"3", "4"}},
		{"difficulty and sort", "?difficulty=Beginner&sort=estimatedTime", http.StatusOK, []string{"1", "2"}},
		{"sort by time", "?sort=estimatedTime", http.StatusOK, []string{"1", "2", "4", "3"}},
		{"bad sort", "?sort=stars", http.StatusBadRequest, nil},
		{"bad status", "?status=Finished", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.do(t, http.MethodGet, "/labs"+tt.query, nil)
			if resp.StatusCode != tt.status {
				t.Fatalf("status %d, want %d", resp.StatusCode, tt.status)
			}
			if tt.want == nil {
				return
			}
			got := decode[models.ListLabsResponse](t, resp)
			if got.Total != 4 {
				t.Errorf("total %d, want 4", got.Total)
			}
			var ids []string
			for _, l := range got.Labs {
				ids = append(ids, l.ID)
			}
			if strings.Join(ids, ",") != strings.Join(tt.want, ",") {
				t.Errorf("got %v, want %v", ids, tt.want)
			}
		})
	}
}

func TestGetAndUpdateLab(t *testing.T) {
	s := newTestServer(t, &stubAdvisor{}, "")

	if resp := s.do(t, http.MethodGet, "/labs/missing", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing lab: status %d", resp.StatusCode)
	}

	resp := s.do(t, http.MethodPatch, "/labs/3", map[string]any{"status": "In Progress", "notes": "cluster up"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch: status %d", resp.StatusCode)
	}
	lab := decode[models.Lab](t, resp)
	if lab.Status != models.StatusInProgress || lab.Notes != "cluster up" {
		t.Errorf("unexpected lab %+v", lab)
	}

	if resp := s.do(t, http.MethodPatch, "/labs/3", map[string]any{"status": "Done"}); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid status: got %d", resp.StatusCode)
	}
	if resp := s.do(t, http.MethodPatch, "/labs/3", map[string]any{"title": "renamed"}); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown field: got %d", resp.StatusCode)
	}
}

func TestCopilotRoutes(t *testing.T) {
	s := newTestServer(t, &stubAdvisor{}, "")

	resp := s.do(t, http.MethodPost, "/labs/2/copilot/run", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("run: status %d", resp.StatusCode)
	}
	if lab := decode[models.Lab](t, resp); lab.CopilotSession.Status != models.CopilotRunning {
		t.Errorf("expected Running, got %s", lab.CopilotSession.Status)
	}

	resp = s.do(t, http.MethodPost, "/labs/2/copilot/pause", nil)
	if lab := decode[models.Lab](t, resp); lab.CopilotSession.Status != models.CopilotPaused {
		t.Errorf("expected Paused, got %s", lab.CopilotSession.Status)
	}

	if resp := s.do(t, http.MethodPost, "/labs/1/copilot/run", nil); resp.StatusCode != http.StatusConflict {
		t.Errorf("run on completed: status %d, want 409", resp.StatusCode)
	}
	if resp := s.do(t, http.MethodPost, "/labs/9/copilot/reset", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("reset unknown: status %d, want 404", resp.StatusCode)
	}

	resp = s.do(t, http.MethodPost, "/labs/1/copilot/reset", nil)
	if lab := decode[models.Lab](t, resp); lab.CopilotSession.Status != models.CopilotIdle || lab.CompletedSteps() != 0 {
		t.Errorf("unexpected reset result %+v", lab.CopilotSession)
	}
}

func TestStepRoutes(t *testing.T) {
	adv := &stubAdvisor{steps: []models.StepSuggestion{
		{Title: "Enable Cloud Run API", Instructions: "gcloud services enable run.googleapis.com"},
		{Title: "Deploy", Instructions: "gcloud run deploy"},
	}}
	s := newTestServer(t, adv, "")

	resp := s.do(t, http.MethodPost, "/labs/4/steps/generate", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate: status %d", resp.StatusCode)
	}
	lab := decode[models.Lab](t, resp)
	if len(lab.Steps) != 2 || lab.Steps[1].ID != "4-2" {
		t.Fatalf("unexpected steps %+v", lab.Steps)
	}

	resp = s.do(t, http.MethodPost, "/labs/4/steps/4-1/toggle", nil)
	if lab := decode[models.Lab](t, resp); !lab.Steps[0].IsCompleted {
		t.Error("expected step 4-1 completed")
	}
	if resp := s.do(t, http.MethodPost, "/labs/4/steps/4-7/toggle", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown step: status %d", resp.StatusCode)
	}

	adv.stepsErr = advisory.ErrGeneration
	if resp := s.do(t, http.MethodPost, "/labs/3/steps/generate", nil); resp.StatusCode != http.StatusBadGateway {
		t.Errorf("failed generation: status %d, want 502", resp.StatusCode)
	}
}

func TestSelectionAndTheme(t *testing.T) {
	s := newTestServer(t, &stubAdvisor{}, "")

	if resp := s.do(t, http.MethodGet, "/selection", nil); resp.StatusCode != http.StatusNoContent {
		t.Errorf("empty selection: status %d", resp.StatusCode)
	}
	resp := s.do(t, http.MethodPut, "/selection", map[string]any{"labId": "2"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("select: status %d", resp.StatusCode)
	}
	if lab := decode[models.Lab](t, s.do(t, http.MethodGet, "/selection", nil)); lab.ID != "2" {
		t.Errorf("selected %s, want 2", lab.ID)
	}
	if resp := s.do(t, http.MethodPut, "/selection", map[string]any{"labId": nil}); resp.StatusCode != http.StatusNoContent {
		t.Errorf("clear selection: status %d", resp.StatusCode)
	}

	if th := decode[models.ThemeResponse](t, s.do(t, http.MethodGet, "/preferences/theme", nil)); th.Theme != models.ThemeLight {
		t.Errorf("default theme %s", th.Theme)
	}
	if resp := s.do(t, http.MethodPut, "/preferences/theme", map[string]any{"theme": "dark"}); resp.StatusCode != http.StatusOK {
		t.Errorf("set theme: status %d", resp.StatusCode)
	}
	if resp := s.do(t, http.MethodPut, "/preferences/theme", map[string]any{"theme": "neon"}); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid theme: status %d", resp.StatusCode)
	}
	if th := decode[models.ThemeResponse](t, s.do(t, http.MethodPost, "/preferences/theme/toggle", nil)); th.Theme != models.ThemeLight {
		t.Errorf("toggled theme %s, want light", th.Theme)
	}
}

func TestInsightsRoute(t *testing.T) {
	s := newTestServer(t, &stubAdvisor{}, "")

	deadline := time.Now().Add(2 * time.Second)
	for {
		got := decode[models.InsightsResponse](t, s.do(t, http.MethodGet, "/insights", nil))
		if got.Status == models.InsightLoaded {
			if !strings.Contains(got.Markdown, "Analysis Summary") {
				t.Errorf("unexpected markdown %q", got.Markdown)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("insights still %s", got.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestAuthAndHealth(t *testing.T) {
	s := newTestServer(t, &stubAdvisor{healthErr: errors.New("no key")}, "secret")

	resp := s.do(t, http.MethodGet, "/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health should not require auth, got %d", resp.StatusCode)
	}
	health := decode[models.HealthResponse](t, resp)
	if health.Status != "degraded" || health.LabCount != 4 || health.Store.Status != "ok" {
		t.Errorf("unexpected health %+v", health)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}

	if resp := s.do(t, http.MethodGet, "/labs", nil); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, s.URL+"/labs", nil)
	req.Header.Set("Authorization", "Bearer secret")
	authed, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer authed.Body.Close()
	if authed.StatusCode != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", authed.StatusCode)
	}
}

func TestStream(t *testing.T) {
	s := newTestServer(t, &stubAdvisor{}, "")

	url := "ws" + strings.TrimPrefix(s.URL, "http") + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	for i := 0; i < 4; i++ {
		var ev models.StreamEvent
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("read snapshot %d: %v", i, err)
		}
		if ev.Type != "snapshot" || ev.Lab == nil {
			t.Fatalf("unexpected event %+v", ev)
		}
	}

	s.do(t, http.MethodPost, "/labs/2/steps/2-3/toggle", nil)

	var ev models.StreamEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read update: %v", err)
	}
	if ev.Type != "lab" || ev.Lab.ID != "2" || !ev.Lab.Steps[2].IsCompleted {
		t.Errorf("unexpected update %+v", ev)
	}
}
