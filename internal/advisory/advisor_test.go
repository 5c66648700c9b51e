package advisory

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prasanna12art/skill-boost-automator/internal/config"
	"github.com/prasanna12art/skill-boost-automator/internal/models"
)

func TestParseSteps(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"plain array", `[{"title":"A","instructions":"do a"},{"title":"B","instructions":"do b"}]`, 2, false},
		{"fenced", "```json\n[{\"title\":\"A\",\"instructions\":\"do a\"}]\n```", 1, false},
		{"empty array", `[]`, 0, false},
		{"missing instructions", `[{"title":"A"}]`, 0, true},
		{"not an array", `{"title":"A","instructions":"x"}`, 0, true},
		{"garbage", `Sure! Here are your steps`, 0, true},
		{"blank", "   ", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSteps(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrGeneration) {
					t.Fatalf("expected ErrGeneration, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d steps, want %d", len(got), tt.want)
			}
		})
	}
}

func geminiServer(t *testing.T, status int, text string, inspect func(r *http.Request, body geminiRequest)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(status)
			return
		}
		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if inspect != nil {
			inspect(r, req)
		}
		w.WriteHeader(status)
		if status != http.StatusOK {
			w.Write([]byte(`{"error":{"message":"quota"}}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{"parts": []map[string]any{{"text": text}}},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGeminiGenerateSteps(t *testing.T) {
	steps := `[{"title":"Create cluster","instructions":"Run gcloud container clusters create."},{"title":"Deploy","instructions":"kubectl apply."}]`
	srv := geminiServer(t, http.StatusOK, steps, func(r *http.Request, body geminiRequest) {
		if r.URL.Path != "/v1beta/models/gemini-2.5-flash:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if body.GenerationConfig == nil || body.GenerationConfig.ResponseMimeType != "application/json" {
			t.Errorf("expected JSON response config, got %+v", body.GenerationConfig)
		}
		if !strings.Contains(body.Contents[0].Parts[0].Text, "Deploy a Docker Image") {
			t.Errorf("prompt missing lab title")
		}
	})

	c := NewGeminiClient(srv.URL, "gemini-2.5-flash", "test-key", 5*time.Second)
	got, err := c.GenerateSteps(context.Background(), "Deploy a Docker Image to a Kubernetes Cluster", "Create a GKE cluster")
	if err != nil {
		t.Fatalf("GenerateSteps: %v", err)
	}
	if len(got) != 2 || got[0].Title != "Create cluster" {
		t.Errorf("unexpected steps %+v", got)
	}
}

func TestGeminiFailures(t *testing.T) {
	t.Run("non-200", func(t *testing.T) {
		srv := geminiServer(t, http.StatusTooManyRequests, "", nil)
		c := NewGeminiClient(srv.URL, "gemini-2.5-flash", "k", 5*time.Second)
		if _, err := c.GenerateInsights(context.Background(), nil); !errors.Is(err, ErrGeneration) {
			t.Errorf("expected ErrGeneration, got %v", err)
		}
	})

	t.Run("empty text", func(t *testing.T) {
		srv := geminiServer(t, http.StatusOK, "  ", nil)
		c := NewGeminiClient(srv.URL, "gemini-2.5-flash", "k", 5*time.Second)
		if _, err := c.GenerateInsights(context.Background(), nil); !errors.Is(err, ErrGeneration) {
			t.Errorf("expected ErrGeneration, got %v", err)
		}
	})

	t.Run("malformed steps", func(t *testing.T) {
		srv := geminiServer(t, http.StatusOK, `[{"title":"only a title"}]`, nil)
		c := NewGeminiClient(srv.URL, "gemini-2.5-flash", "k", 5*time.Second)
		if _, err := c.GenerateSteps(context.Background(), "t", "d"); !errors.Is(err, ErrGeneration) {
			t.Errorf("expected ErrGeneration, got %v", err)
		}
	})

	t.Run("missing key", func(t *testing.T) {
		c := NewGeminiClient("http://127.0.0.1:1", "gemini-2.5-flash", "", time.Second)
		if _, err := c.GenerateSteps(context.Background(), "t", "d"); !errors.Is(err, ErrGeneration) {
			t.Errorf("expected ErrGeneration, got %v", err)
		}
		if err := c.HealthCheck(context.Background()); err == nil {
			t.Error("expected health check to fail without a key")
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		c := NewGeminiClient("http://127.0.0.1:1", "gemini-2.5-flash", "k", time.Second)
		if _, err := c.GenerateInsights(context.Background(), nil); !errors.Is(err, ErrGeneration) {
			t.Errorf("expected ErrGeneration, got %v", err)
		}
	})
}

func TestGeminiInsightsPrompt(t *testing.T) {
	srv := geminiServer(t, http.StatusOK, "### Analysis Summary\nGreat work.", func(r *http.Request, body geminiRequest) {
		prompt := body.Contents[0].Parts[0].Text
		for _, want := range []string{"### Recommended Next Step", `"title": "Creating a Virtual Machine"`, `"status": "In Progress"`} {
			if !strings.Contains(prompt, want) {
				t.Errorf("prompt missing %q", want)
			}
		}
		if body.GenerationConfig != nil {
			t.Error("insights should request plain text")
		}
	})

	c := NewGeminiClient(srv.URL, "gemini-2.5-flash", "k", 5*time.Second)
	md, err := c.GenerateInsights(context.Background(), []models.LabSummary{{
		Title:         "Creating a Virtual Machine",
		Status:        models.StatusInProgress,
		Difficulty:    models.DifficultyBeginner,
		GCPServices:   []string{"Compute Engine"},
		EstimatedTime: 45,
	}})
	if err != nil {
		t.Fatalf("GenerateInsights: %v", err)
	}
	if !strings.HasPrefix(md, "### Analysis Summary") {
		t.Errorf("unexpected markdown %q", md)
	}
}

func TestOllamaClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.Write([]byte(`{"models":[]}`))
		case "/api/generate":
			var req ollamaRequest
			json.NewDecoder(r.Body).Decode(&req)
			if req.Stream {
				t.Error("expected stream=false")
			}
			resp := ollamaResponse{Done: true, Response: "## Insights"}
			if req.Format != nil {
				resp.Response = `[{"title":"Open Cloud Shell","instructions":"Click the terminal icon."}]`
			}
			json.NewEncoder(w).Encode(resp)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "qwen2.5:1.5b", 5*time.Second)

	steps, err := c.GenerateSteps(context.Background(), "A Tour", "intro")
	if err != nil {
		t.Fatalf("GenerateSteps: %v", err)
	}
	if len(steps) != 1 || steps[0].Title != "Open Cloud Shell" {
		t.Errorf("unexpected steps %+v", steps)
	}

	md, err := c.GenerateInsights(context.Background(), nil)
	if err != nil || md != "## Insights" {
		t.Errorf("GenerateInsights = %q, %v", md, err)
	}

	if err := c.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck: %v", err)
	}
}

func TestNew(t *testing.T) {
	for _, provider := range []string{"gemini", "ollama"} {
		a, err := New(&config.Config{AdvisorProvider: provider, AdvisorTimeout: time.Second})
		if err != nil {
			t.Fatalf("New(%s): %v", provider, err)
		}
		if !strings.HasPrefix(a.Name(), provider) {
			t.Errorf("New(%s) built %s", provider, a.Name())
		}
	}
	if _, err := New(&config.Config{AdvisorProvider: "openai"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}
