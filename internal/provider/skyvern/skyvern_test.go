package skyvern

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pbartkiw/aviary/internal/config"
	"github.com/pbartkiw/aviary/internal/provider"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(config.SkyvernConfig{
		APIKey:       "sk-test",
		BaseURL:      server.URL,
		PollInterval: 10 * time.Millisecond,
		MaxRunTime:   2 * time.Second,
	}, config.NewDefaultConfig().Network, zaptest.NewLogger(t))
	require.NoError(t, err)
	return client
}

func TestNew_MissingKey(t *testing.T) {
	_, err := New(config.SkyvernConfig{}, config.NewDefaultConfig().Network, nil)

	var cfgErr *provider.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, Name, cfgErr.Provider)
	assert.Equal(t, []string{"SKYVERN_API_KEY"}, cfgErr.Missing)
}

func TestRunTask_PollsUntilCompleted(t *testing.T) {
	var polls atomic.Int32
	var gotCreateBody map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/run/tasks", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sk-test", r.Header.Get("x-api-key"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotCreateBody))
		_, _ = w.Write([]byte(`{"run_id":"r1","status":"queued"}`))
	})
	mux.HandleFunc("GET /v1/runs/r1", func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) < 3 {
			_, _ = w.Write([]byte(`{"run_id":"r1","status":"running"}`))
			return
		}
		_, _ = w.Write([]byte(`{"run_id":"r1","status":"completed","output":{"heading":"Example Domain"}}`))
	})

	client := newTestClient(t, mux)
	result, err := client.RunTask(context.Background(), TaskRequest{
		URL:      "https://example.com",
		Prompt:   "Find and extract the main heading",
		MaxSteps: 5,
	})

	require.NoError(t, err)
	assert.True(t, result.Succeeded())
	assert.Equal(t, "r1", result.RunID)
	assert.GreaterOrEqual(t, polls.Load(), int32(3))

	assert.Equal(t, "Find and extract the main heading", gotCreateBody["prompt"])
	assert.Equal(t, "https://example.com", gotCreateBody["url"])
	assert.Equal(t, float64(5), gotCreateBody["max_steps"])
}

func TestRunTask_FailedRunIsNotAnError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/run/tasks", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"run_id":"r2","status":"failed","failure_reason":"target page unreachable"}`))
	})

	client := newTestClient(t, mux)
	result, err := client.RunTask(context.Background(), TaskRequest{Prompt: "do the thing"})

	require.NoError(t, err)
	assert.False(t, result.Succeeded())
	assert.Equal(t, "failed", result.Status)
	assert.Equal(t, "target page unreachable", result.Failure)
}

func TestRunTask_RequiresPrompt(t *testing.T) {
	client := newTestClient(t, http.NewServeMux())

	_, err := client.RunTask(context.Background(), TaskRequest{URL: "https://example.com"})
	assert.ErrorContains(t, err, "prompt")
}

func TestRunTask_GivesUpAfterMaxRunTime(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/run/tasks", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"run_id":"r3","status":"queued"}`))
	})
	mux.HandleFunc("GET /v1/runs/r3", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"run_id":"r3","status":"running"}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	client, err := New(config.SkyvernConfig{
		APIKey:       "sk-test",
		BaseURL:      server.URL,
		PollInterval: 5 * time.Millisecond,
		MaxRunTime:   50 * time.Millisecond,
	}, config.NewDefaultConfig().Network, zaptest.NewLogger(t))
	require.NoError(t, err)

	_, err = client.RunTask(context.Background(), TaskRequest{Prompt: "never finishes"})
	assert.ErrorContains(t, err, "still")
}

func TestAutomateWorkflow_SequencesSteps(t *testing.T) {
	var gotPrompt string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/run/tasks", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &body))
		gotPrompt, _ = body["prompt"].(string)
		_, _ = w.Write([]byte(`{"run_id":"r4","status":"completed"}`))
	})

	client := newTestClient(t, mux)
	_, err := client.AutomateWorkflow(context.Background(), "https://example.com", []string{
		"Open the login form",
		"Fill in the credentials",
		"Submit the form",
	})

	require.NoError(t, err)
	assert.Equal(t, "Open the login form Then, Fill in the credentials Then, Submit the form", gotPrompt)
}

func TestAutomateWorkflow_RequiresSteps(t *testing.T) {
	client := newTestClient(t, http.NewServeMux())

	_, err := client.AutomateWorkflow(context.Background(), "https://example.com", nil)
	assert.ErrorContains(t, err, "at least one step")
}

func TestScrapeWithSchema_BuildsObjectSchema(t *testing.T) {
	var gotBody map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/run/tasks", func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &gotBody))
		_, _ = w.Write([]byte(`{"run_id":"r5","status":"completed","output":{"title":"Example","price":9.99}}`))
	})

	client := newTestClient(t, mux)
	result, err := client.ScrapeWithSchema(context.Background(), "https://example.com", map[string]string{
		"title": "string",
		"price": "number",
	})

	require.NoError(t, err)
	assert.True(t, result.Succeeded())

	prompt, _ := gotBody["prompt"].(string)
	assert.Contains(t, prompt, "title")
	assert.Contains(t, prompt, "price")

	schema, ok := gotBody["data_extraction_schema"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "object", schema["type"])
	properties, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"type": "string"}, properties["title"])
	assert.Equal(t, map[string]any{"type": "number"}, properties["price"])
}
