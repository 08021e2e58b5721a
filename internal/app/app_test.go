package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anyumarket/internal/config"
	"anyumarket/internal/infrastructure"
)

func testRuntime(t *testing.T) *Runtime {
	t.Helper()
	infrastructure.ResetLoggerForTesting()

	cfg := config.Default()
	cfg.Paths.RootDir = t.TempDir()
	cfg.Logging.Output = "console"
	cfg.Logging.Level = "error"
	cfg.Server.Port = 0
	cfg.Schedule.Enabled = false
	cfg.Search.FixtureFile = ""

	rt, err := Bootstrap(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = rt.Close(context.Background())
		infrastructure.ResetLoggerForTesting()
	})
	return rt
}

func TestBootstrap(t *testing.T) {
	rt := testRuntime(t)

	assert.DirExists(t, rt.Paths.DataDir)
	assert.DirExists(t, rt.Paths.LogsDir)
	assert.NotNil(t, rt.Ledger)
	assert.NotNil(t, rt.Catalog)

	c, err := rt.NewCollector()
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestNewSearcher(t *testing.T) {
	_, err := NewSearcher(config.SearchConfig{})
	assert.Error(t, err)

	s, err := NewSearcher(config.SearchConfig{Command: "search-cli"})
	require.NoError(t, err)
	assert.NotNil(t, s)

	_, err = NewSearcher(config.SearchConfig{FixtureFile: "does-not-exist.json"})
	assert.Error(t, err)
}

func TestApplication_Routes(t *testing.T) {
	rt := testRuntime(t)
	a, err := NewApplication(rt)
	require.NoError(t, err)

	require.NoError(t, a.ReportJob(context.Background()))

	tests := []struct {
		name         string
		path         string
		expectedCode int
	}{
		{"health", "/health", http.StatusOK},
		{"documents", "/api/documents", http.StatusOK},
		{"catalog", "/api/catalog", http.StatusOK},
		{"metrics", "/metrics", http.StatusOK},
		{"traversal", "/download/..%2Fmarket_history.json", http.StatusForbidden},
		{"wrong extension", "/download/market_history.json", http.StatusForbidden},
		{"missing report", "/download/本周行情数据_2000-01-03至2000-01-09.xlsx", http.StatusNotFound},
		{"unknown route", "/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.expectedCode, rec.Code, rec.Body.String())
		})
	}

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	var body struct {
		Documents []struct {
			Name        string `json:"name"`
			DownloadURL string `json:"download_url"`
		} `json:"documents"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Documents, 2)

	for _, doc := range body.Documents {
		rec := httptest.NewRecorder()
		a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, doc.DownloadURL, nil))
		assert.Equal(t, http.StatusOK, rec.Code, doc.Name)
	}
}

func TestApplication_RunStopsOnCancel(t *testing.T) {
	rt := testRuntime(t)
	a, err := NewApplication(rt)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("application did not stop")
	}
}
