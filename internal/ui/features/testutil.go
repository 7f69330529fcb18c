// Package features provides shared test utilities for UI feature tests.
package features

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"

	"github.com/veetance/artifice/internal/bank"
	"github.com/veetance/artifice/internal/cortex"
	"github.com/veetance/artifice/internal/curation"
	"github.com/veetance/artifice/internal/host"
	"github.com/veetance/artifice/internal/state"
	"github.com/veetance/artifice/internal/testutil"
)

// TestFixture holds all dependencies needed for UI handler tests.
type TestFixture struct {
	Registry     *curation.Registry
	Store        *state.SQLiteStore
	SessionStore *sessions.CookieStore
	BankDir      string
}

// SetupTestFixture writes sketches into a temporary bank and builds a
// registry over it backed by an in-memory store.
func SetupTestFixture(t *testing.T, sketches map[string]string) *TestFixture {
	t.Helper()
	return SetupTestFixtureWithLogger(t, sketches, testutil.NewTestLogger(t))
}

// SetupTestFixtureWithLogger is SetupTestFixture with a caller-supplied logger.
func SetupTestFixtureWithLogger(t *testing.T, sketches map[string]string, logger *slog.Logger) *TestFixture {
	t.Helper()

	bankDir := t.TempDir()

	for name, content := range sketches {
		path := filepath.Join(bankDir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	}

	store := state.NewSQLiteStore(logger)
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.InitSchema())
	t.Cleanup(func() {
		_ = store.Close()
	})

	registry := curation.NewRegistry(curation.Config{
		Sources:  func() ([]string, error) { return bank.ScanDir(bankDir) },
		Analyzer: cortex.New(cortex.WithValidation(false)),
		Fetcher:  host.NewFetcher(host.FetchConfig{BankDir: bankDir}),
		Store:    store,
		Logger:   logger,
	})

	return &TestFixture{
		Registry:     registry,
		Store:        store,
		SessionStore: NewTestSessionStore(),
		BankDir:      bankDir,
	}
}

// RequestWithPathParam wraps a request with chi URL params.
func RequestWithPathParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// RequestWithTimeout wraps a request with a context timeout.
func RequestWithTimeout(t *testing.T, r *http.Request, timeout time.Duration) *http.Request {
	t.Helper()
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	t.Cleanup(cancel)
	return r.WithContext(ctx)
}

// WithCookies copies the cookies set by a previous response onto r.
func WithCookies(r *http.Request, resp *http.Response) *http.Request {
	for _, c := range resp.Cookies() {
		r.AddCookie(c)
	}
	return r
}

// NewTestSessionStore creates a session store for testing.
func NewTestSessionStore() *sessions.CookieStore {
	return sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!"))
}
