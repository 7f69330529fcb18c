package host

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceFetcher_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.js":
			_, _ = w.Write([]byte("let radius = 50;"))
		case "/binary":
			_, _ = w.Write([]byte{0xff, 0xfe, 0x00})
		case "/big":
			_, _ = w.Write(make([]byte, 64))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewFetcher(FetchConfig{MaxBytes: 32})
	ctx := context.Background()

	text, err := f.Fetch(ctx, srv.URL+"/ok.js")
	require.NoError(t, err)
	assert.Equal(t, "let radius = 50;", text)

	_, err = f.Fetch(ctx, srv.URL+"/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	_, err = f.Fetch(ctx, srv.URL+"/binary")
	require.ErrorIs(t, err, ErrNotText)

	_, err = f.Fetch(ctx, srv.URL+"/big")
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestResourceFetcher_Bank(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "fields"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fields", "flow.js"), []byte("let speed = 2;"), 0o644))

	f := NewFetcher(FetchConfig{BankDir: dir})
	ctx := context.Background()

	for _, ref := range []string{"fields/flow.js", "./fields/flow.js", "fields/../fields/flow.js"} {
		text, err := f.Fetch(ctx, ref)
		require.NoError(t, err, ref)
		assert.Equal(t, "let speed = 2;", text)
	}

	for _, ref := range []string{"../secret.js", "/etc/passwd", "fields/../../x.js"} {
		_, err := f.Fetch(ctx, ref)
		require.ErrorIs(t, err, ErrOutsideBank, ref)
	}

	_, err := f.Fetch(ctx, "nope.js")
	require.Error(t, err)
}

func TestResourceFetcher_NoBank(t *testing.T) {
	_, err := NewFetcher(FetchConfig{}).Fetch(context.Background(), "a.js")
	require.Error(t, err)
}
