//go:build !dev

package resources

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandler_ServesEmbeddedAssets(t *testing.T) {
	h := Handler()

	for _, name := range []string{"artifice.js", "artifice.css"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, StaticPath(name), nil))
		assert.Equal(t, http.StatusOK, rec.Code, name)
		assert.NotEmpty(t, rec.Body.String(), name)
		assert.Contains(t, rec.Header().Get("Cache-Control"), "max-age")
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/missing.js", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBridgeScript_RelaysSketchUpdates(t *testing.T) {
	data, err := staticFS.ReadFile("static/artifice.js")
	assert.NoError(t, err)
	script := string(data)
	assert.Contains(t, script, `"/api/artifice/params"`)
	assert.Contains(t, script, `msg.type !== "sketchUpdate"`)
	assert.Contains(t, script, "window.artifice = { post, exportFlagged }")
}
