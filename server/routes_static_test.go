package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestStaticHandler(t *testing.T) {
	root := t.TempDir()
	static := filepath.Join(root, "static")
	writeFile(t, filepath.Join(static, "index.html"), "<html>index</html>")
	writeFile(t, filepath.Join(static, "assets", "app.js"), "console.log(1)")
	writeFile(t, filepath.Join(root, "secret.txt"), "secret")

	s := &Server{gen: failingGenerator{}, staticDir: static}
	h := s.GenerateRoutes()

	cases := []struct {
		path   string
		status int
		body   string
	}{
		{"/", http.StatusOK, "<html>index</html>"},
		{"/assets/app.js", http.StatusOK, "console.log(1)"},
		{"/models/chair", http.StatusOK, "<html>index</html>"},
		{"/assets", http.StatusOK, "<html>index</html>"},
		{"/../secret.txt", http.StatusOK, "<html>index</html>"},
		{"/api/unknown", http.StatusNotFound, `{"error":"not found"}`},
	}

	for _, tt := range cases {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.URL.Path = tt.path

			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.body, w.Body.String())
		})
	}
}

func TestStaticHandlerNoIndex(t *testing.T) {
	s := &Server{gen: failingGenerator{}, staticDir: filepath.Join(t.TempDir(), "missing")}
	h := s.GenerateRoutes()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/anything", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
