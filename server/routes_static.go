// routes_static.go - Auslieferung des Web-Frontends
// Enthaelt: StaticHandler mit index.html Fallback fuer Client-Routing

package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// StaticHandler liefert Dateien aus dem Static-Verzeichnis. Unbekannte
// Pfade bekommen index.html, /api/... bekommt 404.
func (s *Server) StaticHandler(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		abortWithError(c, http.StatusNotFound, ErrNotFound.Error())
		return
	}

	// Clean auf absolutem Pfad kann das Wurzelverzeichnis nicht verlassen
	rel := path.Clean("/" + c.Request.URL.Path)
	if rel == "/api" || strings.HasPrefix(rel, "/api/") {
		abortWithError(c, http.StatusNotFound, ErrNotFound.Error())
		return
	}

	if rel != "/" {
		file := filepath.Join(s.staticDir, filepath.FromSlash(rel))
		if serveFile(c, file) {
			return
		}
	}

	if !serveFile(c, filepath.Join(s.staticDir, "index.html")) {
		abortWithError(c, http.StatusNotFound, ErrNotFound.Error())
	}
}

// serveFile liefert eine regulaere Datei aus. http.ServeFile scheidet aus,
// weil es Anfragen mit ".." im Pfad ablehnt statt sie aufzuloesen.
func serveFile(c *gin.Context, name string) bool {
	f, err := os.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil || fi.IsDir() {
		return false
	}

	http.ServeContent(c.Writer, c.Request, fi.Name(), fi.ModTime(), f)
	return true
}
