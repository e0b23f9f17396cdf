// Package server - Haupt-Router und Server-Setup fuer vaemesh
// Beinhaltet: Server-Struct, Generator-Interface, Router-Registrierung
package server

import (
	"context"
	"io"
	"net"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/7blacky7/vaemesh/api"
	"github.com/7blacky7/vaemesh/envconfig"
	"github.com/7blacky7/vaemesh/inference"
	"github.com/7blacky7/vaemesh/version"
	"github.com/7blacky7/vaemesh/voxel"
)

var mode string = gin.DebugMode

// Generator erzeugt aus einem Bild eine Mesh-Datei, siehe inference.Generator
type Generator interface {
	Generate(ctx context.Context, r io.Reader, format voxel.Format) (*inference.Result, error)
	Info() inference.Info
}

// Server verwaltet den HTTP-Server und den injizierten Generator
type Server struct {
	addr net.Addr
	gen  Generator

	staticDir  string
	keepOutput bool
	maxUpload  int64
}

// NewServer liest Verzeichnisse und Limits aus envconfig
func NewServer(gen Generator) *Server {
	return &Server{
		gen:        gen,
		staticDir:  envconfig.StaticDir(),
		keepOutput: envconfig.KeepOutput(),
		maxUpload:  int64(envconfig.MaxUploadSize()),
	}
}

func init() {
	switch mode {
	case gin.DebugMode:
	case gin.ReleaseMode:
	case gin.TestMode:
	default:
		mode = gin.DebugMode
	}

	gin.SetMode(mode)
}

// GenerateRoutes erstellt und konfiguriert den HTTP-Router
func (s *Server) GenerateRoutes() http.Handler {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowWildcard = true
	corsConfig.AllowBrowserExtensions = true
	corsConfig.AllowHeaders = []string{
		"Authorization",
		"Content-Type",
		"User-Agent",
		"Accept",
		"X-Requested-With",
	}
	corsConfig.ExposeHeaders = []string{"Content-Disposition"}
	corsConfig.AllowOrigins = envconfig.AllowedOrigins()

	r := gin.Default()
	r.HandleMethodNotAllowed = true
	if s.maxUpload > 0 {
		r.MaxMultipartMemory = s.maxUpload
	}
	r.Use(
		cors.New(corsConfig),
		allowedHostsMiddleware(s.addr),
	)

	// General
	r.HEAD("/api/version", s.VersionHandler)
	r.GET("/api/version", s.VersionHandler)
	r.GET("/api/info", s.InfoHandler)

	// Inference
	r.POST("/api/generate", s.GenerateHandler)

	// Frontend
	r.NoRoute(s.StaticHandler)

	return r
}

// VersionHandler liefert die Server-Version
func (s *Server) VersionHandler(c *gin.Context) {
	c.JSON(http.StatusOK, api.VersionResponse{Version: version.Version})
}

// InfoHandler beschreibt das geladene Modell
func (s *Server) InfoHandler(c *gin.Context) {
	info := s.gen.Info()
	c.JSON(http.StatusOK, api.InfoResponse{
		ModelPath:  info.ModelPath,
		Format:     info.Format,
		Parameters: info.Params,
		ImageSize:  info.ImageSize,
		LatentDim:  info.LatentDim,
		GridSize:   info.GridSize,
		Threshold:  info.Threshold,
		Version:    version.Version,
	})
}
