// Package server - Handler fuer POST /api/generate
// Beinhaltet: GenerateHandler
package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/7blacky7/vaemesh/inference"
	"github.com/7blacky7/vaemesh/voxel"
)

// GenerateHandler nimmt ein Bild im Multipart-Feld "image" entgegen und
// liefert das erzeugte Mesh als Datei-Anhang.
func (s *Server) GenerateHandler(c *gin.Context) {
	fh, err := c.FormFile("image")
	if err != nil {
		slog.Debug("generate without image", "error", err)
		abortWithError(c, http.StatusBadRequest, ErrNoImage.Error())
		return
	}

	format, err := voxel.ParseFormat(c.PostForm("format"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	f, err := fh.Open()
	if err != nil {
		generationError(c, err)
		return
	}
	defer f.Close()

	res, err := s.gen.Generate(c.Request.Context(), f, format)
	if err != nil {
		generationError(c, err)
		return
	}

	if !s.keepOutput {
		defer func() {
			if err := res.Remove(); err != nil {
				slog.Warn("failed to remove output", "path", res.Path, "error", err)
			}
		}()
	}

	c.Header("Content-Type", format.ContentType())
	c.FileAttachment(res.Path, "generated_model."+format.Ext())
	res.Job.Advance(inference.StageServed)

	slog.Info("mesh served", "job", res.Job.ID, "image", fh.Filename, "format", format, "vertices", res.Vertices, "faces", res.Faces)
}
