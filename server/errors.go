// MODUL: errors
// ZWECK: Fehler-Definitionen und einheitliche JSON-Fehlerantworten
// INPUT: Fehler, gin.Context, Status-Code
// OUTPUT: {"error": "..."} Responses
// NEBENEFFEKTE: HTTP-Responses schreiben, Logging
// ABHAENGIGKEITEN: gin, api (intern), inference (intern)
// HINWEISE: Jeder Fehler ausser fehlendem Bild und ungueltigem Format ist 500

package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/7blacky7/vaemesh/api"
	"github.com/7blacky7/vaemesh/inference"
	"github.com/7blacky7/vaemesh/voxel"
)

// ============================================================================
// Fehler-Definitionen
// ============================================================================

var (
	// ErrNoImage wenn das Multipart-Feld "image" fehlt
	ErrNoImage = errors.New("No image uploaded")

	// ErrNotFound fuer unbekannte API-Pfade
	ErrNotFound = errors.New("not found")
)

// generationErrorPrefix steht vor jeder Fehlermeldung der Generierung
const generationErrorPrefix = "An error occurred during 3D model generation: "

// ============================================================================
// Response Helper
// ============================================================================

// abortWithError schreibt den Fehler-Umschlag und bricht die Kette ab
func abortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, api.ErrorResponse{Error: msg})
}

// generationError loggt den Fehler mit Stage und antwortet mit 500,
// ausser fuer ungueltige Formate (400)
func generationError(c *gin.Context, err error) {
	var se *inference.StageError
	if errors.As(err, &se) {
		slog.Error("generation failed", "stage", se.Stage, "error", se.Err)
	} else {
		slog.Error("generation failed", "error", err)
	}

	if errors.Is(err, voxel.ErrUnknownFormat) {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	abortWithError(c, http.StatusInternalServerError, generationErrorPrefix+err.Error())
}
