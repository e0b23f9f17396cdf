// Package api - Typ-Definitionen der vaemesh HTTP-API
// Enthaelt: StatusError, VersionResponse, InfoResponse, GenerateRequest, GenerateResponse
package api

import (
	"fmt"
	"io"
)

// StatusError is an error with an HTTP status code and message.
type StatusError struct {
	StatusCode   int
	Status       string
	ErrorMessage string `json:"error"`
}

func (e StatusError) Error() string {
	switch {
	case e.Status != "" && e.ErrorMessage != "":
		return fmt.Sprintf("%s: %s", e.Status, e.ErrorMessage)
	case e.Status != "":
		return e.Status
	case e.ErrorMessage != "":
		return e.ErrorMessage
	default:
		// this should not happen
		return "something went wrong, please see the vaemesh server logs for details"
	}
}

// ErrorResponse ist der JSON-Umschlag aller Fehlerantworten: {"error": "..."}
type ErrorResponse struct {
	Error string `json:"error"`
}

// VersionResponse - Response fuer GET /api/version
type VersionResponse struct {
	Version string `json:"version"`
}

// InfoResponse - Response fuer GET /api/info
type InfoResponse struct {
	ModelPath  string  `json:"model_path"` // Pfad der Gewichte
	Format     string  `json:"format"`     // torch oder safetensors
	Parameters int     `json:"parameters"` // Anzahl Gewichte
	ImageSize  int     `json:"image_size"` // Kantenlaenge des Eingabebildes
	LatentDim  int     `json:"latent_dim"` // Groesse des latenten Raums
	GridSize   int     `json:"grid_size"`  // Kantenlaenge des Voxel-Gitters
	Threshold  float32 `json:"threshold"`  // Belegungs-Schwellwert
	Version    string  `json:"version"`    // Server-Version
}

// GenerateRequest beschreibt einen Upload an POST /api/generate
type GenerateRequest struct {
	// Filename wird als Dateiname des "image" Feldes gesendet
	Filename string
	Image    io.Reader

	// Format ist "obj" (Default) oder "stl"
	Format string
}

// GenerateResponse enthaelt die erzeugte Mesh-Datei
type GenerateResponse struct {
	Filename    string
	ContentType string
	Data        []byte
}
