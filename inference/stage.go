// stage.go - Zustandsautomat einer einzelnen Generierungs-Anfrage
// Haupttypen: Stage, Job, StageError
//
// Idle -> ImageReceived -> Preprocessed -> Encoded -> Decoded ->
// Thresholded -> MeshExtracted -> Exported -> Served, jeder Fehler -> Failed.
package inference

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/7blacky7/vaemesh/logutil"
)

// Stage ist der Fortschritt einer Anfrage
type Stage int

const (
	StageIdle Stage = iota
	StageImageReceived
	StagePreprocessed
	StageEncoded
	StageDecoded
	StageThresholded
	StageMeshExtracted
	StageExported
	StageServed
	StageFailed
)

var stageNames = [...]string{
	StageIdle:          "idle",
	StageImageReceived: "image_received",
	StagePreprocessed:  "preprocessed",
	StageEncoded:       "encoded",
	StageDecoded:       "decoded",
	StageThresholded:   "thresholded",
	StageMeshExtracted: "mesh_extracted",
	StageExported:      "exported",
	StageServed:        "served",
	StageFailed:        "failed",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// StageError haelt fest, in welchem Zustand eine Anfrage gescheitert ist.
// Error() liefert nur die Ursache, die Stage ist fuer Logs gedacht.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Job verfolgt eine Anfrage. Nicht threadsicher, gehoert genau einer Anfrage.
type Job struct {
	ID      string
	stage   Stage
	started time.Time
}

// NewJob startet eine Anfrage im Zustand Idle
func NewJob() *Job {
	return &Job{ID: uuid.NewString(), started: time.Now()}
}

// Stage ist der aktuelle Zustand
func (j *Job) Stage() Stage {
	return j.stage
}

// Advance wechselt in den naechsten Zustand. Uebergaenge sind nur
// vorwaerts erlaubt, ein gescheiterter Job bleibt Failed.
func (j *Job) Advance(s Stage) {
	if j.stage == StageFailed || s <= j.stage {
		slog.Warn("ignoring stage transition", "job", j.ID, "from", j.stage, "to", s)
		return
	}

	logutil.Trace("job stage", "job", j.ID, "from", j.stage, "to", s, "elapsed", time.Since(j.started))
	j.stage = s
}

// Fail setzt den Job auf Failed und verpackt err mit dem letzten
// erreichten Zustand.
func (j *Job) Fail(err error) error {
	se := &StageError{Stage: j.stage, Err: err}
	j.stage = StageFailed
	slog.Debug("job failed", "job", j.ID, "stage", se.Stage, "error", err)
	return se
}
