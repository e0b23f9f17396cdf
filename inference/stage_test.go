package inference

import (
	"errors"
	"testing"
)

func TestStageString(t *testing.T) {
	cases := map[Stage]string{
		StageIdle:          "idle",
		StageMeshExtracted: "mesh_extracted",
		StageServed:        "served",
		StageFailed:        "failed",
		Stage(42):          "stage(42)",
	}

	for s, want := range cases {
		if got := s.String(); got != want {
			t.Errorf("Stage(%d).String() = %q, erwartet %q", int(s), got, want)
		}
	}
}

func TestJobTransitions(t *testing.T) {
	job := NewJob()
	if job.Stage() != StageIdle || job.ID == "" {
		t.Fatalf("neuer Job: stage %s id %q", job.Stage(), job.ID)
	}

	job.Advance(StagePreprocessed)
	job.Advance(StageImageReceived)
	if job.Stage() != StagePreprocessed {
		t.Errorf("Rueckschritt erlaubt: stage = %s", job.Stage())
	}

	cause := errors.New("boom")
	err := job.Fail(cause)

	var se *StageError
	if !errors.As(err, &se) || se.Stage != StagePreprocessed {
		t.Fatalf("Fail() = %v, erwartet StageError bei preprocessed", err)
	}
	if !errors.Is(err, cause) || err.Error() != "boom" {
		t.Errorf("Fail() verliert die Ursache: %v", err)
	}

	job.Advance(StageServed)
	if job.Stage() != StageFailed {
		t.Errorf("gescheiterter Job wechselte nach %s", job.Stage())
	}
}
