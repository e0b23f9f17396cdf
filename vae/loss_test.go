package vae

import (
	"math"
	"testing"
)

func TestBinaryCrossEntropy(t *testing.T) {
	cases := []struct {
		name          string
		recon, target []float32
		want          float64
	}{
		{"perfekt", []float32{1, 0}, []float32{1, 0}, 0},
		{"halb", []float32{0.5}, []float32{1}, math.Ln2},
		{"geklemmt", []float32{0}, []float32{1}, 100},
		{"gemittelt", []float32{0.5, 1}, []float32{1, 1}, math.Ln2 / 2},
		{"leer", nil, nil, 0},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BinaryCrossEntropy(tt.recon, tt.target)
			if err != nil {
				t.Fatalf("BinaryCrossEntropy() error = %v", err)
			}
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("BinaryCrossEntropy() = %f, erwartet %f", got, tt.want)
			}
		})
	}
}

func TestKLDivergence(t *testing.T) {
	got, err := KLDivergence([]float32{0, 1}, []float32{0, 0})
	if err != nil {
		t.Fatalf("KLDivergence() error = %v", err)
	}

	// Standardnormal: 0, mu=1: 0.5
	if math.Abs(got-0.5) > 1e-6 {
		t.Errorf("KLDivergence() = %f, erwartet 0.5", got)
	}
}

func TestLoss(t *testing.T) {
	got, err := Loss([]float32{0.5}, []float32{1}, []float32{1}, []float32{0})
	if err != nil {
		t.Fatalf("Loss() error = %v", err)
	}

	if want := math.Ln2 + 0.5; math.Abs(got-want) > 1e-6 {
		t.Errorf("Loss() = %f, erwartet %f", got, want)
	}

	if _, err := Loss([]float32{0.5}, []float32{1, 0}, nil, nil); err == nil {
		t.Error("Erwartet Fehler bei unterschiedlichen Laengen")
	}
	if _, err := Loss([]float32{0.5}, []float32{1}, []float32{1}, nil); err == nil {
		t.Error("Erwartet Fehler bei unterschiedlichen mu/logvar Laengen")
	}
}
