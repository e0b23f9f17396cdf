package vae

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/stat"
)

// constSampler liefert immer denselben Wert
type constSampler float64

func (c constSampler) Rand() float64 { return float64(c) }

func TestReparameterizeDeterministicNoise(t *testing.T) {
	mu := []float32{0, 1, -2}
	logvar := []float32{0, float32(2 * math.Log(2)), float32(2 * math.Log(0.5))}

	z, err := Reparameterize(mu, logvar, constSampler(1))
	if err != nil {
		t.Fatalf("Reparameterize() error = %v", err)
	}

	// z = mu + 1 * exp(0.5*logvar) = mu + sigma
	assertClose(t, "z", z, []float32{1, 3, -1.5})
}

func TestReparameterizeIsStochastic(t *testing.T) {
	mu := []float32{0.5, -0.25}
	logvar := []float32{0, -1}

	const n = 200
	first := make([]float64, n)
	second := make([]float64, n)
	for i := 0; i < n; i++ {
		z, err := Reparameterize(mu, logvar, nil)
		if err != nil {
			t.Fatalf("Reparameterize() error = %v", err)
		}
		first[i], second[i] = float64(z[0]), float64(z[1])
	}

	if v := stat.Variance(first, nil); v <= 0 {
		t.Errorf("Varianz z[0] = %f, erwartet > 0", v)
	}

	// sigma^2 = exp(logvar) = 1 fuer z[0], grob pruefen
	if v := stat.Variance(first, nil); v < 0.5 || v > 1.6 {
		t.Errorf("Varianz z[0] = %f, erwartet ~1", v)
	}
	if m := stat.Mean(second, nil); math.Abs(m-(-0.25)) > 0.3 {
		t.Errorf("Mittelwert z[1] = %f, erwartet ~-0.25", m)
	}
}

func TestReparameterizeLengthMismatch(t *testing.T) {
	if _, err := Reparameterize([]float32{1, 2}, []float32{0}, nil); err == nil {
		t.Error("Erwartet Fehler bei unterschiedlichen Laengen")
	}
}
