// loss.go - Trainings-Loss (BCE + KL-Divergenz)
//
// Wird vom Serving-Pfad nicht verwendet; beschreibt den Trainingsvertrag
// der Gewichte.
package vae

import (
	"fmt"
	"math"
)

// minLog entspricht der Klemmung von log() in PyTorchs BCELoss
const minLog = -100

// BinaryCrossEntropy ist der Mittelwert der BCE ueber alle Voxel.
func BinaryCrossEntropy(recon, target []float32) (float64, error) {
	if len(recon) != len(target) {
		return 0, fmt.Errorf("bce: recon has %d values, target %d", len(recon), len(target))
	}

	if len(recon) == 0 {
		return 0, nil
	}

	var sum float64
	for i, r := range recon {
		t := float64(target[i])
		sum -= t*clampedLog(float64(r)) + (1-t)*clampedLog(1-float64(r))
	}
	return sum / float64(len(recon)), nil
}

// KLDivergence ist -0.5 * sum(1 + logvar - mu^2 - exp(logvar)).
func KLDivergence(mu, logvar []float32) (float64, error) {
	if len(mu) != len(logvar) {
		return 0, fmt.Errorf("kld: mu has %d values, logvar %d", len(mu), len(logvar))
	}

	var sum float64
	for i := range mu {
		m, lv := float64(mu[i]), float64(logvar[i])
		sum += 1 + lv - m*m - math.Exp(lv)
	}
	return -0.5 * sum, nil
}

// Loss = BCE(recon, target) + KLD(mu, logvar)
func Loss(recon, target, mu, logvar []float32) (float64, error) {
	bce, err := BinaryCrossEntropy(recon, target)
	if err != nil {
		return 0, err
	}

	kld, err := KLDivergence(mu, logvar)
	if err != nil {
		return 0, err
	}

	return bce + kld, nil
}

func clampedLog(x float64) float64 {
	return math.Max(math.Log(x), minLog)
}
