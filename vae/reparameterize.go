// reparameterize.go - Stochastisches Sampling im latenten Raum
package vae

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler liefert standardnormalverteilte Zufallszahlen.
type Sampler interface {
	Rand() float64
}

// DefaultSampler zieht aus N(0,1) ueber die globale, threadsichere Quelle.
var DefaultSampler Sampler = distuv.UnitNormal

// Reparameterize berechnet z = mu + eps * exp(0.5*logvar) mit frischem eps
// pro Aufruf. s == nil verwendet DefaultSampler.
func Reparameterize(mu, logvar []float32, s Sampler) ([]float32, error) {
	if len(mu) != len(logvar) {
		return nil, fmt.Errorf("reparameterize: mu has %d values, logvar %d", len(mu), len(logvar))
	}

	if s == nil {
		s = DefaultSampler
	}

	z := make([]float32, len(mu))
	for i := range mu {
		std := math.Exp(0.5 * float64(logvar[i]))
		z[i] = mu[i] + float32(s.Rand()*std)
	}
	return z, nil
}
