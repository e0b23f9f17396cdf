// model.go - Variational Autoencoder Bild -> Voxel
// Haupttypen: Model
// Hauptfunktionen: Encode, Decode, Forward, NumParams
package vae

import (
	"fmt"
)

// Model ist der geladene VAE. Nach New/Load unveraenderlich und von
// mehreren Goroutinen gleichzeitig nutzbar.
type Model struct {
	Config Config

	encoder  []*Conv2d
	fcMu     *Linear
	fcLogVar *Linear
	fcDecode *Linear
	decoder  []*ConvTranspose3d
}

// Encode bildet ein CHW-Bild auf (mu, logvar) im latenten Raum ab.
func (m *Model) Encode(x []float32) (mu, logvar []float32, err error) {
	if len(x) != m.Config.InputLen() {
		return nil, nil, fmt.Errorf("encode: input length %d, expected %d", len(x), m.Config.InputLen())
	}

	h, w := m.Config.ImageSize, m.Config.ImageSize
	for i, conv := range m.encoder {
		x, h, w, err = conv.Forward(x, h, w)
		if err != nil {
			return nil, nil, fmt.Errorf("encoder.%d: %w", 2*i, err)
		}
		relu(x)
	}

	// x ist bereits in (C, H, W)-Reihenfolge flachgelegt
	if mu, err = m.fcMu.Forward(x); err != nil {
		return nil, nil, fmt.Errorf("fc_mu: %w", err)
	}

	if logvar, err = m.fcLogVar.Forward(x); err != nil {
		return nil, nil, fmt.Errorf("fc_logvar: %w", err)
	}

	return mu, logvar, nil
}

// Decode bildet einen latenten Vektor auf ein Wahrscheinlichkeits-Volumen
// [GridSize^3] mit Werten in (0,1) ab.
func (m *Model) Decode(z []float32) ([]float32, error) {
	x, err := m.fcDecode.Forward(z)
	if err != nil {
		return nil, fmt.Errorf("fc_decode: %w", err)
	}

	d := m.Config.BaseGrid
	for i, deconv := range m.decoder {
		x, d, err = deconv.Forward(x, d)
		if err != nil {
			return nil, fmt.Errorf("decoder.%d: %w", 2*i, err)
		}

		if i < len(m.decoder)-1 {
			relu(x)
		}
	}

	sigmoid(x)
	return x, nil
}

// Forward fuehrt Encode -> Reparameterize -> Decode aus und liefert
// Rekonstruktion sowie mu/logvar (fuer Loss).
func (m *Model) Forward(x []float32, s Sampler) (recon, mu, logvar []float32, err error) {
	mu, logvar, err = m.Encode(x)
	if err != nil {
		return nil, nil, nil, err
	}

	z, err := Reparameterize(mu, logvar, s)
	if err != nil {
		return nil, nil, nil, err
	}

	recon, err = m.Decode(z)
	if err != nil {
		return nil, nil, nil, err
	}

	return recon, mu, logvar, nil
}

// NumParams zaehlt alle Gewichte und Biases.
func (m *Model) NumParams() int {
	var n int
	for _, c := range m.encoder {
		n += len(c.Weight) + len(c.Bias)
	}
	for _, l := range []*Linear{m.fcMu, m.fcLogVar, m.fcDecode} {
		n += len(l.Weight) + len(l.Bias)
	}
	for _, c := range m.decoder {
		n += len(c.Weight) + len(c.Bias)
	}
	return n
}
