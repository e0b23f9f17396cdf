// weights.go - Bindung eines state_dict an die VAE-Schichten
// Hauptfunktionen: Load, New, bind
package vae

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/7blacky7/vaemesh/convert"
)

var (
	// ErrMissingTensor wird zurueckgegeben wenn ein Parameter im state_dict fehlt
	ErrMissingTensor = errors.New("missing tensor")

	// ErrShapeMismatch wird zurueckgegeben wenn ein Parameter eine falsche Form hat
	ErrShapeMismatch = errors.New("tensor shape mismatch")
)

// Load liest einen Checkpoint von der Platte und baut das Modell.
func Load(path string, cfg Config) (*Model, error) {
	sd, err := convert.Open(path)
	if err != nil {
		return nil, err
	}

	m, err := New(cfg, sd)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	slog.Debug("vae weights loaded", "path", path, "format", sd.Format, "tensors", sd.Len(), "params", m.NumParams())
	return m, nil
}

// New baut das Modell aus einem state_dict. Alle Parameter aus
// cfg.Params() muessen mit exakt passender Form vorhanden sein.
func New(cfg Config, sd *convert.StateDict) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := binder{sd: sd, used: make(map[string]bool)}
	m := &Model{Config: cfg}

	in := cfg.ImageChannels
	for i, out := range cfg.EncoderChannels {
		prefix := fmt.Sprintf("encoder.%d", 2*i)
		m.encoder = append(m.encoder, &Conv2d{
			In: in, Out: out,
			Kernel: cfg.Kernel, Stride: cfg.Stride, Padding: cfg.Padding,
			Weight: b.bind(prefix+".weight", out, in, cfg.Kernel, cfg.Kernel),
			Bias:   b.bind(prefix+".bias", out),
		})
		in = out
	}

	flat := cfg.FlatDim()
	m.fcMu = b.linear("fc_mu", flat, cfg.LatentDim)
	m.fcLogVar = b.linear("fc_logvar", flat, cfg.LatentDim)

	base := cfg.BaseGrid * cfg.BaseGrid * cfg.BaseGrid
	m.fcDecode = b.linear("fc_decode", cfg.LatentDim, cfg.DecoderChannels[0]*base)

	for i, in := range cfg.DecoderChannels {
		out := 1
		if i+1 < len(cfg.DecoderChannels) {
			out = cfg.DecoderChannels[i+1]
		}

		prefix := fmt.Sprintf("decoder.%d", 2*i)
		m.decoder = append(m.decoder, &ConvTranspose3d{
			In: in, Out: out,
			Kernel: cfg.Kernel, Stride: cfg.Stride, Padding: cfg.Padding,
			Weight: b.bind(prefix+".weight", in, out, cfg.Kernel, cfg.Kernel, cfg.Kernel),
			Bias:   b.bind(prefix+".bias", out),
		})
	}

	if err := errors.Join(b.errs...); err != nil {
		return nil, err
	}

	for _, name := range sd.Names() {
		if !b.used[name] {
			slog.Debug("unused tensor in state dict", "name", name)
		}
	}

	return m, nil
}

// binder sammelt Fehler, damit alle fehlenden Tensoren auf einmal gemeldet werden
type binder struct {
	sd   *convert.StateDict
	used map[string]bool
	errs []error
}

func (b *binder) bind(name string, shape ...int) []float32 {
	t, ok := b.sd.Get(name)
	if !ok {
		b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrMissingTensor, name))
		return nil
	}
	b.used[name] = true

	if !slices.Equal(t.Shape, shape) || len(t.Data) != t.NumElements() {
		b.errs = append(b.errs, fmt.Errorf("%w: %s has shape %v, expected %v", ErrShapeMismatch, name, t.Shape, shape))
		return nil
	}

	return t.Data
}

func (b *binder) linear(prefix string, in, out int) *Linear {
	return &Linear{
		In: in, Out: out,
		Weight: b.bind(prefix+".weight", out, in),
		Bias:   b.bind(prefix+".bias", out),
	}
}
