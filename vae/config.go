// config.go - Architektur-Konfiguration des Bild->Voxel VAE
// Haupttypen: Config, ParamSpec
// Hauptfunktionen: DefaultConfig, Config.Validate, Config.Params
package vae

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig wird bei inkonsistenten Architektur-Parametern zurueckgegeben
var ErrInvalidConfig = errors.New("invalid vae config")

// Config beschreibt die Netzwerk-Topologie.
//
// Encoder: len(EncoderChannels) Conv2d-Schichten mit ReLU, danach fc_mu/fc_logvar.
// Decoder: fc_decode auf DecoderChannels[0] x BaseGrid^3, dann ConvTranspose3d
// ueber DecoderChannels bis auf einen Ausgabekanal, zuletzt Sigmoid.
type Config struct {
	ImageSize       int
	ImageChannels   int
	EncoderChannels []int
	LatentDim       int
	BaseGrid        int
	DecoderChannels []int

	Kernel  int
	Stride  int
	Padding int
}

// DefaultConfig liefert die Architektur der vortrainierten Gewichte:
// 3x64x64 -> 64 -> 128 -> 256 (8x8) -> 256 latent -> 256x4^3 -> 128 -> 64 -> 1 (32^3)
func DefaultConfig() Config {
	return Config{
		ImageSize:       64,
		ImageChannels:   3,
		EncoderChannels: []int{64, 128, 256},
		LatentDim:       256,
		BaseGrid:        4,
		DecoderChannels: []int{256, 128, 64},
		Kernel:          4,
		Stride:          2,
		Padding:         1,
	}
}

// convOut berechnet die Ausgabegroesse einer strided Convolution.
// 0 wenn der Kernel nicht in die gepaddete Eingabe passt.
func (c Config) convOut(n int) int {
	if n <= 0 || n+2*c.Padding < c.Kernel {
		return 0
	}
	return (n+2*c.Padding-c.Kernel)/c.Stride + 1
}

// deconvOut berechnet die Ausgabegroesse einer transponierten Convolution
func (c Config) deconvOut(n int) int {
	if n <= 0 {
		return 0
	}
	return (n-1)*c.Stride - 2*c.Padding + c.Kernel
}

// EncodedSize ist die raeumliche Kantenlaenge nach dem letzten Encoder-Layer.
func (c Config) EncodedSize() int {
	n := c.ImageSize
	for range c.EncoderChannels {
		n = c.convOut(n)
	}
	return n
}

// FlatDim ist die Laenge des flachgelegten Encoder-Features.
func (c Config) FlatDim() int {
	s := c.EncodedSize()
	return c.EncoderChannels[len(c.EncoderChannels)-1] * s * s
}

// GridSize ist die Kantenlaenge des erzeugten Voxel-Gitters.
func (c Config) GridSize() int {
	n := c.BaseGrid
	for range c.DecoderChannels {
		if n = c.deconvOut(n); n <= 0 {
			return 0
		}
	}
	return n
}

// InputLen ist die erwartete Laenge des CHW Eingabetensors.
func (c Config) InputLen() int {
	return c.ImageChannels * c.ImageSize * c.ImageSize
}

// Validate prueft die Konfiguration auf positive, konsistente Groessen.
func (c Config) Validate() error {
	switch {
	case c.ImageSize <= 0, c.ImageChannels <= 0, c.LatentDim <= 0, c.BaseGrid <= 0:
		return fmt.Errorf("%w: sizes must be positive", ErrInvalidConfig)
	case len(c.EncoderChannels) == 0, len(c.DecoderChannels) == 0:
		return fmt.Errorf("%w: encoder and decoder need at least one layer", ErrInvalidConfig)
	case c.Kernel <= 0, c.Stride <= 0, c.Padding < 0:
		return fmt.Errorf("%w: kernel %d stride %d padding %d", ErrInvalidConfig, c.Kernel, c.Stride, c.Padding)
	}

	for _, ch := range append(append([]int{}, c.EncoderChannels...), c.DecoderChannels...) {
		if ch <= 0 {
			return fmt.Errorf("%w: channel counts must be positive", ErrInvalidConfig)
		}
	}

	if c.EncodedSize() <= 0 {
		return fmt.Errorf("%w: image size %d collapses in the encoder", ErrInvalidConfig, c.ImageSize)
	}

	if c.GridSize() <= 0 {
		return fmt.Errorf("%w: base grid %d collapses in the decoder", ErrInvalidConfig, c.BaseGrid)
	}

	return nil
}

// ParamSpec beschreibt einen erwarteten Tensor im state_dict.
type ParamSpec struct {
	Name  string
	Shape []int
}

// Params listet alle Parameter in nn.Sequential-Benennung
// (encoder.0, encoder.2, ..., fc_mu, fc_logvar, fc_decode, decoder.0, ...).
func (c Config) Params() []ParamSpec {
	var specs []ParamSpec
	k := c.Kernel

	in := c.ImageChannels
	for i, out := range c.EncoderChannels {
		prefix := fmt.Sprintf("encoder.%d", 2*i)
		specs = append(specs,
			ParamSpec{prefix + ".weight", []int{out, in, k, k}},
			ParamSpec{prefix + ".bias", []int{out}},
		)
		in = out
	}

	flat := c.FlatDim()
	base := c.BaseGrid * c.BaseGrid * c.BaseGrid
	specs = append(specs,
		ParamSpec{"fc_mu.weight", []int{c.LatentDim, flat}},
		ParamSpec{"fc_mu.bias", []int{c.LatentDim}},
		ParamSpec{"fc_logvar.weight", []int{c.LatentDim, flat}},
		ParamSpec{"fc_logvar.bias", []int{c.LatentDim}},
		ParamSpec{"fc_decode.weight", []int{c.DecoderChannels[0] * base, c.LatentDim}},
		ParamSpec{"fc_decode.bias", []int{c.DecoderChannels[0] * base}},
	)

	for i, in := range c.DecoderChannels {
		out := 1
		if i+1 < len(c.DecoderChannels) {
			out = c.DecoderChannels[i+1]
		}

		prefix := fmt.Sprintf("decoder.%d", 2*i)
		specs = append(specs,
			ParamSpec{prefix + ".weight", []int{in, out, k, k, k}},
			ParamSpec{prefix + ".bias", []int{out}},
		)
	}

	return specs
}
