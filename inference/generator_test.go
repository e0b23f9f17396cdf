package inference

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/7blacky7/vaemesh/convert"
	"github.com/7blacky7/vaemesh/vae"
	"github.com/7blacky7/vaemesh/voxel"
)

func smallConfig() vae.Config {
	return vae.Config{
		ImageSize:       8,
		ImageChannels:   3,
		EncoderChannels: []int{2, 2, 2},
		LatentDim:       2,
		BaseGrid:        2,
		DecoderChannels: []int{2, 2},
		Kernel:          4,
		Stride:          2,
		Padding:         1,
	}
}

// stateDict setzt alle Gewichte auf 0 und den letzten Decoder-Bias auf
// outBias. Das Ausgabe-Volumen ist dann ueberall sigmoid(outBias).
func stateDict(cfg vae.Config, outBias float32) *convert.StateDict {
	last := fmt.Sprintf("decoder.%d.bias", 2*(len(cfg.DecoderChannels)-1))

	var tensors []*convert.Tensor
	for _, spec := range cfg.Params() {
		t := &convert.Tensor{Name: spec.Name, Shape: slices.Clone(spec.Shape)}
		t.Data = make([]float32, t.NumElements())
		if spec.Name == last {
			for i := range t.Data {
				t.Data[i] = outBias
			}
		}
		tensors = append(tensors, t)
	}
	return convert.NewStateDict(convert.FormatSafetensors, tensors...)
}

func newTestGenerator(t *testing.T, outBias float32) *Generator {
	t.Helper()
	cfg := smallConfig()
	m, err := vae.New(cfg, stateDict(cfg, outBias))
	if err != nil {
		t.Fatalf("vae.New() error = %v", err)
	}

	g, err := NewWithModel(Config{Threshold: voxel.DefaultThreshold, OutputDir: t.TempDir()}, m)
	if err != nil {
		t.Fatalf("NewWithModel() error = %v", err)
	}
	return g
}

func solidPNG(t *testing.T, size int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestNewMissingModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "VAE", "vae_model.pth")
	_, err := New(Config{ModelPath: path, Model: vae.DefaultConfig(), OutputDir: t.TempDir()})

	if !errors.Is(err, ErrModelNotFound) {
		t.Errorf("New() error = %v, erwartet ErrModelNotFound", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("New() error = %v, erwartet fs.ErrNotExist", err)
	}
	if err != nil && !strings.Contains(err.Error(), "model file not found at "+path) {
		t.Errorf("Fehlermeldung %q enthaelt nicht den Pfad", err)
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vae.safetensors")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := convert.WriteSafetensors(f, stateDict(smallConfig(), 5)); err != nil {
		t.Fatal(err)
	}
	f.Close()

	out := filepath.Join(dir, "output")
	g, err := New(Config{ModelPath: path, Model: smallConfig(), Threshold: 0.1, OutputDir: out})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if fi, err := os.Stat(out); err != nil || !fi.IsDir() {
		t.Errorf("Ausgabe-Verzeichnis nicht angelegt: %v", err)
	}

	info := g.Info()
	if info.Format != convert.FormatSafetensors || info.GridSize != 8 || info.LatentDim != 2 {
		t.Errorf("Info() = %+v", info)
	}

	// Gewichte passen nicht zur Standard-Architektur
	if _, err := New(Config{ModelPath: path, Model: vae.DefaultConfig(), OutputDir: out}); !errors.Is(err, vae.ErrShapeMismatch) {
		t.Errorf("New(DefaultConfig) error = %v, erwartet ErrShapeMismatch", err)
	}
}

func TestGenerate(t *testing.T) {
	g := newTestGenerator(t, 10)

	for _, format := range []voxel.Format{voxel.FormatOBJ, voxel.FormatSTL} {
		res, err := g.Generate(t.Context(), bytes.NewReader(solidPNG(t, 64, color.RGBA{200, 30, 30, 255})), format)
		if err != nil {
			t.Fatalf("Generate(%s) error = %v", format, err)
		}

		if res.Job.Stage() != StageExported {
			t.Errorf("Stage = %s, erwartet exported", res.Job.Stage())
		}
		if filepath.Ext(res.Path) != "."+format.Ext() || !strings.HasPrefix(filepath.Base(res.Path), res.Job.ID) {
			t.Errorf("Pfad %q passt nicht zu Job %s", res.Path, res.Job.ID)
		}
		if res.Vertices == 0 || res.Faces == 0 {
			t.Errorf("leeres Mesh: %d Vertices, %d Faces", res.Vertices, res.Faces)
		}
		if res.Occupied != 8*8*8 {
			t.Errorf("Occupied = %d, erwartet %d", res.Occupied, 8*8*8)
		}
		if len(res.Mu) != 2 || len(res.LogVar) != 2 {
			t.Errorf("mu/logvar Laenge = %d/%d, erwartet 2", len(res.Mu), len(res.LogVar))
		}

		if fi, err := os.Stat(res.Path); err != nil || fi.Size() == 0 {
			t.Errorf("Ausgabedatei fehlt oder ist leer: %v", err)
		}

		if err := res.Remove(); err != nil {
			t.Errorf("Remove() error = %v", err)
		}
		if _, err := os.Stat(res.Path); !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("Datei nach Remove() noch vorhanden: %v", err)
		}
	}
}

func TestGenerateUniquePaths(t *testing.T) {
	g := newTestGenerator(t, 10)
	img := solidPNG(t, 16, color.White)

	a, err := g.Generate(t.Context(), bytes.NewReader(img), voxel.FormatOBJ)
	if err != nil {
		t.Fatal(err)
	}
	b, err := g.Generate(t.Context(), bytes.NewReader(img), voxel.FormatOBJ)
	if err != nil {
		t.Fatal(err)
	}

	if a.Path == b.Path || a.Job.ID == b.Job.ID {
		t.Errorf("Anfragen teilen sich Pfad %q", a.Path)
	}
}

func TestGenerateFailures(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	cases := []struct {
		name    string
		bias    float32
		ctx     context.Context
		input   []byte
		stage   Stage
		wantErr error
	}{
		{"leeres mesh", -10, context.Background(), nil, StageThresholded, voxel.ErrEmptyMesh},
		{"kein bild", 10, context.Background(), []byte("not an image"), StageImageReceived, nil},
		{"abgebrochen", 10, canceled, nil, StagePreprocessed, context.Canceled},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGenerator(t, tt.bias)
			input := tt.input
			if input == nil {
				input = solidPNG(t, 32, color.Black)
			}

			_, err := g.Generate(tt.ctx, bytes.NewReader(input), voxel.FormatOBJ)

			var se *StageError
			if !errors.As(err, &se) {
				t.Fatalf("Generate() error = %v, erwartet *StageError", err)
			}
			if se.Stage != tt.stage {
				t.Errorf("Stage = %s, erwartet %s", se.Stage, tt.stage)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Generate() error = %v, erwartet %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewWithModelNil(t *testing.T) {
	if _, err := NewWithModel(Config{OutputDir: t.TempDir()}, nil); err == nil {
		t.Error("Erwartet Fehler bei nil-Modell")
	}
}
