// generator.go - Bild -> Voxel-Gitter -> Mesh Pipeline
// Haupttypen: Config, Generator, Result, Info
// Hauptfunktionen: New, NewWithModel, Generator.Generate, Generator.Info
//
// Die Gewichte werden einmal geladen und danach von allen Anfragen
// nur gelesen. Jede Anfrage schreibt in eine eigene Datei <uuid>.<ext>.
package inference

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/7blacky7/vaemesh/convert"
	"github.com/7blacky7/vaemesh/envconfig"
	"github.com/7blacky7/vaemesh/vae"
	"github.com/7blacky7/vaemesh/vision"
	"github.com/7blacky7/vaemesh/voxel"
)

// ErrModelNotFound wird zurueckgegeben wenn die Gewichtsdatei fehlt
var ErrModelNotFound = errors.New("model file not found")

// ============================================================================
// Konfiguration
// ============================================================================

// Config beschreibt eine Generator-Instanz.
type Config struct {
	ModelPath string
	Model     vae.Config
	Threshold float32
	OutputDir string

	// Sampler fuer die Reparametrisierung, nil = vae.DefaultSampler
	Sampler vae.Sampler
}

// ConfigFromEnvironment liest Pfade und Schwellwert aus envconfig.
func ConfigFromEnvironment() Config {
	return Config{
		ModelPath: envconfig.ModelPath(),
		Model:     vae.DefaultConfig(),
		Threshold: envconfig.Threshold(),
		OutputDir: envconfig.OutputDir(),
	}
}

// ============================================================================
// Generator
// ============================================================================

// Generator haelt das geladene Modell.
type Generator struct {
	cfg        Config
	model      *vae.Model
	preprocess vision.Preprocessor
	format     string
}

// New laedt die Gewichte von cfg.ModelPath und legt das Ausgabe-Verzeichnis an.
func New(cfg Config) (*Generator, error) {
	if _, err := os.Stat(cfg.ModelPath); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w at %s: %w", ErrModelNotFound, cfg.ModelPath, fs.ErrNotExist)
	} else if err != nil {
		return nil, err
	}

	start := time.Now()
	sd, err := convert.Open(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", cfg.ModelPath, err)
	}

	m, err := vae.New(cfg.Model, sd)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", cfg.ModelPath, err)
	}

	g, err := NewWithModel(cfg, m)
	if err != nil {
		return nil, err
	}
	g.format = sd.Format

	slog.Info("model loaded", "path", cfg.ModelPath, "format", sd.Format, "params", m.NumParams(), "duration", time.Since(start))
	return g, nil
}

// NewWithModel verwendet ein bereits gebautes Modell.
func NewWithModel(cfg Config, m *vae.Model) (*Generator, error) {
	if m == nil {
		return nil, errors.New("inference: nil model")
	}

	cfg.Model = m.Config
	if cfg.OutputDir == "" {
		cfg.OutputDir = envconfig.OutputDir()
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	pre := vision.DefaultPreprocessor()
	pre.Size = m.Config.ImageSize

	return &Generator{cfg: cfg, model: m, preprocess: pre}, nil
}

// Info beschreibt das geladene Modell
type Info struct {
	ModelPath string  `json:"model_path"`
	Format    string  `json:"format,omitempty"`
	Params    int     `json:"parameters"`
	ImageSize int     `json:"image_size"`
	LatentDim int     `json:"latent_dim"`
	GridSize  int     `json:"grid_size"`
	Threshold float32 `json:"threshold"`
}

func (g *Generator) Info() Info {
	return Info{
		ModelPath: g.cfg.ModelPath,
		Format:    g.format,
		Params:    g.model.NumParams(),
		ImageSize: g.cfg.Model.ImageSize,
		LatentDim: g.cfg.Model.LatentDim,
		GridSize:  g.cfg.Model.GridSize(),
		Threshold: g.cfg.Threshold,
	}
}

// Result einer erfolgreichen Generierung
type Result struct {
	Job      *Job
	Path     string
	Format   voxel.Format
	Vertices int
	Faces    int
	Occupied int

	// Mu und LogVar der latenten Verteilung, werden nicht per HTTP ausgeliefert
	Mu     []float32
	LogVar []float32
}

// Remove loescht die erzeugte Datei.
func (r *Result) Remove() error {
	if err := os.Remove(r.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Generate fuehrt die komplette Pipeline fuer ein Bild aus. Fehler sind
// immer *StageError.
func (g *Generator) Generate(ctx context.Context, r io.Reader, format voxel.Format) (*Result, error) {
	job := NewJob()
	job.Advance(StageImageReceived)

	x, err := g.preprocess.Preprocess(r)
	if err != nil {
		return nil, job.Fail(err)
	}
	job.Advance(StagePreprocessed)

	if err := ctx.Err(); err != nil {
		return nil, job.Fail(err)
	}

	mu, logvar, err := g.model.Encode(x)
	if err != nil {
		return nil, job.Fail(err)
	}
	job.Advance(StageEncoded)

	z, err := vae.Reparameterize(mu, logvar, g.cfg.Sampler)
	if err != nil {
		return nil, job.Fail(err)
	}

	if err := ctx.Err(); err != nil {
		return nil, job.Fail(err)
	}

	probs, err := g.model.Decode(z)
	if err != nil {
		return nil, job.Fail(err)
	}
	job.Advance(StageDecoded)

	grid, err := voxel.NewGrid(g.cfg.Model.GridSize(), probs)
	if err != nil {
		return nil, job.Fail(err)
	}

	occ := grid.Threshold(g.cfg.Threshold)
	job.Advance(StageThresholded)

	mesh, err := occ.Mesh()
	if err != nil {
		return nil, job.Fail(err)
	}
	job.Advance(StageMeshExtracted)

	path := filepath.Join(g.cfg.OutputDir, job.ID+"."+format.Ext())
	if err := mesh.Save(path, format); err != nil {
		return nil, job.Fail(err)
	}
	job.Advance(StageExported)

	slog.Debug("mesh generated", "job", job.ID, "occupied", occ.Count(), "vertices", mesh.NumVertices(), "faces", mesh.NumFaces(), "path", path)

	return &Result{
		Job:      job,
		Path:     path,
		Format:   format,
		Vertices: mesh.NumVertices(),
		Faces:    mesh.NumFaces(),
		Occupied: occ.Count(),
		Mu:       mu,
		LogVar:   logvar,
	}, nil
}
