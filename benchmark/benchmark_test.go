package benchmark

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"image/png"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/7blacky7/vaemesh/inference"
	"github.com/7blacky7/vaemesh/voxel"
)

// countingTarget zaehlt Aufrufe und liefert feste Mesh-Groessen
type countingTarget struct {
	calls int
	fail  bool
}

func (c *countingTarget) Generate(ctx context.Context, r io.Reader, format voxel.Format) (*inference.Result, error) {
	c.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.fail {
		return nil, errors.New("kaputt")
	}

	if _, err := png.Decode(r); err != nil {
		return nil, err
	}
	return &inference.Result{Path: "/nonexistent/mesh." + format.Ext(), Format: format, Vertices: 10, Faces: 16}, nil
}

func TestRun(t *testing.T) {
	target := &countingTarget{}
	cfg := Config{Iterations: 3, WarmupRuns: 1, ImageSizes: []string{"8x8", "16x4"}, Format: voxel.FormatSTL}

	results, err := Run(t.Context(), target, cfg)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("Run() = %d Ergebnisse, erwartet 2", len(results))
	}
	if target.calls != 8 {
		t.Errorf("calls = %d, erwartet 8 (je 1 Warmup + 3 Messungen)", target.calls)
	}

	r := results[1]
	if r.ImageSize != "16x4" || r.Format != voxel.FormatSTL {
		t.Errorf("Ergebnis = %+v", r)
	}
	if r.AvgVertices != 10 || r.AvgFaces != 16 || r.Failures != 0 {
		t.Errorf("Mesh-Statistik = %d/%d/%d, erwartet 10/16/0", r.AvgVertices, r.AvgFaces, r.Failures)
	}
	if r.Throughput <= 0 {
		t.Errorf("Throughput = %f, erwartet > 0", r.Throughput)
	}
}

func TestRunFailuresAndErrors(t *testing.T) {
	results, err := Run(t.Context(), &countingTarget{fail: true}, Config{Iterations: 2, ImageSizes: []string{"4x4"}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if results[0].Failures != 2 || results[0].Throughput != 0 {
		t.Errorf("Failures/Throughput = %d/%f, erwartet 2/0", results[0].Failures, results[0].Throughput)
	}

	if _, err := Run(t.Context(), &countingTarget{}, Config{Iterations: 1, ImageSizes: []string{"gross"}}); err == nil {
		t.Error("Erwartet Fehler bei ungueltiger Bildgroesse")
	}

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	if _, err := Run(ctx, &countingTarget{}, Config{Iterations: 1, ImageSizes: []string{"4x4"}}); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, erwartet context.Canceled", err)
	}
}

func TestCalculateStats(t *testing.T) {
	var latencies []time.Duration
	for i := 20; i >= 1; i-- {
		latencies = append(latencies, time.Duration(i)*time.Millisecond)
	}

	s := calculateStats(latencies)
	if s.min != time.Millisecond || s.max != 20*time.Millisecond {
		t.Errorf("min/max = %s/%s", s.min, s.max)
	}
	if s.total != 210*time.Millisecond || s.avg != 10500*time.Microsecond {
		t.Errorf("total/avg = %s/%s", s.total, s.avg)
	}
	if s.p95 != 20*time.Millisecond {
		t.Errorf("p95 = %s, erwartet 20ms", s.p95)
	}

	if (calculateStats(nil) != latencyStats{}) {
		t.Error("leere Messung sollte Nullwerte liefern")
	}
}

func TestOutputFormats(t *testing.T) {
	results := []Result{
		{ImageSize: "64x64", Format: voxel.FormatOBJ, Iterations: 5, AvgLatency: 1500 * time.Microsecond, Throughput: 12.5, MemoryUsed: 2048},
		{ImageSize: "256x256", Format: voxel.FormatOBJ, Iterations: 5, AvgLatency: 2 * time.Second},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, results); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	r := csv.NewReader(&buf)
	r.Comma = ';'
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[1][0] != "64x64" || rows[1][4] != "1.500" {
		t.Errorf("CSV = %v", rows)
	}

	buf.Reset()
	PrintMarkdown(&buf, results)
	if n := strings.Count(buf.String(), "\n"); n != 4 {
		t.Errorf("Markdown hat %d Zeilen, erwartet 4", n)
	}

	buf.Reset()
	PrintResults(&buf, results)
	if !strings.Contains(buf.String(), "1.50ms") || !strings.Contains(buf.String(), "2.0 KB") {
		t.Errorf("Tabelle unvollstaendig:\n%s", buf.String())
	}

	buf.Reset()
	PrintResults(&buf, nil)
	if !strings.Contains(buf.String(), "Keine Ergebnisse") {
		t.Error("leere Tabelle ohne Hinweis")
	}
}

func TestGenerateTestImage(t *testing.T) {
	img, err := png.Decode(bytes.NewReader(GenerateTestImage(30, 20)))
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 30 || b.Dy() != 20 {
		t.Errorf("Groesse = %v, erwartet 30x20", b)
	}

	if !bytes.Equal(GenerateTestImage(8, 8), GenerateTestImage(8, 8)) {
		t.Error("Testbild nicht reproduzierbar")
	}
}
