// MODUL: benchmark
// ZWECK: Benchmark der Bild->Mesh Pipeline mit Latenz-, Durchsatz- und Speichermessung
// INPUT: Target (z.B. inference.Generator), Config
// OUTPUT: Result pro Bildgroesse mit Latenz-Statistiken und Mesh-Groesse
// NEBENEFFEKTE: CPU-Last, schreibt und loescht Mesh-Dateien im Ausgabe-Verzeichnis
// ABHAENGIGKEITEN: inference, voxel (intern), runtime (Speichermessung)
// HINWEISE: Warmup-Laeufe sind wichtig fuer stabile Messungen

package benchmark

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"runtime"
	"slices"
	"time"

	"github.com/7blacky7/vaemesh/inference"
	"github.com/7blacky7/vaemesh/voxel"
)

// ============================================================================
// Datenstrukturen
// ============================================================================

// Target ist die gemessene Pipeline
type Target interface {
	Generate(ctx context.Context, r io.Reader, format voxel.Format) (*inference.Result, error)
}

// Result enthaelt das Ergebnis fuer eine Bildgroesse.
type Result struct {
	ImageSize   string        // Eingabegroesse z.B. "64x64"
	Format      voxel.Format  // Export-Format
	Iterations  int           // Anzahl Durchlaeufe
	Failures    int           // Fehlgeschlagene Durchlaeufe
	TotalTime   time.Duration // Gesamtzeit aller Iterationen
	AvgLatency  time.Duration // Durchschnittliche Latenz pro Mesh
	MinLatency  time.Duration // Minimale Latenz
	MaxLatency  time.Duration // Maximale Latenz
	P95Latency  time.Duration // 95. Perzentil Latenz
	Throughput  float64       // Meshes pro Sekunde
	MemoryUsed  uint64        // Allokierte Bytes waehrend der Messung
	AvgVertices int           // Durchschnittliche Vertex-Anzahl
	AvgFaces    int           // Durchschnittliche Dreiecks-Anzahl
}

// Config definiert die Parameter eines Benchmark-Laufs.
type Config struct {
	Iterations int          // Anzahl Messungen (ohne Warmup)
	WarmupRuns int          // Anzahl Warmup-Laeufe (nicht gemessen)
	ImageSizes []string     // Zu testende Bildgroessen z.B. "64x64"
	Format     voxel.Format // Export-Format
}

// DefaultConfig gibt eine Standard-Benchmark-Konfiguration zurueck.
func DefaultConfig() Config {
	return Config{
		Iterations: 20,
		WarmupRuns: 2,
		ImageSizes: []string{"64x64", "256x256", "1024x768"},
		Format:     voxel.FormatOBJ,
	}
}

// ============================================================================
// Haupt-Benchmark-Funktionen
// ============================================================================

// Run misst alle Bildgroessen der Konfiguration nacheinander.
// Ungueltige Groessen werden mit Fehler abgelehnt.
func Run(ctx context.Context, target Target, config Config) ([]Result, error) {
	var results []Result

	for _, imageSize := range config.ImageSizes {
		width, height := parseImageSize(imageSize)
		if width == 0 || height == 0 {
			return nil, fmt.Errorf("invalid image size %q, expected WIDTHxHEIGHT", imageSize)
		}

		result, err := benchmarkSize(ctx, target, width, height, config)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}

	return results, nil
}

// ============================================================================
// Interne Benchmark-Logik
// ============================================================================

// benchmarkSize fuehrt den Benchmark fuer eine Bildgroesse aus.
func benchmarkSize(ctx context.Context, target Target, width, height int, config Config) (Result, error) {
	img := GenerateTestImage(width, height)

	for i := 0; i < config.WarmupRuns; i++ {
		if _, _, err := runOnce(ctx, target, img, config.Format); err != nil && ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
	}

	// GC erzwingen vor Messung
	runtime.GC()
	var memBefore runtime.MemStats
	runtime.ReadMemStats(&memBefore)

	latencies := make([]time.Duration, 0, config.Iterations)
	var failures, vertices, faces int
	for i := 0; i < config.Iterations; i++ {
		res, elapsed, err := runOnce(ctx, target, img, config.Format)
		if err != nil {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			failures++
			continue
		}
		latencies = append(latencies, elapsed)
		vertices += res.Vertices
		faces += res.Faces
	}

	var memAfter runtime.MemStats
	runtime.ReadMemStats(&memAfter)

	stats := calculateStats(latencies)
	result := Result{
		ImageSize:  fmt.Sprintf("%dx%d", width, height),
		Format:     config.Format,
		Iterations: config.Iterations,
		Failures:   failures,
		TotalTime:  stats.total,
		AvgLatency: stats.avg,
		MinLatency: stats.min,
		MaxLatency: stats.max,
		P95Latency: stats.p95,
		MemoryUsed: memAfter.TotalAlloc - memBefore.TotalAlloc,
	}

	if n := len(latencies); n > 0 {
		result.Throughput = float64(n) / stats.total.Seconds()
		result.AvgVertices = vertices / n
		result.AvgFaces = faces / n
	}

	return result, nil
}

// runOnce erzeugt ein Mesh und loescht die Datei sofort wieder.
func runOnce(ctx context.Context, target Target, img []byte, format voxel.Format) (*inference.Result, time.Duration, error) {
	start := time.Now()
	res, err := target.Generate(ctx, bytes.NewReader(img), format)
	if err != nil {
		return nil, 0, err
	}
	elapsed := time.Since(start)

	if err := res.Remove(); err != nil {
		return nil, 0, err
	}
	return res, elapsed, nil
}

// ============================================================================
// Statistik-Hilfsfunktionen
// ============================================================================

// latencyStats enthaelt berechnete Latenz-Statistiken.
type latencyStats struct {
	total time.Duration
	avg   time.Duration
	min   time.Duration
	max   time.Duration
	p95   time.Duration
}

// calculateStats berechnet Statistiken aus Latenz-Messungen.
func calculateStats(latencies []time.Duration) latencyStats {
	if len(latencies) == 0 {
		return latencyStats{}
	}

	// Sortieren fuer Perzentile
	sorted := slices.Clone(latencies)
	slices.Sort(sorted)

	var total time.Duration
	for _, d := range latencies {
		total += d
	}

	// P95 Index
	p95Idx := int(float64(len(sorted)) * 0.95)
	if p95Idx >= len(sorted) {
		p95Idx = len(sorted) - 1
	}

	return latencyStats{
		total: total,
		avg:   total / time.Duration(len(latencies)),
		min:   sorted[0],
		max:   sorted[len(sorted)-1],
		p95:   sorted[p95Idx],
	}
}

// parseImageSize parsed einen String wie "64x64" zu width, height.
func parseImageSize(size string) (int, int) {
	var width, height int
	_, err := fmt.Sscanf(size, "%dx%d", &width, &height)
	if err != nil || width < 0 || height < 0 {
		return 0, 0
	}
	return width, height
}
