// MODUL: results
// ZWECK: Formatierung und Export von Benchmark-Ergebnissen
// INPUT: Result Slices
// OUTPUT: Formatierte Ausgabe (Terminal, CSV, Markdown)
// NEBENEFFEKTE: Keine, geschrieben wird auf den uebergebenen Writer
// ABHAENGIGKEITEN: fmt, encoding/csv (stdlib)
// HINWEISE: CSV-Export verwendet Semikolon als Trennzeichen fuer DE-Kompatibilitaet

package benchmark

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// ============================================================================
// Terminal-Ausgabe
// ============================================================================

// PrintResults gibt Ergebnisse als Tabelle auf w aus.
func PrintResults(w io.Writer, results []Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, "Keine Ergebnisse vorhanden.")
		return
	}

	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "vaemesh Pipeline Benchmark")
	fmt.Fprintln(w, "==========================")
	fmt.Fprintf(w, "%-10s %-6s %-12s %-12s %-10s %-10s %-8s %-8s\n",
		"Size", "Format", "Avg Latenz", "P95 Latenz", "Mesh/s", "Memory", "Verts", "Faces")
	fmt.Fprintln(w, "-------------------------------------------------------------------------------")

	for _, r := range results {
		fmt.Fprintf(w, "%-10s %-6s %-12s %-12s %-10.2f %-10s %-8d %-8d\n",
			r.ImageSize,
			r.Format,
			formatDuration(r.AvgLatency),
			formatDuration(r.P95Latency),
			r.Throughput,
			formatBytes(r.MemoryUsed),
			r.AvgVertices,
			r.AvgFaces,
		)
	}
}

// ============================================================================
// Markdown-Ausgabe
// ============================================================================

// PrintMarkdown gibt Ergebnisse als Markdown-Tabelle aus.
func PrintMarkdown(w io.Writer, results []Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, "_Keine Ergebnisse vorhanden._")
		return
	}

	fmt.Fprintln(w, "| Size | Format | Avg Latenz | P95 | Throughput | Memory | Vertices | Faces |")
	fmt.Fprintln(w, "|------|--------|------------|-----|------------|--------|----------|-------|")

	for _, r := range results {
		fmt.Fprintf(w, "| %s | %s | %s | %s | %.2f mesh/s | %s | %d | %d |\n",
			r.ImageSize,
			r.Format,
			formatDuration(r.AvgLatency),
			formatDuration(r.P95Latency),
			r.Throughput,
			formatBytes(r.MemoryUsed),
			r.AvgVertices,
			r.AvgFaces,
		)
	}
}

// ============================================================================
// CSV-Export
// ============================================================================

// WriteCSV schreibt Ergebnisse als CSV auf einen Writer.
func WriteCSV(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';' // Semikolon fuer DE-Excel-Kompatibilitaet

	header := []string{
		"image_size", "format", "iterations", "failures",
		"avg_latency_ms", "min_latency_ms", "max_latency_ms", "p95_latency_ms",
		"throughput_mesh_s", "memory_bytes", "avg_vertices", "avg_faces",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range results {
		if err := cw.Write(buildCSVRow(r)); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// buildCSVRow erstellt eine CSV-Zeile aus einem Result.
func buildCSVRow(r Result) []string {
	return []string{
		r.ImageSize,
		string(r.Format),
		strconv.Itoa(r.Iterations),
		strconv.Itoa(r.Failures),
		formatMillis(r.AvgLatency),
		formatMillis(r.MinLatency),
		formatMillis(r.MaxLatency),
		formatMillis(r.P95Latency),
		strconv.FormatFloat(r.Throughput, 'f', 2, 64),
		strconv.FormatUint(r.MemoryUsed, 10),
		strconv.Itoa(r.AvgVertices),
		strconv.Itoa(r.AvgFaces),
	}
}

// ============================================================================
// Formatierungs-Hilfsfunktionen
// ============================================================================

func formatMillis(d time.Duration) string {
	return strconv.FormatFloat(float64(d.Microseconds())/1000, 'f', 3, 64)
}

// formatDuration formatiert eine Duration fuer menschliche Lesbarkeit.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.2fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.2fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// formatBytes formatiert Bytes fuer menschliche Lesbarkeit.
func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
