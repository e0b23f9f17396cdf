// cmd_bench.go - Benchmark der Pipeline im Prozess
// Hauptfunktionen: BenchHandler, newBenchCmd
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/7blacky7/vaemesh/benchmark"
	"github.com/7blacky7/vaemesh/voxel"
)

// BenchHandler - Misst Latenz und Durchsatz mit synthetischen Bildern
func BenchHandler(cmd *cobra.Command, _ []string) error {
	cfg := benchmark.DefaultConfig()

	var err error
	if cfg.Iterations, err = cmd.Flags().GetInt("iterations"); err != nil {
		return err
	}
	if cfg.WarmupRuns, err = cmd.Flags().GetInt("warmup"); err != nil {
		return err
	}
	if cfg.ImageSizes, err = cmd.Flags().GetStringSlice("sizes"); err != nil {
		return err
	}

	formatStr, _ := cmd.Flags().GetString("format")
	if cfg.Format, err = voxel.ParseFormat(formatStr); err != nil {
		return err
	}

	report, _ := cmd.Flags().GetString("report")
	switch report {
	case "text", "markdown", "csv":
	default:
		return fmt.Errorf("unknown report format %q", report)
	}

	tmp, err := os.MkdirTemp("", "vaemesh-bench")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)

	gen, err := localGenerator(tmp)
	if err != nil {
		return err
	}

	results, err := benchmark.Run(cmd.Context(), gen, cfg)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	switch report {
	case "markdown":
		benchmark.PrintMarkdown(w, results)
	case "csv":
		return benchmark.WriteCSV(w, results)
	default:
		benchmark.PrintResults(w, results)
	}
	return nil
}

// newBenchCmd - Erstellt den bench Command
func newBenchCmd() *cobra.Command {
	defaults := benchmark.DefaultConfig()

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark the image to mesh pipeline",
		Args:  cobra.ExactArgs(0),
		RunE:  BenchHandler,
	}

	benchCmd.Flags().Int("iterations", defaults.Iterations, "Measured runs per image size")
	benchCmd.Flags().Int("warmup", defaults.WarmupRuns, "Unmeasured warmup runs per image size")
	benchCmd.Flags().StringSlice("sizes", defaults.ImageSizes, "Input image sizes (WIDTHxHEIGHT)")
	benchCmd.Flags().StringP("format", "f", string(defaults.Format), "Mesh format (obj or stl)")
	benchCmd.Flags().String("report", "text", "Report format (text, markdown or csv)")
	benchCmd.Flags().StringP("output", "o", "", "Write the report to a file instead of stdout")

	return benchCmd
}
