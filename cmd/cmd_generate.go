// cmd_generate.go - Mesh-Generierung ueber den Server oder im Prozess
// Hauptfunktionen: GenerateHandler, generateRemote, generateLocal, newGenerateCmd
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/7blacky7/vaemesh/api"
	"github.com/7blacky7/vaemesh/inference"
	"github.com/7blacky7/vaemesh/voxel"
)

// generateOptions - Flags des generate Commands
type generateOptions struct {
	OutputDir string
	Format    voxel.Format
	Local     bool
	Latent    bool
	Parallel  int
}

// latentFile - Inhalt der <bild>.latent.json Datei
type latentFile struct {
	Image  string    `json:"image"`
	Mu     []float32 `json:"mu"`
	LogVar []float32 `json:"logvar"`
}

// GenerateHandler - Erzeugt fuer jedes Bild ein Mesh
func GenerateHandler(cmd *cobra.Command, args []string) error {
	opts, err := parseGenerateFlags(cmd)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return err
	}

	if opts.Local {
		gen, err := localGenerator(opts.OutputDir)
		if err != nil {
			return err
		}
		return generateAll(cmd, args, opts, func(ctx context.Context, image, dst string) (string, error) {
			return generateLocal(ctx, gen, image, dst, opts)
		})
	}

	if err := checkServerHeartbeat(cmd, args); err != nil {
		return err
	}

	client, err := api.ClientFromEnvironment()
	if err != nil {
		return err
	}

	return generateAll(cmd, args, opts, func(ctx context.Context, image, dst string) (string, error) {
		return generateRemote(ctx, client, image, dst, opts)
	})
}

// parseGenerateFlags - Liest und prueft die Flags
func parseGenerateFlags(cmd *cobra.Command) (generateOptions, error) {
	var opts generateOptions
	var err error

	if opts.OutputDir, err = cmd.Flags().GetString("output"); err != nil {
		return opts, err
	}

	formatStr, err := cmd.Flags().GetString("format")
	if err != nil {
		return opts, err
	}
	if opts.Format, err = voxel.ParseFormat(formatStr); err != nil {
		return opts, err
	}

	if opts.Local, err = cmd.Flags().GetBool("local"); err != nil {
		return opts, err
	}
	if opts.Latent, err = cmd.Flags().GetBool("latent"); err != nil {
		return opts, err
	}
	if opts.Latent && !opts.Local {
		return opts, errors.New("--latent requires --local")
	}

	if opts.Parallel, err = cmd.Flags().GetInt("parallel"); err != nil {
		return opts, err
	}
	if opts.Parallel < 1 {
		opts.Parallel = 1
	}

	return opts, nil
}

// generateAll - Verarbeitet alle Bilder mit begrenzter Parallelitaet.
// Jedes Bild bekommt einen eigenen Zielpfad, der erste Fehler bricht die
// restlichen Bilder ab.
func generateAll(cmd *cobra.Command, images []string, opts generateOptions, fn func(ctx context.Context, image, dst string) (string, error)) error {
	targets := meshPaths(opts.OutputDir, images, opts.Format)

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(opts.Parallel)

	var mu sync.Mutex
	for i, image := range images {
		g.Go(func() error {
			out, err := fn(ctx, image, targets[i])
			if err != nil {
				return fmt.Errorf("%s: %w", image, err)
			}

			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", image, out)
			return nil
		})
	}

	return g.Wait()
}

// generateRemote - Laedt das Bild zum Server hoch und speichert die Antwort
func generateRemote(ctx context.Context, client *api.Client, image, dst string, opts generateOptions) (string, error) {
	f, err := os.Open(image)
	if err != nil {
		return "", err
	}
	defer f.Close()

	resp, err := client.Generate(ctx, &api.GenerateRequest{
		Filename: image,
		Image:    f,
		Format:   string(opts.Format),
	})
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(dst, resp.Data, 0o644); err != nil {
		return "", err
	}
	return dst, nil
}

// generateLocal - Fuehrt die Pipeline im Prozess aus
func generateLocal(ctx context.Context, gen *inference.Generator, image, dst string, opts generateOptions) (string, error) {
	f, err := os.Open(image)
	if err != nil {
		return "", err
	}
	defer f.Close()

	res, err := gen.Generate(ctx, f, opts.Format)
	if err != nil {
		return "", err
	}

	if err := os.Rename(res.Path, dst); err != nil {
		if rerr := res.Remove(); rerr != nil {
			slog.Warn("failed to remove output", "path", res.Path, "error", rerr)
		}
		return "", err
	}

	if opts.Latent {
		data, err := json.MarshalIndent(latentFile{Image: image, Mu: res.Mu, LogVar: res.LogVar}, "", "  ")
		if err != nil {
			return "", err
		}

		latent := strings.TrimSuffix(dst, "."+opts.Format.Ext()) + ".latent.json"
		if err := os.WriteFile(latent, data, 0o644); err != nil {
			return "", err
		}
	}

	return fmt.Sprintf("%s (%d vertices, %d faces)", dst, res.Vertices, res.Faces), nil
}

// newGenerateCmd - Erstellt den generate Command
func newGenerateCmd() *cobra.Command {
	generateCmd := &cobra.Command{
		Use:   "generate [flags] IMAGE...",
		Short: "Generate a 3D mesh from one or more images",
		Args:  cobra.MinimumNArgs(1),
		RunE:  GenerateHandler,
	}

	generateCmd.Flags().StringP("output", "o", ".", "Directory for generated meshes")
	generateCmd.Flags().StringP("format", "f", string(voxel.FormatOBJ), "Mesh format (obj or stl)")
	generateCmd.Flags().Bool("local", false, "Run the model in-process instead of calling the server")
	generateCmd.Flags().Bool("latent", false, "Also write mu/logvar as <image>.latent.json (requires --local)")
	generateCmd.Flags().IntP("parallel", "p", min(4, runtime.NumCPU()), "Number of images processed concurrently")

	return generateCmd
}
