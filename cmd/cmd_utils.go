// cmd_utils.go - Gemeinsame Hilfsfunktionen
// Hauptfunktionen: checkServerHeartbeat, meshPath, meshPaths, localGenerator
package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/7blacky7/vaemesh/api"
	"github.com/7blacky7/vaemesh/envconfig"
	"github.com/7blacky7/vaemesh/inference"
	"github.com/7blacky7/vaemesh/voxel"
)

// checkServerHeartbeat - Prueft ob der Server erreichbar ist
func checkServerHeartbeat(cmd *cobra.Command, _ []string) error {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return err
	}

	if err := client.Heartbeat(cmd.Context()); err != nil {
		if strings.Contains(err.Error(), " refused") || strings.Contains(err.Error(), "could not connect") {
			return fmt.Errorf("vaemesh server not responding at %s, start it with 'vaemesh serve' or use --local", envconfig.Host())
		}
		return err
	}
	return nil
}

// meshPath - Zielpfad <dir>/<bildname>.<ext>
func meshPath(dir, image string, format voxel.Format) string {
	base := filepath.Base(image)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, base+"."+format.Ext())
}

// meshPaths - Zielpfade fuer alle Bilder. Gleiche Namen (chair.png und
// chair.jpg, a/chair.png und b/chair.png) bekommen ein Suffix -1, -2, ...
func meshPaths(dir string, images []string, format voxel.Format) []string {
	paths := make([]string, len(images))
	used := make(map[string]bool, len(images))

	// Vergleich ohne Gross-/Kleinschreibung wegen macOS und Windows
	for i, image := range images {
		path := meshPath(dir, image, format)
		stem := strings.TrimSuffix(path, "."+format.Ext())
		for n := 1; used[strings.ToLower(path)]; n++ {
			path = fmt.Sprintf("%s-%d.%s", stem, n, format.Ext())
		}

		used[strings.ToLower(path)] = true
		paths[i] = path
	}

	return paths
}

// localGenerator - Laedt das Modell im Prozess, Ausgaben landen in outDir
func localGenerator(outDir string) (*inference.Generator, error) {
	cfg := inference.ConfigFromEnvironment()
	if outDir != "" {
		cfg.OutputDir = outDir
	}
	return inference.New(cfg)
}
