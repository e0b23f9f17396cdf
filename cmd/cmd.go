// cmd.go - Haupt-CLI Setup und Root Command
// Hauptfunktionen: NewCLI, appendEnvDocs
package cmd

import (
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/containerd/console"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/7blacky7/vaemesh/envconfig"
)

// appendEnvDocs - Fuegt Umgebungsvariablen-Dokumentation zum Command hinzu
func appendEnvDocs(cmd *cobra.Command, envs []envconfig.EnvVar) {
	if len(envs) == 0 {
		return
	}

	envUsage := `
Environment Variables:
`
	for _, e := range envs {
		envUsage += fmt.Sprintf("      %-24s   %s\n", e.Name, e.Description)
	}

	cmd.SetUsageTemplate(cmd.UsageTemplate() + envUsage)
}

// NewCLI - Erstellt das Haupt-CLI mit allen Commands
func NewCLI() *cobra.Command {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	cobra.EnableCommandSorting = false

	if runtime.GOOS == "windows" && term.IsTerminal(int(os.Stdout.Fd())) {
		console.ConsoleFromFile(os.Stdin) //nolint:errcheck
	}

	rootCmd := &cobra.Command{
		Use:           "vaemesh",
		Short:         "Image to 3D voxel mesh generator",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Run: func(cmd *cobra.Command, args []string) {
			if version, _ := cmd.Flags().GetBool("version"); version {
				versionHandler(cmd, args)
				return
			}

			cmd.Print(cmd.UsageString())
		},
	}

	rootCmd.Flags().BoolP("version", "v", false, "Show version information")

	// Commands erstellen
	serveCmd := newServeCmd()
	generateCmd := newGenerateCmd()
	infoCmd := newInfoCmd()
	convertCmd := newConvertCmd()
	benchCmd := newBenchCmd()

	// Environment-Dokumentation hinzufuegen
	envVars := envconfig.AsMap()
	local := []envconfig.EnvVar{
		envVars["VAEMESH_MODEL"],
		envVars["VAEMESH_OUTPUT"],
		envVars["VAEMESH_THRESHOLD"],
		envVars["VAEMESH_DEBUG"],
	}

	for _, cmd := range []*cobra.Command{serveCmd, generateCmd, infoCmd, benchCmd} {
		switch cmd {
		case serveCmd:
			appendEnvDocs(cmd, []envconfig.EnvVar{
				envVars["VAEMESH_DEBUG"],
				envVars["VAEMESH_HOST"],
				envVars["VAEMESH_ORIGINS"],
				envVars["VAEMESH_MODEL"],
				envVars["VAEMESH_STATIC"],
				envVars["VAEMESH_OUTPUT"],
				envVars["VAEMESH_THRESHOLD"],
				envVars["VAEMESH_KEEP_OUTPUT"],
				envVars["VAEMESH_MAX_UPLOAD"],
			})
		case generateCmd:
			appendEnvDocs(cmd, append([]envconfig.EnvVar{envVars["VAEMESH_HOST"]}, local...))
		case benchCmd:
			appendEnvDocs(cmd, local)
		default:
			appendEnvDocs(cmd, []envconfig.EnvVar{envVars["VAEMESH_HOST"]})
		}
	}

	rootCmd.AddCommand(
		serveCmd,
		generateCmd,
		infoCmd,
		convertCmd,
		benchCmd,
	)

	return rootCmd
}
