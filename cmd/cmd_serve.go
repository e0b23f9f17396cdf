// cmd_serve.go - Server-Start und Versionsanzeige
// Hauptfunktionen: RunServer, versionHandler, newServeCmd
package cmd

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/7blacky7/vaemesh/api"
	"github.com/7blacky7/vaemesh/envconfig"
	"github.com/7blacky7/vaemesh/server"
	"github.com/7blacky7/vaemesh/version"
)

// RunServer - Startet den vaemesh-Server
func RunServer(_ *cobra.Command, _ []string) error {
	ln, err := net.Listen("tcp", envconfig.Host().Host)
	if err != nil {
		return err
	}

	err = server.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

// versionHandler - Zeigt die Version an
func versionHandler(cmd *cobra.Command, _ []string) {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return
	}

	serverVersion, err := client.Version(cmd.Context())
	if err != nil {
		fmt.Println("Warning: could not connect to a running vaemesh instance")
	}

	if serverVersion != "" {
		fmt.Printf("vaemesh version is %s\n", serverVersion)
	}

	if serverVersion != version.Version {
		fmt.Printf("Warning: client version is %s\n", version.Version)
	}
}

// newServeCmd - Erstellt den serve Command
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start"},
		Short:   "Start the vaemesh server",
		Args:    cobra.ExactArgs(0),
		RunE:    RunServer,
	}
}
