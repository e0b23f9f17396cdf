// cmd_info.go - Modell-Informationen des laufenden Servers
// Hauptfunktionen: InfoHandler, showInfo
package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/7blacky7/vaemesh/api"
)

// InfoHandler - Zeigt das geladene Modell an
func InfoHandler(cmd *cobra.Command, _ []string) error {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return err
	}

	info, err := client.Info(cmd.Context())
	if err != nil {
		return err
	}

	return showInfo(info, os.Stdout)
}

// showInfo - Gibt die Modell-Informationen als Tabelle aus
func showInfo(info *api.InfoResponse, w io.Writer) error {
	p := message.NewPrinter(language.English)

	fmt.Fprintln(w, " ", "Model")
	table := tablewriter.NewWriter(w)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk([][]string{
		{"", "weights", info.ModelPath},
		{"", "format", info.Format},
		{"", "parameters", p.Sprintf("%d", info.Parameters)},
		{"", "input", fmt.Sprintf("%dx%d", info.ImageSize, info.ImageSize)},
		{"", "latent", strconv.Itoa(info.LatentDim)},
		{"", "grid", fmt.Sprintf("%d^3", info.GridSize)},
		{"", "threshold", strconv.FormatFloat(float64(info.Threshold), 'g', -1, 32)},
		{"", "version", info.Version},
	})
	table.Render()
	fmt.Fprintln(w)

	return nil
}

// newInfoCmd - Erstellt den info Command
func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "info",
		Short:   "Show the model loaded by the server",
		Args:    cobra.ExactArgs(0),
		PreRunE: checkServerHeartbeat,
		RunE:    InfoHandler,
	}
}
