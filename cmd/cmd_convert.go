// cmd_convert.go - Konvertierung von PyTorch-Checkpoints nach safetensors
// Hauptfunktionen: ConvertHandler, listTensors, newConvertCmd
package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/7blacky7/vaemesh/convert"
	"github.com/7blacky7/vaemesh/vae"
)

// ConvertHandler - Liest einen Checkpoint und schreibt ihn als F32 safetensors
func ConvertHandler(cmd *cobra.Command, args []string) error {
	sd, err := convert.Open(args[0])
	if err != nil {
		return err
	}

	if list, _ := cmd.Flags().GetBool("list"); list {
		listTensors(cmd.OutOrStdout(), sd)
	}

	// Gewichte muessen zur Standard-Architektur passen
	if check, _ := cmd.Flags().GetBool("check"); check {
		if _, err := vae.New(vae.DefaultConfig(), sd); err != nil {
			return err
		}
	}

	if len(args) < 2 {
		return nil
	}

	dst := args[1]
	if !strings.EqualFold(filepath.Ext(dst), ".safetensors") {
		return fmt.Errorf("output %q must have the .safetensors extension", dst)
	}

	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := convert.WriteSafetensors(f, sd); err != nil {
		os.Remove(dst)
		return err
	}

	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d tensors, %d parameters)\n", dst, sd.Len(), sd.NumParams())
	return nil
}

// listTensors - Tabelle aller Tensoren mit Form und Groesse
func listTensors(w io.Writer, sd *convert.StateDict) {
	var data [][]string
	for _, name := range sd.Names() {
		t, _ := sd.Get(name)

		dims := make([]string, len(t.Shape))
		for i, d := range t.Shape {
			dims[i] = strconv.Itoa(d)
		}
		data = append(data, []string{name, "[" + strings.Join(dims, ", ") + "]", strconv.Itoa(t.NumElements())})
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"NAME", "SHAPE", "PARAMS"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
}

// newConvertCmd - Erstellt den convert Command
func newConvertCmd() *cobra.Command {
	convertCmd := &cobra.Command{
		Use:   "convert INPUT [OUTPUT.safetensors]",
		Short: "Inspect or convert model weights to safetensors",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  ConvertHandler,
	}

	convertCmd.Flags().Bool("list", false, "List all tensors")
	convertCmd.Flags().Bool("check", false, "Verify the weights match the default architecture")

	return convertCmd
}
