package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"lotwatch/internal/fileutil"
	"lotwatch/internal/pipeline"
	"lotwatch/internal/scan"
)

type decodeView struct {
	Line       string   `json:"line"`
	OK         bool     `json:"ok"`
	Process    string   `json:"process,omitempty"`
	Part       string   `json:"part,omitempty"`
	Serial     string   `json:"serial,omitempty"`
	Device     string   `json:"device,omitempty"`
	ProducedAt string   `json:"produced_at,omitempty"`
	Quantity   int      `json:"quantity,omitempty"`
	Fields     []string `json:"fields,omitempty"`
	Row        string   `json:"row,omitempty"`
	ErrorType  string   `json:"error_type,omitempty"`
	Error      string   `json:"error,omitempty"`
}

func newDecodeCommand(ctx *commandContext) *cobra.Command {
	var (
		asJSON   bool
		fromFile string
	)

	cmd := &cobra.Command{
		Use:   "decode [line...]",
		Short: "Decode inbox lines without touching any table",
		Long:  "Decode inbox lines given as arguments, read from --file, or read from stdin, and report how each would be parsed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := ctx.ensureCatalog()
			if err != nil {
				return fmt.Errorf("load catalog: %w", err)
			}

			lines := args
			if len(lines) == 0 {
				var reader io.Reader = cmd.InOrStdin()
				if path := strings.TrimSpace(fromFile); path != "" {
					file, err := os.Open(path)
					if err != nil {
						return fmt.Errorf("open %s: %w", path, err)
					}
					defer file.Close()
					reader = file
				}
				lines, err = fileutil.ScanLines(reader)
				if err != nil {
					return err
				}
			}

			codec := scan.NewCodec(cat)
			views := make([]decodeView, 0, len(lines))
			failed := 0
			for _, line := range lines {
				view := decodeView{Line: line}
				event, err := codec.Decode(line)
				if err != nil {
					failed++
					view.ErrorType = pipeline.ErrorType(err)
					view.Error = err.Error()
					views = append(views, view)
					continue
				}
				view.OK = true
				view.Process = event.Process.Name
				view.Part = event.Part.Number
				view.Serial = event.SerialValue()
				view.Device = event.Address.String()
				view.ProducedAt = scan.FormatTimestamp(event.ProducedAt)
				view.Quantity = event.Primary.Quantity
				view.Fields = event.Fields.Values()
				view.Row = scan.Encode(event)
				views = append(views, view)
			}

			if asJSON {
				if err := writeJSON(cmd, views); err != nil {
					return err
				}
			} else {
				rows := make([][]string, 0, len(views))
				for _, v := range views {
					if v.OK {
						rows = append(rows, []string{"ok", v.Process, v.Part, v.Serial, v.Device, strconv.Itoa(v.Quantity), ""})
						continue
					}
					rows = append(rows, []string{"error", "", "", "", "", "", v.ErrorType + ": " + v.Error})
				}
				writeRows(cmd.OutOrStdout(),
					[]string{"Status", "Process", "Part", "Serial", "Device", "Qty", "Error"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d line(s) failed to decode", failed, len(lines))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().StringVarP(&fromFile, "file", "f", "", "Read lines from a file instead of stdin")
	return cmd
}
