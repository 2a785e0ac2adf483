package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lotwatch/internal/catalog"
	"lotwatch/internal/scan"
	"lotwatch/internal/tables"
	"lotwatch/internal/traceability"
)

func newTablesCommand(ctx *commandContext) *cobra.Command {
	tablesCmd := &cobra.Command{
		Use:   "tables",
		Short: "Inspect and create process tables",
	}
	tablesCmd.AddCommand(newTablesListCommand(ctx))
	tablesCmd.AddCommand(newTablesInitCommand(ctx))
	return tablesCmd
}

func openTables(ctx *commandContext) (*tables.Store, *catalog.Static, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	cat, err := ctx.ensureCatalog()
	if err != nil {
		return nil, nil, fmt.Errorf("load catalog: %w", err)
	}
	validator := traceability.New(traceability.Options{
		WindowDays:    cfg.Validation.PreviousWindowDays,
		DeburrProcess: cfg.Validation.DeburrProcess,
	})
	return tables.NewStore(cfg.Paths.TablesDir, scan.NewCodec(cat), validator, nil), cat, nil
}

type tableView struct {
	Process  string `json:"process"`
	Type     string `json:"type"`
	Serial   string `json:"serial"`
	Previous string `json:"previous,omitempty"`
	Path     string `json:"path"`
	Exists   bool   `json:"exists"`
	Rows     int    `json:"rows"`
	Modified string `json:"modified,omitempty"`
}

func newTablesListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show every catalog process and its table",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cat, err := openTables(ctx)
			if err != nil {
				return err
			}
			summaries, err := store.Summarize(cat.Names())
			if err != nil {
				return err
			}

			views := make([]tableView, 0, len(summaries))
			for _, s := range summaries {
				process, err := cat.GetProcess(s.Process)
				if err != nil {
					return err
				}
				previous, _ := process.PreviousProcess()
				view := tableView{
					Process:  s.Process,
					Type:     process.Type.String(),
					Serial:   process.EffectiveSerial().String(),
					Previous: previous,
					Path:     s.Path,
					Exists:   s.Exists,
					Rows:     s.Rows,
				}
				if !s.Modified.IsZero() {
					view.Modified = s.Modified.Format(time.RFC3339)
				}
				views = append(views, view)
			}

			if asJSON {
				return writeJSON(cmd, views)
			}
			if len(views) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Catalog defines no processes")
				return nil
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				previous := v.Previous
				if previous == "" {
					previous = "-"
				}
				rows = append(rows, []string{v.Process, v.Type, v.Serial, previous, yesNo(v.Exists), strconv.Itoa(v.Rows)})
			}
			writeRows(cmd.OutOrStdout(),
				[]string{"Process", "Type", "Serial", "Previous", "Table", "Rows"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
			)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newTablesInitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "init [process...]",
		Short: "Create empty tables for catalog processes",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cat, err := openTables(ctx)
			if err != nil {
				return err
			}
			names := cat.Names()
			if len(args) > 0 {
				names = names[:0:0]
				for _, arg := range args {
					name := strings.TrimSpace(arg)
					if _, err := cat.GetProcess(name); err != nil {
						return err
					}
					names = append(names, name)
				}
			}

			out := cmd.OutOrStdout()
			created := 0
			for _, name := range names {
				ok, err := store.Create(name)
				if err != nil {
					return err
				}
				if ok {
					created++
					fmt.Fprintf(out, "Created %s\n", store.Path(name))
				}
			}
			fmt.Fprintf(out, "%d table(s) created, %d already present\n", created, len(names)-created)
			return nil
		},
	}
}
