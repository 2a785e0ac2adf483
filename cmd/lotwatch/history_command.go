package main

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"lotwatch/internal/journal"
)

type historyView struct {
	Counts  map[string]int  `json:"counts"`
	Entries []journal.Entry `json:"entries"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent routing outcomes from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Journal.Enabled {
				return errors.New("journal is disabled (set journal.enabled = true)")
			}
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}

			store, err := journal.Open(cfg.Paths.JournalPath)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer store.Close()

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			counts, err := store.Counts(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, historyView{Counts: counts, Entries: entries})
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Journal is empty")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.RecordedAt.Local().Format(time.DateTime),
					e.Process,
					e.Serial,
					e.Device,
					e.Outcome,
					e.Detail,
				})
			}
			writeRows(out,
				[]string{"Recorded", "Process", "Serial", "Device", "Outcome", "Detail"},
				rows, nil,
			)

			outcomes := make([]string, 0, len(counts))
			for outcome := range counts {
				outcomes = append(outcomes, outcome)
			}
			sort.Strings(outcomes)
			fmt.Fprint(out, "Totals:")
			for _, outcome := range outcomes {
				fmt.Fprintf(out, " %s=%d", outcome, counts[outcome])
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
