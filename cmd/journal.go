/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/editeur/internal/store"
)

var (
	journalDBPath string
	journalLimit  int
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect the operation journal",
	Long: `List, summarise and clear the SQLite journal of operations. The journal
holds metadata only: operation, path taken, provider, failure kind and latency.`,
}

func openJournal(cmd *cobra.Command) (*store.Store, error) {
	path := journalDBPath
	if path == "" {
		path = cfg.Journal.Path
	}
	if path == "" {
		return nil, errors.New("no journal configured: set journal.path or pass --db")
	}
	db, err := store.New(cmd.Context(), path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recent operations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openJournal(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		records, err := db.List(cmd.Context(), journalLimit)
		if err != nil {
			return fmt.Errorf("failed to list operations: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(records) == 0 {
			fmt.Fprintln(out, "No operations in the journal.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tOPERATION\tPATH\tPROVIDER\tMODEL\tFAILURE\tRUNES\tLATENCY")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%dms\n",
				r.CreatedAt.Format("2006-01-02 15:04:05"), r.Operation, r.Path,
				dash(r.Provider), dash(r.Model), dash(r.FailureKind),
				r.InputRunes, r.LatencyMs)
		}
		return w.Flush()
	},
}

var journalStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show call counts per operation and path",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openJournal(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Total operations: %d\n", stats.Total)
		if len(stats.ByPath) == 0 {
			return nil
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "OPERATION\tPATH\tCOUNT\tAVG LATENCY")
		for _, pc := range stats.ByPath {
			fmt.Fprintf(w, "%s\t%s\t%d\t%dms\n", pc.Operation, pc.Path, pc.Count, pc.AvgMs)
		}
		return w.Flush()
	},
}

var journalClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every journal entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openJournal(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.Clear(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to clear journal: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d entries from the journal.\n", n)
		return nil
	},
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	rootCmd.AddCommand(journalCmd)

	journalCmd.PersistentFlags().StringVar(&journalDBPath, "db", "", "Database path (default journal.path)")
	journalListCmd.Flags().IntVarP(&journalLimit, "limit", "n", 50, "Maximum number of entries")

	journalCmd.AddCommand(journalListCmd)
	journalCmd.AddCommand(journalStatsCmd)
	journalCmd.AddCommand(journalClearCmd)
}
