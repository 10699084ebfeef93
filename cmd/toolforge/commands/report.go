package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/toolforge/toolforge/pkg/stores"
)

func newReportCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the latest run from the history store",
		Long: `Read the most recent run from the local run-history database and print
its component outcomes. The written report file is the primary artifact;
this command is for inspecting history after the fact.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			store, err := stores.NewSQLiteStore(filepath.Join(stateDir, "state.db"))
			if err != nil {
				return err
			}
			if err := store.Init(ctx); err != nil {
				return fmt.Errorf("no run history available: %w", err)
			}
			defer store.Close()
			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("run history schema error: %w", err)
			}

			run, err := store.GetLatestRun(ctx)
			if err != nil {
				return err
			}
			if run == nil {
				return fmt.Errorf("no runs recorded yet")
			}

			results, err := store.ListResults(ctx, run.ID)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Run     *stores.RunRecord              `json:"run"`
					Results []stores.ComponentResultRecord `json:"results"`
				}{run, results})
			}

			fmt.Printf("run %s\nprofile: %s\nstatus: %s\nstarted: %s\n",
				run.ID, run.Profile, run.Status, run.StartedAt.Format(time.RFC3339))
			if run.CompletedAt != nil {
				fmt.Printf("completed: %s\n", run.CompletedAt.Format(time.RFC3339))
			}
			fmt.Println()

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "COMPONENT\tSTATUS\tDETAIL")
			for _, r := range results {
				detail := ""
				switch {
				case r.SkipReason != "":
					detail = r.SkipReason
				case r.Diagnostic != "":
					detail = r.Diagnostic
				case r.Method != "":
					detail = "method " + r.Method
					if r.Version != "" {
						detail += ", version " + r.Version
					}
				case r.Version != "":
					detail = "version " + r.Version
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.ComponentID, r.Status, detail)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	return cmd
}
