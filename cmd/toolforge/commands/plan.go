package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/toolforge/toolforge/pkg/catalog"
	"github.com/toolforge/toolforge/pkg/engine"
)

func newPlanCommand() *cobra.Command {
	var (
		profileFlag string
		catalogPath string
		jsonOutput  bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Preview what an install run would do",
		Long: `Resolve profile relevance against the catalog without executing anything.

The plan shows, in catalog order, which components would be attempted and
which would be skipped. Failure-driven skips depend on runtime outcomes and
cannot appear here.`,
		Example: `  # Preview the Data_Science_Core profile
  toolforge plan --profile Data_Science_Core

  # Machine-readable plan
  toolforge plan --profile Full --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(catalogPath)
			if err != nil {
				return err
			}

			entries, err := engine.Plan(cat, catalog.ProfileID(profileFlag))
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "COMPONENT\tACTION\tMETHODS\tFLAGS")
			for _, e := range entries {
				action := string(e.Action)
				methods := ""
				if e.Action == engine.PlanActionInstall {
					for i, m := range e.Methods {
						if i > 0 {
							methods += ","
						}
						methods += m
					}
				} else {
					action = fmt.Sprintf("%s (%s)", e.Action, e.SkipReason)
				}
				flags := ""
				if e.Critical {
					flags = "critical"
				}
				if e.HaltOnFailure {
					flags += " halt-on-failure"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.ComponentID, action, methods, flags)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&profileFlag, "profile", "p", "", "profile to plan for")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog overlay file (YAML or CUE)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	cmd.MarkFlagRequired("profile")

	return cmd
}
