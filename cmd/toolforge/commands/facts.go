package commands

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/toolforge/toolforge/pkg/facts"
	"github.com/toolforge/toolforge/pkg/pathenv"
)

func newFactsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "facts",
		Short: "Show discovered machine facts",
		Long: `Collect and print the machine facts an install run would see: platform,
available package managers, and the effective durable search path.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			machine := facts.Collect(pathenv.NewResolver())

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(machine)
		},
	}

	return cmd
}
