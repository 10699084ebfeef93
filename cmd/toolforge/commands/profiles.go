package commands

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newProfilesCommand() *cobra.Command {
	var catalogPath string

	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List the available installation profiles",
		Long: `List every profile the catalog defines, with the profiles each one
implies. Selecting a profile installs the components of the profile itself
plus everything reachable through its implications.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(catalogPath)
			if err != nil {
				return err
			}
			ps := cat.Profiles()

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PROFILE\tDESCRIPTION\tINCLUDES")
			for _, id := range ps.IDs() {
				p, err := ps.Resolve(id)
				if err != nil {
					return err
				}
				reachable, err := ps.Reachable(id)
				if err != nil {
					return err
				}
				var includes []string
				for r := range reachable {
					if r != id {
						includes = append(includes, string(r))
					}
				}
				sort.Strings(includes)

				list := "-"
				if len(includes) > 0 {
					list = includes[0]
					for _, inc := range includes[1:] {
						list += ", " + inc
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", id, p.Description, list)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog overlay file (YAML or CUE)")

	return cmd
}
