package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newComponentsCommand() *cobra.Command {
	var catalogPath string

	cmd := &cobra.Command{
		Use:   "components",
		Short: "List the catalog components",
		Long: `List every component in the catalog, in execution order, with its
profiles, installation methods, and failure policy.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(catalogPath)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "COMPONENT\tPROFILES\tMETHODS\tFLAGS")
			for _, spec := range cat.Components() {
				profiles := "all"
				if len(spec.Profiles) > 0 {
					names := make([]string, len(spec.Profiles))
					for i, p := range spec.Profiles {
						names[i] = string(p)
					}
					profiles = strings.Join(names, ",")
				}

				methods := make([]string, len(spec.Methods))
				for i, m := range spec.Methods {
					methods[i] = m.Name
				}

				var flags []string
				if spec.Critical {
					flags = append(flags, "critical")
				}
				if spec.HaltOnFailure {
					flags = append(flags, "halt-on-failure")
				}

				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					spec.ID, profiles, strings.Join(methods, ","), strings.Join(flags, " "))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog overlay file (YAML or CUE)")

	return cmd
}
