package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the built-in Game Plan tasks",
	Long: `List the built-in tasks of the configured catalog (GAMEPLAN_CATALOG, or
the bundled default).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := openCatalog(appConfig)
		if err != nil {
			return err
		}

		kind, _ := cmd.Flags().GetString("kind")
		tasks, err := cat.Select(kind)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tKIND\tMODULE\tTIME\tDAYS")
		for _, t := range tasks {
			days := "all"
			if len(t.RecommendedDays) > 0 {
				days = fmt.Sprint(t.RecommendedDays)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Kind, dash(t.Module), dash(t.StartTime), days)
		}
		return w.Flush()
	},
}

func init() {
	catalogCmd.Flags().String("kind", "", "Only list tasks of this kind (daily or gated)")
	rootCmd.AddCommand(catalogCmd)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
