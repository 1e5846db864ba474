package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/fitz/gameplan/internal/models"
	"github.com/fitz/gameplan/internal/plan"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan [start] [end]",
	Short: "Print a user's Game Plan",
	Long: `Print the ordered Game Plan of a user for a date range.

Start defaults to today and end to start. Dates are YYYY-MM-DD.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		user, err := userFlag(cmd)
		if err != nil {
			return err
		}

		a, err := openApp(ctx, appConfig, logger)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		start, end, err := parseRange(args, a.plans.Today())
		if err != nil {
			return err
		}

		p, err := a.plans.Aggregate(ctx, user, start, end)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(p)
		}
		printPlan(os.Stdout, p)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().Bool("json", false, "Print the plan as JSON")
}

// parseRange reads the optional start and end arguments.
func parseRange(args []string, today civil.Date) (civil.Date, civil.Date, error) {
	start := today
	if len(args) > 0 {
		d, err := models.ParseDate(args[0])
		if err != nil {
			return civil.Date{}, civil.Date{}, fmt.Errorf("invalid start: %w", err)
		}
		start = d
	}
	end := start
	if len(args) > 1 {
		d, err := models.ParseDate(args[1])
		if err != nil {
			return civil.Date{}, civil.Date{}, fmt.Errorf("invalid end: %w", err)
		}
		end = d
	}
	return start, end, nil
}

func printPlan(w io.Writer, p *plan.Plan) {
	if len(p.Degraded) > 0 {
		fmt.Fprintf(w, "! could not read: %s\n\n", strings.Join(p.Degraded, ", "))
	}
	for _, day := range p.Days {
		fmt.Fprintf(w, "%s %s  %d/%d done  (%s)\n",
			day.Date, time.Weekday(models.Weekday(day.Date)).String()[:3], day.Completed, day.Total, day.Policy)
		for _, it := range day.Items {
			mark := " "
			if it.Completed {
				mark = "x"
			}
			t := it.DisplayTime
			if t == "" {
				t = it.StartTime
			}
			if t == "" {
				t = "     "
			}
			line := fmt.Sprintf("  [%s] %s  %s", mark, t, it.Title)
			if it.Detail != "" {
				line += " - " + it.Detail
			}
			if it.Skipped {
				line += " (skipped)"
			}
			fmt.Fprintf(w, "%s  <%s>\n", line, it.OrderKey)
		}
		fmt.Fprintln(w)
	}
}
