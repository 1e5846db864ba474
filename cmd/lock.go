package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fitz/gameplan/internal/models"
	"github.com/spf13/cobra"
)

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Fix the order of days",
	Long:  `Save ordering locks that days follow instead of time order.`,
}

var lockDayCmd = &cobra.Command{
	Use:   "day <date> <order-key>...",
	Short: "Fix the order of one date",
	Long: `Fix the order of one date. Order keys carry their source prefix, e.g.
gp:checkin, ca:<template id>, meal:<meal id> or event:<event id>.
Items not listed follow in time order.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		user, err := userFlag(cmd)
		if err != nil {
			return err
		}
		date, err := models.ParseDate(args[0])
		if err != nil {
			return err
		}
		unlock, _ := cmd.Flags().GetBool("unlock")

		a, err := openApp(ctx, appConfig, logger)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		if err := a.plans.Session(user).SaveDateLock(ctx, date, !unlock, args[1:]); err != nil {
			return err
		}
		fmt.Printf("✓ Saved order of %s (%d keys)\n", date, len(args)-1)
		return nil
	},
}

var lockWeekCmd = &cobra.Command{
	Use:   "week <weekday> <task[@HH:MM]>...",
	Short: "Fix the order of a weekday",
	Long: `Fix the order of every occurrence of a weekday (0 = Sunday ... 6 =
Saturday, or a name such as mon). Entries are task ids or order keys,
optionally followed by @HH:MM to show a different time.

With --week, only the week containing that date is changed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		user, err := userFlag(cmd)
		if err != nil {
			return err
		}
		day, err := parseWeekday(args[0])
		if err != nil {
			return err
		}
		entries := parseEntries(args[1:])

		a, err := openApp(ctx, appConfig, logger)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		sess := a.plans.Session(user)
		week, _ := cmd.Flags().GetString("week")
		if week == "" {
			if err := sess.SaveWeeklyLock(ctx, day, entries); err != nil {
				return err
			}
			fmt.Printf("✓ Saved weekly order of day %d (%d entries)\n", day, len(entries))
			return nil
		}

		d, err := models.ParseDate(week)
		if err != nil {
			return fmt.Errorf("invalid --week: %w", err)
		}
		if err := sess.SaveWeekOverride(ctx, d, day, entries); err != nil {
			return err
		}
		fmt.Printf("✓ Saved order of day %d for week of %s\n", day, models.WeekStart(d))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lockCmd)
	lockCmd.AddCommand(lockDayCmd)
	lockCmd.AddCommand(lockWeekCmd)

	lockDayCmd.Flags().Bool("unlock", false, "Store the order unlocked so the day keeps time order")
	lockWeekCmd.Flags().String("week", "", "Any date of the single week to override (YYYY-MM-DD)")
}

var weekdayNames = []string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// parseWeekday accepts 0-6 or a weekday name.
func parseWeekday(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if !models.ValidWeekday(n) {
			return 0, fmt.Errorf("weekday %d out of range 0-6", n)
		}
		return n, nil
	}
	for i, name := range weekdayNames {
		if strings.HasPrefix(s, name) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// parseEntries turns "id[@HH:MM]" arguments into schedule entries in order.
func parseEntries(args []string) []models.ScheduleEntry {
	entries := make([]models.ScheduleEntry, 0, len(args))
	for i, arg := range args {
		id, at, _ := strings.Cut(arg, "@")
		entries = append(entries, models.ScheduleEntry{
			TaskID:      id,
			Order:       i,
			DisplayTime: at,
		})
	}
	return entries
}
