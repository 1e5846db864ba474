package cmd

import (
	"fmt"

	"github.com/fitz/gameplan/internal/models"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed <fixture.yaml>...",
	Short: "Import fixture files into the backend",
	Long: `Import one or more YAML fixtures into the configured backend.

Each fixture holds every source record of one user: templates, logs, events,
task schedules, completions, skips, programs, meals, locks and modules.
Records are upserted by id, so seeding the same file twice is harmless.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		fixtures := make([]*models.Fixture, 0, len(args))
		for _, path := range args {
			f, err := models.LoadFixture(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			fixtures = append(fixtures, f)
		}

		a, err := openApp(ctx, appConfig, logger)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		for i, f := range fixtures {
			if err := a.store.Import(ctx, f); err != nil {
				return fmt.Errorf("failed to import %s: %w", args[i], err)
			}
			fmt.Printf("✓ Imported %s for user %s\n", args[i], f.UserID)
		}
		return nil
	},
}

var modulesCmd = &cobra.Command{
	Use:   "modules [module]...",
	Short: "Set the modules a user holds",
	Long: `Replace the modules (capabilities) held by a user. Module-gated tasks
only appear for users holding their module. Run without arguments to clear
every module.`,
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

		if err := a.store.SetCapabilities(ctx, user, args); err != nil {
			return fmt.Errorf("failed to set modules: %w", err)
		}
		caps := models.NewCapabilities(args...)
		fmt.Printf("✓ %s holds %d module(s): %v\n", user, caps.Len(), caps.List())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(modulesCmd)
}
