package cmd

import (
	"fmt"
	"strings"

	"github.com/fitz/gameplan/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration settings",
	Long:  `View and modify configuration settings for Game Plan.`,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the .env file (local or global).

Use --global flag to set in the global configuration (~/.gameplan/config).
Otherwise, sets in the local .env file.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if !config.IsKnownKey(key) {
			return fmt.Errorf("unknown key %s; known keys: %s", key, strings.Join(config.Keys(), ", "))
		}

		if global, _ := cmd.Flags().GetBool("global"); global {
			if err := config.SetGlobalConfig(key, value); err != nil {
				return err
			}
			fmt.Printf("✓ Set %s (global)\n", key)
			return nil
		}

		dir, err := configDir(cmd)
		if err != nil {
			return err
		}
		if err := config.Set(dir, key, value); err != nil {
			return err
		}
		fmt.Printf("✓ Set %s (local)\n", key)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Get a configuration value",
	Long:  `Retrieve a configuration value from the .env file, or the global file with --global.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]

		var value string
		var err error
		if global, _ := cmd.Flags().GetBool("global"); global {
			value, err = config.GetGlobalConfig(key)
		} else {
			var dir string
			if dir, err = configDir(cmd); err == nil {
				value, err = config.Get(dir, key)
			}
		}
		if err != nil {
			return err
		}

		fmt.Printf("%s=%s\n", key, value)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration values",
	Long:  `Display the effective value of every configuration key.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := configDir(cmd)
		if err != nil {
			return err
		}

		if _, err := config.Load(dir); err != nil {
			fmt.Printf("Configuration (%v):\n", err)
		} else {
			fmt.Println("Configuration:")
		}

		values := config.Resolved(dir)
		for _, key := range config.Keys() {
			value := values[key]
			if isSecret(key) {
				value = maskPassword(value)
			} else if value == "" {
				value = "(not set)"
			}
			fmt.Printf("  %s: %s\n", key, value)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configListCmd)

	configSetCmd.Flags().Bool("global", false, "Set in global config instead of local")
	configGetCmd.Flags().Bool("global", false, "Read from global config instead of local")
}

func isSecret(key string) bool {
	return strings.HasSuffix(key, "_PASSWORD") || key == "DATABASE_URL"
}

// maskPassword masks a password string for display.
func maskPassword(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + "****" + s[len(s)-2:]
}
