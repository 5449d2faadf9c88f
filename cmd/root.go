package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/EmekaOkaforTech/deskpulse-sub008/cmd/monitor"
	"github.com/EmekaOkaforTech/deskpulse-sub008/cmd/stats"
	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/conf"
	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/logging"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "deskpulse",
		Short: "DeskPulse posture monitoring CLI",
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, settings); err != nil {
		logging.Error("error setting up flags", "error", err)
	}

	rootCmd.AddCommand(
		monitor.Command(settings),
		stats.Command(settings),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := cmd.Flags().Parse(args); err != nil {
			return err
		}
		return conf.ValidateSettings(settings)
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().IntVarP(&settings.Posture.ThresholdSeconds, "threshold", "t", viper.GetInt("posture.thresholdseconds"), "Continuous bad posture in seconds before an alert")
	rootCmd.PersistentFlags().IntVar(&settings.Posture.CooldownSeconds, "cooldown", viper.GetInt("posture.cooldownseconds"), "Minimum seconds between repeated alerts")
	rootCmd.PersistentFlags().StringVar(&settings.Output.SQLite.Path, "db", viper.GetString("output.sqlite.path"), "Path to the SQLite database")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}
