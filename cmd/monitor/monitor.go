package monitor

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/conf"
	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/logging"
	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/pipeline"
)

// Command creates the monitor command, which runs the full posture
// monitoring pipeline until interrupted.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Run posture monitoring",
		Long:  "Start capturing frames, classifying posture, and delivering alerts until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return pipeline.Run(settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		logging.Fatal("error setting up flags", "error", err)
	}

	return cmd
}

// setupFlags configures flags specific to the monitor command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.Capture.Source, "source", viper.GetString("capture.source"), "Frame capture source (\"synthetic\" or a device identifier)")
	cmd.Flags().DurationVar(&settings.Capture.Interval, "interval", viper.GetDuration("capture.interval"), "Time between captured frames")
	cmd.Flags().BoolVar(&settings.Dashboard.Enabled, "dashboard", viper.GetBool("dashboard.enabled"), "Enable the HTTP dashboard")
	cmd.Flags().StringVar(&settings.Dashboard.Listen, "listen", viper.GetString("dashboard.listen"), "Listen address and port of the dashboard")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}
