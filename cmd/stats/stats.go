package stats

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/conf"
	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/datastore"
)

// Command creates the stats command, which prints the posture summary for a
// single day.
func Command(settings *conf.Settings) *cobra.Command {
	var dayFlag string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print a daily posture summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			day := time.Now()
			if dayFlag != "" {
				parsed, err := time.ParseInLocation("2006-01-02", dayFlag, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --day value %q, expected YYYY-MM-DD: %w", dayFlag, err)
				}
				day = parsed
			}
			return printDailySummary(cmd, settings, day)
		},
	}

	cmd.Flags().StringVar(&dayFlag, "day", "", "Day to summarize as YYYY-MM-DD (default today)")

	return cmd
}

func printDailySummary(cmd *cobra.Command, settings *conf.Settings, day time.Time) error {
	store := datastore.NewSQLiteStore(conf.GetBasePath(settings.Output.SQLite.Path), nil)
	if err := store.Open(); err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	daily, err := store.DailyStats(day)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Posture summary for %s\n", day.Format("2006-01-02"))
	fmt.Fprintf(out, "  good posture:  %s\n", formatSeconds(daily.GoodSeconds))
	fmt.Fprintf(out, "  bad posture:   %s\n", formatSeconds(daily.BadSeconds))
	fmt.Fprintf(out, "  good ratio:    %.0f%%\n", daily.GoodRatio()*100)
	fmt.Fprintf(out, "  alerts:        %d\n", daily.AlertCount)
	fmt.Fprintf(out, "  worst streak:  %s\n", formatSeconds(daily.WorstStreakSeconds))
	return nil
}

func formatSeconds(seconds int) string {
	return (time.Duration(seconds) * time.Second).String()
}
