package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
)

// scanCmd runs a single practice scan and exits, handy for cron driven
// setups that do not want to keep the HTTP server around.
func scanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Run a single practice match scan",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			app, errApp := NewApp()
			if errApp != nil {
				return errApp
			}

			defer func() {
				if errClose := app.Close(ctx); errClose != nil {
					slog.Error("Error closing", slog.String("error", errClose.Error()))
				}
			}()

			if errSetup := app.Init(ctx); errSetup != nil {
				return errSetup
			}

			report, errScan := app.tracker.Scan(ctx)
			if errScan != nil {
				return errScan
			}

			slog.Info("Scan finished",
				slog.Int("matches_scanned", report.MatchesScanned),
				slog.Int("practice_matches_found", report.PracticeMatchesFound),
				slog.Int("players_updated", report.PlayersUpdated),
				slog.Int("pools_updated", report.PoolsUpdated))

			return nil
		},
	}
}
