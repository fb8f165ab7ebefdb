package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marinxz/n-playwright-3.9/history"
	"github.com/marinxz/n-playwright-3.9/location"
)

var errHistoryDisabled = errors.New("run history is not configured: set history_driver and history_dsn in the [general] section")

func newHistoryCmd(a *app) *cobra.Command {
	var (
		locationName string
		limit        int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded backup runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.settings.History.Enabled() {
				return errHistoryDisabled
			}
			if locationName != "" {
				if err := location.CheckKnown(locationName); err != nil {
					return err
				}
			}

			store, closeDB, err := a.openHistory()
			if err != nil {
				return err
			}
			defer closeDB()

			var runs []*history.Run
			if locationName != "" {
				runs, err = store.ListByLocation(cmd.Context(), locationName, limit)
			} else {
				runs, err = store.List(cmd.Context(), limit)
			}
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}

			switch a.settings.Output {
			case "json":
				return printJSON(a.out, runs)
			case "yaml":
				return printYAML(a.out, runs)
			}

			if len(runs) == 0 {
				fmt.Fprintln(a.out, "No runs recorded.")
				return nil
			}

			headers := []string{"RUN ID", "LOCATION", "STATUS", "STARTED", "DURATION", "DETAIL"}
			rows := make([][]string, len(runs))
			for i, r := range runs {
				detail := r.ArtifactPath
				if r.Status == history.StatusFailed {
					detail = r.FailedState + ": " + r.Reason
				}
				duration := "-"
				if r.CompletedAt != nil {
					duration = r.Duration().Round(time.Millisecond).String()
				}
				rows[i] = []string{
					r.ID.String(),
					r.Location,
					string(r.Status),
					r.StartedAt.Local().Format("2006-01-02 15:04:05"),
					duration,
					detail,
				}
			}
			printTable(a.out, headers, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&locationName, "location", "", "Only show runs of this location")
	cmd.Flags().IntVar(&limit, "limit", history.DefaultListLimit, "Maximum number of runs to show")
	return cmd
}
