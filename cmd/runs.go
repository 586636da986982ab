package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/kinderslides/kinderslides/internal/model"
	"github.com/kinderslides/kinderslides/internal/monitoring"
	"github.com/kinderslides/kinderslides/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List resolution history",
	Long:  "Lists recorded resolutions, newest first. Use `runs stats` for outcome totals.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openHistory(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		status, _ := cmd.Flags().GetString("status")
		item, _ := cmd.Flags().GetString("item")
		limit, _ := cmd.Flags().GetInt("limit")

		rows, err := st.ListResolutions(ctx, store.Filter{
			Status: model.ResultStatus(status),
			Item:   item,
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(rows) == 0 {
			fmt.Fprintln(os.Stderr, "No resolutions found.")
			return nil
		}

		formatResolutions(cmd.OutOrStdout(), rows)
		return nil
	},
}

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show resolution outcome totals",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openHistory(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		since, _ := cmd.Flags().GetDuration("since")
		hours := int(since.Hours())
		if hours <= 0 {
			hours = 24
		}

		snap, err := monitoring.NewCollector(st, nil).Collect(ctx, hours)
		if err != nil {
			return eris.Wrap(err, "runs stats")
		}

		formatSnapshot(cmd.OutOrStdout(), snap)
		return nil
	},
}

func init() {
	runsCmd.Flags().String("status", "", "filter by status (validated, unverified, fallback, unavailable)")
	runsCmd.Flags().String("item", "", "filter by item name")
	runsCmd.Flags().Int("limit", 50, "max number of resolutions to display")

	runsStatsCmd.Flags().Duration("since", 24*time.Hour, "time window for stats (e.g. 24h, 72h, 168h)")

	runsCmd.AddCommand(runsStatsCmd)
	rootCmd.AddCommand(runsCmd)
}

// openHistory opens the store for read-only commands.
func openHistory(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, eris.New("resolution history is disabled (store.driver is none)")
	}
	return st, nil
}

// formatResolutions writes a tabular list of resolutions to out.
func formatResolutions(out io.Writer, rows []model.Resolution) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tITEM\tSTATUS\tPROFILE\tVISION\tCREATED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t----\t------\t-------\t------\t-------\t--------")

	for _, r := range rows {
		item := r.Item
		if len(item) > 30 {
			item = item[:27] + "..."
		}
		dur := (time.Duration(r.DurationMS) * time.Millisecond).Round(10 * time.Millisecond)

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			truncateID(r.ID),
			item,
			r.Status,
			r.Profile,
			r.VisionCalls,
			r.CreatedAt.Format("2006-01-02 15:04"),
			dur,
		)
	}
	_ = w.Flush()
}

// formatSnapshot writes outcome totals to out.
func formatSnapshot(out io.Writer, s *monitoring.MetricsSnapshot) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Window:\t%dh\n", s.LookbackHours)
	_, _ = fmt.Fprintf(w, "Total:\t%d\n", s.Total)
	_, _ = fmt.Fprintf(w, "Validated:\t%d\n", s.Validated)
	_, _ = fmt.Fprintf(w, "Unverified:\t%d\n", s.Unverified)
	_, _ = fmt.Fprintf(w, "Fallback:\t%d\n", s.Fallback)
	_, _ = fmt.Fprintf(w, "Unavailable:\t%d\n", s.Unavailable)
	if s.Total > 0 {
		_, _ = fmt.Fprintf(w, "Unavailable rate:\t%.1f%%\n", s.UnavailableRate*100)
		_, _ = fmt.Fprintf(w, "Unconfirmed rate:\t%.1f%%\n", s.DegradedRate*100)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
