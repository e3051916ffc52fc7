package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/estate-cli/internal/model"
	"github.com/sells-group/estate-cli/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently answered queries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("store"); err != nil {
			return err
		}
		ql, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		if ql == nil {
			return eris.New("history: query log is disabled (store.driver is none)")
		}
		defer ql.Close() //nolint:errcheck

		limit, _ := cmd.Flags().GetInt("limit")
		intent, _ := cmd.Flags().GetString("intent")
		city, _ := cmd.Flags().GetString("city")
		since, _ := cmd.Flags().GetDuration("since")
		asJSON, _ := cmd.Flags().GetBool("json")
		stats, _ := cmd.Flags().GetBool("stats")

		if intent != "" && !model.QueryIntent(intent).Valid() {
			return eris.Errorf("history: unknown intent %q", intent)
		}

		filter := store.QueryFilter{
			Intent: model.QueryIntent(intent),
			Limit:  limit,
		}
		if city != "" {
			filter.City = titleCity(city)
		}
		if since > 0 {
			filter.Since = time.Now().Add(-since)
		}

		entries, err := ql.ListQueries(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "history")
		}

		out := cmd.OutOrStdout()
		switch {
		case asJSON:
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		case len(entries) == 0:
			fmt.Fprintln(os.Stderr, "No queries found.")
		case stats:
			formatHistoryStats(out, computeHistoryStats(entries))
		default:
			formatHistory(out, entries)
		}
		return nil
	},
}

type historyStats struct {
	Total        int
	Errors       int
	ByIntent     map[model.QueryIntent]int
	CostUSD      float64
	AvgLatencyMS float64
}

func computeHistoryStats(entries []model.QueryLogEntry) historyStats {
	s := historyStats{Total: len(entries), ByIntent: make(map[model.QueryIntent]int)}
	var latency int64
	for _, e := range entries {
		s.ByIntent[e.Intent]++
		s.CostUSD += e.CostUSD
		latency += e.LatencyMS
		if e.Error != "" {
			s.Errors++
		}
	}
	if s.Total > 0 {
		s.AvgLatencyMS = float64(latency) / float64(s.Total)
	}
	return s
}

// formatHistory writes a tabular list of queries to out.
func formatHistory(out io.Writer, entries []model.QueryLogEntry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCREATED\tINTENT\tCITY\tLATENCY\tCOST\tQUERY")
	_, _ = fmt.Fprintln(w, "--\t-------\t------\t----\t-------\t----\t-----")

	for _, e := range entries {
		query := e.Query
		if e.Error != "" {
			query = "[error] " + query
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t$%.4f\t%s\n",
			truncateID(e.ID),
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			e.Intent,
			e.City,
			(time.Duration(e.LatencyMS) * time.Millisecond).String(),
			e.CostUSD,
			truncate(query, 60),
		)
	}
	_ = w.Flush()
}

// formatHistoryStats writes aggregate stats to out.
func formatHistoryStats(out io.Writer, s historyStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total queries:\t%d\n", s.Total)
	_, _ = fmt.Fprintf(w, "Errors:\t%d\n", s.Errors)

	intents := make([]string, 0, len(s.ByIntent))
	for i := range s.ByIntent {
		intents = append(intents, string(i))
	}
	sort.Strings(intents)
	for _, i := range intents {
		_, _ = fmt.Fprintf(w, "  %s:\t%d\n", i, s.ByIntent[model.QueryIntent(i)])
	}
	_, _ = fmt.Fprintf(w, "Total cost:\t$%.4f\n", s.CostUSD)
	_, _ = fmt.Fprintf(w, "Avg latency:\t%.0fms\n", s.AvgLatencyMS)
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum queries to show")
	historyCmd.Flags().String("intent", "", "filter by intent (e.g. price_prediction)")
	historyCmd.Flags().String("city", "", "filter by city")
	historyCmd.Flags().Duration("since", 0, "only queries newer than this (e.g. 24h)")
	historyCmd.Flags().Bool("json", false, "print entries as JSON")
	historyCmd.Flags().Bool("stats", false, "print aggregate statistics instead of a list")
	rootCmd.AddCommand(historyCmd)
}
