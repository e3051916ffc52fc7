package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/estate-cli/internal/generate"
	"github.com/sells-group/estate-cli/internal/model"
	"github.com/sells-group/estate-cli/internal/records"
	"github.com/sells-group/estate-cli/internal/refresh"
	"github.com/sells-group/estate-cli/internal/scrape"
)

// citiesFlag returns the --city values title-cased, or the configured cities.
func citiesFlag(cmd *cobra.Command) []string {
	flagged, _ := cmd.Flags().GetStringSlice("city")
	if c := titleCities(flagged); len(c) > 0 {
		return c
	}
	return cfg.Scrape.Cities
}

// -- scrape --

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape fresh listings once",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		rs := records.NewStore(cfg.Data.Dir)
		runner, err := scrape.FromConfig(cfg.Scrape, records.NewWriter(rs))
		if err != nil {
			return err
		}

		results, err := runner.Run(ctx, citiesFlag(cmd))
		if err != nil {
			return eris.Wrap(err, "scrape")
		}
		formatScrapeResults(cmd.OutOrStdout(), results)
		return nil
	},
}

func formatScrapeResults(out io.Writer, results []scrape.SourceResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CITY\tSOURCE\tRECORDS\tFILE\tERROR")
	for _, r := range results {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", r.City, r.Source, r.Records, r.File, r.Error)
	}
	_ = w.Flush()
}

// -- generate --

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write synthetic data for cities without any",
	RunE: func(cmd *cobra.Command, _ []string) error {
		n, _ := cmd.Flags().GetInt("records")
		force, _ := cmd.Flags().GetBool("force")
		seed, _ := cmd.Flags().GetUint64("seed")

		written, err := generate.All(records.NewStore(cfg.Data.Dir), generate.Options{
			Cities:  citiesFlag(cmd),
			Records: n,
			Seed:    seed,
			Force:   force,
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(written) == 0 {
			_, _ = fmt.Fprintln(out, "All cities already have data. Use --force to regenerate.")
			return nil
		}
		for _, p := range written {
			_, _ = fmt.Fprintln(out, "wrote", p)
		}
		return nil
	},
}

// -- status --

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show data freshness per city",
	RunE: func(cmd *cobra.Command, _ []string) error {
		statuses := refresh.Snapshot(cfg.Data.Dir, citiesFlag(cmd), cfg.Scrape.FrequencyHours)

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(statuses)
		}
		formatStatus(cmd.OutOrStdout(), statuses)
		return nil
	},
}

func formatStatus(out io.Writer, statuses []model.DataStatus) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CITY\tSTATUS\tLAST UPDATED\tAGE (H)\tFRESH\tSIZE (KB)")
	for _, s := range statuses {
		if s.Status != model.DataAvailable {
			_, _ = fmt.Fprintf(w, "%s\t%s\t-\t-\t-\t-\n", s.City, s.Status)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t%t\t%.1f\n",
			s.City, s.Status, s.LastUpdated, s.AgeHours, s.IsFresh, s.SizeKB)
	}
	_ = w.Flush()
}

// -- export --

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a city's loaded table to CSV or XLSX",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cityArg, _ := cmd.Flags().GetString("city")
		format, _ := cmd.Flags().GetString("format")
		outPath, _ := cmd.Flags().GetString("out")

		city := titleCity(cityArg)
		if city == "" {
			return eris.New("export: --city is required")
		}
		format = strings.ToLower(format)
		if outPath == "" {
			outPath = filepath.Join(".", strings.ToLower(city)+"."+format)
		}

		recs, ok := records.NewStore(cfg.Data.Dir).Load(cmd.Context(), city, cfg.Data.RecencyDays)
		if !ok || len(recs) == 0 {
			return eris.Errorf("export: no data available for %s", city)
		}
		if err := records.Export(outPath, format, recs); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported %d records to %s\n", len(recs), outPath)
		return nil
	},
}

func init() {
	scrapeCmd.Flags().StringSlice("city", nil, "cities to scrape (default from config)")
	generateCmd.Flags().StringSlice("city", nil, "cities to generate (default from config)")
	generateCmd.Flags().Int("records", generate.DefaultRecords, "records per city")
	generateCmd.Flags().Uint64("seed", generate.DefaultSeed, "random seed")
	generateCmd.Flags().Bool("force", false, "overwrite existing data")
	statusCmd.Flags().StringSlice("city", nil, "cities to report (default from config)")
	statusCmd.Flags().Bool("json", false, "print statuses as JSON")
	exportCmd.Flags().String("city", "", "city to export")
	exportCmd.Flags().String("format", records.FormatXLSX, "output format: xlsx or csv")
	exportCmd.Flags().String("out", "", "output path (default ./<city>.<format>)")

	rootCmd.AddCommand(scrapeCmd, generateCmd, statusCmd, exportCmd)
}
