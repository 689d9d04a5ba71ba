package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/leadfinder/internal/metrics"
	"github.com/sells-group/leadfinder/internal/pipeline"
	"github.com/sells-group/leadfinder/internal/publish"
)

var qualifyCmd = &cobra.Command{
	Use:   "qualify <source>...",
	Short: "Qualify existing record sets without scraping or publishing",
	Long:  "Loads CSV, XLSX or JSON record sets (local paths or URLs), runs filters and enrichment and writes the lead table as CSV.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		applyRunFlags(cmd, cfg)

		p, err := initPipeline(cfg, metrics.New())
		if err != nil {
			return err
		}

		keyword, _ := cmd.Flags().GetString("search-keyword")
		sources := make([]pipeline.Source, 0, len(args))
		for _, a := range args {
			sources = append(sources, pipeline.Source{Path: a, Keyword: keyword})
		}

		res, err := p.Qualify(ctx, sources)
		if errors.Is(err, pipeline.ErrNoLeads) {
			fmt.Fprintln(cmd.ErrOrStderr(), "No leads found.")
			return nil
		}
		if err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("output")
		if out == "" {
			return publish.WriteCSV(cmd.OutOrStdout(), res.Table)
		}
		outcome, err := (&publish.CSV{Path: out}).Publish(ctx, res.Table)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d leads to %s\n", outcome.Rows, outcome.Destination)
		return nil
	},
}

func init() {
	f := qualifyCmd.Flags()
	f.String("search-keyword", "", "search keyword for records that carry none")
	f.String("output", "", "write CSV here instead of stdout")
	f.String("template", "", "force every lead onto this template slug")
	f.Float64("max-reviews", -1, "keep listings with at most this many reviews")
	f.Bool("no-domains", false, "skip WHOIS domain checks")
	rootCmd.AddCommand(qualifyCmd)
}
