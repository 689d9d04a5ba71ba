package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadfinder/internal/domaincheck"
)

var domainCmd = &cobra.Command{
	Use:   "domain <business name>...",
	Short: "Check .pl and .com availability for business names",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := *cfg
		c.Domain.Enabled = true
		checker := initDomainChecker(&c, nil)

		results, err := checker.CheckAll(cmd.Context(), args)
		if err != nil {
			return eris.Wrap(err, "domain check")
		}
		formatDomainResults(cmd.OutOrStdout(), args, results)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(domainCmd)
}

func formatDomainResults(out io.Writer, names []string, results []domaincheck.Result) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tCANDIDATE\t.PL\t.COM")
	for i, r := range results {
		candidate := r.Candidate
		if candidate == "" {
			candidate = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", names[i], candidate, r.PL.Label(), r.COM.Label())
	}
	_ = w.Flush()
}
