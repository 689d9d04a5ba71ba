package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadfinder/internal/model"
	"github.com/sells-group/leadfinder/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect the run ledger",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")
		if status != "" && !model.RunStatus(status).Finished() && model.RunStatus(status) != model.RunStatusRunning {
			return eris.Errorf("runs list: unknown status %q", status)
		}

		st, err := initStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		runs, err := st.ListRuns(cmd.Context(), store.RunFilter{Status: model.RunStatus(status), Limit: limit})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}
		if len(runs) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "No runs recorded.")
			return nil
		}
		writeRunTable(cmd.OutOrStdout(), runs)
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print one run as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

func init() {
	runsListCmd.Flags().String("status", "", "only runs in this state: running, complete, empty or failed")
	runsListCmd.Flags().Int("limit", 50, "number of runs to print")

	runsCmd.AddCommand(runsListCmd, runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

func writeRunTable(out io.Writer, runs []model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RUN\tSTARTED\tSTATUS\tKEYWORDS\tPUBLISHED\tTARGET\tTOOK")
	for _, r := range runs {
		published, target := "-", "-"
		if s := r.Summary; s != nil {
			published = fmt.Sprintf("%d of %d", s.Published, s.Qualified)
			if s.Target != "" {
				target = s.Target
			}
		}
		took := "-"
		if r.FinishedAt != nil {
			took = r.Elapsed().Round(time.Second).String()
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			shortRunID(r.ID),
			r.StartedAt.Local().Format("02.01.2006 15:04"),
			r.Status,
			keywordSummary(r.Keywords),
			published,
			target,
			took,
		)
	}
	_ = w.Flush()
}

// keywordSummary shortens the joined keyword list to 30 runes.
func keywordSummary(kws []string) string {
	const width = 30
	s := strings.Join(kws, ", ")
	if s == "" {
		return "-"
	}
	if r := []rune(s); len(r) > width {
		return string(r[:width-1]) + "…"
	}
	return s
}

func shortRunID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
