package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/praetorian-inc/cato/pkg/store"
)

var (
	reportDatastore string
	reportFormat    string
	reportColor     string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report outcomes from a previous check run",
	Long:  "Read stored evaluation outcomes from a check database and render them",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportDatastore, "datastore", "cato.db", "Outcome database to report on")
	reportCmd.Flags().StringVar(&reportFormat, "format", "human", "Output format: json, human")
	reportCmd.Flags().StringVar(&reportColor, "color", "auto", "Color output: auto, always, never")
}

// styles holds color formatters for report output.
type styles struct {
	flagged  *color.Color
	clean    *color.Color
	heading  *color.Color
	metadata *color.Color
}

// newStyles creates color formatters.
// enabled=false respects --color=never and non-terminal stdout.
func newStyles(enabled bool) *styles {
	s := &styles{
		flagged:  color.New(color.Bold, color.FgHiRed),
		clean:    color.New(color.FgHiGreen),
		heading:  color.New(color.Bold),
		metadata: color.New(color.FgHiBlue),
	}

	if !enabled {
		s.flagged.DisableColor()
		s.clean.DisableColor()
		s.heading.DisableColor()
		s.metadata.DisableColor()
	}

	return s
}

func colorEnabled() bool {
	switch reportColor {
	case "always":
		return true
	case "never":
		return false
	default:
		if os.Getenv("NO_COLOR") != "" {
			return false
		}
		return term.IsTerminal(int(os.Stdout.Fd()))
	}
}

func runReport(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(reportDatastore); err != nil {
		return fmt.Errorf("datastore does not exist: %s", reportDatastore)
	}

	s, err := store.New(store.Config{Path: reportDatastore})
	if err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer s.Close()

	records, err := s.Outcomes()
	if err != nil {
		return fmt.Errorf("retrieving outcomes: %w", err)
	}

	if reportFormat == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(records)
	}

	out := cmd.OutOrStdout()
	st := newStyles(colorEnabled())

	if len(records) == 0 {
		fmt.Fprintln(out, "No outcomes recorded.")
		return nil
	}

	for i, r := range records {
		verdict := st.clean.Sprint("ok")
		if r.Outcome.Flagged {
			verdict = st.flagged.Sprint("FLAGGED")
		}
		fmt.Fprintf(out, "%s %s\n", verdict, st.heading.Sprint(r.Outcome.DisplayPath))
		fmt.Fprintf(out, "    %s %s    %s %s    %s %s\n",
			st.metadata.Sprint("status:"), r.Outcome.Status,
			st.metadata.Sprint("size:"), humanize.Bytes(uint64(r.Outcome.Size)),
			st.metadata.Sprint("checked:"), r.CheckedAt.Format("2006-01-02 15:04:05"))
		if r.Outcome.Details != "" {
			fmt.Fprintf(out, "    %s %s\n", st.metadata.Sprint("details:"), r.Outcome.Details)
		}
		if i < len(records)-1 {
			fmt.Fprintln(out)
		}
	}

	summary, err := s.Summary()
	if err != nil {
		return fmt.Errorf("summarizing outcomes: %w", err)
	}
	fmt.Fprintf(out, "\n%s %d file(s), %s total, %d flagged\n",
		st.heading.Sprint("Summary:"), summary.Total,
		humanize.Bytes(uint64(summary.TotalBytes)), summary.Flagged)

	return nil
}
