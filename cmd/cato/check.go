package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/praetorian-inc/cato"
	"github.com/praetorian-inc/cato/pkg/enum"
	"github.com/praetorian-inc/cato/pkg/policy"
	"github.com/praetorian-inc/cato/pkg/store"
	"github.com/praetorian-inc/cato/pkg/types"
)

var (
	checkLimitsPath    string
	checkOutputPath    string
	checkOutputFormat  string
	checkMaxFileSize   int64
	checkIncludeHidden bool
	checkJobs          int
)

var checkCmd = &cobra.Command{
	Use:   "check <target>...",
	Short: "Check files or directories for decompression bombs",
	Long:  "Evaluate files (or every file under a directory) for decompression-bomb conditions",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkLimitsPath, "limits", "", "Path to a YAML limits file (defaults to builtin limits)")
	checkCmd.Flags().StringVar(&checkOutputPath, "output", ":memory:", "Outcome database path (:memory: to skip persistence)")
	checkCmd.Flags().StringVar(&checkOutputFormat, "format", "human", "Output format: json, human")
	checkCmd.Flags().Int64Var(&checkMaxFileSize, "max-file-size", 0, "Skip directory files larger than this many bytes (0 = no limit)")
	checkCmd.Flags().BoolVar(&checkIncludeHidden, "include-hidden", false, "Include hidden files and directories")
	checkCmd.Flags().IntVar(&checkJobs, "jobs", 0, "Parallel evaluations for directory targets (0 = NumCPU)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	limits, err := loadLimits(checkLimitsPath)
	if err != nil {
		return err
	}

	evaluator, err := cato.NewEvaluator(cato.WithLimits(limits))
	if err != nil {
		return fmt.Errorf("creating evaluator: %w", err)
	}

	s, err := store.New(store.Config{Path: checkOutputPath})
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	defer s.Close()

	var (
		mu       sync.Mutex
		outcomes []types.Outcome
		flagged  int
		total    int
		bytes    int64
	)

	record := func(target string, outcome types.Outcome) error {
		mu.Lock()
		defer mu.Unlock()

		if err := s.AddOutcome(target, outcome); err != nil {
			return fmt.Errorf("storing outcome: %w", err)
		}
		outcomes = append(outcomes, outcome)
		total++
		bytes += outcome.Size
		if outcome.Flagged {
			flagged++
		}
		if checkOutputFormat == "human" {
			printOutcome(cmd, outcome)
		}
		return nil
	}

	ctx := context.Background()
	for _, target := range args {
		info, err := os.Stat(target)
		if err != nil {
			return fmt.Errorf("target does not exist: %s", target)
		}

		if !info.IsDir() {
			if err := record(target, evaluator.Evaluate(target)); err != nil {
				return err
			}
			continue
		}

		enumerator := enum.NewFilesystemEnumerator(enum.Config{
			Root:          target,
			IncludeHidden: checkIncludeHidden,
			MaxFileSize:   checkMaxFileSize,
			Workers:       checkJobs,
		})
		err = enumerator.Enumerate(ctx, func(path string) error {
			return record(target, evaluator.Evaluate(path))
		})
		if err != nil {
			return fmt.Errorf("checking %s: %w", target, err)
		}
	}

	if checkOutputFormat == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(outcomes); err != nil {
			return err
		}
	}

	if !quiet {
		out := cmd.OutOrStdout()
		if checkOutputFormat == "json" {
			out = cmd.ErrOrStderr()
		}
		fmt.Fprintf(out, "\nChecked %d file(s), %s total: %d flagged, %d clean\n",
			total, humanize.Bytes(uint64(bytes)), flagged, total-flagged)
		if checkOutputPath != ":memory:" {
			fmt.Fprintf(out, "Outcomes stored in: %s\n", checkOutputPath)
		}
	}

	if flagged > 0 {
		cmd.SilenceUsage = true
		return fmt.Errorf("%d file(s) flagged as decompression bombs", flagged)
	}
	return nil
}

func printOutcome(cmd *cobra.Command, outcome types.Outcome) {
	out := cmd.OutOrStdout()
	if outcome.Flagged {
		fmt.Fprintf(out, "FLAGGED  %-40s %s (%s)\n", outcome.DisplayPath, outcome.Status, outcome.Details)
		return
	}
	if quiet {
		return
	}
	if verbose {
		fmt.Fprintf(out, "ok       %-40s %s (%s, %s)\n", outcome.DisplayPath, outcome.Status,
			outcome.Extension, humanize.Bytes(uint64(outcome.Size)))
		return
	}
	fmt.Fprintf(out, "ok       %-40s %s\n", outcome.DisplayPath, outcome.Status)
}

func loadLimits(path string) (policy.Limits, error) {
	if path == "" {
		return policy.Default(), nil
	}
	limits, err := policy.LoadFile(path)
	if err != nil {
		return policy.Limits{}, fmt.Errorf("loading limits: %w", err)
	}
	return limits, nil
}
