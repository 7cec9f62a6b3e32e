package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/cato"
	"github.com/praetorian-inc/cato/pkg/serve"
)

var serveLimitsPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as a streaming server for host-application integration",
	Long: `Run Cato as a long-lived streaming server that accepts document check
requests via stdin and outputs outcomes via stdout using NDJSON format.

This mode is designed for integration with an indexing or upload pipeline.
The process loads limits once at startup and processes requests until
stdin closes or SIGTERM is received.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveLimitsPath, "limits", "", "Path to a YAML limits file (defaults to builtin limits)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	limits, err := loadLimits(serveLimitsPath)
	if err != nil {
		return err
	}

	evaluator, err := cato.NewEvaluator(cato.WithLimits(limits))
	if err != nil {
		return fmt.Errorf("creating evaluator: %w", err)
	}

	// Set up signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		<-sigChan
		cancel()
	}()

	srv := serve.NewServer(evaluator, cmd.InOrStdin(), cmd.OutOrStdout())
	return srv.Run(ctx)
}
