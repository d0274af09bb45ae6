package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yungbote/neurobridge-assessment/internal/app"
	"github.com/yungbote/neurobridge-assessment/internal/platform/envutil"
	"github.com/yungbote/neurobridge-assessment/internal/platform/logger"
)

var rootCmd = &cobra.Command{
	Use:           "neurobridge-assessment",
	Short:         "Adaptive assessment service",
	Long:          "Adaptive assessment service: BKT mastery tracking, policy-driven question selection and session persistence.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-mode", "", "logger mode: development, production or test (overrides LOG_MODE)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(simulateCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// setup builds the logger and config shared by every subcommand.
func setup(cmd *cobra.Command) (*logger.Logger, app.Config, error) {
	mode, _ := cmd.Flags().GetString("log-mode")
	if mode == "" {
		mode = envutil.String("LOG_MODE", "development")
	}
	log, err := logger.New(mode)
	if err != nil {
		return nil, app.Config{}, fmt.Errorf("init logger: %w", err)
	}
	return log, app.LoadConfig(log), nil
}
