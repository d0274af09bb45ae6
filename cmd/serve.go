package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/neurobridge-assessment/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides HTTP_ADDR)")
}

func runServe(cmd *cobra.Command) error {
	log, cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.HTTPAddr = addr
	}

	ctx := cmd.Context()
	application, err := app.New(ctx, log, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		application.Close(closeCtx)
	}()

	if err := application.Run(ctx); err != nil {
		log.Error("server stopped", "error", err)
		return err
	}
	log.Info("server stopped")
	return nil
}
