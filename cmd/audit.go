/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jjudge-oj/useradmin/config"
	"github.com/jjudge-oj/useradmin/internal/audit"
	"github.com/jjudge-oj/useradmin/internal/mq"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect audit events",
}

var auditTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print audit events as they are published",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger, err := newLogger(cfg)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		queue, err := mq.Open(ctx, cfg.Audit)
		if err != nil {
			return fmt.Errorf("open audit backend: %w", err)
		}
		if queue == nil {
			return errors.New("AUDIT_BACKEND is not configured")
		}

		publisher := audit.NewPublisher(queue, cfg.Audit.Channel, logger.Named("audit"))
		defer func() { _ = publisher.Close() }()

		encoder := json.NewEncoder(cmd.OutOrStdout())
		err = publisher.Tail(ctx, func(event audit.Event) error {
			return encoder.Encode(event)
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditTailCmd)
}
