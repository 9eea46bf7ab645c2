/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jjudge-oj/useradmin/config"
	"github.com/jjudge-oj/useradmin/internal/console"
	"github.com/jjudge-oj/useradmin/internal/report"
	"github.com/jjudge-oj/useradmin/internal/server"
)

var (
	reportQuery string
	reportOut   string
)

// reportCmd exports a user report without starting the server.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export the user report as a PDF",
	Long: `Loads every user from the configured data source, keeps those matching
--query and writes the report to --out.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger, err := newLogger(cfg)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		deps, err := server.Wire(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = deps.Close() }()

		c := console.New(deps.Users, console.Options{Logger: logger.Named("console")})
		if err := c.Refresh(cmd.Context()); err != nil {
			return fmt.Errorf("load users: %w", err)
		}
		c.Search(reportQuery)

		doc := c.Report(time.Now())
		data, err := deps.Reports.Export(cmd.Context(), doc)
		if err != nil {
			return err
		}
		if err := os.WriteFile(reportOut, data, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}

		logger.Info("report written", zap.String("path", reportOut), zap.Int("rows", len(doc.Rows)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVarP(&reportQuery, "query", "q", "", "only include users matching this search text")
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", report.FileName, "output file")
}
