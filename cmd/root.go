/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jjudge-oj/useradmin/config"
	"github.com/jjudge-oj/useradmin/internal/logging"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "useradmin",
	Short: "Gallery user administration console",
	Long: `Administers the gallery's user accounts: browse, search, edit and
delete users, and export the current selection as a PDF report.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	return logging.New(cfg.Env, cfg.LogLevel)
}
