package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "aqagen",
	Short: "aqagen synthesizes compositional question-answer datasets",
	Long: `aqagen instantiates authored question templates against scene graphs,
computing every answer by program evaluation. It works identically for
visual scenes (spatial relations) and acoustic scenes (temporal relations).`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
}

// newLogger builds the CLI logger from the persistent flag.
func newLogger(cmd *cobra.Command) *slog.Logger {
	levelName, _ := cmd.Flags().GetString("log-level")
	level := slog.LevelInfo
	switch levelName {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return logging.New(level)
}
