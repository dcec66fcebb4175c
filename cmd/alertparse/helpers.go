package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/card-alert-ledger/internal/domain/notification/category"
	"github.com/FACorreiaa/card-alert-ledger/internal/domain/notification/parser"
	"github.com/FACorreiaa/card-alert-ledger/pkg/config"
)

func loadClassifier(cmd *cobra.Command) (*category.Classifier, error) {
	path, _ := cmd.Flags().GetString("rules")
	if path == "" {
		return category.Default(), nil
	}
	rules, err := category.LoadRulesFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load category rules: %w", err)
	}
	return category.NewClassifier(rules), nil
}

func newEngine(cmd *cobra.Command) (*parser.Engine, error) {
	classifier, err := loadClassifier(cmd)
	if err != nil {
		return nil, err
	}

	tz, _ := cmd.Flags().GetString("tz")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", tz, err)
	}
	return parser.NewEngine(parser.WithClassifier(classifier), parser.WithLocation(loc)), nil
}

func yearFlag(cmd *cobra.Command) (int, error) {
	year, _ := cmd.Flags().GetInt("year")
	if year < 0 || year > 9999 {
		return 0, fmt.Errorf("--year must be between 1 and 9999")
	}
	return year, nil
}

func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	return config.LoggingConfig{Level: level, Format: format}.NewLogger(cmd.ErrOrStderr())
}
