package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/card-alert-ledger/internal/domain/notification/repository"
	"github.com/FACorreiaa/card-alert-ledger/internal/domain/notification/service"
	"github.com/FACorreiaa/card-alert-ledger/pkg/db"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Store a file of notifications (one per line) in a SQLite ledger",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}
	cmd.Flags().String("db", "data/ledger.db", "SQLite database file")
	cmd.Flags().Bool("require-date", false, "skip notifications without a timestamp")
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	engine, err := newEngine(cmd)
	if err != nil {
		return err
	}
	year, err := yearFlag(cmd)
	if err != nil {
		return err
	}

	lines, err := readLines(args[0])
	if err != nil {
		return err
	}

	dbPath, _ := cmd.Flags().GetString("db")
	sqlDB, err := db.OpenSQLite(dbPath)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := db.MigrateSQLite(ctx, sqlDB, logger); err != nil {
		return err
	}

	requireDate, _ := cmd.Flags().GetBool("require-date")
	svc := service.NewIngestService(engine, repository.NewSQLiteTransactionRepository(sqlDB), logger, service.Config{
		RequireDate: requireDate,
	})

	result, err := svc.IngestBatch(ctx, lines, year)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "import finished",
		slog.String("file", args[0]), slog.String("db", dbPath), slog.Int("inserted", result.Inserted))

	summary := struct {
		Inserted int      `json:"inserted"`
		Skipped  int      `json:"skipped"`
		Errors   []string `json:"errors"`
	}{result.Inserted, result.Skipped, result.Errors}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return lines, nil
}
