package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [notification...]",
		Short: "Parse notifications and print one JSON record per line",
		Long: `Parse each argument as a notification. Without arguments, every non-blank
line of standard input is parsed.`,
		RunE: runParse,
	}
}

func runParse(cmd *cobra.Command, args []string) error {
	engine, err := newEngine(cmd)
	if err != nil {
		return err
	}
	year, err := yearFlag(cmd)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	emit := func(raw string) error {
		if err := enc.Encode(engine.Parse(raw, year)); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
		return nil
	}

	if len(args) > 0 {
		for _, raw := range args {
			if err := emit(raw); err != nil {
				return err
			}
		}
		return nil
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := emit(line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}
