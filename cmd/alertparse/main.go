// Command alertparse parses Korean card notifications from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "alertparse",
		Short: "Parse Korean card payment notifications into ledger records",
		Long: `alertparse turns card approval and cancellation messages into structured
transaction records, previews the category rules, and imports notification files
into a local SQLite ledger.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().Int("year", 0, "year for notifications that omit one (default: current year)")
	root.PersistentFlags().String("rules", "", "YAML category rule file (default: built-in rules)")
	root.PersistentFlags().String("tz", "Asia/Seoul", "time zone used to resolve the current year and day")
	root.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "text", "log format (text, json)")

	root.AddCommand(parseCmd())
	root.AddCommand(rulesCmd())
	root.AddCommand(importCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
