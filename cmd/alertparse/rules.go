package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func rulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the category rules in priority order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			classifier, err := loadClassifier(cmd)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "#\tKEYWORD\tCATEGORY")
			for i, rule := range classifier.Rules() {
				fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, rule.Keyword, rule.Category)
			}
			return w.Flush()
		},
	}
}
