package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dallasopendata/incidents/internal/offense"
)

func categorizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "categorize [offense...]",
		Short: "Categorize offense descriptions",
		Long:  `Categorize each argument, or each line of stdin when no arguments are given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs := args
			if len(inputs) == 0 {
				sc := bufio.NewScanner(os.Stdin)
				for sc.Scan() {
					inputs = append(inputs, sc.Text())
				}
				if err := sc.Err(); err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			for _, in := range inputs {
				fmt.Fprintf(out, "%-14s %s\n", offense.Categorize(in), in)
			}
			return nil
		},
	}
}

func offensesCommand() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "offenses [keyword]",
		Short: "Search curated offense types",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := offense.Default()
			out := cmd.OutOrStdout()

			if category != "" {
				cat, ok := offense.ParseCategory(category)
				if !ok {
					return fmt.Errorf("unknown category %q", category)
				}
				for _, o := range c.OffensesFor(cat) {
					fmt.Fprintln(out, o)
				}
				fmt.Fprintf(out, "keywords: %s\n", strings.Join(c.KeywordsFor(cat), ", "))
				return nil
			}

			if len(args) == 0 {
				for _, cat := range offense.Categories() {
					fmt.Fprintf(out, "%-14s %d offense types\n", cat, len(c.OffensesFor(cat)))
				}
				return nil
			}

			for _, m := range c.SearchByKeyword(args[0]) {
				fmt.Fprintf(out, "%-14s %s\n", m.Category, m.Offense)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "list the offense types of one category")
	return cmd
}
