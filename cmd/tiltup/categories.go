package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/tiltup/internal/catalog"
	"github.com/verte-zerg/tiltup/internal/config"
)

func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List playable categories",
		Args:  cobra.NoArgs,
		RunE:  runCategoriesCmd,
	}
}

func runCategoriesCmd(cmd *cobra.Command, _ []string) error {
	dir := config.DefaultCategoryDir()
	cat, err := catalog.Load(dir)
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}
	width := 0
	for _, c := range cat.List() {
		width = max(width, len(c.Slug))
	}
	for _, c := range cat.List() {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%-*s  %s (%d words)\n", width, c.Slug, c.Name, len(c.WordList)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	logErrf("Add *.toml or *.txt files under %s for more.\n", dir)
	return nil
}
