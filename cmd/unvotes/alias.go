package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/unvotes-crawler/internal/resolver"
)

func newAddAliasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-alias <slug> <alias>",
		Short: "Map an alternative country label onto a canonical slug",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			slug, alias := resolver.Slug(args[0]), resolver.Slug(args[1])
			created, err := a.Countries().AddAlias(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("add alias: %w", err)
			}
			if !created {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "alias %s already exists\n", alias)
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", alias, slug)
			return err
		},
	}
}

func newMakeSlugCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "make-slug <label>...",
		Short:       "Print the slug of each label",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{annotationNeeds: needsNothing},
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, label := range args {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), resolver.Slug(label)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
