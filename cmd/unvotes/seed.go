package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/unvotes-crawler/internal/seed"
)

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load reference data into the store",
	}
	cmd.AddCommand(newSeedCountriesCmd(), newSeedAliasesCmd())
	return cmd
}

func newSeedCountriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "countries <countryInfo.txt>",
		Short: "Import ISO country codes from a geonames country file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			rows, err := seed.LoadCountries(args[0])
			if err != nil {
				return err
			}
			n, err := seed.ImportCountries(cmd.Context(), a.Countries(), rows)
			if err != nil {
				return fmt.Errorf("import countries: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d of %d countries imported\n", n, len(rows))
			return err
		},
	}
}

func newSeedAliasesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "aliases [aliases.yaml]",
		Short: "Apply a YAML file of country aliases",
		Long:  "Applies every alias in the file, defaulting to seed.aliases_file from the configuration.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			path := a.Config().Seed.AliasesFile
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return errors.New("no aliases file given and seed.aliases_file is unset")
			}
			file, err := seed.LoadAliases(path)
			if err != nil {
				return err
			}
			added, existing, err := seed.ApplyAliases(cmd.Context(), a.Countries(), file)
			if err != nil {
				return fmt.Errorf("apply aliases: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d aliases added, %d already present\n", added, existing)
			return err
		},
	}
}
