package main

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/unvotes-crawler/internal/importer"
	"github.com/JakeFAU/unvotes-crawler/internal/store"
)

const dateLayout = "2006-01-02"

func newYearsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "years",
		Short: "List stored resolution counts per year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			counts, err := a.Repositories().Resolutions.CountByYear(cmd.Context())
			if err != nil {
				return err
			}
			years := make([]int, 0, len(counts))
			for y := range counts {
				years = append(years, y)
			}
			slices.Sort(years)
			t := newTable("YEAR", "RESOLUTIONS")
			for _, y := range years {
				t.add(strconv.Itoa(y), strconv.Itoa(counts[y]))
			}
			return t.write(cmd.OutOrStdout())
		},
	}
}

func newCountriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "countries",
		Short: "List stored countries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			countries, err := a.Repositories().Countries.List(cmd.Context())
			if err != nil {
				return err
			}
			t := newTable("ID", "SLUG", "NAME", "UN NAME", "ISO2", "ISO3")
			for _, c := range countries {
				t.add(strconv.FormatInt(c.ID, 10), c.Slug, c.Name, c.UNName, c.Alpha2, c.ISO3)
			}
			return t.write(cmd.OutOrStdout())
		},
	}
}

func newResolutionsCmd() *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "resolutions",
		Short: "List stored resolutions of one year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			list, err := a.Repositories().Resolutions.ListByYear(cmd.Context(), year)
			if err != nil {
				return err
			}
			t := newTable("SYMBOL", "DATE", "TYPE", "STATUS", "TITLE")
			for _, r := range list {
				t.add(r.Symbol, r.Date.Format(dateLayout), r.VotingType.String(), r.Status.String(), r.Title)
			}
			return t.write(cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "year to list (required)")
	if err := cmd.MarkFlagRequired("year"); err != nil {
		panic(fmt.Sprintf("failed to mark year flag as required: %v", err))
	}
	return cmd
}

func newVotesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "votes <symbol>",
		Short: "Show how every country voted on one resolution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			res, err := a.Repositories().Resolutions.FindBySymbol(cmd.Context(), args[0])
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("resolution %s is not stored", args[0])
			}
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n", res.Symbol, res.Date.Format(dateLayout), res.Status); err != nil {
				return err
			}
			t := newTable("COUNTRY", "VOTE")
			for _, v := range res.Votes {
				t.add(v.Country.Name, v.Vote.String())
			}
			return t.write(cmd.OutOrStdout())
		},
	}
}

func newCursorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cursor",
		Short: "Print the earliest imported resolution date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			date, ok, err := importer.NewCursorKeeper(a.Repositories().Cursor).Current(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "no cursor stored")
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), date.Format(dateLayout))
			return err
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the Postgres schema",
		Long:  "Applies the embedded schema. Building the app already migrates, so this command only reports the backend.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			msg := "schema applied"
			if a.Config().DB.DSN == "" {
				msg = "no database DSN configured; the in-memory store needs no schema"
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), msg)
			return err
		},
	}
}
