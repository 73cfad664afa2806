package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/unvotes-crawler/internal/app"
	"github.com/JakeFAU/unvotes-crawler/internal/config"
	"github.com/JakeFAU/unvotes-crawler/internal/logging"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// Command annotations choosing how much of the app a command needs.
const (
	annotationNeeds = "needs"
	needsNetwork    = "network"
	needsNothing    = "nothing"
)

// appFactory builds the application for a command. Tests swap it for one
// returning a prebuilt in-memory app.
type appFactory func(ctx context.Context, cfgFile string, network bool) (*app.App, error)

func defaultAppFactory(ctx context.Context, cfgFile string, network bool) (*app.App, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	zap.ReplaceGlobals(logger)

	var opts []app.Option
	if !network {
		opts = append(opts, app.WithoutReader())
	}
	return app.Build(ctx, cfg, logger, opts...)
}

// newRootCmd creates the root command and its subcommands.
func newRootCmd(factory appFactory) *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:   "unvotes",
		Short: "Crawl and import UN General Assembly and Security Council votes.",
		Long: `unvotes reads the voting data collection of the UN Digital Library,
reconciles each vote with the document it concerns and imports the result
into Postgres (or an in-memory store when no DSN is configured).`,
		SilenceUsage: true,

		// Builds the app AFTER flags are parsed but BEFORE the subcommand's RunE.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			needs := cmd.Annotations[annotationNeeds]
			if needs == needsNothing {
				return nil
			}
			a, err := factory(cmd.Context(), cfgFile, needs == needsNetwork)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, a))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	cmd.AddCommand(
		newImportCmd(),
		newAddAliasCmd(),
		newMakeSlugCmd(),
		newSeedCmd(),
		newYearsCmd(),
		newCountriesCmd(),
		newResolutionsCmd(),
		newVotesCmd(),
		newCursorCmd(),
		newMigrateCmd(),
	)
	closeAfterRun(cmd)
	return cmd
}

// closeAfterRun wraps every RunE in the tree so the app is closed whether or
// not the command fails. Cobra skips PersistentPostRun after a RunE error.
func closeAfterRun(cmd *cobra.Command) {
	for _, sub := range cmd.Commands() {
		closeAfterRun(sub)
	}
	run := cmd.RunE
	if run == nil {
		return
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		defer closeApp(cmd.Context())
		return run(cmd, args)
	}
}

func closeApp(ctx context.Context) {
	a, ok := ctx.Value(appKey).(*app.App)
	if !ok || a == nil {
		return
	}
	a.Close(context.WithoutCancel(ctx))
	_ = a.Logger().Sync()
}

func resolveApp(ctx context.Context) (*app.App, error) {
	a, ok := ctx.Value(appKey).(*app.App)
	if !ok || a == nil {
		return nil, errors.New("application services not initialized")
	}
	return a, nil
}
