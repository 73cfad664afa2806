package main

import (
	"bytes"
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/unvotes-crawler/internal/app"
	"github.com/JakeFAU/unvotes-crawler/internal/config"
	"github.com/JakeFAU/unvotes-crawler/internal/crawler"
	"github.com/JakeFAU/unvotes-crawler/internal/importer"
	"github.com/JakeFAU/unvotes-crawler/internal/storage/memory"
	"github.com/JakeFAU/unvotes-crawler/internal/store"
)

// cli runs commands against one shared in-memory app.
type cli struct {
	t   *testing.T
	app *app.App
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	a, err := app.Build(context.Background(), config.Config{}, zap.NewNop(), app.WithoutReader())
	require.NoError(t, err)
	return &cli{t: t, app: a}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	factory := func(context.Context, string, bool) (*app.App, error) { return c.app, nil }
	var out bytes.Buffer
	cmd := newRootCmd(factory)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMakeSlugNeedsNoApp(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	cmd := newRootCmd(func(context.Context, string, bool) (*app.App, error) {
		t.Fatal("make-slug must not build the app")
		return nil, nil
	})
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"make-slug", "Côte d'Ivoire", "TÜRKİYE"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "cote-divoire\nturkiye\n", out.String())
}

func TestAddAliasReportsExisting(t *testing.T) {
	t.Parallel()
	c := newCLI(t)

	out, err := c.run("add-alias", "Türkiye", "Turkey")
	require.NoError(t, err)
	assert.Equal(t, "turkey -> turkiye\n", out)

	out, err = c.run("add-alias", "turkiye", "TURKEY")
	require.NoError(t, err)
	assert.Equal(t, "alias turkey already exists\n", out)
}

func TestSeedAndListCountries(t *testing.T) {
	t.Parallel()
	c := newCLI(t)

	out, err := c.run("seed", "aliases", "../../internal/seed/testdata/aliases.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "aliases added")

	out, err = c.run("seed", "countries", "../../internal/seed/testdata/countryInfo.txt")
	require.NoError(t, err)
	assert.Contains(t, out, "countries imported")

	out, err = c.run("countries")
	require.NoError(t, err)
	assert.Contains(t, out, "turkiye")
	assert.Contains(t, out, "TUR")
	assert.True(t, strings.HasPrefix(out, "ID"))
}

func TestSeedAliasesRequiresAFile(t *testing.T) {
	t.Parallel()
	_, err := newCLI(t).run("seed", "aliases")
	require.ErrorContains(t, err, "seed.aliases_file")
}

func TestQueriesOverStoredResolution(t *testing.T) {
	t.Parallel()
	c := newCLI(t)
	ctx := context.Background()
	repos := c.app.Repositories()

	france := &store.Country{Name: "France", UNName: "FRANCE", Slug: "france"}
	require.NoError(t, repos.Countries.Save(ctx, france))
	date := time.Date(2023, 12, 19, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repos.Resolutions.Save(ctx, &store.Resolution{
		Symbol:     "A/RES/78/165",
		Title:      "Situation of human rights",
		VotingType: crawler.VotingTypeGeneralAssembly,
		Status:     crawler.StatusVotedAndAdopted,
		Date:       date,
		Year:       2023,
		Votes:      []store.ResolutionVote{{Country: *france, Vote: crawler.VoteYes}},
	}))
	_, err := importer.NewCursorKeeper(repos.Cursor).UpdateDate(ctx, date)
	require.NoError(t, err)

	out, err := c.run("years")
	require.NoError(t, err)
	assert.Contains(t, out, "2023  1")

	out, err = c.run("resolutions", "--year", "2023")
	require.NoError(t, err)
	assert.Contains(t, out, "A/RES/78/165")
	assert.Contains(t, out, "voted-and-adopted")

	out, err = c.run("votes", "A/RES/78/165")
	require.NoError(t, err)
	assert.Contains(t, out, "France")
	assert.Contains(t, out, "yes")

	_, err = c.run("votes", "A/RES/1")
	require.ErrorContains(t, err, "not stored")

	out, err = c.run("cursor")
	require.NoError(t, err)
	assert.Equal(t, "2023-12-19\n", out)
}

func TestCursorAndMigrateOnEmptyStore(t *testing.T) {
	t.Parallel()
	c := newCLI(t)

	out, err := c.run("cursor")
	require.NoError(t, err)
	assert.Equal(t, "no cursor stored\n", out)

	out, err = c.run("migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "in-memory store")
}

func TestImportWithoutReaderFails(t *testing.T) {
	t.Parallel()
	out, err := newCLI(t).run("import", "--years", "2023")
	require.ErrorContains(t, err, "import failed")
	assert.Contains(t, out, "total")
}

func TestFailedCommandStillClosesApp(t *testing.T) {
	t.Parallel()
	var closed atomic.Int32
	repos := memory.NewRepositories()
	repos.Close = func() { closed.Add(1) }
	a, err := app.Build(context.Background(), config.Config{}, zap.NewNop(),
		app.WithoutReader(), app.WithRepositories(repos))
	require.NoError(t, err)

	cmd := newRootCmd(func(context.Context, string, bool) (*app.App, error) { return a, nil })
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"import", "--years", "2023"})
	require.Error(t, cmd.ExecuteContext(context.Background()))
	assert.Equal(t, int32(1), closed.Load())
}

func TestWriteReportListsProblems(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	report := importer.Report{
		RunID: "run-1",
		Years: []importer.YearReport{{
			Year: 1946,
			Result: importer.Result{
				Successes: []string{"A/RES/1(I)"},
				Errors:    []importer.ItemError{{Symbol: "X/1", Field: "symbol", Value: "X/1", Err: assert.AnError}},
			},
			Failures: []crawler.ItemFailure{{Code: "A/RES/2(I)", Err: assert.AnError}},
		}},
	}
	require.NoError(t, writeReport(&out, report))
	text := out.String()
	assert.Contains(t, text, "run run-1")
	assert.Contains(t, text, "X/1")
	assert.Contains(t, text, "A/RES/2(I)")
}

func TestTableAlignsByDisplayWidth(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	tbl := newTable("NAME", "ISO3")
	tbl.add("Côte d'Ivoire", "CIV")
	tbl.add("France", "FRA")
	require.NoError(t, tbl.write(&out))
	assert.Equal(t, "NAME           ISO3\nCôte d'Ivoire  CIV\nFrance         FRA\n", out.String())
}
