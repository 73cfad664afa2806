package seed

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/unvotes-crawler/internal/resolver"
	"github.com/JakeFAU/unvotes-crawler/internal/storage/memory"
	"github.com/JakeFAU/unvotes-crawler/internal/store"
)

func TestParseCountries(t *testing.T) {
	t.Parallel()

	rows, err := LoadCountries("testdata/countryInfo.txt")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, store.Country{
		Name: "Türkiye", UNName: "Türkiye", Slug: "turkiye", Alpha2: "TR", ISO3: "TUR", NumericCode: "792",
	}, rows[1])

	_, err = ParseCountries(strings.NewReader("FR\tFRA\n"))
	require.Error(t, err)
}

func TestSeedThenResolve(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repos := memory.NewRepositories()
	countries := resolver.NewCountries(repos.Countries, repos.Aliases, nil)

	rows, err := LoadCountries("testdata/countryInfo.txt")
	require.NoError(t, err)
	n, err := ImportCountries(ctx, countries, rows)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	_, err = ImportCountries(ctx, countries, rows)
	require.NoError(t, err)

	file, err := LoadAliases("testdata/aliases.yaml")
	require.NoError(t, err)
	added, existing, err := ApplyAliases(ctx, countries, file)
	require.NoError(t, err)
	assert.Equal(t, 3, added)
	assert.Zero(t, existing)
	added, existing, err = ApplyAliases(ctx, countries, file)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3}, []int{added, existing})

	for _, label := range []string{"TURKEY", "REPUBLIC OF TÜRKIYE", "CÔTE D'IVOIRE"} {
		c, err := countries.Resolve(ctx, label)
		require.NoError(t, err)
		assert.True(t, c.Persisted(), label)
	}
	all, err := repos.Countries.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestParseAliasesEmpty(t *testing.T) {
	t.Parallel()

	file, err := ParseAliases(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, file.Aliases)

	_, err = ParseAliases(strings.NewReader("aliases: [unclosed"))
	require.Error(t, err)
}
