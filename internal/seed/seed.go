// Package seed loads reference data: the country list and the slug aliases
// that make differently spelled country labels converge.
package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JakeFAU/unvotes-crawler/internal/resolver"
	"github.com/JakeFAU/unvotes-crawler/internal/store"
)

// AliasFile is the YAML alias seed: each canonical slug maps to the labels
// that should resolve to it.
//
//	aliases:
//	  turkiye: [Turkey, Türkiye]
type AliasFile struct {
	Aliases map[string][]string `yaml:"aliases"`
}

// LoadAliases reads an alias seed file.
func LoadAliases(path string) (AliasFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return AliasFile{}, fmt.Errorf("open alias file: %w", err)
	}
	defer f.Close()
	return ParseAliases(f)
}

// ParseAliases decodes an alias seed document.
func ParseAliases(r io.Reader) (AliasFile, error) {
	var file AliasFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return AliasFile{}, fmt.Errorf("parse alias file: %w", err)
	}
	return file, nil
}

// ApplyAliases registers every alias in file, in slug order. It returns how
// many were added and how many already existed.
func ApplyAliases(ctx context.Context, countries *resolver.Countries, file AliasFile) (added, existing int, err error) {
	slugs := make([]string, 0, len(file.Aliases))
	for slug := range file.Aliases {
		slugs = append(slugs, slug)
	}
	slices.Sort(slugs)
	for _, slug := range slugs {
		for _, alias := range file.Aliases[slug] {
			created, err := countries.AddAlias(ctx, slug, alias)
			if err != nil {
				return added, existing, fmt.Errorf("alias %q -> %q: %w", alias, slug, err)
			}
			if created {
				added++
			} else {
				existing++
			}
		}
	}
	return added, existing, nil
}

// Column positions of the geonames countryInfo.txt format.
const (
	colAlpha2 = iota
	colISO3
	colNumeric
	colFIPS
	colName
)

// LoadCountries reads a geonames-style country file.
func LoadCountries(path string) ([]store.Country, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open country file: %w", err)
	}
	defer f.Close()
	return ParseCountries(f)
}

// ParseCountries decodes tab-separated country rows. Lines starting with '#'
// are comments.
func ParseCountries(r io.Reader) ([]store.Country, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var out []store.Country
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read country row: %w", err)
		}
		if len(row) <= colName {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("country row on line %d has %d columns", line, len(row))
		}
		name := strings.TrimSpace(row[colName])
		slug := resolver.Slug(name)
		if slug == "" {
			continue
		}
		out = append(out, store.Country{
			Name:        name,
			UNName:      name,
			Slug:        slug,
			Alpha2:      strings.TrimSpace(row[colAlpha2]),
			ISO3:        strings.TrimSpace(row[colISO3]),
			NumericCode: strings.TrimSpace(row[colNumeric]),
		})
	}
}

// ImportCountries stores every country not yet present by slug and returns
// how many rows it processed.
func ImportCountries(ctx context.Context, countries *resolver.Countries, rows []store.Country) (int, error) {
	for i, c := range rows {
		if _, err := countries.EnsureExists(ctx, c); err != nil {
			return i, fmt.Errorf("import country %q: %w", c.Slug, err)
		}
	}
	return len(rows), nil
}
