package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/JakeFAU/unvotes-crawler/internal/store"
)

const countryColumns = `id, name, un_name, slug, alpha2, iso3, numeric_code`

// Countries implements store.CountryRepository.
type Countries struct {
	db DB
}

// FindBySlugs implements store.CountryRepository.
func (c *Countries) FindBySlugs(ctx context.Context, slugs ...string) (store.Country, error) {
	if len(slugs) == 0 {
		return store.Country{}, store.ErrNotFound
	}
	row := c.db.QueryRow(ctx, `
SELECT `+countryColumns+`
FROM countries
WHERE slug = ANY($1::text[])
ORDER BY array_position($1::text[], slug)
LIMIT 1`, slugs)
	country, err := scanCountry(row)
	if err != nil {
		return store.Country{}, mapErr("find country", err)
	}
	return country, nil
}

// Save implements store.CountryRepository.
func (c *Countries) Save(ctx context.Context, country *store.Country) error {
	err := c.db.QueryRow(ctx, `
INSERT INTO countries (name, un_name, slug, alpha2, iso3, numeric_code)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`,
		country.Name, country.UNName, country.Slug, country.Alpha2, country.ISO3, country.NumericCode,
	).Scan(&country.ID)
	if err != nil {
		return mapErr("insert country", err)
	}
	return nil
}

// List implements store.CountryRepository.
func (c *Countries) List(ctx context.Context) ([]store.Country, error) {
	rows, err := c.db.Query(ctx, `SELECT `+countryColumns+` FROM countries ORDER BY slug`)
	if err != nil {
		return nil, mapErr("list countries", err)
	}
	defer rows.Close()

	var out []store.Country
	for rows.Next() {
		country, err := scanCountry(rows)
		if err != nil {
			return nil, mapErr("scan country", err)
		}
		out = append(out, country)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("list countries", err)
	}
	return out, nil
}

func scanCountry(row pgx.Row) (store.Country, error) {
	var c store.Country
	err := row.Scan(&c.ID, &c.Name, &c.UNName, &c.Slug, &c.Alpha2, &c.ISO3, &c.NumericCode)
	return c, err
}

// Aliases implements store.AliasRepository.
type Aliases struct {
	db DB
}

// FindByAlias implements store.AliasRepository.
func (a *Aliases) FindByAlias(ctx context.Context, alias string) (store.SlugAlias, error) {
	var row store.SlugAlias
	err := a.db.QueryRow(ctx, `
SELECT id, slug, alias FROM slug_aliases WHERE alias = $1 ORDER BY id LIMIT 1`, alias,
	).Scan(&row.ID, &row.Slug, &row.Alias)
	if err != nil {
		return store.SlugAlias{}, mapErr("find alias", err)
	}
	return row, nil
}

// Save implements store.AliasRepository.
func (a *Aliases) Save(ctx context.Context, alias *store.SlugAlias) error {
	err := a.db.QueryRow(ctx, `
INSERT INTO slug_aliases (slug, alias) VALUES ($1, $2)
ON CONFLICT (slug, alias) DO UPDATE SET alias = EXCLUDED.alias
RETURNING id`, alias.Slug, alias.Alias,
	).Scan(&alias.ID)
	if err != nil {
		return mapErr("insert alias", err)
	}
	return nil
}

// List implements store.AliasRepository.
func (a *Aliases) List(ctx context.Context) ([]store.SlugAlias, error) {
	rows, err := a.db.Query(ctx, `SELECT id, slug, alias FROM slug_aliases ORDER BY id`)
	if err != nil {
		return nil, mapErr("list aliases", err)
	}
	defer rows.Close()

	var out []store.SlugAlias
	for rows.Next() {
		var row store.SlugAlias
		if err := rows.Scan(&row.ID, &row.Slug, &row.Alias); err != nil {
			return nil, mapErr("scan alias", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("list aliases", err)
	}
	return out, nil
}
