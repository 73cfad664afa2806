// Package resolver implements get-or-create for the entities a resolution
// references. Countries are identified by slug through the alias table;
// authors, subjects and agendas by exact name.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/unvotes-crawler/internal/crawler"
	"github.com/JakeFAU/unvotes-crawler/internal/logging"
	"github.com/JakeFAU/unvotes-crawler/internal/store"
)

// Countries resolves country labels.
type Countries struct {
	countries store.CountryRepository
	aliases   store.AliasRepository
	logger    *zap.Logger
}

// NewCountries returns a country resolver.
func NewCountries(countries store.CountryRepository, aliases store.AliasRepository, logger *zap.Logger) *Countries {
	return &Countries{countries: countries, aliases: aliases, logger: logging.OrNop(logger)}
}

// Resolve returns the stored country for label. When none exists it returns a
// transient, unsaved Country named after label; persist it with EnsureExists.
// A label with an empty slug fails with crawler.TransformationError.
func (r *Countries) Resolve(ctx context.Context, label string) (store.Country, error) {
	slug := Slug(label)
	if slug == "" {
		return store.Country{}, crawler.TransformationError{Field: "country", Value: label}
	}
	canonical := slug
	alias, err := r.aliases.FindByAlias(ctx, slug)
	switch {
	case err == nil:
		canonical = alias.Slug
	case !errors.Is(err, store.ErrNotFound):
		return store.Country{}, fmt.Errorf("lookup alias %q: %w", slug, err)
	}

	slugs := []string{slug}
	if canonical != slug {
		slugs = append(slugs, canonical)
	}
	country, err := r.countries.FindBySlugs(ctx, slugs...)
	if err == nil {
		return country, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return store.Country{}, fmt.Errorf("lookup country %q: %w", slug, err)
	}
	label = strings.TrimSpace(label)
	return store.Country{Name: label, UNName: label, Slug: canonical}, nil
}

// EnsureExists saves c unless it, or another country with its slug, is
// already stored, and returns the stored country.
func (r *Countries) EnsureExists(ctx context.Context, c store.Country) (store.Country, error) {
	if c.Persisted() {
		return c, nil
	}
	existing, err := r.countries.FindBySlugs(ctx, c.Slug)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return store.Country{}, fmt.Errorf("lookup country %q: %w", c.Slug, err)
	}
	if err := r.countries.Save(ctx, &c); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return r.countries.FindBySlugs(ctx, c.Slug)
		}
		return store.Country{}, fmt.Errorf("save country %q: %w", c.Slug, err)
	}
	r.logger.Info("country created", zap.String("slug", c.Slug), zap.String("name", c.Name))
	return c, nil
}

// AddAlias maps alias onto slug. Both are normalized with Slug. It reports
// false when alias is already mapped, to any slug.
func (r *Countries) AddAlias(ctx context.Context, slug, alias string) (bool, error) {
	slug, alias = Slug(slug), Slug(alias)
	if slug == "" || alias == "" {
		return false, errors.New("a slug and an alias are required")
	}
	if _, err := r.aliases.FindByAlias(ctx, alias); err == nil {
		return false, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("lookup alias %q: %w", alias, err)
	}
	if err := r.aliases.Save(ctx, &store.SlugAlias{Slug: slug, Alias: alias}); err != nil {
		return false, fmt.Errorf("save alias %q: %w", alias, err)
	}
	return true, nil
}

// Authors resolves sponsor names.
type Authors struct {
	authors   store.AuthorRepository
	countries *Countries
}

// NewAuthors returns an author resolver linking authors to countries through countries.
func NewAuthors(authors store.AuthorRepository, countries *Countries) *Authors {
	return &Authors{authors: authors, countries: countries}
}

// Resolve returns the author named name, creating it when missing. A new
// author is linked to a country only if that country is already stored.
// Names with an empty slug are never linked.
func (r *Authors) Resolve(ctx context.Context, name string) (store.Author, error) {
	return getOrCreate(ctx, name, r.authors.FindByName, r.authors.Save, func(name string) (store.Author, error) {
		author := store.Author{Name: name}
		if Slug(name) == "" {
			return author, nil
		}
		country, err := r.countries.Resolve(ctx, name)
		if err != nil {
			return store.Author{}, err
		}
		if country.Persisted() {
			author.Country = &country
		}
		return author, nil
	})
}

// Subjects resolves subject names.
type Subjects struct {
	repo store.SubjectRepository
}

// NewSubjects returns a subject resolver.
func NewSubjects(repo store.SubjectRepository) *Subjects {
	return &Subjects{repo: repo}
}

// Resolve returns the subject named name, creating it when missing.
func (r *Subjects) Resolve(ctx context.Context, name string) (store.Subject, error) {
	return getOrCreate(ctx, name, r.repo.FindByName, r.repo.Save, func(name string) (store.Subject, error) {
		return store.Subject{Name: name}, nil
	})
}

// Agendas resolves agenda names.
type Agendas struct {
	repo store.AgendaRepository
}

// NewAgendas returns an agenda resolver.
func NewAgendas(repo store.AgendaRepository) *Agendas {
	return &Agendas{repo: repo}
}

// Resolve returns the agenda named name, creating it when missing.
func (r *Agendas) Resolve(ctx context.Context, name string) (store.Agenda, error) {
	return getOrCreate(ctx, name, r.repo.FindByName, r.repo.Save, func(name string) (store.Agenda, error) {
		return store.Agenda{Name: name}, nil
	})
}

func getOrCreate[T any](
	ctx context.Context,
	name string,
	find func(context.Context, string) (T, error),
	save func(context.Context, *T) error,
	build func(string) (T, error),
) (T, error) {
	var zero T
	found, err := find(ctx, name)
	if err == nil {
		return found, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return zero, fmt.Errorf("lookup %q: %w", name, err)
	}
	entity, err := build(name)
	if err != nil {
		return zero, err
	}
	if err := save(ctx, &entity); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return find(ctx, name)
		}
		return zero, fmt.Errorf("save %q: %w", name, err)
	}
	return entity, nil
}
