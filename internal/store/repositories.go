package store

import "context"

// CountryRepository persists countries keyed by slug.
type CountryRepository interface {
	// FindBySlugs returns the first stored country whose slug matches, trying
	// slugs in order, or ErrNotFound.
	FindBySlugs(ctx context.Context, slugs ...string) (Country, error)
	// Save inserts c and assigns its ID. A taken slug yields ErrDuplicate.
	Save(ctx context.Context, c *Country) error
	// List returns every country ordered by slug.
	List(ctx context.Context) ([]Country, error)
}

// AliasRepository persists slug aliases. (Slug, Alias) pairs are unique.
type AliasRepository interface {
	// FindByAlias returns the oldest alias row for alias, or ErrNotFound.
	FindByAlias(ctx context.Context, alias string) (SlugAlias, error)
	// Save inserts a or, when the pair already exists, loads its ID.
	Save(ctx context.Context, a *SlugAlias) error
	List(ctx context.Context) ([]SlugAlias, error)
}

// AuthorRepository persists authors keyed by exact name.
type AuthorRepository interface {
	FindByName(ctx context.Context, name string) (Author, error)
	Save(ctx context.Context, a *Author) error
}

// SubjectRepository persists subjects keyed by exact name.
type SubjectRepository interface {
	FindByName(ctx context.Context, name string) (Subject, error)
	Save(ctx context.Context, s *Subject) error
}

// AgendaRepository persists agendas keyed by exact name.
type AgendaRepository interface {
	FindByName(ctx context.Context, name string) (Agenda, error)
	Save(ctx context.Context, a *Agenda) error
}

// ResolutionRepository persists resolutions keyed by symbol.
type ResolutionRepository interface {
	ExistsBySymbol(ctx context.Context, symbol string) (bool, error)
	// FindBySymbol loads a resolution with its votes, links and relations.
	FindBySymbol(ctx context.Context, symbol string) (Resolution, error)
	// Save stores r and all of its relations atomically. Its related
	// entities must already be persisted. A taken symbol yields ErrDuplicate.
	Save(ctx context.Context, r *Resolution) error
	// CountByYear returns the number of stored resolutions per year.
	CountByYear(ctx context.Context) (map[int]int, error)
	// ListByYear returns the resolutions of year without their relations,
	// ordered by date then symbol.
	ListByYear(ctx context.Context, year int) ([]Resolution, error)
}

// CursorRepository persists the single resumability cursor.
type CursorRepository interface {
	// Get returns the cursor or ErrNotFound when none was saved yet.
	Get(ctx context.Context) (Cursor, error)
	// Save stores c.LastDate unless an earlier date is already stored.
	Save(ctx context.Context, c Cursor) error
}

// Repositories bundles the repositories of one backend.
type Repositories struct {
	Countries   CountryRepository
	Aliases     AliasRepository
	Authors     AuthorRepository
	Subjects    SubjectRepository
	Agendas     AgendaRepository
	Resolutions ResolutionRepository
	Cursor      CursorRepository
	// Close releases backend resources; nil when there are none.
	Close func()
}
