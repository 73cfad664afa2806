package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/JakeFAU/unvotes-crawler/internal/store"
)

// NewRepositories returns an in-memory backend for development and tests.
func NewRepositories() store.Repositories {
	return store.Repositories{
		Countries:   NewCountries(),
		Aliases:     NewAliases(),
		Authors:     NewAuthors(),
		Subjects:    NewSubjects(),
		Agendas:     NewAgendas(),
		Resolutions: NewResolutions(),
		Cursor:      &Cursor{},
	}
}

// Countries is an in-memory store.CountryRepository.
type Countries struct {
	mu     sync.RWMutex
	nextID int64
	bySlug map[string]store.Country
}

// NewCountries constructs an empty Countries.
func NewCountries() *Countries {
	return &Countries{bySlug: make(map[string]store.Country)}
}

// FindBySlugs implements store.CountryRepository.
func (c *Countries) FindBySlugs(_ context.Context, slugs ...string) (store.Country, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, slug := range slugs {
		if country, ok := c.bySlug[slug]; ok {
			return country, nil
		}
	}
	return store.Country{}, store.ErrNotFound
}

// Save implements store.CountryRepository.
func (c *Countries) Save(_ context.Context, country *store.Country) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, taken := c.bySlug[country.Slug]; taken {
		return store.ErrDuplicate
	}
	c.nextID++
	country.ID = c.nextID
	c.bySlug[country.Slug] = *country
	return nil
}

// List implements store.CountryRepository.
func (c *Countries) List(_ context.Context) ([]store.Country, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]store.Country, 0, len(c.bySlug))
	for _, country := range c.bySlug {
		out = append(out, country)
	}
	slices.SortFunc(out, func(a, b store.Country) int { return cmp.Compare(a.Slug, b.Slug) })
	return out, nil
}

// Aliases is an in-memory store.AliasRepository.
type Aliases struct {
	mu   sync.RWMutex
	rows []store.SlugAlias
}

// NewAliases constructs an empty Aliases.
func NewAliases() *Aliases {
	return &Aliases{}
}

// FindByAlias implements store.AliasRepository.
func (a *Aliases) FindByAlias(_ context.Context, alias string) (store.SlugAlias, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, row := range a.rows {
		if row.Alias == alias {
			return row, nil
		}
	}
	return store.SlugAlias{}, store.ErrNotFound
}

// Save implements store.AliasRepository.
func (a *Aliases) Save(_ context.Context, alias *store.SlugAlias) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, row := range a.rows {
		if row.Slug == alias.Slug && row.Alias == alias.Alias {
			alias.ID = row.ID
			return nil
		}
	}
	alias.ID = int64(len(a.rows) + 1)
	a.rows = append(a.rows, *alias)
	return nil
}

// List implements store.AliasRepository.
func (a *Aliases) List(_ context.Context) ([]store.SlugAlias, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.rows), nil
}

// Authors is an in-memory store.AuthorRepository.
type Authors struct {
	mu     sync.RWMutex
	byName map[string]store.Author
}

// NewAuthors constructs an empty Authors.
func NewAuthors() *Authors {
	return &Authors{byName: make(map[string]store.Author)}
}

// FindByName implements store.AuthorRepository.
func (a *Authors) FindByName(_ context.Context, name string) (store.Author, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	author, ok := a.byName[name]
	if !ok {
		return store.Author{}, store.ErrNotFound
	}
	return author, nil
}

// Save implements store.AuthorRepository.
func (a *Authors) Save(_ context.Context, author *store.Author) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, taken := a.byName[author.Name]; taken {
		return store.ErrDuplicate
	}
	author.ID = int64(len(a.byName) + 1)
	a.byName[author.Name] = *author
	return nil
}

// named stores entities keyed by exact name.
type named[T any] struct {
	mu     sync.RWMutex
	byName map[string]T
	nameOf func(T) string
	setID  func(*T, int64)
}

// Subjects is an in-memory store.SubjectRepository.
type Subjects = named[store.Subject]

// Agendas is an in-memory store.AgendaRepository.
type Agendas = named[store.Agenda]

// NewSubjects constructs an empty Subjects.
func NewSubjects() *Subjects {
	return &Subjects{
		byName: make(map[string]store.Subject),
		nameOf: func(s store.Subject) string { return s.Name },
		setID:  func(s *store.Subject, id int64) { s.ID = id },
	}
}

// NewAgendas constructs an empty Agendas.
func NewAgendas() *Agendas {
	return &Agendas{
		byName: make(map[string]store.Agenda),
		nameOf: func(a store.Agenda) string { return a.Name },
		setID:  func(a *store.Agenda, id int64) { a.ID = id },
	}
}

// FindByName returns the entity named name or store.ErrNotFound.
func (n *named[T]) FindByName(_ context.Context, name string) (T, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	v, ok := n.byName[name]
	if !ok {
		var zero T
		return zero, store.ErrNotFound
	}
	return v, nil
}

// Save inserts entity and assigns its ID.
func (n *named[T]) Save(_ context.Context, entity *T) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	name := n.nameOf(*entity)
	if _, taken := n.byName[name]; taken {
		return store.ErrDuplicate
	}
	n.setID(entity, int64(len(n.byName)+1))
	n.byName[name] = *entity
	return nil
}

// Resolutions is an in-memory store.ResolutionRepository.
type Resolutions struct {
	mu       sync.RWMutex
	bySymbol map[string]store.Resolution
}

// NewResolutions constructs an empty Resolutions.
func NewResolutions() *Resolutions {
	return &Resolutions{bySymbol: make(map[string]store.Resolution)}
}

// ExistsBySymbol implements store.ResolutionRepository.
func (r *Resolutions) ExistsBySymbol(_ context.Context, symbol string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.bySymbol[symbol]
	return ok, nil
}

// FindBySymbol implements store.ResolutionRepository.
func (r *Resolutions) FindBySymbol(_ context.Context, symbol string) (store.Resolution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.bySymbol[symbol]
	if !ok {
		return store.Resolution{}, store.ErrNotFound
	}
	return res, nil
}

// Save implements store.ResolutionRepository.
func (r *Resolutions) Save(_ context.Context, res *store.Resolution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.bySymbol[res.Symbol]; taken {
		return store.ErrDuplicate
	}
	res.ID = int64(len(r.bySymbol) + 1)
	r.bySymbol[res.Symbol] = *res
	return nil
}

// CountByYear implements store.ResolutionRepository.
func (r *Resolutions) CountByYear(_ context.Context) (map[int]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[int]int)
	for _, res := range r.bySymbol {
		counts[res.Year]++
	}
	return counts, nil
}

// ListByYear implements store.ResolutionRepository.
func (r *Resolutions) ListByYear(_ context.Context, year int) ([]store.Resolution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []store.Resolution
	for _, res := range r.bySymbol {
		if res.Year != year {
			continue
		}
		res.Votes, res.DocumentURLs, res.Subjects, res.Authors, res.Agendas = nil, nil, nil, nil, nil
		out = append(out, res)
	}
	slices.SortFunc(out, func(a, b store.Resolution) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.Symbol, b.Symbol)
	})
	return out, nil
}

// Cursor is an in-memory store.CursorRepository.
type Cursor struct {
	mu     sync.RWMutex
	cursor *store.Cursor
}

// Get implements store.CursorRepository.
func (c *Cursor) Get(_ context.Context) (store.Cursor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cursor == nil {
		return store.Cursor{}, store.ErrNotFound
	}
	return *c.cursor, nil
}

// Save implements store.CursorRepository.
func (c *Cursor) Save(_ context.Context, cursor store.Cursor) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cursor != nil && !cursor.LastDate.Before(c.cursor.LastDate) {
		return nil
	}
	c.cursor = &cursor
	return nil
}
