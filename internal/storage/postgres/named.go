package postgres

import (
	"context"
	"fmt"

	"github.com/JakeFAU/unvotes-crawler/internal/store"
)

// named serves the tables keyed by a unique name column. table is always a
// package constant.
type named struct {
	db    DB
	table string
}

func (n named) find(ctx context.Context, name string) (int64, error) {
	var id int64
	err := n.db.QueryRow(ctx, fmt.Sprintf(`SELECT id FROM %s WHERE name = $1`, n.table), name).Scan(&id)
	if err != nil {
		return 0, mapErr("find "+n.table, err)
	}
	return id, nil
}

func (n named) insert(ctx context.Context, name string) (int64, error) {
	var id int64
	err := n.db.QueryRow(ctx, fmt.Sprintf(`INSERT INTO %s (name) VALUES ($1) RETURNING id`, n.table), name).Scan(&id)
	if err != nil {
		return 0, mapErr("insert "+n.table, err)
	}
	return id, nil
}

// Subjects implements store.SubjectRepository.
type Subjects struct{ named }

// FindByName implements store.SubjectRepository.
func (s *Subjects) FindByName(ctx context.Context, name string) (store.Subject, error) {
	id, err := s.find(ctx, name)
	if err != nil {
		return store.Subject{}, err
	}
	return store.Subject{ID: id, Name: name}, nil
}

// Save implements store.SubjectRepository.
func (s *Subjects) Save(ctx context.Context, subject *store.Subject) (err error) {
	subject.ID, err = s.insert(ctx, subject.Name)
	return err
}

// Agendas implements store.AgendaRepository.
type Agendas struct{ named }

// FindByName implements store.AgendaRepository.
func (a *Agendas) FindByName(ctx context.Context, name string) (store.Agenda, error) {
	id, err := a.find(ctx, name)
	if err != nil {
		return store.Agenda{}, err
	}
	return store.Agenda{ID: id, Name: name}, nil
}

// Save implements store.AgendaRepository.
func (a *Agendas) Save(ctx context.Context, agenda *store.Agenda) (err error) {
	agenda.ID, err = a.insert(ctx, agenda.Name)
	return err
}

// Authors implements store.AuthorRepository.
type Authors struct {
	db DB
}

// FindByName implements store.AuthorRepository.
func (a *Authors) FindByName(ctx context.Context, name string) (store.Author, error) {
	var author store.Author
	var countryID *int64
	var cName, cUN, cSlug, cAlpha2, cISO3, cNum *string
	err := a.db.QueryRow(ctx, `
SELECT a.id, a.name, c.id, c.name, c.un_name, c.slug, c.alpha2, c.iso3, c.numeric_code
FROM authors a
LEFT JOIN countries c ON c.id = a.country_id
WHERE a.name = $1`, name,
	).Scan(&author.ID, &author.Name, &countryID, &cName, &cUN, &cSlug, &cAlpha2, &cISO3, &cNum)
	if err != nil {
		return store.Author{}, mapErr("find author", err)
	}
	if countryID != nil {
		author.Country = &store.Country{
			ID:          *countryID,
			Name:        deref(cName),
			UNName:      deref(cUN),
			Slug:        deref(cSlug),
			Alpha2:      deref(cAlpha2),
			ISO3:        deref(cISO3),
			NumericCode: deref(cNum),
		}
	}
	return author, nil
}

// Save implements store.AuthorRepository.
func (a *Authors) Save(ctx context.Context, author *store.Author) error {
	var countryID *int64
	if author.Country != nil && author.Country.Persisted() {
		countryID = &author.Country.ID
	}
	err := a.db.QueryRow(ctx, `INSERT INTO authors (name, country_id) VALUES ($1, $2) RETURNING id`,
		author.Name, countryID,
	).Scan(&author.ID)
	if err != nil {
		return mapErr("insert author", err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
