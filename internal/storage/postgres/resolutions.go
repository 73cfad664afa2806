package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/JakeFAU/unvotes-crawler/internal/crawler"
	"github.com/JakeFAU/unvotes-crawler/internal/store"
)

const resolutionColumns = `id, symbol, title, voting_type, status, alternative_titles,
meeting_record_symbol, draft_symbol, committee_report_symbol, vote_summary,
agenda_information, date, year, details_url, description, notes`

// Resolutions implements store.ResolutionRepository.
type Resolutions struct {
	db DB
}

// ExistsBySymbol implements store.ResolutionRepository.
func (r *Resolutions) ExistsBySymbol(ctx context.Context, symbol string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM resolutions WHERE symbol = $1)`, symbol).Scan(&exists)
	if err != nil {
		return false, mapErr("check resolution", err)
	}
	return exists, nil
}

// Save implements store.ResolutionRepository. The row and every relation are
// written in one transaction.
func (r *Resolutions) Save(ctx context.Context, res *store.Resolution) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return mapErr("begin resolution tx", err)
	}
	if err := saveResolution(ctx, tx, res); err != nil {
		_ = tx.Rollback(ctx)
		res.ID = 0
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		res.ID = 0
		return mapErr("commit resolution", err)
	}
	return nil
}

func saveResolution(ctx context.Context, tx pgx.Tx, res *store.Resolution) error {
	alternative := res.AlternativeTitles
	if alternative == nil {
		alternative = []string{}
	}
	err := tx.QueryRow(ctx, `
INSERT INTO resolutions (symbol, title, voting_type, status, alternative_titles,
	meeting_record_symbol, draft_symbol, committee_report_symbol, vote_summary,
	agenda_information, date, year, details_url, description, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
RETURNING id`,
		res.Symbol, res.Title, int16(res.VotingType), int16(res.Status), alternative,
		res.MeetingRecordSymbol, res.DraftSymbol, res.CommitteeReportSymbol, res.VoteSummary,
		res.AgendaInformation, res.Date, res.Year, res.DetailsURL, res.Description, res.Notes,
	).Scan(&res.ID)
	if err != nil {
		return mapErr("insert resolution", err)
	}

	if len(res.DocumentURLs) > 0 {
		langs := make([]string, len(res.DocumentURLs))
		urls := make([]string, len(res.DocumentURLs))
		for i, d := range res.DocumentURLs {
			langs[i], urls[i] = d.Language, d.URL
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO document_urls (resolution_id, language, url)
SELECT $1, unnest($2::text[]), unnest($3::text[])`, res.ID, langs, urls); err != nil {
			return mapErr("insert document urls", err)
		}
	}

	if len(res.Votes) > 0 {
		countries := make([]int64, len(res.Votes))
		votes := make([]int16, len(res.Votes))
		for i, v := range res.Votes {
			countries[i], votes[i] = v.Country.ID, int16(v.Vote)
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO resolution_votes (resolution_id, country_id, vote)
SELECT $1, unnest($2::bigint[]), unnest($3::smallint[])`, res.ID, countries, votes); err != nil {
			return mapErr("insert votes", err)
		}
	}

	links := []struct {
		table, column string
		ids           []int64
	}{
		{"resolution_subjects", "subject_id", subjectIDs(res.Subjects)},
		{"resolution_authors", "author_id", authorIDs(res.Authors)},
		{"resolution_agendas", "agenda_id", agendaIDs(res.Agendas)},
	}
	for _, l := range links {
		if len(l.ids) == 0 {
			continue
		}
		query := fmt.Sprintf(`INSERT INTO %s (resolution_id, %s) SELECT $1, unnest($2::bigint[])`, l.table, l.column)
		if _, err := tx.Exec(ctx, query, res.ID, l.ids); err != nil {
			return mapErr("insert "+l.table, err)
		}
	}
	return nil
}

// FindBySymbol implements store.ResolutionRepository.
func (r *Resolutions) FindBySymbol(ctx context.Context, symbol string) (store.Resolution, error) {
	res, err := scanResolution(r.db.QueryRow(ctx,
		`SELECT `+resolutionColumns+` FROM resolutions WHERE symbol = $1`, symbol))
	if err != nil {
		return store.Resolution{}, mapErr("find resolution", err)
	}
	if err := r.loadVotes(ctx, &res); err != nil {
		return store.Resolution{}, err
	}
	if err := r.loadDocumentURLs(ctx, &res); err != nil {
		return store.Resolution{}, err
	}
	if res.Subjects, err = loadNamed(ctx, r.db, res.ID, "subjects", "resolution_subjects", "subject_id",
		func(id int64, name string) store.Subject { return store.Subject{ID: id, Name: name} }); err != nil {
		return store.Resolution{}, err
	}
	if res.Authors, err = loadNamed(ctx, r.db, res.ID, "authors", "resolution_authors", "author_id",
		func(id int64, name string) store.Author { return store.Author{ID: id, Name: name} }); err != nil {
		return store.Resolution{}, err
	}
	if res.Agendas, err = loadNamed(ctx, r.db, res.ID, "agendas", "resolution_agendas", "agenda_id",
		func(id int64, name string) store.Agenda { return store.Agenda{ID: id, Name: name} }); err != nil {
		return store.Resolution{}, err
	}
	return res, nil
}

func (r *Resolutions) loadVotes(ctx context.Context, res *store.Resolution) error {
	rows, err := r.db.Query(ctx, `
SELECT c.id, c.name, c.un_name, c.slug, c.alpha2, c.iso3, c.numeric_code, v.vote
FROM resolution_votes v
JOIN countries c ON c.id = v.country_id
WHERE v.resolution_id = $1
ORDER BY c.slug`, res.ID)
	if err != nil {
		return mapErr("load votes", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c store.Country
		var vote int16
		if err := rows.Scan(&c.ID, &c.Name, &c.UNName, &c.Slug, &c.Alpha2, &c.ISO3, &c.NumericCode, &vote); err != nil {
			return mapErr("scan vote", err)
		}
		res.Votes = append(res.Votes, store.ResolutionVote{Country: c, Vote: crawler.Vote(vote)})
	}
	if err := rows.Err(); err != nil {
		return mapErr("load votes", err)
	}
	return nil
}

func (r *Resolutions) loadDocumentURLs(ctx context.Context, res *store.Resolution) error {
	rows, err := r.db.Query(ctx,
		`SELECT language, url FROM document_urls WHERE resolution_id = $1 ORDER BY language`, res.ID)
	if err != nil {
		return mapErr("load document urls", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d store.DocumentURL
		if err := rows.Scan(&d.Language, &d.URL); err != nil {
			return mapErr("scan document url", err)
		}
		res.DocumentURLs = append(res.DocumentURLs, d)
	}
	if err := rows.Err(); err != nil {
		return mapErr("load document urls", err)
	}
	return nil
}

func loadNamed[T any](
	ctx context.Context,
	db DB,
	resolutionID int64,
	table, joinTable, column string,
	build func(id int64, name string) T,
) ([]T, error) {
	query := fmt.Sprintf(`
SELECT t.id, t.name FROM %s t
JOIN %s j ON j.%s = t.id
WHERE j.resolution_id = $1
ORDER BY t.name`, table, joinTable, column)
	rows, err := db.Query(ctx, query, resolutionID)
	if err != nil {
		return nil, mapErr("load "+table, err)
	}
	defer rows.Close()
	var out []T
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, mapErr("scan "+table, err)
		}
		out = append(out, build(id, name))
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("load "+table, err)
	}
	return out, nil
}

// CountByYear implements store.ResolutionRepository.
func (r *Resolutions) CountByYear(ctx context.Context) (map[int]int, error) {
	rows, err := r.db.Query(ctx, `SELECT year, count(*) FROM resolutions GROUP BY year`)
	if err != nil {
		return nil, mapErr("count resolutions", err)
	}
	defer rows.Close()
	counts := make(map[int]int)
	for rows.Next() {
		var year int32
		var n int64
		if err := rows.Scan(&year, &n); err != nil {
			return nil, mapErr("scan count", err)
		}
		counts[int(year)] = int(n)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("count resolutions", err)
	}
	return counts, nil
}

// ListByYear implements store.ResolutionRepository.
func (r *Resolutions) ListByYear(ctx context.Context, year int) ([]store.Resolution, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+resolutionColumns+` FROM resolutions WHERE year = $1 ORDER BY date, symbol`, year)
	if err != nil {
		return nil, mapErr("list resolutions", err)
	}
	defer rows.Close()
	var out []store.Resolution
	for rows.Next() {
		res, err := scanResolution(rows)
		if err != nil {
			return nil, mapErr("scan resolution", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("list resolutions", err)
	}
	return out, nil
}

func scanResolution(row pgx.Row) (store.Resolution, error) {
	var res store.Resolution
	var votingType, status int16
	var year int32
	err := row.Scan(
		&res.ID,
		&res.Symbol,
		&res.Title,
		&votingType,
		&status,
		&res.AlternativeTitles,
		&res.MeetingRecordSymbol,
		&res.DraftSymbol,
		&res.CommitteeReportSymbol,
		&res.VoteSummary,
		&res.AgendaInformation,
		&res.Date,
		&year,
		&res.DetailsURL,
		&res.Description,
		&res.Notes,
	)
	if err != nil {
		return store.Resolution{}, err
	}
	res.VotingType = crawler.VotingType(votingType)
	res.Status = crawler.ResolutionStatus(status)
	res.Year = int(year)
	return res, nil
}

func subjectIDs(subjects []store.Subject) []int64 {
	ids := make([]int64, 0, len(subjects))
	for _, s := range subjects {
		ids = append(ids, s.ID)
	}
	return ids
}

func authorIDs(authors []store.Author) []int64 {
	ids := make([]int64, 0, len(authors))
	for _, a := range authors {
		ids = append(ids, a.ID)
	}
	return ids
}

func agendaIDs(agendas []store.Agenda) []int64 {
	ids := make([]int64, 0, len(agendas))
	for _, a := range agendas {
		ids = append(ids, a.ID)
	}
	return ids
}
