package importer

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/JakeFAU/unvotes-crawler/internal/crawler"
	"github.com/JakeFAU/unvotes-crawler/internal/resolver"
	"github.com/JakeFAU/unvotes-crawler/internal/store"
)

// Transformer maps reconciled records onto persistent entities, resolving
// every referenced entity through get-or-create.
type Transformer struct {
	countries *resolver.Countries
	authors   *resolver.Authors
	subjects  *resolver.Subjects
	agendas   *resolver.Agendas
	validate  *validator.Validate
}

// NewTransformer wires the resolvers over repos.
func NewTransformer(repos store.Repositories, logger *zap.Logger) *Transformer {
	countries := resolver.NewCountries(repos.Countries, repos.Aliases, logger)
	return &Transformer{
		countries: countries,
		authors:   resolver.NewAuthors(repos.Authors, countries),
		subjects:  resolver.NewSubjects(repos.Subjects),
		agendas:   resolver.NewAgendas(repos.Agendas),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Countries exposes the country resolver shared by the transformer.
func (t *Transformer) Countries() *resolver.Countries {
	return t.countries
}

type labeledVote struct {
	label string
	vote  crawler.Vote
}

// Transform builds the Resolution for rec. Values without a domain mapping
// fail with crawler.TransformationError before any entity is created.
func (t *Transformer) Transform(ctx context.Context, rec crawler.ResolutionRecord) (store.Resolution, error) {
	if err := t.validate.Struct(rec); err != nil {
		return store.Resolution{}, validationError(err)
	}
	votingType, err := crawler.ParseVotingType(rec.Symbol)
	if err != nil {
		return store.Resolution{}, err
	}
	votes, byLabel, err := parseVotes(rec.Votes)
	if err != nil {
		return store.Resolution{}, err
	}

	res := store.Resolution{
		Symbol:                rec.Symbol,
		Title:                 rec.Title,
		VotingType:            votingType,
		Status:                crawler.DeriveStatus(byLabel, rec.VoteSummary, rec.Notes),
		AlternativeTitles:     rec.AlternativeTitles,
		MeetingRecordSymbol:   rec.MeetingRecordSymbol,
		DraftSymbol:           rec.DraftSymbol,
		CommitteeReportSymbol: rec.CommitteeReportSymbol,
		VoteSummary:           rec.VoteSummary,
		AgendaInformation:     rec.AgendaInformation,
		Date:                  rec.Date,
		Year:                  rec.Date.Year(),
		DetailsURL:            rec.DetailsURL,
		Description:           rec.Description,
		Notes:                 rec.Notes,
		DocumentURLs:          documentURLs(rec.TextLinks),
	}

	seen := make(map[int64]struct{}, len(votes))
	for _, v := range votes {
		country, err := t.countries.Resolve(ctx, v.label)
		if err != nil {
			return store.Resolution{}, err
		}
		if country, err = t.countries.EnsureExists(ctx, country); err != nil {
			return store.Resolution{}, err
		}
		if _, dup := seen[country.ID]; dup {
			continue
		}
		seen[country.ID] = struct{}{}
		res.Votes = append(res.Votes, store.ResolutionVote{Country: country, Vote: v.vote})
	}

	for _, name := range dedupe(rec.Authors) {
		author, err := t.authors.Resolve(ctx, name)
		if err != nil {
			return store.Resolution{}, err
		}
		res.Authors = append(res.Authors, author)
	}
	for _, name := range dedupe(rec.Subjects) {
		subject, err := t.subjects.Resolve(ctx, name)
		if err != nil {
			return store.Resolution{}, err
		}
		res.Subjects = append(res.Subjects, subject)
	}
	for _, name := range dedupe(rec.Agendas) {
		agenda, err := t.agendas.Resolve(ctx, name)
		if err != nil {
			return store.Resolution{}, err
		}
		res.Agendas = append(res.Agendas, agenda)
	}
	return res, nil
}

// parseVotes decodes every letter in label order.
func parseVotes(raw map[string]string) ([]labeledVote, map[string]crawler.Vote, error) {
	labels := make([]string, 0, len(raw))
	for label := range raw {
		labels = append(labels, label)
	}
	slices.Sort(labels)
	out := make([]labeledVote, 0, len(labels))
	byLabel := make(map[string]crawler.Vote, len(labels))
	for _, label := range labels {
		if resolver.Slug(label) == "" {
			return nil, nil, crawler.TransformationError{Field: "country", Value: label}
		}
		vote, err := crawler.ParseVote(label, raw[label])
		if err != nil {
			return nil, nil, err
		}
		out = append(out, labeledVote{label: label, vote: vote})
		byLabel[label] = vote
	}
	return out, byLabel, nil
}

func documentURLs(links map[string]string) []store.DocumentURL {
	if len(links) == 0 {
		return nil
	}
	out := make([]store.DocumentURL, 0, len(links))
	for lang, url := range links {
		out = append(out, store.DocumentURL{Language: lang, URL: url})
	}
	slices.SortFunc(out, func(a, b store.DocumentURL) int { return strings.Compare(a.Language, b.Language) })
	return out
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// validationError reports the first failed rule as a TransformationError so
// the record is triaged like any other unmappable value.
func validationError(err error) error {
	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		fe := fields[0]
		return crawler.TransformationError{
			Field: fmt.Sprintf("%s (%s)", strings.ToLower(fe.Field()), fe.Tag()),
			Value: fmt.Sprint(fe.Value()),
		}
	}
	return fmt.Errorf("validate record: %w", err)
}
