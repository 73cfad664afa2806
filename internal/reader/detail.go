package reader

import (
	"fmt"

	"github.com/JakeFAU/unvotes-crawler/internal/crawler"
	"github.com/JakeFAU/unvotes-crawler/internal/extract"
)

// Detail page field names.
const (
	fieldSymbol      = "symbol"
	fieldAltTitles   = "alternative_titles"
	fieldDate        = "date"
	fieldVoteDate    = "vote_date"
	fieldResolution  = "resolution"
	fieldDraft       = "draft"
	fieldCommittee   = "committee_report"
	fieldMeeting     = "meeting_record"
	fieldVotes       = "votes"
	fieldSummary     = "vote_summary"
	fieldAgenda      = "agenda"
	fieldCollections = "collections"
	fieldSubjects    = "subjects"
	fieldAccess      = "access"
	fieldDescription = "description"
	fieldNotes       = "notes"
	fieldActionNote  = "action_note"
)

var (
	ruleResolution = extract.Rule{Field: fieldResolution, Query: "Resolution", Also: []string{"Resolution / Decision"}, Markup: true, Optional: true}
	ruleDraft      = extract.Rule{Field: fieldDraft, Query: "Draft resolution", Also: []string{"Draft"}, Markup: true, Optional: true}
	ruleCommittee  = extract.Rule{Field: fieldCommittee, Query: "Committee report", Markup: true, Optional: true}
	ruleMeeting    = extract.Rule{Field: fieldMeeting, Query: "Meeting record", Markup: true, Optional: true}
	ruleAgenda     = extract.Rule{Field: fieldAgenda, Query: "Agenda information", Also: []string{"Agenda"}, Markup: true, Optional: true}
	ruleCollection = extract.Rule{Field: fieldCollections, Query: "Collections", Markup: true, Optional: true}
	ruleNotes      = extract.Rule{Field: fieldNotes, Query: "Notes", Also: []string{"Note"}, Optional: true}
	ruleSummary    = extract.Rule{Field: fieldSummary, Query: "Vote summary", Optional: true}
)

var votingDataRules = extract.MustLabeled(extract.DetailLayout,
	extract.Rule{Field: fieldTitle, Query: "Title"},
	extract.Rule{Field: fieldVoteDate, Query: "Vote date"},
	extract.Rule{Field: fieldVotes, Query: "Vote", Markup: true, Optional: true},
	ruleResolution, ruleDraft, ruleCommittee, ruleMeeting,
	ruleAgenda, ruleCollection, ruleNotes, ruleSummary,
)

// documentRules builds the shared secondary table plus the code fields that
// link away from kind.
func documentRules(kind crawler.Kind) *extract.Labeled {
	rules := []extract.Rule{
		{Field: fieldTitle, Query: "Title"},
		{Field: fieldSymbol, Query: "Symbol", Optional: true},
		{Field: fieldAltTitles, Query: "Alternative title", Also: []string{"Alternative titles"}, Markup: true, Optional: true},
		{Field: fieldDate, Query: "Date", Optional: true},
		{Field: fieldAuthors, Query: "Authors", Markup: true, Optional: true},
		{Field: fieldSubjects, Query: "Subjects", Also: []string{"Subject"}, Markup: true, Optional: true},
		{Field: fieldAccess, Query: "Access", Markup: true, Optional: true},
		{Field: fieldDescription, Query: "Description", Optional: true},
		{Field: fieldActionNote, Query: "Action note", Optional: true},
		ruleAgenda, ruleCollection, ruleNotes, ruleSummary,
	}
	for _, code := range []struct {
		kind crawler.Kind
		rule extract.Rule
	}{
		{crawler.KindResolution, ruleResolution},
		{crawler.KindDraft, ruleDraft},
		{crawler.KindCommitteeReport, ruleCommittee},
		{crawler.KindMeetingRecord, ruleMeeting},
	} {
		if code.kind != kind {
			rules = append(rules, code.rule)
		}
	}
	return extract.MustLabeled(extract.DetailLayout, rules...)
}

var secondaryRules = map[crawler.Kind]*extract.Labeled{
	crawler.KindResolution:      documentRules(crawler.KindResolution),
	crawler.KindDraft:           documentRules(crawler.KindDraft),
	crawler.KindCommitteeReport: documentRules(crawler.KindCommitteeReport),
	crawler.KindMeetingRecord:   documentRules(crawler.KindMeetingRecord),
}

// ParseVotingData reads a voting-data detail page fetched from pageURL.
func ParseVotingData(data []byte, pageURL, root string) (crawler.DocumentPage, error) {
	doc, err := extract.Parse(data)
	if err != nil {
		return crawler.DocumentPage{}, err
	}
	fields, err := votingDataRules.Extract(doc.Selection)
	if err != nil {
		return crawler.DocumentPage{}, err
	}
	page := buildCommon(crawler.KindVotingData, fields, pageURL, root)
	date, ok := ParseDate(fields.Get(fieldVoteDate))
	if !ok {
		return crawler.DocumentPage{}, crawler.TransformationError{Field: "vote date", Value: fields.Get(fieldVoteDate)}
	}
	page.Date = date
	if fields.Has(fieldVotes) {
		page.Votes = Votes(fields.Get(fieldVotes))
	}
	return page, nil
}

// ParseDocument reads a secondary document page of the given kind.
func ParseDocument(kind crawler.Kind, data []byte, pageURL, root string) (crawler.DocumentPage, error) {
	rules, ok := secondaryRules[kind]
	if !ok {
		return crawler.DocumentPage{}, fmt.Errorf("no document reader for kind %q", kind)
	}
	doc, err := extract.Parse(data)
	if err != nil {
		return crawler.DocumentPage{}, err
	}
	fields, err := rules.Extract(doc.Selection)
	if err != nil {
		return crawler.DocumentPage{}, err
	}
	page := buildCommon(kind, fields, pageURL, root)
	page.Symbol = fields.Get(fieldSymbol)
	page.Date, _ = ParseDate(fields.Get(fieldDate))
	page.AlternativeTitles = Lines(fields.Get(fieldAltTitles))
	page.Authors = Names(fields.Get(fieldAuthors))
	page.Subjects = Names(fields.Get(fieldSubjects))
	page.TextLinks = TextLinks(fields.Get(fieldAccess), root)
	page.Description = fields.Get(fieldDescription)
	page.ActionNote = fields.Get(fieldActionNote)
	return page, nil
}

func buildCommon(kind crawler.Kind, fields extract.Fields, pageURL, root string) crawler.DocumentPage {
	page := crawler.DocumentPage{
		Kind:        kind,
		Title:       fields.Get(fieldTitle),
		DetailsURL:  pageURL,
		VoteSummary: fields.Get(fieldSummary),
		Notes:       fields.Get(fieldNotes),
		Collections: Collections(fields.Get(fieldCollections)),
	}
	if fields.Has(fieldAgenda) {
		page.Agendas = Lines(fields.Get(fieldAgenda))
		page.AgendaInformation = PlainText(fields.Get(fieldAgenda))
	}
	codes := []struct {
		field string
		dst   **crawler.CodeURL
	}{
		{fieldResolution, &page.ResolutionCode},
		{fieldDraft, &page.DraftResolutionCode},
		{fieldCommittee, &page.CommitteeReportCode},
		{fieldMeeting, &page.MeetingRecordCode},
	}
	for _, c := range codes {
		if fields.Has(c.field) {
			*c.dst = CodeURL(fields.Get(c.field), root)
		}
	}
	return page
}
