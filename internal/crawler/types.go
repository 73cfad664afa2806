// Package crawler defines core types shared across subsystems.
package crawler

import (
	"slices"
	"time"
)

// PageSize is the fixed number of references the library returns per list page.
const PageSize = 50

// Kind identifies the detail page a DocumentPage was read from.
type Kind string

// Detail page kinds. The secondary kinds are listed in reconciliation order.
const (
	KindVotingData      Kind = "voting_data"
	KindResolution      Kind = "resolution"
	KindDraft           Kind = "draft"
	KindCommitteeReport Kind = "committee_report"
	KindMeetingRecord   Kind = "meeting_record"
)

// SecondaryKinds lists the secondary document kinds by precedence.
var SecondaryKinds = []Kind{KindResolution, KindDraft, KindCommitteeReport, KindMeetingRecord}

// Reference points at a voting-data detail page discovered on a list page.
type Reference struct {
	Title      string    `json:"title"`
	Date       time.Time `json:"date"`
	Code       string    `json:"code"`
	RawAuthors string    `json:"raw_authors,omitempty"`
	URL        string    `json:"url"`
}

// CodeURL is a document code with the page it links to, when it links anywhere.
type CodeURL struct {
	Code string `json:"code"`
	URL  string `json:"url,omitempty"`
}

// Reachable reports whether the code carries a fetchable URL.
func (c *CodeURL) Reachable() bool {
	return c != nil && c.URL != ""
}

// Gateway is the collection landing page listing the years the library advertises.
type Gateway struct {
	Years        []int `json:"years"`
	TotalRecords int   `json:"total_records"`
}

// Advertises reports whether year appears in the gateway's year facet.
func (g Gateway) Advertises(year int) bool {
	return slices.Contains(g.Years, year)
}

// Missing returns the requested years the gateway does not advertise.
func (g Gateway) Missing(years []int) []int {
	var missing []int
	for _, y := range years {
		if !g.Advertises(y) {
			missing = append(missing, y)
		}
	}
	return missing
}

// ListPage is one page of search results for a single year.
type ListPage struct {
	Year         int         `json:"year"`
	Page         int         `json:"page"`
	TotalRecords int         `json:"total_records"`
	References   []Reference `json:"references"`
}

// PagesNeeded returns how many list pages hold TotalRecords references.
func (p ListPage) PagesNeeded() int {
	return PagesFor(p.TotalRecords)
}

// PagesFor returns ceil(total / PageSize).
func PagesFor(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + PageSize - 1) / PageSize
}

// DocumentPage is the typed result of every detail reader. Which members are
// populated depends on Kind.
type DocumentPage struct {
	Kind                Kind              `json:"kind"`
	Symbol              string            `json:"symbol,omitempty"`
	Title               string            `json:"title"`
	AlternativeTitles   []string          `json:"alternative_titles,omitempty"`
	Agendas             []string          `json:"agendas,omitempty"`
	ResolutionCode      *CodeURL          `json:"resolution_code,omitempty"`
	MeetingRecordCode   *CodeURL          `json:"meeting_record_code,omitempty"`
	DraftResolutionCode *CodeURL          `json:"draft_resolution_code,omitempty"`
	CommitteeReportCode *CodeURL          `json:"committee_report_code,omitempty"`
	VoteSummary         string            `json:"vote_summary,omitempty"`
	DetailsURL          string            `json:"details_url"`
	Votes               map[string]string `json:"votes,omitempty"`
	Collections         []string          `json:"collections,omitempty"`
	Authors             []string          `json:"authors,omitempty"`
	AgendaInformation   string            `json:"agenda_information,omitempty"`
	Date                time.Time         `json:"date"`
	Description         string            `json:"description,omitempty"`
	Notes               string            `json:"notes,omitempty"`
	ActionNote          string            `json:"action_note,omitempty"`
	Subjects            []string          `json:"subjects,omitempty"`
	TextLinks           map[string]string `json:"text_links,omitempty"`
}

// Code returns the code field linking to the given secondary kind.
func (p DocumentPage) Code(kind Kind) *CodeURL {
	switch kind {
	case KindResolution:
		return p.ResolutionCode
	case KindDraft:
		return p.DraftResolutionCode
	case KindCommitteeReport:
		return p.CommitteeReportCode
	case KindMeetingRecord:
		return p.MeetingRecordCode
	default:
		return nil
	}
}

// ResolutionRecord is the canonical record reconciled from a voting-data page
// and its secondary document page.
type ResolutionRecord struct {
	Symbol                string            `json:"symbol" validate:"required"`
	Title                 string            `json:"title" validate:"required"`
	AlternativeTitles     []string          `json:"alternative_titles,omitempty"`
	Date                  time.Time         `json:"date" validate:"required"`
	VoteSummary           string            `json:"vote_summary,omitempty"`
	Votes                 map[string]string `json:"votes,omitempty" validate:"dive,keys,required,endkeys,required"`
	Agendas               []string          `json:"agendas,omitempty" validate:"dive,required"`
	AgendaInformation     string            `json:"agenda_information,omitempty"`
	Authors               []string          `json:"authors,omitempty" validate:"dive,required"`
	Subjects              []string          `json:"subjects,omitempty" validate:"dive,required"`
	Collections           []string          `json:"collections,omitempty"`
	TextLinks             map[string]string `json:"text_links,omitempty" validate:"dive,keys,required,endkeys,url"`
	Description           string            `json:"description,omitempty"`
	Notes                 string            `json:"notes,omitempty"`
	DetailsURL            string            `json:"details_url" validate:"required,url"`
	DocumentURL           string            `json:"document_url,omitempty" validate:"omitempty,url"`
	DocumentKind          Kind              `json:"document_kind"`
	MeetingRecordSymbol   string            `json:"meeting_record_symbol,omitempty"`
	DraftSymbol           string            `json:"draft_symbol,omitempty"`
	CommitteeReportSymbol string            `json:"committee_report_symbol,omitempty"`
}

// ItemFailure records a reference that could not be turned into a record.
type ItemFailure struct {
	URL  string `json:"url"`
	Code string `json:"code"`
	Err  error  `json:"-"`
}

// YearBatch holds every record reconciled for one year, in completion order.
type YearBatch struct {
	Year     int                `json:"year"`
	Records  []ResolutionRecord `json:"records"`
	Failures []ItemFailure      `json:"failures,omitempty"`
}
