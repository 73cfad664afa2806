// Package reconcile merges a voting-data page with its secondary document page
// into one ResolutionRecord.
package reconcile

import (
	"github.com/JakeFAU/unvotes-crawler/internal/crawler"
)

// Candidate returns the secondary document to fetch for a voting-data page:
// the first code, in crawler.SecondaryKinds order, that carries a URL.
func Candidate(voting crawler.DocumentPage) (crawler.Kind, crawler.CodeURL, bool) {
	for _, kind := range crawler.SecondaryKinds {
		if code := voting.Code(kind); code.Reachable() {
			return kind, *code, true
		}
	}
	return "", crawler.CodeURL{}, false
}

// Tried lists every secondary code present on the page, in precedence order.
func Tried(voting crawler.DocumentPage) []string {
	var codes []string
	for _, kind := range crawler.SecondaryKinds {
		if code := voting.Code(kind); code != nil && code.Code != "" {
			codes = append(codes, code.Code)
		}
	}
	return codes
}

// Reconcile builds the canonical record. A nil secondary means no document
// was reachable and yields ReconciliationFailure.
//
// The symbol comes from the secondary page, then the voting page's resolution
// code, then the code that led to the secondary. The date and the tally always
// come from the voting page; descriptive fields prefer the secondary.
func Reconcile(voting crawler.DocumentPage, secondary *crawler.DocumentPage) (crawler.ResolutionRecord, error) {
	if secondary == nil {
		return crawler.ResolutionRecord{}, crawler.ReconciliationFailure{
			DetailsURL: voting.DetailsURL,
			Tried:      Tried(voting),
		}
	}

	rec := crawler.ResolutionRecord{
		Symbol:                symbol(voting, secondary),
		Title:                 first(secondary.Title, voting.Title),
		AlternativeTitles:     secondary.AlternativeTitles,
		Date:                  voting.Date,
		VoteSummary:           first(voting.VoteSummary, secondary.VoteSummary),
		Votes:                 voting.Votes,
		Agendas:               firstList(secondary.Agendas, voting.Agendas),
		AgendaInformation:     first(secondary.AgendaInformation, voting.AgendaInformation),
		Authors:               secondary.Authors,
		Subjects:              secondary.Subjects,
		Collections:           firstList(secondary.Collections, voting.Collections),
		TextLinks:             secondary.TextLinks,
		Description:           secondary.Description,
		Notes:                 first(secondary.Notes, voting.Notes),
		DetailsURL:            voting.DetailsURL,
		DocumentURL:           secondary.DetailsURL,
		DocumentKind:          secondary.Kind,
		MeetingRecordSymbol:   codeOf(voting.MeetingRecordCode, secondary.MeetingRecordCode),
		DraftSymbol:           codeOf(voting.DraftResolutionCode, secondary.DraftResolutionCode),
		CommitteeReportSymbol: codeOf(voting.CommitteeReportCode, secondary.CommitteeReportCode),
	}
	return rec, nil
}

func symbol(voting crawler.DocumentPage, secondary *crawler.DocumentPage) string {
	if secondary.Symbol != "" {
		return secondary.Symbol
	}
	if voting.ResolutionCode != nil && voting.ResolutionCode.Code != "" {
		return voting.ResolutionCode.Code
	}
	if code := voting.Code(secondary.Kind); code != nil {
		return code.Code
	}
	return ""
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstList(values ...[]string) []string {
	for _, v := range values {
		if len(v) > 0 {
			return v
		}
	}
	return nil
}

func codeOf(codes ...*crawler.CodeURL) string {
	for _, c := range codes {
		if c != nil && c.Code != "" {
			return c.Code
		}
	}
	return ""
}
