package store

import (
	"errors"
	"time"

	"github.com/JakeFAU/unvotes-crawler/internal/crawler"
)

var (
	// ErrNotFound signals that the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate signals a unique-key conflict.
	ErrDuplicate = errors.New("record already exists")
)

// CursorID is the key of the single resumability cursor row.
const CursorID = "_CURSOR"

// Country is a voting member. Slug is its identity and never changes once saved.
type Country struct {
	ID          int64
	Name        string
	UNName      string
	Slug        string
	Alpha2      string
	ISO3        string
	NumericCode string
}

// Persisted reports whether the country has been saved.
func (c Country) Persisted() bool {
	return c.ID != 0
}

// SlugAlias maps an alternate slug (Alias) onto a canonical slug (Slug).
type SlugAlias struct {
	ID    int64
	Slug  string
	Alias string
}

// Author is a resolution sponsor, optionally linked to a member country.
type Author struct {
	ID      int64
	Name    string
	Country *Country
}

// Agenda is an agenda item a resolution is filed under.
type Agenda struct {
	ID   int64
	Name string
}

// Subject is a thesaurus subject of a resolution.
type Subject struct {
	ID   int64
	Name string
}

// DocumentURL is the full text of a resolution in one language.
type DocumentURL struct {
	Language string
	URL      string
}

// ResolutionVote is one country's recorded vote.
type ResolutionVote struct {
	Country Country
	Vote    crawler.Vote
}

// Resolution is the imported form of a ResolutionRecord. The related symbols
// are plain references; look them up with ResolutionRepository.FindBySymbol.
type Resolution struct {
	ID                    int64
	Symbol                string
	Title                 string
	VotingType            crawler.VotingType
	Status                crawler.ResolutionStatus
	AlternativeTitles     []string
	MeetingRecordSymbol   string
	DraftSymbol           string
	CommitteeReportSymbol string
	VoteSummary           string
	AgendaInformation     string
	Date                  time.Time
	Year                  int
	DetailsURL            string
	Description           string
	Notes                 string
	DocumentURLs          []DocumentURL
	Subjects              []Subject
	Authors               []Author
	Votes                 []ResolutionVote
	Agendas               []Agenda
}

// Cursor is the low-water mark of imported resolution dates.
type Cursor struct {
	ID       string
	LastDate time.Time
}
