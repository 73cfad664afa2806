package crawler

import "strings"

// Vote is a country's recorded position on a resolution. Values are persisted.
type Vote int

// Vote values.
const (
	VoteAbstained Vote = 1
	VoteYes       Vote = 2
	VoteNo        Vote = 3
	VoteNonVoting Vote = 4
)

// NonVotingLetter is the token recorded for a country listed without a letter.
const NonVotingLetter = "-"

var voteLetters = map[string]Vote{
	"Y":             VoteYes,
	"N":             VoteNo,
	"A":             VoteAbstained,
	NonVotingLetter: VoteNonVoting,
}

// ParseVote decodes a source vote token for country.
func ParseVote(country, letter string) (Vote, error) {
	v, ok := voteLetters[strings.TrimSpace(letter)]
	if !ok {
		return 0, TransformationError{Field: "vote", Value: letter, Country: country}
	}
	return v, nil
}

// Letter returns the source token for v.
func (v Vote) Letter() string {
	for letter, candidate := range voteLetters {
		if candidate == v {
			return letter
		}
	}
	return ""
}

func (v Vote) String() string {
	switch v {
	case VoteYes:
		return "yes"
	case VoteNo:
		return "no"
	case VoteAbstained:
		return "abstained"
	case VoteNonVoting:
		return "non-voting"
	default:
		return "unknown"
	}
}

// VotingType identifies the organ a resolution was voted in.
type VotingType int

// Voting types.
const (
	VotingTypeGeneralAssembly VotingType = 1
	VotingTypeSecurityCouncil VotingType = 2
)

// ParseVotingType derives the organ from a document symbol prefix.
func ParseVotingType(symbol string) (VotingType, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	switch {
	case strings.HasPrefix(s, "A/"):
		return VotingTypeGeneralAssembly, nil
	case strings.HasPrefix(s, "S/"):
		return VotingTypeSecurityCouncil, nil
	default:
		return 0, TransformationError{Field: "voting type", Value: symbol}
	}
}

func (t VotingType) String() string {
	switch t {
	case VotingTypeGeneralAssembly:
		return "general-assembly"
	case VotingTypeSecurityCouncil:
		return "security-council"
	default:
		return "unknown"
	}
}

// ResolutionStatus is the outcome recorded for a resolution.
type ResolutionStatus int

// Resolution statuses.
const (
	StatusAdoptedWithoutVote ResolutionStatus = 1
	StatusVotedAndAdopted    ResolutionStatus = 2
	StatusVotedAndRejected   ResolutionStatus = 3
	StatusUnknown            ResolutionStatus = 4
)

func (s ResolutionStatus) String() string {
	switch s {
	case StatusAdoptedWithoutVote:
		return "adopted-without-vote"
	case StatusVotedAndAdopted:
		return "voted-and-adopted"
	case StatusVotedAndRejected:
		return "voted-and-rejected"
	default:
		return "unknown"
	}
}

// DeriveStatus infers the outcome from the decoded votes and the free-text
// summary and notes.
func DeriveStatus(votes map[string]Vote, summary, notes string) ResolutionStatus {
	if len(votes) == 0 {
		text := strings.ToLower(summary + " " + notes)
		if strings.Contains(text, "without vote") {
			return StatusAdoptedWithoutVote
		}
		return StatusUnknown
	}
	var yes, no int
	for _, v := range votes {
		switch v {
		case VoteYes:
			yes++
		case VoteNo:
			no++
		}
	}
	if yes > no {
		return StatusVotedAndAdopted
	}
	return StatusVotedAndRejected
}
