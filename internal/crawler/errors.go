package crawler

import (
	"fmt"
	"strings"
)

// PathNotFound means a required query matched nothing; the page layout no
// longer matches the extraction rules.
type PathNotFound struct {
	Query string
}

func (e PathNotFound) Error() string {
	return fmt.Sprintf("html path not found: %s", e.Query)
}

// AttributeNotFound means a required query matched an element lacking the
// attribute the rule reads.
type AttributeNotFound struct {
	Query     string
	Attribute string
}

func (e AttributeNotFound) Error() string {
	return fmt.Sprintf("attribute not found: %s [%s]", e.Query, e.Attribute)
}

// FetchFailure is a non-2xx response or a transport error. Status is zero when
// no response was received.
type FetchFailure struct {
	URL    string
	Status int
	Err    error
}

func (e FetchFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s failed (status %d): %v", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s failed (status %d)", e.URL, e.Status)
}

func (e FetchFailure) Unwrap() error {
	return e.Err
}

// MissingYears lists requested years the gateway does not advertise.
type MissingYears struct {
	Years []int
}

func (e MissingYears) Error() string {
	parts := make([]string, len(e.Years))
	for i, y := range e.Years {
		parts[i] = fmt.Sprint(y)
	}
	return "years not advertised by gateway: " + strings.Join(parts, ", ")
}

// ReconciliationFailure means no secondary document of a voting-data page was
// reachable, so no record can be built.
type ReconciliationFailure struct {
	DetailsURL string
	Tried      []string
}

func (e ReconciliationFailure) Error() string {
	if len(e.Tried) == 0 {
		return fmt.Sprintf("reconcile %s: no secondary document codes", e.DetailsURL)
	}
	return fmt.Sprintf("reconcile %s: no reachable secondary document among %s",
		e.DetailsURL, strings.Join(e.Tried, ", "))
}

// TransformationError carries a scraped value that has no domain mapping.
type TransformationError struct {
	Field   string
	Value   string
	Country string
}

func (e TransformationError) Error() string {
	if e.Country != "" {
		return fmt.Sprintf("cannot transform %s %q for %s", e.Field, e.Value, e.Country)
	}
	return fmt.Sprintf("cannot transform %s %q", e.Field, e.Value)
}
