// Package extract turns parsed markup into field maps using declarative rule
// tables. Tables are validated when they are built, so a broken selector or a
// duplicated field fails at startup instead of during a crawl.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/JakeFAU/unvotes-crawler/internal/crawler"
)

// Rule binds a field name to the query that locates its value.
type Rule struct {
	// Field is the key the value is stored under.
	Field string
	// Query is a CSS selector (Selectors) or a label (Labeled).
	Query string
	// Also lists alternate labels accepted by Labeled tables.
	Also []string
	// Attr reads an attribute instead of the element content.
	Attr string
	// Markup keeps the inner HTML instead of the text content.
	Markup bool
	// Optional suppresses PathNotFound and AttributeNotFound.
	Optional bool
}

// Fields maps field names to raw extracted values.
type Fields map[string]string

// Get returns the value for name, or "" when absent.
func (f Fields) Get(name string) string {
	return f[name]
}

// Has reports whether name was extracted.
func (f Fields) Has(name string) bool {
	_, ok := f[name]
	return ok
}

// Extractor produces Fields from a document or a sub-selection of one.
type Extractor interface {
	Extract(root *goquery.Selection) (Fields, error)
}

// Parse reads raw HTML into a document.
func Parse(data []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

func validate(rules []Rule) error {
	seen := make(map[string]struct{}, len(rules))
	for _, r := range rules {
		if strings.TrimSpace(r.Field) == "" {
			return fmt.Errorf("rule for query %q has no field name", r.Query)
		}
		if strings.TrimSpace(r.Query) == "" {
			return fmt.Errorf("rule %q has no query", r.Field)
		}
		if _, dup := seen[r.Field]; dup {
			return fmt.Errorf("duplicate field %q", r.Field)
		}
		seen[r.Field] = struct{}{}
	}
	return nil
}

func compile(query string) (cascadia.SelectorGroup, error) {
	sel, err := cascadia.ParseGroup(query)
	if err != nil {
		return nil, fmt.Errorf("compile selector %q: %w", query, err)
	}
	return sel, nil
}

// value reads the content of the first element in match according to r.
func value(match *goquery.Selection, r Rule) (string, error) {
	if r.Attr != "" {
		v, ok := match.Attr(r.Attr)
		if !ok {
			return "", crawler.AttributeNotFound{Query: r.Query, Attribute: r.Attr}
		}
		return strings.TrimSpace(v), nil
	}
	if r.Markup {
		html, err := match.Html()
		if err != nil {
			return "", fmt.Errorf("render %q: %w", r.Query, err)
		}
		return strings.TrimSpace(html), nil
	}
	return CollapseSpace(match.Text()), nil
}

// CollapseSpace trims s and folds every whitespace run into one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Selectors extracts each field from the first element matching a CSS query.
type Selectors struct {
	rules    []Rule
	matchers []cascadia.SelectorGroup
}

// NewSelectors validates and compiles a selector table.
func NewSelectors(rules ...Rule) (*Selectors, error) {
	if err := validate(rules); err != nil {
		return nil, err
	}
	s := &Selectors{rules: rules, matchers: make([]cascadia.SelectorGroup, len(rules))}
	for i, r := range rules {
		m, err := compile(r.Query)
		if err != nil {
			return nil, err
		}
		s.matchers[i] = m
	}
	return s, nil
}

// MustSelectors is NewSelectors for package-level tables.
func MustSelectors(rules ...Rule) *Selectors {
	s, err := NewSelectors(rules...)
	if err != nil {
		panic(err)
	}
	return s
}

// Extract applies every rule below root.
func (s *Selectors) Extract(root *goquery.Selection) (Fields, error) {
	fields := make(Fields, len(s.rules))
	for i, r := range s.rules {
		match := root.FindMatcher(s.matchers[i]).First()
		if match.Length() == 0 {
			if r.Optional {
				continue
			}
			return nil, crawler.PathNotFound{Query: r.Query}
		}
		v, err := value(match, r)
		if err != nil {
			if r.Optional && isAttributeMiss(err) {
				continue
			}
			return nil, err
		}
		fields[r.Field] = v
	}
	return fields, nil
}

func isAttributeMiss(err error) bool {
	var miss crawler.AttributeNotFound
	return errors.As(err, &miss)
}
