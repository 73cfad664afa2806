package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/JakeFAU/unvotes-crawler/internal/crawler"
)

// Layout describes a label/value page. When Row is empty, labels and values
// are paired by position across the whole document.
type Layout struct {
	Row   string
	Label string
	Value string
}

// DetailLayout is the metadata layout of digital library record pages.
var DetailLayout = Layout{Row: "div.metadata-row", Label: "span.title", Value: "span.value"}

// Labeled extracts fields from a label/value layout. Labels without a rule are
// ignored; a required label that never appears fails with PathNotFound.
type Labeled struct {
	layout  Layout
	row     cascadia.SelectorGroup
	label   cascadia.SelectorGroup
	value   cascadia.SelectorGroup
	rules   []Rule
	byLabel map[string]int
}

// NewLabeled validates the layout selectors and the rule table.
func NewLabeled(layout Layout, rules ...Rule) (*Labeled, error) {
	if err := validate(rules); err != nil {
		return nil, err
	}
	l := &Labeled{layout: layout, rules: rules, byLabel: make(map[string]int)}
	var err error
	if layout.Row != "" {
		if l.row, err = compile(layout.Row); err != nil {
			return nil, err
		}
	}
	if l.label, err = compile(layout.Label); err != nil {
		return nil, err
	}
	if l.value, err = compile(layout.Value); err != nil {
		return nil, err
	}
	for i, r := range rules {
		for _, label := range append([]string{r.Query}, r.Also...) {
			key := labelKey(label)
			if prev, dup := l.byLabel[key]; dup {
				return nil, fmt.Errorf("label %q claimed by %q and %q", label, rules[prev].Field, r.Field)
			}
			l.byLabel[key] = i
		}
	}
	return l, nil
}

// MustLabeled is NewLabeled for package-level tables.
func MustLabeled(layout Layout, rules ...Rule) *Labeled {
	l, err := NewLabeled(layout, rules...)
	if err != nil {
		panic(err)
	}
	return l
}

// Extract reads every recognized label below root. The first occurrence of a
// label wins.
func (l *Labeled) Extract(root *goquery.Selection) (Fields, error) {
	fields := make(Fields, len(l.rules))
	var err error
	l.pairs(root, func(label, val *goquery.Selection) bool {
		idx, ok := l.byLabel[labelKey(label.Text())]
		if !ok {
			return true
		}
		r := l.rules[idx]
		if fields.Has(r.Field) {
			return true
		}
		var v string
		v, err = value(val, r)
		if err != nil {
			return false
		}
		fields[r.Field] = v
		return true
	})
	if err != nil {
		return nil, err
	}
	for _, r := range l.rules {
		if !r.Optional && !fields.Has(r.Field) {
			return nil, crawler.PathNotFound{Query: fmt.Sprintf("%s %q", l.layout.Label, r.Query)}
		}
	}
	return fields, nil
}

func (l *Labeled) pairs(root *goquery.Selection, fn func(label, value *goquery.Selection) bool) {
	if l.row == nil {
		labels := root.FindMatcher(l.label)
		values := root.FindMatcher(l.value)
		n := min(labels.Length(), values.Length())
		for i := 0; i < n; i++ {
			if !fn(labels.Eq(i), values.Eq(i)) {
				return
			}
		}
		return
	}
	root.FindMatcher(l.row).EachWithBreak(func(_ int, row *goquery.Selection) bool {
		label := row.FindMatcher(l.label).First()
		val := row.FindMatcher(l.value).First()
		if label.Length() == 0 || val.Length() == 0 {
			return true
		}
		return fn(label, val)
	})
}

// labelKey normalizes a label for lookup: whitespace folded, trailing colon
// dropped, case ignored.
func labelKey(label string) string {
	return strings.ToLower(strings.TrimSuffix(CollapseSpace(label), ":"))
}
