package reader

import (
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/unvotes-crawler/internal/crawler"
	"github.com/JakeFAU/unvotes-crawler/internal/extract"
)

var (
	lineBreak = regexp.MustCompile(`(?i)<\s*br\s*/?\s*>`)
	anyTag    = regexp.MustCompile(`<[^>]*>`)
	voteLine  = regexp.MustCompile(`^(?:([A-Z-]) )?(.{3,})$`)
	isoDate   = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
)

// dateLayouts are tried in order after an embedded ISO date.
var dateLayouts = []string{
	"2 January 2006",
	"January 2, 2006",
	"2 Jan. 2006",
	"2 Jan 2006",
	"Jan. 2, 2006",
	"2006/01/02",
	"02/01/2006",
}

// Lines splits markup on line breaks and returns the non-empty plain-text lines.
func Lines(markup string) []string {
	var out []string
	for _, part := range lineBreak.Split(markup, -1) {
		text := extract.CollapseSpace(html.UnescapeString(anyTag.ReplaceAllString(part, " ")))
		if text != "" {
			out = append(out, text)
		}
	}
	return out
}

// PlainText strips tags from markup and folds whitespace.
func PlainText(markup string) string {
	return strings.Join(Lines(markup), "; ")
}

// Votes decodes a tally such as "Y FRANCE<br>N ISRAEL<br>TUVALU" into
// country label -> vote letter. A country without a letter did not vote.
func Votes(markup string) map[string]string {
	votes := make(map[string]string)
	for _, line := range Lines(markup) {
		m := voteLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		letter := m[1]
		if letter == "" {
			letter = crawler.NonVotingLetter
		}
		votes[strings.TrimSpace(m[2])] = letter
	}
	return votes
}

// CodeURL decodes a field holding either an anchor or a plain code. It returns
// nil when the field is empty.
func CodeURL(markup, base string) *crawler.CodeURL {
	frag, err := fragment(markup)
	if err != nil {
		return nil
	}
	if a := frag.Find("a[href]").First(); a.Length() > 0 {
		code := extract.CollapseSpace(a.Text())
		href, _ := a.Attr("href")
		if code == "" {
			return nil
		}
		return &crawler.CodeURL{Code: code, URL: Absolute(base, href)}
	}
	code := extract.CollapseSpace(frag.Text())
	if code == "" {
		return nil
	}
	if fields := strings.Fields(code); len(fields) > 0 {
		code = fields[0]
	}
	return &crawler.CodeURL{Code: code}
}

// TextLinks decodes interleaved "Language: <a>file</a>" pairs. An anchor with
// no preceding label is keyed by its own text.
func TextLinks(markup, base string) map[string]string {
	frag, err := fragment(markup)
	if err != nil {
		return nil
	}
	links := make(map[string]string)
	var label string
	var walk func(s *goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, node *goquery.Selection) {
			switch goquery.NodeName(node) {
			case "#text":
				if text := strings.TrimSuffix(extract.CollapseSpace(node.Text()), ":"); text != "" {
					label = strings.TrimSpace(text)
				}
			case "a":
				href, ok := node.Attr("href")
				if !ok || strings.TrimSpace(href) == "" {
					return
				}
				key := label
				if key == "" {
					key = extract.CollapseSpace(node.Text())
				}
				if key != "" {
					links[key] = Absolute(base, href)
				}
				label = ""
			default:
				walk(node)
			}
		})
	}
	walk(frag.Find("body"))
	if len(links) == 0 {
		return nil
	}
	return links
}

// Collections keeps the last breadcrumb segment of each line, so
// "Voting Data > General Assembly Plenary Votes" becomes the latter.
func Collections(markup string) []string {
	var out []string
	for _, line := range Lines(markup) {
		parts := strings.Split(line, ">")
		if last := strings.TrimSpace(parts[len(parts)-1]); last != "" {
			out = append(out, last)
		}
	}
	return out
}

// Names decodes an author or subject list: anchor texts when the field links
// its entries, otherwise one name per line or semicolon.
func Names(markup string) []string {
	frag, err := fragment(markup)
	if err != nil {
		return nil
	}
	var out []string
	seen := make(map[string]struct{})
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	if anchors := frag.Find("a"); anchors.Length() > 0 {
		anchors.Each(func(_ int, a *goquery.Selection) {
			add(extract.CollapseSpace(a.Text()))
		})
		return out
	}
	for _, line := range Lines(markup) {
		for _, part := range strings.Split(line, ";") {
			add(part)
		}
	}
	return out
}

// ParseDate reads the date formats the library uses.
func ParseDate(raw string) (time.Time, bool) {
	raw = extract.CollapseSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if iso := isoDate.FindString(raw); iso != "" {
		if t, err := time.Parse(time.DateOnly, iso); err == nil {
			return t, true
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseCount reads a record count such as "22,672".
func ParseCount(raw string) (int, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, crawler.TransformationError{Field: "record count", Value: raw}
	}
	return n, nil
}

// Absolute resolves href against base.
func Absolute(base, href string) string {
	href = strings.TrimSpace(href)
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if ref.IsAbs() {
		return ref.String()
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}

func fragment(markup string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(markup))
}
