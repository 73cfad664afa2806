package reader

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/unvotes-crawler/internal/crawler"
	"github.com/JakeFAU/unvotes-crawler/internal/extract"
)

const (
	fieldTotal   = "total"
	fieldTitle   = "title"
	fieldBrief   = "brief"
	fieldAuthors = "authors"
	fieldURL     = "url"
	fieldYear    = "year"

	resultRow = "div.result-row"
	yearFacet = "ul#facet-year li"
)

var (
	headerRules = extract.MustSelectors(
		extract.Rule{Field: fieldTotal, Query: "td.searchresultsboxheader>span>strong"},
	)
	referenceRules = extract.MustSelectors(
		extract.Rule{Field: fieldTitle, Query: "div.result-title>a"},
		extract.Rule{Field: fieldBrief, Query: "div.brief-options"},
		extract.Rule{Field: fieldAuthors, Query: "div.result-authors", Optional: true},
		extract.Rule{Field: fieldURL, Query: "a.moreinfo", Attr: "href"},
	)
	facetRules = extract.MustSelectors(
		extract.Rule{Field: fieldYear, Query: "a"},
	)
	leadingYear = regexp.MustCompile(`^\d{4}\b`)
)

// ParseGateway reads the advertised years and the collection total.
func ParseGateway(data []byte) (crawler.Gateway, error) {
	doc, err := extract.Parse(data)
	if err != nil {
		return crawler.Gateway{}, err
	}
	total, err := readTotal(doc)
	if err != nil {
		return crawler.Gateway{}, err
	}
	gw := crawler.Gateway{TotalRecords: total}
	var facetErr error
	doc.Find(yearFacet).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		fields, err := facetRules.Extract(item)
		if err != nil {
			facetErr = err
			return false
		}
		match := leadingYear.FindString(fields.Get(fieldYear))
		if match == "" {
			return true
		}
		year, _ := strconv.Atoi(match)
		gw.Years = append(gw.Years, year)
		return true
	})
	if facetErr != nil {
		return crawler.Gateway{}, facetErr
	}
	if len(gw.Years) == 0 {
		return crawler.Gateway{}, crawler.PathNotFound{Query: yearFacet}
	}
	return gw, nil
}

// ParseList reads one search result page. Reference URLs are resolved against root.
func ParseList(data []byte, root string, year, page int) (crawler.ListPage, error) {
	doc, err := extract.Parse(data)
	if err != nil {
		return crawler.ListPage{}, err
	}
	total, err := readTotal(doc)
	if err != nil {
		return crawler.ListPage{}, err
	}
	lp := crawler.ListPage{Year: year, Page: page, TotalRecords: total}
	var rowErr error
	doc.Find(resultRow).EachWithBreak(func(_ int, row *goquery.Selection) bool {
		fields, err := referenceRules.Extract(row)
		if err != nil {
			rowErr = fmt.Errorf("result row %d: %w", len(lp.References)+1, err)
			return false
		}
		lp.References = append(lp.References, buildReference(fields, root))
		return true
	})
	if rowErr != nil {
		return crawler.ListPage{}, rowErr
	}
	return lp, nil
}

func readTotal(doc *goquery.Document) (int, error) {
	fields, err := headerRules.Extract(doc.Selection)
	if err != nil {
		return 0, err
	}
	return ParseCount(fields.Get(fieldTotal))
}

// buildReference splits the "CODE | DATE | ..." brief line.
func buildReference(fields extract.Fields, root string) crawler.Reference {
	ref := crawler.Reference{
		Title:      fields.Get(fieldTitle),
		RawAuthors: fields.Get(fieldAuthors),
		URL:        Absolute(root, fields.Get(fieldURL)),
	}
	parts := strings.Split(fields.Get(fieldBrief), "|")
	ref.Code = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		ref.Date, _ = ParseDate(parts[1])
	}
	return ref
}
