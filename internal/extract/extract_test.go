package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/unvotes-crawler/internal/crawler"
)

const listHTML = `<html><body>
<table><tr><td class="searchresultsboxheader"><span><strong>22,672</strong></span></td></tr></table>
<div class="result-row">
  <div class="result-title"><a href="/record/1">First   title</a></div>
  <div class="brief-options">A/RES/78/1 | 2023-10-01</div>
  <a class="moreinfo" href="/record/1?ln=en">More</a>
</div>
</body></html>`

func TestSelectorsExtract(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(listHTML))
	require.NoError(t, err)

	table := MustSelectors(
		Rule{Field: "total", Query: "td.searchresultsboxheader>span>strong"},
		Rule{Field: "title", Query: "div.result-title>a"},
		Rule{Field: "href", Query: "a.moreinfo", Attr: "href"},
		Rule{Field: "title-html", Query: "div.result-title", Markup: true},
		Rule{Field: "authors", Query: "div.result-authors", Optional: true},
	)
	fields, err := table.Extract(doc.Selection)
	require.NoError(t, err)

	assert.Equal(t, "22,672", fields.Get("total"))
	assert.Equal(t, "First title", fields.Get("title"))
	assert.Equal(t, "/record/1?ln=en", fields.Get("href"))
	assert.Equal(t, `<a href="/record/1">First   title</a>`, fields.Get("title-html"))
	assert.False(t, fields.Has("authors"))
}

func TestSelectorsPathNotFound(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(listHTML))
	require.NoError(t, err)

	_, err = MustSelectors(Rule{Field: "missing", Query: "div.absent"}).Extract(doc.Selection)
	var pnf crawler.PathNotFound
	require.ErrorAs(t, err, &pnf)
	assert.Equal(t, "div.absent", pnf.Query)
}

func TestSelectorsAttributeNotFound(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(listHTML))
	require.NoError(t, err)

	_, err = MustSelectors(Rule{Field: "x", Query: "a.moreinfo", Attr: "data-id"}).Extract(doc.Selection)
	var anf crawler.AttributeNotFound
	require.ErrorAs(t, err, &anf)
	assert.Equal(t, "a.moreinfo", anf.Query)
	assert.Equal(t, "data-id", anf.Attribute)

	fields, err := MustSelectors(Rule{Field: "x", Query: "a.moreinfo", Attr: "data-id", Optional: true}).
		Extract(doc.Selection)
	require.NoError(t, err)
	assert.False(t, fields.Has("x"))
}

func TestNewSelectorsValidatesTable(t *testing.T) {
	t.Parallel()

	_, err := NewSelectors(Rule{Field: "bad", Query: "div[["})
	require.Error(t, err)
	_, err = NewSelectors(Rule{Field: "a", Query: "div"}, Rule{Field: "a", Query: "span"})
	require.ErrorContains(t, err, "duplicate field")
	_, err = NewSelectors(Rule{Query: "div"})
	require.Error(t, err)
	assert.Panics(t, func() { MustSelectors(Rule{Field: "x"}) })
}

const detailHTML = `<html><body>
<div class="metadata-row"><span class="title">Title</span><span class="value">Situation of human
 rights</span></div>
<div class="metadata-row"><span class="title">Resolution </span><span class="value"><a href="/record/4031361">A/RES/78/165</a></span></div>
<div class="metadata-row"><span class="title">Draft</span><span class="value">A/C.3/78/L.4</span></div>
<div class="metadata-row"><span class="title">Vote:</span><span class="value">Y FRANCE<br>N ISRAEL</span></div>
<div class="metadata-row"><span class="title">Unrecognized</span><span class="value">ignored</span></div>
<div class="metadata-row"><span class="title">Title</span><span class="value">second title ignored</span></div>
</body></html>`

func TestLabeledExtract(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(detailHTML))
	require.NoError(t, err)

	table := MustLabeled(DetailLayout,
		Rule{Field: "title", Query: "Title"},
		Rule{Field: "resolution", Query: "Resolution", Markup: true},
		Rule{Field: "draft", Query: "Draft resolution", Also: []string{"Draft"}, Markup: true},
		Rule{Field: "vote", Query: "Vote", Markup: true},
		Rule{Field: "notes", Query: "Notes", Optional: true},
	)
	fields, err := table.Extract(doc.Selection)
	require.NoError(t, err)

	assert.Equal(t, "Situation of human rights", fields.Get("title"))
	assert.Equal(t, `<a href="/record/4031361">A/RES/78/165</a>`, fields.Get("resolution"))
	assert.Equal(t, "A/C.3/78/L.4", fields.Get("draft"))
	assert.Equal(t, "Y FRANCE<br/>N ISRAEL", fields.Get("vote"))
	assert.False(t, fields.Has("notes"))
	assert.Len(t, fields, 4)
}

func TestLabeledRequiredLabelMissing(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(detailHTML))
	require.NoError(t, err)

	_, err = MustLabeled(DetailLayout, Rule{Field: "date", Query: "Vote date"}).Extract(doc.Selection)
	var pnf crawler.PathNotFound
	require.ErrorAs(t, err, &pnf)
	assert.Contains(t, pnf.Query, "Vote date")
}

func TestLabeledPairsByPositionWithoutRows(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(`<div><span class="title">Title</span><span class="title">Date</span>
<span class="value">Hello</span><span class="value">2023-12-19</span></div>`))
	require.NoError(t, err)

	layout := Layout{Label: "span.title", Value: "span.value"}
	fields, err := MustLabeled(layout,
		Rule{Field: "title", Query: "Title"},
		Rule{Field: "date", Query: "Date"},
	).Extract(doc.Selection)
	require.NoError(t, err)
	assert.Equal(t, "Hello", fields.Get("title"))
	assert.Equal(t, "2023-12-19", fields.Get("date"))
}

func TestNewLabeledRejectsSharedLabels(t *testing.T) {
	t.Parallel()

	_, err := NewLabeled(DetailLayout,
		Rule{Field: "agenda", Query: "Agenda"},
		Rule{Field: "agenda-info", Query: "Agenda information", Also: []string{"agenda"}},
	)
	require.ErrorContains(t, err, "claimed by")

	_, err = NewLabeled(Layout{Label: "span[", Value: "span"}, Rule{Field: "a", Query: "A"})
	require.Error(t, err)
}
