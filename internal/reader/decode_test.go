package reader

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/unvotes-crawler/internal/crawler"
)

func TestVotes(t *testing.T) {
	t.Parallel()

	votes := Votes("Y FRANCE<br/>N ISRAEL<br>A  CHINA<br />TUVALU<br/>- PALAU<br/><br/>")
	assert.Equal(t, map[string]string{
		"FRANCE": "Y",
		"ISRAEL": "N",
		"CHINA":  "A",
		"TUVALU": crawler.NonVotingLetter,
		"PALAU":  crawler.NonVotingLetter,
	}, votes)
}

func TestVotesUnescapesNames(t *testing.T) {
	t.Parallel()

	votes := Votes("Y C&Ocirc;TE D&#39;IVOIRE")
	assert.Equal(t, "Y", votes["CÔTE D'IVOIRE"])
}

func TestCodeURL(t *testing.T) {
	t.Parallel()

	linked := CodeURL(`<a href="/record/4032781">A/RES/78/165</a>`, DefaultRoot)
	require.NotNil(t, linked)
	assert.Equal(t, "A/RES/78/165", linked.Code)
	assert.Equal(t, "https://digitallibrary.un.org/record/4032781", linked.URL)
	assert.True(t, linked.Reachable())

	plain := CodeURL("A/78/481/Add.3", DefaultRoot)
	require.NotNil(t, plain)
	assert.Equal(t, "A/78/481/Add.3", plain.Code)
	assert.False(t, plain.Reachable())

	assert.Nil(t, CodeURL("   ", DefaultRoot))
}

func TestTextLinks(t *testing.T) {
	t.Parallel()

	links := TextLinks(`English: <a href="https://documents.un.org/en.pdf">en.pdf</a><br/>`+
		`<span>Español: <a href="/es.pdf">es.pdf</a></span><a href="/bare.pdf">bare.pdf</a>`, DefaultRoot)
	assert.Equal(t, map[string]string{
		"English":  "https://documents.un.org/en.pdf",
		"Español":  "https://digitallibrary.un.org/es.pdf",
		"bare.pdf": "https://digitallibrary.un.org/bare.pdf",
	}, links)

	assert.Nil(t, TextLinks("no links here", DefaultRoot))
}

func TestCollections(t *testing.T) {
	t.Parallel()

	got := Collections("Voting Data &gt; UN General Assembly Voting Data<br/>Resolutions")
	assert.Equal(t, []string{"UN General Assembly Voting Data", "Resolutions"}, got)
}

func TestNames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"France", "Group of 77"},
		Names(`<a href="/a">France</a> <a href="/b">Group of 77</a><a href="/a">France</a>`))
	assert.Equal(t, []string{"France", "Germany", "Japan"},
		Names("France; Germany<br/>Japan"))
	assert.Empty(t, Names(""))
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	want := time.Date(2023, time.December, 19, 0, 0, 0, 0, time.UTC)
	for _, raw := range []string{"2023-12-19", "Vote: 2023-12-19 [A/78/PV.50]", "19 December 2023", "December 19, 2023", "2023/12/19"} {
		got, ok := ParseDate(raw)
		require.True(t, ok, raw)
		assert.True(t, want.Equal(got), raw)
	}
	_, ok := ParseDate("sometime")
	assert.False(t, ok)
	_, ok = ParseDate("")
	assert.False(t, ok)
}

func TestParseCount(t *testing.T) {
	t.Parallel()

	n, err := ParseCount("22,672")
	require.NoError(t, err)
	assert.Equal(t, 22672, n)

	_, err = ParseCount("none")
	var te crawler.TransformationError
	require.ErrorAs(t, err, &te)
}

func TestURLs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://digitallibrary.un.org/search?cc=Voting+Data&ln=en&c=Voting+Data", GatewayURL(DefaultRoot))
	assert.Equal(t,
		"https://digitallibrary.un.org/search?cc=Voting+Data&ln=en&c=Voting+Data&fct__3=2023&rg=50&jrec=101",
		ListURL(DefaultRoot+"/", 2023, 3))
	assert.Equal(t, "https://digitallibrary.un.org/record/1?ln=en", Absolute(DefaultRoot, "/record/1?ln=en"))
	assert.Equal(t, "https://example.com/x", Absolute(DefaultRoot, "https://example.com/x"))
}
