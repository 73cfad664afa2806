package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPagesFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, PagesFor(0))
	assert.Equal(t, 1, PagesFor(1))
	assert.Equal(t, 1, PagesFor(50))
	assert.Equal(t, 2, PagesFor(51))
	assert.Equal(t, 454, PagesFor(22672))
	assert.Equal(t, 3, ListPage{TotalRecords: 101}.PagesNeeded())
}

func TestGatewayMissing(t *testing.T) {
	t.Parallel()

	g := Gateway{Years: []int{2021, 2022, 2023}}
	assert.True(t, g.Advertises(2022))
	assert.False(t, g.Advertises(1900))
	assert.Equal(t, []int{1900, 2030}, g.Missing([]int{2021, 1900, 2030}))
	assert.Empty(t, g.Missing([]int{2023}))
}

func TestDocumentPageCode(t *testing.T) {
	t.Parallel()

	page := DocumentPage{
		ResolutionCode:      &CodeURL{Code: "A/RES/1"},
		DraftResolutionCode: &CodeURL{Code: "A/L.1", URL: "https://digitallibrary.un.org/record/1"},
	}
	require.NotNil(t, page.Code(KindResolution))
	assert.False(t, page.Code(KindResolution).Reachable())
	assert.True(t, page.Code(KindDraft).Reachable())
	assert.Nil(t, page.Code(KindMeetingRecord))
	assert.Nil(t, page.Code(KindVotingData))
}
