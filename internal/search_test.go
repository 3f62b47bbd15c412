package internal_test

import (
	"context"
	"testing"

	"github.com/4thel00z/highlights/internal"
	"github.com/4thel00z/highlights/internal/doctest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSearchFixture(t *testing.T, pages ...string) (*internal.Session, *internal.SearchService, *internal.HighlightService) {
	t.Helper()
	path := writeDoc(t, t.TempDir(), "doc.pdf", pages...)
	s, err := internal.OpenSession(context.Background(), doctest.NewEngine(), path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	settings := internal.DefaultSettings()
	return s, internal.NewSearchService(s, settings, nil), internal.NewHighlightService(s, settings, nil)
}

func TestSearchAggregatesPages(t *testing.T) {
	_, search, _ := newSearchFixture(t,
		"the needle and another needle",
		"nothing to see here",
		"Needle\nsecond line with a NEEDLE",
	)

	results, err := search.Search(context.Background(), "needle")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, 1, results[0].Page)
	assert.Equal(t, 2, results[0].MatchCount())
	assert.Equal(t, "he needle an", results[0].Context)
	assert.False(t, results[0].Highlighted())
	assert.Nil(t, results[0].Color)

	assert.Equal(t, 3, results[1].Page)
	assert.Equal(t, 2, results[1].MatchCount())
	assert.Equal(t, doctest.SpanRect(0, 0, 6), results[1].Rects[0])
	assert.Equal(t, doctest.SpanRect(1, 19, 25), results[1].Rects[1])
}

func TestSearchReportsHighlights(t *testing.T) {
	ctx := context.Background()
	_, search, toggle := newSearchFixture(t, "the needle and another needle", "one more needle")

	res := toggle.Toggle(ctx, internal.ToggleRequest{Page: 2, Query: "needle", Color: &internal.Cyan})
	require.Equal(t, internal.OutcomeAdded, res.Outcome)

	results, err := search.Search(ctx, "needle")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.False(t, results[0].Highlighted())
	assert.True(t, results[1].Highlighted())
	require.NotNil(t, results[1].Color)
	assert.Equal(t, internal.Cyan, *results[1].Color)
	assert.Equal(t, res.Annotations, results[1].AnnotationIDs)
}

func TestSearchThenToggle(t *testing.T) {
	ctx := context.Background()
	_, search, toggle := newSearchFixture(t, "cover letter", "terms", "total due INVOICE-001")

	results, err := search.Search(ctx, "INVOICE-001")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 3, results[0].Page)
	assert.Nil(t, results[0].Color)

	res := toggle.Toggle(ctx, internal.ToggleRequest{Page: 3, Query: "INVOICE-001", Color: &internal.Yellow})
	require.NoError(t, res.Err)
	assert.Equal(t, internal.OutcomeAdded, res.Outcome)

	results, err = search.Search(ctx, "INVOICE-001")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Color)
	assert.Equal(t, internal.Yellow, *results[0].Color)
}

func TestSearchCaseSensitive(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "doc.pdf", "Needle needle NEEDLE")
	s, err := internal.OpenSession(context.Background(), doctest.NewEngine(), path, nil)
	require.NoError(t, err)
	defer s.Close()

	settings := internal.DefaultSettings()
	settings.CaseSensitive = true
	results, err := internal.NewSearchService(s, settings, nil).Search(context.Background(), "needle")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].MatchCount())
}

func TestSearchEmptyQuery(t *testing.T) {
	_, search, _ := newSearchFixture(t, "anything")
	results, err := search.Search(context.Background(), " ")
	assert.NoError(t, err)
	assert.Nil(t, results)
}

func TestSearchNoMatches(t *testing.T) {
	_, search, _ := newSearchFixture(t, "anything")
	results, err := search.Search(context.Background(), "needle")
	assert.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchWithoutDocument(t *testing.T) {
	s := internal.NewSession(doctest.NewEngine(), nil)
	_, err := internal.NewSearchService(s, internal.DefaultSettings(), nil).Search(context.Background(), "x")
	assert.ErrorIs(t, err, internal.ErrNoDocument)
}

func TestSearchCancelled(t *testing.T) {
	_, search, _ := newSearchFixture(t, "needle")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := search.Search(ctx, "needle")
	assert.ErrorIs(t, err, context.Canceled)
}
