package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heyrat/heyrat-server/internal/corpus"
	"github.com/heyrat/heyrat-server/internal/corpus/corpustest"
	"github.com/heyrat/heyrat-server/internal/logger"
)

func setupTestIndex(t *testing.T) (*Index, *corpus.Snapshot) {
	t.Helper()

	snap, err := corpus.Load(corpustest.New(t))
	require.NoError(t, err)

	idx, err := New(logger.Discard().Logger)
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() }) //nolint:errcheck // test cleanup

	require.NoError(t, idx.Rebuild(snap))
	return idx, snap
}

func TestDocuments_SectionWideIndexes(t *testing.T) {
	snap, err := corpus.Load(corpustest.New(t))
	require.NoError(t, err)

	docs := Documents(snap)
	require.Len(t, docs, 11)

	// The second poem of ghazal-1 starts at index 6.
	var found bool
	for _, d := range docs {
		if d.SectionID == corpustest.SectionID && d.PoemID == "poem-2" && d.CoupletIndex == 6 {
			found = true
			assert.Equal(t, "hafez/divan/ghazal-1/6", d.ID())
		}
	}
	assert.True(t, found)
}

func TestIndex_Rebuild(t *testing.T) {
	idx, _ := setupTestIndex(t)

	count, err := idx.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(11), count)
}

func TestIndex_SearchVerse(t *testing.T) {
	idx, _ := setupTestIndex(t)

	res, err := idx.Search(t.Context(), Params{Query: "خراب"})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)

	hit := res.Hits[0]
	assert.Equal(t, corpustest.PoetID, hit.PoetID)
	assert.Equal(t, corpustest.PoetName, hit.PoetName)
	assert.Equal(t, "ghazal-2", hit.SectionID)
	assert.Equal(t, 0, hit.CoupletIndex)
	assert.Contains(t, hit.First, "خراب")
}

func TestIndex_SearchIgnoresArabicVariants(t *testing.T) {
	idx, _ := setupTestIndex(t)

	// "ببين" spelled with Arabic yeh still matches the Persian text.
	res, err := idx.Search(t.Context(), Params{Query: "\u0628\u0628\u064a\u0646"})
	require.NoError(t, err)
	assert.Len(t, res.Hits, 1)
}

func TestIndex_SearchPoetFilter(t *testing.T) {
	idx, _ := setupTestIndex(t)

	res, err := idx.Search(t.Context(), Params{Query: "خراب", PoetID: "saadi"})
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
}

func TestIndex_EmptyQuery(t *testing.T) {
	idx, _ := setupTestIndex(t)

	res, err := idx.Search(t.Context(), Params{Query: "   "})
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
	assert.Zero(t, res.Total)
}

func TestIndex_RebuildReplacesContent(t *testing.T) {
	idx, _ := setupTestIndex(t)

	dir := t.TempDir()
	corpustest.WriteBook(t, dir, "saadi", "golestan", map[string]any{
		"id": "golestan", "title": "گلستان", "poet": map[string]string{"name": "سعدی"},
		"sections": []any{map[string]any{"id": "dibache", "title": "دیباچه", "poems": []any{
			map[string]any{"id": "p1", "title": "منت خدای را", "couplets": []any{[]string{"بنی آدم اعضای یکدیگرند", "که در آفرینش ز یک گوهرند"}}},
		}}},
	})
	snap, err := corpus.Load(dir)
	require.NoError(t, err)
	require.NoError(t, idx.Rebuild(snap))

	res, err := idx.Search(t.Context(), Params{Query: "خراب"})
	require.NoError(t, err)
	assert.Empty(t, res.Hits)

	res, err = idx.Search(t.Context(), Params{Query: "آفرینش"})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "saadi", res.Hits[0].PoetID)
}
