package api

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heyrat/heyrat-server/internal/corpus/corpustest"
)

func TestListPoets(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/poets")
	require.Equal(t, http.StatusOK, resp.Code)
	env := decode[struct {
		Poets []PoetResponse `json:"poets"`
	}](t, resp)
	require.Len(t, env.Data.Poets, 1)
	assert.Equal(t, corpustest.PoetID, env.Data.Poets[0].ID)
	assert.Equal(t, corpustest.PoetName, env.Data.Poets[0].Name)
	assert.Equal(t, []BookSummary{{ID: corpustest.BookID, Title: corpustest.BookTitle, SectionCount: 2}}, env.Data.Poets[0].Books)
}

func TestGetBook(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/poets/hafez/books/divan")
	require.Equal(t, http.StatusOK, resp.Code)
	book := decode[BookResponse](t, resp).Data
	require.Len(t, book.Sections, 2)
	sec := book.Sections[0]
	assert.Equal(t, corpustest.SectionCouplet, sec.CoupletCount)
	require.Len(t, sec.Poems, 2)
	assert.Equal(t, 0, sec.Poems[0].StartIndex)
	assert.Equal(t, 6, sec.Poems[1].StartIndex)
	assert.Equal(t, 4, sec.Poems[1].CoupletCount)
}

func TestGetPoem_SectionWideIndexes(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/poets/hafez/books/divan/sections/ghazal-1/poems/poem-2")
	require.Equal(t, http.StatusOK, resp.Code)
	poem := decode[PoemResponse](t, resp).Data
	assert.Equal(t, 6, poem.StartIndex)
	require.Len(t, poem.Couplets, 4)
	first, second := corpustest.Verse(6)
	assert.Equal(t, 6, poem.Couplets[0].Index)
	assert.Equal(t, first, poem.Couplets[0].First)
	assert.Equal(t, second, poem.Couplets[0].Second)
}

func TestCorpus_NotFoundPerLevel(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		path string
		want string
	}{
		{"/api/poets/saadi", "شاعر یافت نشد"},
		{"/api/poets/hafez/books/golestan", "کتاب یافت نشد"},
		{"/api/poets/hafez/books/divan/sections/x/poems/poem-1", "بخش یافت نشد"},
		{"/api/poets/hafez/books/divan/sections/ghazal-1/poems/x", "شعر یافت نشد"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp := ts.api.Get(tt.path)
			assert.Equal(t, http.StatusNotFound, resp.Code)
			env := decode[any](t, resp)
			assert.Equal(t, "NOT_FOUND", env.Code)
			assert.Equal(t, tt.want, env.Error)
		})
	}
}

func TestSearch(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/search?q=" + url.QueryEscape("خراب"))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	env := decode[struct {
		Total int `json:"total"`
		Hits  []struct {
			SectionID    string `json:"sectionId"`
			CoupletIndex int    `json:"coupletIndex"`
		} `json:"hits"`
	}](t, resp)
	require.NotEmpty(t, env.Data.Hits)
	assert.Equal(t, "ghazal-2", env.Data.Hits[0].SectionID)
	assert.Equal(t, 0, env.Data.Hits[0].CoupletIndex)
}

func TestSearch_EmptyQuery(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/search")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"hits":[]`)
}
