package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/heyrat/heyrat-server/internal/corpus"
	"github.com/heyrat/heyrat-server/internal/domain"
)

func (s *Server) registerPoetRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listPoets",
		Method:      http.MethodGet,
		Path:        "/api/poets",
		Summary:     "List poets",
		Description: "Returns every poet in the corpus with their books",
		Tags:        []string{"Corpus"},
	}, s.handleListPoets)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPoet",
		Method:      http.MethodGet,
		Path:        "/api/poets/{poetId}",
		Summary:     "Get poet",
		Tags:        []string{"Corpus"},
	}, s.handleGetPoet)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/poets/{poetId}/books/{bookId}",
		Summary:     "Get book",
		Description: "Returns a book's sections and the poems in each",
		Tags:        []string{"Corpus"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPoem",
		Method:      http.MethodGet,
		Path:        "/api/poets/{poetId}/books/{bookId}/sections/{sectionId}/poems/{poemId}",
		Summary:     "Get poem",
		Description: "Returns a poem's couplets with their section-wide indexes, ready for selection",
		Tags:        []string{"Corpus"},
	}, s.handleGetPoem)
}

// === DTOs ===

// BookSummary is a book without its sections.
type BookSummary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	SectionCount int    `json:"sectionCount"`
}

// PoetResponse is a poet with book summaries.
type PoetResponse struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Books []BookSummary `json:"books"`
}

// PoemSummary is a poem without its couplets.
type PoemSummary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	CoupletCount int    `json:"coupletCount"`
	StartIndex   int    `json:"startIndex" doc:"Section-wide index of the poem's first couplet"`
}

// SectionResponse is a section with poem summaries.
type SectionResponse struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	CoupletCount int           `json:"coupletCount"`
	Poems        []PoemSummary `json:"poems"`
}

// BookResponse is a book with its table of contents.
type BookResponse struct {
	PoetID   string            `json:"poetId"`
	PoetName string            `json:"poetName"`
	ID       string            `json:"id"`
	Title    string            `json:"title"`
	Sections []SectionResponse `json:"sections"`
}

// PoemResponse is one poem in its location.
type PoemResponse struct {
	PoetID       string               `json:"poetId"`
	PoetName     string               `json:"poetName"`
	BookID       string               `json:"bookId"`
	BookTitle    string               `json:"bookTitle"`
	SectionID    string               `json:"sectionId"`
	SectionTitle string               `json:"sectionTitle"`
	ID           string               `json:"id"`
	Title        string               `json:"title"`
	StartIndex   int                  `json:"startIndex"`
	Couplets     []domain.PostCouplet `json:"couplets"`
}

// ListPoetsOutput wraps the poet list for Huma.
type ListPoetsOutput struct {
	Body struct {
		Poets []PoetResponse `json:"poets"`
	}
}

// PoetInput identifies a poet.
type PoetInput struct {
	PoetID string `path:"poetId"`
}

// PoetOutput wraps a poet for Huma.
type PoetOutput struct {
	Body PoetResponse
}

// BookInput identifies a book.
type BookInput struct {
	PoetID string `path:"poetId"`
	BookID string `path:"bookId"`
}

// BookOutput wraps a book for Huma.
type BookOutput struct {
	Body BookResponse
}

// PoemInput identifies a poem.
type PoemInput struct {
	PoetID    string `path:"poetId"`
	BookID    string `path:"bookId"`
	SectionID string `path:"sectionId"`
	PoemID    string `path:"poemId"`
}

// PoemOutput wraps a poem for Huma.
type PoemOutput struct {
	Body PoemResponse
}

// === Handlers ===

func (s *Server) handleListPoets(_ context.Context, _ *struct{}) (*ListPoetsOutput, error) {
	snap := s.library.Snapshot()
	out := &ListPoetsOutput{}
	out.Body.Poets = make([]PoetResponse, 0, len(snap.Poets))
	for _, p := range snap.Poets {
		out.Body.Poets = append(out.Body.Poets, poetResponse(p))
	}
	return out, nil
}

func (s *Server) handleGetPoet(_ context.Context, input *PoetInput) (*PoetOutput, error) {
	poet, err := s.library.Snapshot().Poet(input.PoetID)
	if err != nil {
		return nil, err
	}
	return &PoetOutput{Body: poetResponse(poet)}, nil
}

func (s *Server) handleGetBook(_ context.Context, input *BookInput) (*BookOutput, error) {
	poet, book, err := s.library.Snapshot().Book(input.PoetID, input.BookID)
	if err != nil {
		return nil, err
	}

	resp := BookResponse{
		PoetID:   poet.ID,
		PoetName: poet.Name,
		ID:       book.ID,
		Title:    book.Title,
		Sections: make([]SectionResponse, 0, len(book.Sections)),
	}
	for _, sec := range book.Sections {
		sr := SectionResponse{
			ID:           sec.ID,
			Title:        sec.Title,
			CoupletCount: sec.CoupletCount(),
			Poems:        make([]PoemSummary, 0, len(sec.Poems)),
		}
		for i, p := range sec.Poems {
			sr.Poems = append(sr.Poems, PoemSummary{
				ID:           p.ID,
				Title:        p.Title,
				CoupletCount: len(p.Couplets),
				StartIndex:   sec.PoemStart(i),
			})
		}
		resp.Sections = append(resp.Sections, sr)
	}
	return &BookOutput{Body: resp}, nil
}

func (s *Server) handleGetPoem(_ context.Context, input *PoemInput) (*PoemOutput, error) {
	view, err := poemView(s.library.Snapshot(), input.PoetID, input.BookID, input.SectionID, input.PoemID)
	if err != nil {
		return nil, err
	}
	return &PoemOutput{Body: *view}, nil
}

func poetResponse(p *corpus.Poet) PoetResponse {
	resp := PoetResponse{ID: p.ID, Name: p.Name, Books: make([]BookSummary, 0, len(p.Books))}
	for _, b := range p.Books {
		resp.Books = append(resp.Books, BookSummary{ID: b.ID, Title: b.Title, SectionCount: len(b.Sections)})
	}
	return resp
}

// poemView resolves a poem and numbers its couplets by section-wide index,
// the index posts select by.
func poemView(snap *corpus.Snapshot, poetID, bookID, sectionID, poemID string) (*PoemResponse, error) {
	loc, poem, err := snap.Poem(poetID, bookID, sectionID, poemID)
	if err != nil {
		return nil, err
	}

	start := 0
	for i, p := range loc.Section.Poems {
		if p == poem {
			start = loc.Section.PoemStart(i)
			break
		}
	}

	couplets := make([]domain.PostCouplet, 0, len(poem.Couplets))
	for i, c := range poem.Couplets {
		couplets = append(couplets, domain.PostCouplet{Index: start + i, First: c.First, Second: c.Second})
	}

	return &PoemResponse{
		PoetID:       loc.Poet.ID,
		PoetName:     loc.Poet.Name,
		BookID:       loc.Book.ID,
		BookTitle:    loc.Book.Title,
		SectionID:    loc.Section.ID,
		SectionTitle: loc.Section.Title,
		ID:           poem.ID,
		Title:        poem.Title,
		StartIndex:   start,
		Couplets:     couplets,
	}, nil
}
