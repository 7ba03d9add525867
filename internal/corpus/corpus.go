// Package corpus loads the poetry corpus into an immutable typed tree.
//
// The corpus directory holds one subdirectory per poet, each containing one
// JSON file per book:
//
//	<dir>/<poetID>/<bookID>.json
//
// A book file carries its sections, each section its poems, each poem its
// couplets. Couplets within a section are addressed by a zero-based index
// running across the section's poems in order.
package corpus

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domainerrors "github.com/heyrat/heyrat-server/internal/errors"
)

// Lookup failures, one per level of the tree.
var (
	ErrPoetNotFound    = domainerrors.NotFound("شاعر یافت نشد")
	ErrBookNotFound    = domainerrors.NotFound("کتاب یافت نشد")
	ErrSectionNotFound = domainerrors.NotFound("بخش یافت نشد")
	ErrPoemNotFound    = domainerrors.NotFound("شعر یافت نشد")
)

// Couplet is a pair of verses (a bayt).
type Couplet struct {
	First  string `json:"first"`
	Second string `json:"second"`
}

// UnmarshalJSON accepts either ["first", "second"] or {"first": …, "second": …}.
func (c *Couplet) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var pair []string
		if err := json.Unmarshal(data, &pair); err != nil {
			return err
		}
		if len(pair) != 2 {
			return fmt.Errorf("couplet must have 2 verses, got %d", len(pair))
		}
		c.First, c.Second = pair[0], pair[1]
		return nil
	}

	type plain Couplet
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = Couplet(p)
	return nil
}

// Poem is a titled run of couplets.
type Poem struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Couplets []Couplet `json:"couplets"`
}

// Section groups poems within a book.
type Section struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Poems []*Poem `json:"poems"`

	flat   []Couplet
	starts []int
}

func (s *Section) index() {
	s.flat = s.flat[:0]
	s.starts = make([]int, len(s.Poems))
	for i, p := range s.Poems {
		s.starts[i] = len(s.flat)
		s.flat = append(s.flat, p.Couplets...)
	}
}

// CoupletCount returns the number of addressable couplets.
func (s *Section) CoupletCount() int {
	return len(s.flat)
}

// Couplet returns the couplet at a section-wide index.
func (s *Section) Couplet(i int) (Couplet, bool) {
	if i < 0 || i >= len(s.flat) {
		return Couplet{}, false
	}
	return s.flat[i], true
}

// PoemStart returns the section-wide index of the first couplet of poem i.
func (s *Section) PoemStart(i int) int {
	return s.starts[i]
}

// Poem returns the poem with the given id.
func (s *Section) Poem(id string) (*Poem, error) {
	for _, p := range s.Poems {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, ErrPoemNotFound
}

// BookPoet is the poet block embedded in a book file.
type BookPoet struct {
	Name string `json:"name"`
}

// Book is one file of the corpus.
type Book struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Poet     BookPoet   `json:"poet"`
	Sections []*Section `json:"sections"`
}

// Section returns the section with the given id.
func (b *Book) Section(id string) (*Section, error) {
	for _, s := range b.Sections {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, ErrSectionNotFound
}

// Poet is a directory of books.
type Poet struct {
	ID    string
	Name  string
	Books []*Book
}

// Book returns the book with the given id.
func (p *Poet) Book(id string) (*Book, error) {
	for _, b := range p.Books {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, ErrBookNotFound
}

// Location is a resolved poet/book/section triple.
type Location struct {
	Poet    *Poet
	Book    *Book
	Section *Section
}

// Snapshot is one immutable load of the corpus.
type Snapshot struct {
	Poets    []*Poet
	LoadedAt time.Time

	byID map[string]*Poet
}

func newSnapshot(poets []*Poet, loadedAt time.Time) *Snapshot {
	s := &Snapshot{Poets: poets, LoadedAt: loadedAt, byID: make(map[string]*Poet, len(poets))}
	for _, p := range poets {
		s.byID[p.ID] = p
	}
	return s
}

// Poet returns the poet with the given id.
func (s *Snapshot) Poet(id string) (*Poet, error) {
	if p, ok := s.byID[id]; ok {
		return p, nil
	}
	return nil, ErrPoetNotFound
}

// Book resolves a book by poet and book id.
func (s *Snapshot) Book(poetID, bookID string) (*Poet, *Book, error) {
	poet, err := s.Poet(poetID)
	if err != nil {
		return nil, nil, err
	}
	book, err := poet.Book(bookID)
	if err != nil {
		return nil, nil, err
	}
	return poet, book, nil
}

// Section resolves a full poet/book/section location.
func (s *Snapshot) Section(poetID, bookID, sectionID string) (*Location, error) {
	poet, book, err := s.Book(poetID, bookID)
	if err != nil {
		return nil, err
	}
	section, err := book.Section(sectionID)
	if err != nil {
		return nil, err
	}
	return &Location{Poet: poet, Book: book, Section: section}, nil
}

// Poem resolves a poem and its enclosing location.
func (s *Snapshot) Poem(poetID, bookID, sectionID, poemID string) (*Location, *Poem, error) {
	loc, err := s.Section(poetID, bookID, sectionID)
	if err != nil {
		return nil, nil, err
	}
	poem, err := loc.Section.Poem(poemID)
	if err != nil {
		return nil, nil, err
	}
	return loc, poem, nil
}

// Stats summarizes a snapshot.
type Stats struct {
	Poets    int `json:"poets"`
	Books    int `json:"books"`
	Sections int `json:"sections"`
	Poems    int `json:"poems"`
	Couplets int `json:"couplets"`
}

// Stats counts every level of the tree.
func (s *Snapshot) Stats() Stats {
	st := Stats{Poets: len(s.Poets)}
	for _, p := range s.Poets {
		st.Books += len(p.Books)
		for _, b := range p.Books {
			st.Sections += len(b.Sections)
			for _, sec := range b.Sections {
				st.Poems += len(sec.Poems)
				st.Couplets += sec.CoupletCount()
			}
		}
	}
	return st
}

// IsNotFound reports whether err is one of the lookup failures.
func IsNotFound(err error) bool {
	return errors.Is(err, domainerrors.ErrNotFound)
}
