// Package search provides full-text search over corpus couplets using Bleve.
package search

import (
	"fmt"

	"github.com/heyrat/heyrat-server/internal/corpus"
	"github.com/heyrat/heyrat-server/internal/normalize"
)

// Document is one indexed couplet. Titles are denormalized so a single
// query can match verse text and where it appears.
type Document struct {
	PoetID       string
	BookID       string
	SectionID    string
	PoemID       string
	CoupletIndex int
	First        string
	Second       string
	PoetName     string
	BookTitle    string
	SectionTitle string
	PoemTitle    string
}

// ID returns the stable document id: poet/book/section/index.
func (d *Document) ID() string {
	return fmt.Sprintf("%s/%s/%s/%d", d.PoetID, d.BookID, d.SectionID, d.CoupletIndex)
}

// toMap converts the document to the field names used by the mapping.
func (d *Document) toMap() map[string]any {
	return map[string]any{
		"poet_id":       d.PoetID,
		"book_id":       d.BookID,
		"section_id":    d.SectionID,
		"poem_id":       d.PoemID,
		"couplet_index": float64(d.CoupletIndex),
		"first":         d.First,
		"second":        d.Second,
		"text":          normalize.SearchText(d.First + " " + d.Second),
		"poet_name":     d.PoetName,
		"titles":        normalize.SearchText(d.BookTitle + " " + d.SectionTitle + " " + d.PoemTitle),
	}
}

// Documents flattens a snapshot into one document per couplet.
func Documents(snap *corpus.Snapshot) []*Document {
	var docs []*Document
	for _, poet := range snap.Poets {
		for _, book := range poet.Books {
			for _, section := range book.Sections {
				for pi, poem := range section.Poems {
					start := section.PoemStart(pi)
					for ci, c := range poem.Couplets {
						docs = append(docs, &Document{
							PoetID:       poet.ID,
							BookID:       book.ID,
							SectionID:    section.ID,
							PoemID:       poem.ID,
							CoupletIndex: start + ci,
							First:        c.First,
							Second:       c.Second,
							PoetName:     poet.Name,
							BookTitle:    book.Title,
							SectionTitle: section.Title,
							PoemTitle:    poem.Title,
						})
					}
				}
			}
		}
	}
	return docs
}
