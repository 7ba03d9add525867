package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

const bookExt = ".json"

// Load reads every poet directory under dir. Directories without book files
// are skipped. Any unreadable or malformed book fails the whole load.
func Load(dir string) (*Snapshot, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read corpus dir: %w", err)
	}

	var poets []*Poet
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		poet, err := loadPoet(filepath.Join(dir, entry.Name()), entry.Name())
		if err != nil {
			return nil, err
		}
		if poet != nil {
			poets = append(poets, poet)
		}
	}

	return newSnapshot(poets, time.Now()), nil
}

func loadPoet(dir, id string) (*Poet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read poet dir %s: %w", id, err)
	}

	// os.ReadDir returns entries sorted by name, so the first book is stable.
	var books []*Book
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != bookExt {
			continue
		}
		book, err := loadBook(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}

	if len(books) == 0 {
		return nil, nil
	}

	return &Poet{ID: id, Name: books[0].Poet.Name, Books: books}, nil
}

func loadBook(path string) (*Book, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is inside the configured corpus dir
	if err != nil {
		return nil, fmt.Errorf("read book %s: %w", path, err)
	}

	var book Book
	if err := json.Unmarshal(data, &book); err != nil {
		return nil, fmt.Errorf("parse book %s: %w", path, err)
	}
	if book.ID == "" {
		book.ID = strings.TrimSuffix(filepath.Base(path), bookExt)
	}

	book.Sections = slices.DeleteFunc(book.Sections, func(s *Section) bool { return s == nil })
	for _, s := range book.Sections {
		s.Poems = slices.DeleteFunc(s.Poems, func(p *Poem) bool { return p == nil })
		s.index()
	}

	return &book, nil
}
