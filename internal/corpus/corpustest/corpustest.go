// Package corpustest writes small corpus fixtures for tests.
package corpustest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Fixture ids. The hafez/divan/ghazal-1 section holds ten couplets split
// across two poems (six, then four).
const (
	PoetID         = "hafez"
	PoetName       = "حافظ"
	BookID         = "divan"
	BookTitle      = "دیوان حافظ"
	SectionID      = "ghazal-1"
	SectionTitle   = "غزل ۱"
	SectionCouplet = 10
)

// Verse returns the fixture text for couplet i of ghazal-1.
func Verse(i int) (first, second string) {
	return fmt.Sprintf("مصرع اول %d", i), fmt.Sprintf("مصرع دوم %d", i)
}

// Book returns the default fixture book in the on-disk JSON shape.
func Book() map[string]any {
	pair := func(i int) any {
		first, second := Verse(i)
		// Mix both couplet encodings.
		if i%2 == 0 {
			return []string{first, second}
		}
		return map[string]string{"first": first, "second": second}
	}

	var poem1, poem2 []any
	for i := range 6 {
		poem1 = append(poem1, pair(i))
	}
	for i := 6; i < SectionCouplet; i++ {
		poem2 = append(poem2, pair(i))
	}

	return map[string]any{
		"id":    BookID,
		"title": BookTitle,
		"poet":  map[string]string{"name": PoetName},
		"sections": []any{
			map[string]any{
				"id":    SectionID,
				"title": SectionTitle,
				"poems": []any{
					map[string]any{"id": "poem-1", "title": "الا یا ایها الساقی", "couplets": poem1},
					map[string]any{"id": "poem-2", "title": "ادامه", "couplets": poem2},
				},
			},
			map[string]any{
				"id":    "ghazal-2",
				"title": "غزل ۲",
				"poems": []any{
					map[string]any{"id": "poem-1", "title": "صلاح کار کجا", "couplets": []any{
						[]string{"صلاح کار کجا و من خراب کجا", "ببین تفاوت ره کز کجاست تا به کجا"},
					}},
				},
			},
		},
	}
}

// WriteBook writes book as <dir>/<poetID>/<bookID>.json.
func WriteBook(t testing.TB, dir, poetID, bookID string, book any) {
	t.Helper()
	data, err := json.Marshal(book)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, poetID), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, poetID, bookID+".json"), data, 0o600))
}

// New writes the default fixture into a temp dir and returns the dir.
func New(t testing.TB) string {
	t.Helper()
	dir := t.TempDir()
	WriteBook(t, dir, PoetID, BookID, Book())
	return dir
}
