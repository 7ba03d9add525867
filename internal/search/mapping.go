package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/fa"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping maps couplet documents. Verse and title text use the
// Persian analyzer; location ids are exact keywords.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = fa.AnalyzerName

	doc := bleve.NewDocumentMapping()

	text := bleve.NewTextFieldMapping()
	text.Analyzer = fa.AnalyzerName
	text.Store = false
	text.IncludeTermVectors = true
	doc.AddFieldMappingsAt("text", text)

	titles := bleve.NewTextFieldMapping()
	titles.Analyzer = fa.AnalyzerName
	titles.Store = false
	doc.AddFieldMappingsAt("titles", titles)

	// Stored only, returned with hits.
	for _, name := range []string{"first", "second", "poet_name"} {
		stored := bleve.NewTextFieldMapping()
		stored.Index = false
		stored.Store = true
		doc.AddFieldMappingsAt(name, stored)
	}

	for _, name := range []string{"poet_id", "book_id", "section_id", "poem_id"} {
		kw := bleve.NewTextFieldMapping()
		kw.Analyzer = keyword.Name
		kw.Store = true
		doc.AddFieldMappingsAt(name, kw)
	}

	index := bleve.NewNumericFieldMapping()
	index.Store = true
	doc.AddFieldMappingsAt("couplet_index", index)

	indexMapping.AddDocumentMapping("_default", doc)
	return indexMapping
}
