package search

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/heyrat/heyrat-server/internal/corpus"
	"github.com/heyrat/heyrat-server/internal/normalize"
)

// Search limits.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

const batchSize = 500

// Index is an in-memory Bleve index over the current corpus snapshot.
// Rebuild swaps in a complete new index; searches in flight keep using the
// old one until they finish.
//
// All methods are safe for concurrent use.
type Index struct {
	mu      sync.RWMutex
	index   bleve.Index
	builtAt time.Time
	logger  *slog.Logger
}

// New creates an empty index.
func New(logger *slog.Logger) (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &Index{index: idx, logger: logger}, nil
}

// Rebuild indexes every couplet in snap and replaces the current index.
func (s *Index) Rebuild(snap *corpus.Snapshot) error {
	start := time.Now()

	fresh, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	docs := Documents(snap)
	for i := 0; i < len(docs); i += batchSize {
		end := min(i+batchSize, len(docs))
		batch := fresh.NewBatch()
		for _, doc := range docs[i:end] {
			if err := batch.Index(doc.ID(), doc.toMap()); err != nil {
				fresh.Close() //nolint:errcheck // discarding a partial index
				return fmt.Errorf("batch index %s: %w", doc.ID(), err)
			}
		}
		if err := fresh.Batch(batch); err != nil {
			fresh.Close() //nolint:errcheck // discarding a partial index
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}

	s.mu.Lock()
	old := s.index
	s.index = fresh
	s.builtAt = time.Now()
	s.mu.Unlock()

	if err := old.Close(); err != nil {
		s.logger.Warn("failed to close previous search index", "error", err)
	}

	s.logger.Info("search index rebuilt", "documents", len(docs), "duration", time.Since(start))
	return nil
}

// DocumentCount returns the number of indexed couplets.
func (s *Index) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Close releases the index.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// Params configures a search.
type Params struct {
	Query  string
	PoetID string // optional filter
	Limit  int
}

// Hit is a couplet matching a query.
type Hit struct {
	PoetID       string  `json:"poetId"`
	PoetName     string  `json:"poetName"`
	BookID       string  `json:"bookId"`
	SectionID    string  `json:"sectionId"`
	PoemID       string  `json:"poemId"`
	CoupletIndex int     `json:"coupletIndex"`
	First        string  `json:"first"`
	Second       string  `json:"second"`
	Score        float64 `json:"score"`
}

// Result is a page of hits.
type Result struct {
	Query string `json:"query"`
	Total uint64 `json:"total"`
	Hits  []Hit  `json:"hits"`
}

// Search runs a full-text query over verse text and titles.
func (s *Index) Search(ctx context.Context, p Params) (*Result, error) {
	q := normalize.SearchText(p.Query)
	result := &Result{Query: p.Query, Hits: []Hit{}}
	if q == "" {
		return result, nil
	}

	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	req := bleve.NewSearchRequestOptions(buildQuery(q, p.PoetID), limit, 0, false)
	req.Fields = []string{"poet_id", "poet_name", "book_id", "section_id", "poem_id", "couplet_index", "first", "second"}

	s.mu.RLock()
	res, err := s.index.SearchInContext(ctx, req)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result.Total = res.Total
	for _, h := range res.Hits {
		hit := Hit{Score: h.Score}
		hit.PoetID, _ = h.Fields["poet_id"].(string)
		hit.PoetName, _ = h.Fields["poet_name"].(string)
		hit.BookID, _ = h.Fields["book_id"].(string)
		hit.SectionID, _ = h.Fields["section_id"].(string)
		hit.PoemID, _ = h.Fields["poem_id"].(string)
		hit.First, _ = h.Fields["first"].(string)
		hit.Second, _ = h.Fields["second"].(string)
		if idx, ok := h.Fields["couplet_index"].(float64); ok {
			hit.CoupletIndex = int(idx)
		}
		result.Hits = append(result.Hits, hit)
	}
	return result, nil
}

func buildQuery(q, poetID string) query.Query {
	text := bleve.NewMatchQuery(q)
	text.SetField("text")
	text.SetOperator(query.MatchQueryOperatorAnd)

	titles := bleve.NewMatchQuery(q)
	titles.SetField("titles")
	titles.SetOperator(query.MatchQueryOperatorAnd)
	titles.SetBoost(0.5)

	var root query.Query = bleve.NewDisjunctionQuery(text, titles)
	if poetID != "" {
		poet := bleve.NewTermQuery(poetID)
		poet.SetField("poet_id")
		root = bleve.NewConjunctionQuery(root, poet)
	}
	return root
}
