package providers

import (
	"github.com/samber/do/v2"

	"github.com/heyrat/heyrat-server/internal/corpus"
	"github.com/heyrat/heyrat-server/internal/logger"
	"github.com/heyrat/heyrat-server/internal/search"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex builds the Bleve index over the corpus and keeps it in
// step with corpus reloads.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	lib := do.MustInvoke[*corpus.Library](i)
	log := do.MustInvoke[*logger.Logger](i)
	searchLog := log.WithComponent("search").Logger

	index, err := search.New(searchLog)
	if err != nil {
		return nil, err
	}
	if err := index.Rebuild(lib.Snapshot()); err != nil {
		index.Close() //nolint:errcheck // already failing
		return nil, err
	}

	lib.OnReload(func(snap *corpus.Snapshot) {
		if err := index.Rebuild(snap); err != nil {
			searchLog.Error("search reindex after corpus reload failed", "error", err)
		}
	})

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{Index: index}, nil
}
