package providers

import (
	"github.com/samber/do/v2"

	"github.com/heyrat/heyrat-server/internal/config"
	"github.com/heyrat/heyrat-server/internal/corpus"
	"github.com/heyrat/heyrat-server/internal/logger"
)

// ProvideCorpus loads the poetry corpus.
func ProvideCorpus(i do.Injector) (*corpus.Library, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return corpus.NewLibrary(cfg.Corpus.Path, log.WithComponent("corpus").Logger)
}
