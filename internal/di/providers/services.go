package providers

import (
	"github.com/samber/do/v2"

	"github.com/heyrat/heyrat-server/internal/auth"
	"github.com/heyrat/heyrat-server/internal/corpus"
	"github.com/heyrat/heyrat-server/internal/logger"
	"github.com/heyrat/heyrat-server/internal/service"
	"github.com/heyrat/heyrat-server/internal/validation"
)

// ProvideValidator provides the request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideIdentityService provides the identity service.
func ProvideIdentityService(i do.Injector) (*service.IdentityService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	hasher := do.MustInvoke[*auth.PasswordHasher](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewIdentityService(storeHandle.Store, hasher, tokens, v, log.WithComponent("identity").Logger), nil
}

// ProvidePostService provides the post and like service.
func ProvidePostService(i do.Injector) (*service.PostService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	lib := do.MustInvoke[*corpus.Library](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewPostService(storeHandle.Store, lib, v, log.WithComponent("posts").Logger), nil
}

// ProvideFeedService provides the feed service.
func ProvideFeedService(i do.Injector) (*service.FeedService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewFeedService(storeHandle.Store, log.WithComponent("feed").Logger), nil
}
