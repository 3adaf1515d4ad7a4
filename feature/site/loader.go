package site

import (
	"rebelinux-site/core/fragment"
	"rebelinux-site/core/storage"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the site feature. Fragments are fetched over HTTP from cfg.Origin
// through a cache shared by all requests.
func NewFeature(client storage.Client, bucket string, logger *zap.Logger, cfg fragment.Config) (*Feature, error) {
	fetcher := fragment.NewCachingFetcher(fragment.NewHTTPFetcher(nil), cfg.CacheTTL())
	svc, err := NewService(client, bucket, logger, fetcher, cfg)
	if err != nil {
		return nil, err
	}
	return &Feature{service: svc, handler: NewHandler(svc)}, nil
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "site"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
