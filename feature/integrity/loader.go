package integrity

import (
	"rebelinux-site/core/middleware/auth"
	"rebelinux-site/core/storage"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	handler *Handler
	apiKey  string
}

// NewFeature creates a new Integrity feature. Its routes require apiKey when one is set.
func NewFeature(client storage.Client, bucket string, logger *zap.Logger, apiKey string) *Feature {
	svc := NewService(client, bucket, logger)
	return &Feature{handler: NewHandler(svc), apiKey: apiKey}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "integrity"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes behind the API key middleware.
func (f *Feature) Load(app fiber.Router) error {
	group := app.Group("/integrity", auth.New(auth.Config{ApiKey: f.apiKey}))
	f.handler.RegisterRoutes(group)
	return nil
}
