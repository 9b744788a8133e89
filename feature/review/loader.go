package review

import (
	"file-hasher/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates a new review feature.
func NewFeature(spec *reconcile.Spec, options reconcile.Options, logger *zap.Logger) *Feature {
	svc := NewService(spec, options, logger)
	h := NewHandler(svc)
	return &Feature{service: svc, handler: h}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "review"
}

// IsEnabled reports whether a source manifest is configured.
func (f *Feature) IsEnabled() bool {
	return f.service.spec != nil && f.service.spec.Source != nil
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
