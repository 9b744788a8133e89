package review

import (
	"errors"

	"file-hasher/core/logger"
	"file-hasher/core/manifest"
	"file-hasher/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for plan review.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the review routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/review")
	group.Get("/plan", h.HandlePlan)
	group.Get("/summary", h.HandleSummary)
	group.Get("/script", h.HandleScript)
	group.Get("/duplicates", h.HandleDuplicates)
}

// HandlePlan returns the full reconciliation plan.
func (h *Handler) HandlePlan(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	plan, err := h.service.Plan(c.Context())
	if err != nil {
		return h.fail(c, l, err)
	}

	source, destination := h.service.Describe()
	l.Info("Plan computed",
		zap.String("source", source),
		zap.String("destination", destination),
		zap.Int("actions", len(plan.Actions)),
	)
	return c.JSON(plan)
}

// HandleSummary returns only the aggregate counts of the plan.
func (h *Handler) HandleSummary(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	plan, err := h.service.Plan(c.Context())
	if err != nil {
		return h.fail(c, l, err)
	}
	return c.JSON(fiber.Map{
		"algorithm":    plan.Algorithm,
		"self_compare": plan.SelfCompare,
		"summary":      plan.Summary,
	})
}

// HandleScript returns the rendered script as plain text.
func (h *Handler) HandleScript(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	body, err := h.service.Script(c.Context())
	if err != nil {
		return h.fail(c, l, err)
	}
	c.Set(fiber.HeaderContentType, "text/x-shellscript; charset=utf-8")
	return c.SendString(body)
}

// HandleDuplicates returns duplicate groups, optionally filtered by side.
func (h *Handler) HandleDuplicates(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	side := reconcile.Side(c.Query("side"))

	if side != "" && side != reconcile.SideSource && side != reconcile.SideDestination {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "side must be source or destination"})
	}

	groups, err := h.service.Duplicates(c.Context(), side)
	if err != nil {
		return h.fail(c, l, err)
	}
	return c.JSON(fiber.Map{
		"count":  len(groups),
		"groups": groups,
	})
}

func (h *Handler) fail(c *fiber.Ctx, l *zap.Logger, err error) error {
	var mismatch *manifest.AlgorithmMismatchError
	if errors.As(err, &mismatch) {
		l.Warn("Manifests use different algorithms", zap.Error(err))
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	l.Error("Failed to compute plan", zap.Error(err))
	return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
}
