package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/chaitanyak175/attack-capital/internal/ports"
	"github.com/chaitanyak175/attack-capital/internal/service/health"
)

// HealthHandler serves /health and /model-info.
type HealthHandler struct {
	health     *health.Service
	classifier ports.Classifier
	log        *zap.Logger
}

func NewHealthHandler(healthSvc *health.Service, classifier ports.Classifier, log *zap.Logger) *HealthHandler {
	return &HealthHandler{
		health:     healthSvc,
		classifier: classifier,
		log:        log,
	}
}

// Health handles GET /health. Always 200; readiness is in the body flags.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(h.health.Report())
}

// ModelInfo handles GET /model-info. 503 until the model is loaded.
func (h *HealthHandler) ModelInfo(c *fiber.Ctx) error {
	meta, err := h.classifier.Metadata()
	if err != nil {
		return err
	}
	return c.JSON(meta)
}
