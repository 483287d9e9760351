package holdrate

import (
	"errors"

	"roleboard/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler handles HTTP requests for hold-rate statistics.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the hold-rate routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/holdrate", h.HandleList)
	app.Get("/holdrate/:roleId", h.HandleGet)
	app.Post("/holdrate/refresh", h.HandleRefresh)
}

// HandleList returns every character's hold rate.
// @Summary List Hold Rates
// @Tags holdrate
// @Produce json
// @Success 200 {array} models.CharacterHoldRate
// @Router /holdrate [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	rows, err := h.service.List(c.UserContext())
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Hold-rate listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(rows)
}

// HandleGet returns one character's hold rate.
// @Summary Get Hold Rate
// @Tags holdrate
// @Produce json
// @Param roleId path string true "Character ID"
// @Success 200 {object} models.CharacterHoldRate
// @Failure 404 {object} map[string]string "No data"
// @Router /holdrate/{roleId} [get]
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	row, err := h.service.Get(c.UserContext(), c.Params("roleId"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no data"})
	}
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Hold-rate lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(row)
}

// HandleRefresh recomputes hold rates now.
// @Summary Refresh Hold Rates
// @Tags holdrate
// @Produce json
// @Success 200 {object} map[string]string
// @Router /holdrate/refresh [post]
func (h *Handler) HandleRefresh(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"summary": h.service.Trigger(c.UserContext())})
}
