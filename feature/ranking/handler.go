package ranking

import (
	"roleboard/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for leaderboards.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers the ranking routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/rank/total", h.HandleTotalRank)
	app.Post("/rank/total/group", h.HandleGroupTotalRank)
	app.Get("/rank/:roleId/global", h.HandleGlobalRank)
	app.Get("/rank/:roleId/self/:uid", h.HandleSelfRank)
	app.Post("/rank/:roleId/group", h.HandleGroupRank)
}

type groupBody struct {
	UIDs    []string `json:"uids"`
	GroupID string   `json:"group_id"`
	Type    string   `json:"type"`
	Limit   int      `json:"limit"`
}

// HandleGlobalRank returns a page of one character's global ranking.
// @Summary Global Character Rank
// @Description Valid accounts only, ordered by the primary metric then the other metric. uid resolves the caller's own position.
// @Tags ranking
// @Produce json
// @Param roleId path string true "Character ID"
// @Param type query string false "score or damage"
// @Param page query int false "Page (1-based)"
// @Param page_size query int false "Page size"
// @Param uid query string false "Account to locate"
// @Success 200 {object} Board
// @Router /rank/{roleId}/global [get]
func (h *Handler) HandleGlobalRank(c *fiber.Ctx) error {
	board, err := h.service.TopWithSelf(c.UserContext(),
		c.Params("roleId"),
		ParseRankType(c.Query("type")),
		c.QueryInt("page", 1),
		c.QueryInt("page_size", 0),
		c.Query("uid"),
	)
	if err != nil {
		logger.WithRayID(h.logger, c).Error("Global rank failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(board)
}

// HandleSelfRank returns one account's position for a character.
// @Summary Self Rank
// @Tags ranking
// @Produce json
// @Param roleId path string true "Character ID"
// @Param uid path string true "Game UID"
// @Param type query string false "score or damage"
// @Success 200 {object} map[string]int
// @Failure 404 {object} map[string]string "No rank"
// @Router /rank/{roleId}/self/{uid} [get]
func (h *Handler) HandleSelfRank(c *fiber.Ctx) error {
	rank, err := h.service.SelfRank(c.UserContext(), c.Params("uid"), c.Params("roleId"), ParseRankType(c.Query("type")))
	if err != nil {
		logger.WithRayID(h.logger, c).Error("Self rank failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if rank == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no rank"})
	}
	return c.JSON(fiber.Map{"rank": *rank})
}

// HandleGroupRank ranks one character within a group.
// @Summary Group Character Rank
// @Tags ranking
// @Accept json
// @Produce json
// @Param roleId path string true "Character ID"
// @Param body body groupBody true "uids or group_id"
// @Success 200 {array} Entry
// @Router /rank/{roleId}/group [post]
func (h *Handler) HandleGroupRank(c *fiber.Ctx) error {
	var body groupBody
	if err := c.BodyParser(&body); err != nil || (len(body.UIDs) == 0 && body.GroupID == "") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "uids or group_id is required"})
	}
	entries, err := h.service.GroupRank(c.UserContext(), body.UIDs, body.GroupID, c.Params("roleId"), ParseRankType(body.Type), body.Limit)
	if err != nil {
		logger.WithRayID(h.logger, c).Error("Group rank failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(entries)
}

// HandleTotalRank returns a page of the total power ranking.
// @Summary Total Power Rank
// @Description Accounts ranked by the sum of character scores at or above the floor.
// @Tags ranking
// @Produce json
// @Param page query int false "Page (1-based)"
// @Param page_size query int false "Page size"
// @Param uid query string false "Account to locate"
// @Success 200 {object} TotalBoard
// @Router /rank/total [get]
func (h *Handler) HandleTotalRank(c *fiber.Ctx) error {
	board, err := h.service.TotalRank(c.UserContext(), c.QueryInt("page", 1), c.QueryInt("page_size", 0), c.Query("uid"))
	if err != nil {
		logger.WithRayID(h.logger, c).Error("Total rank failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(board)
}

// HandleGroupTotalRank ranks a group by total power.
// @Summary Group Total Power Rank
// @Tags ranking
// @Accept json
// @Produce json
// @Param body body groupBody true "uids or group_id"
// @Success 200 {array} TotalEntry
// @Router /rank/total/group [post]
func (h *Handler) HandleGroupTotalRank(c *fiber.Ctx) error {
	var body groupBody
	if err := c.BodyParser(&body); err != nil || (len(body.UIDs) == 0 && body.GroupID == "") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "uids or group_id is required"})
	}
	entries, err := h.service.GroupTotalRank(c.UserContext(), body.UIDs, body.GroupID)
	if err != nil {
		logger.WithRayID(h.logger, c).Error("Group total rank failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(entries)
}
