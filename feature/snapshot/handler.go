package snapshot

import (
	"errors"

	"roleboard/core/logger"
	"roleboard/feature/snapshot/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for snapshot refreshes and accounts.
type Handler struct {
	service   *Service
	uidLength int
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, uidLength int) *Handler {
	return &Handler{service: service, uidLength: uidLength}
}

// RegisterRoutes registers the snapshot routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Post("/refresh/:uid", h.HandleRefresh)
	app.Put("/refresh/concurrency", h.HandleSetConcurrency)
	app.Get("/characters/:uid", h.HandleCharacters)
	app.Post("/accounts", h.HandleSaveAccount)
	app.Post("/bindings", h.HandleBind)
}

type refreshBody struct {
	UserID  string   `json:"user_id"`
	BotID   string   `json:"bot_id"`
	RoleIDs []string `json:"role_ids"`
}

// HandleRefresh refreshes an account's characters.
// @Summary Refresh Characters
// @Description Fetch, sanitize, score and sync the characters of one account. An empty role_ids refreshes every character.
// @Tags snapshot
// @Accept json
// @Produce json
// @Param uid path string true "Game UID"
// @Param body body refreshBody false "Refresh options"
// @Success 200 {object} RefreshResult
// @Failure 404 {object} map[string]string "No credential or no character data"
// @Failure 502 {object} map[string]string "Role list fetch failed"
// @Router /refresh/{uid} [post]
func (h *Handler) HandleRefresh(c *fiber.Ctx) error {
	uid := c.Params("uid")
	l := logger.WithRayID(h.service.logger, c)

	var body refreshBody
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}
	}

	res, err := h.service.Refresh(c.UserContext(), RefreshRequest{
		UID:       uid,
		UserID:    body.UserID,
		BotID:     body.BotID,
		Selection: Selection{RoleIDs: body.RoleIDs},
	})
	if err != nil {
		status := refreshStatus(err)
		if status >= fiber.StatusInternalServerError {
			l.Error("Refresh failed", zap.String("uid", uid), zap.Error(err))
		} else {
			l.Info("Refresh rejected", zap.String("uid", uid), zap.Error(err))
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(res)
}

func refreshStatus(err error) int {
	switch {
	case errors.Is(err, ErrNoCredential), errors.Is(err, ErrNoCharacterData), errors.Is(err, ErrNoRequestedData):
		return fiber.StatusNotFound
	case errors.Is(err, ErrCredentialInvalid):
		return fiber.StatusForbidden
	case errors.Is(err, ErrRoleListFailed):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// HandleSetConcurrency changes the fetch concurrency cap.
// @Summary Set Refresh Concurrency
// @Tags snapshot
// @Accept json
// @Produce json
// @Param body body map[string]int true "{\"value\": 4}"
// @Success 200 {object} map[string]int
// @Router /refresh/concurrency [put]
func (h *Handler) HandleSetConcurrency(c *fiber.Ctx) error {
	var body struct {
		Value int `json:"value"`
	}
	if err := c.BodyParser(&body); err != nil || body.Value < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "value must be a positive integer"})
	}
	h.service.SetConcurrency(body.Value)
	return c.JSON(fiber.Map{"value": h.service.Concurrency()})
}

// HandleCharacters lists an account's stored characters.
// @Summary List Characters
// @Tags snapshot
// @Produce json
// @Param uid path string true "Game UID"
// @Success 200 {array} models.CharacterSnapshot
// @Router /characters/{uid} [get]
func (h *Handler) HandleCharacters(c *fiber.Ctx) error {
	rows, err := h.service.Characters(c.UserContext(), c.Params("uid"))
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Character listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if rows == nil {
		rows = []models.CharacterSnapshot{}
	}
	return c.JSON(rows)
}

type accountBody struct {
	UID        string `json:"uid"`
	UserID     string `json:"user_id"`
	BotID      string `json:"bot_id"`
	Credential string `json:"credential"`
	Platform   string `json:"platform"`
}

// HandleSaveAccount registers or updates an account credential.
// @Summary Save Account
// @Tags snapshot
// @Accept json
// @Produce json
// @Param body body accountBody true "Account"
// @Success 200 {object} models.Account
// @Router /accounts [post]
func (h *Handler) HandleSaveAccount(c *fiber.Ctx) error {
	var body accountBody
	if err := c.BodyParser(&body); err != nil || body.UID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "uid is required"})
	}
	acc := &models.Account{
		UID:        body.UID,
		UserID:     body.UserID,
		BotID:      body.BotID,
		Credential: body.Credential,
		Platform:   body.Platform,
	}
	if err := h.service.accounts.Save(c.UserContext(), acc); err != nil {
		logger.WithRayID(h.service.logger, c).Error("Account save failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(acc)
}

type bindBody struct {
	UserID  string `json:"user_id"`
	BotID   string `json:"bot_id"`
	UID     string `json:"uid"`
	GroupID string `json:"group_id"`
}

// HandleBind binds a uid to a platform user.
// @Summary Bind UID
// @Description Returns code 0 (bound), -1 (bad length), -2 (already bound) or -3 (not digits).
// @Tags snapshot
// @Accept json
// @Produce json
// @Param body body bindBody true "Binding"
// @Success 200 {object} map[string]int
// @Router /bindings [post]
func (h *Handler) HandleBind(c *fiber.Ctx) error {
	var body bindBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	code, err := h.service.accounts.BindUID(c.UserContext(), body.UserID, body.BotID, body.UID, body.GroupID, h.uidLength)
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Bind failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"code": code})
}
