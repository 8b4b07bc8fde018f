package handlers

import (
	"github.com/ads-marketplace/tiktok-connector/internal/http/dto"
	"github.com/ads-marketplace/tiktok-connector/internal/middleware"
	"github.com/ads-marketplace/tiktok-connector/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *services.AuthService
	log         *zap.Logger
}

func NewAuthHandler(authService *services.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, log: log}
}

// Connect starts the TikTok OAuth flow.
func (h *AuthHandler) Connect(c *fiber.Ctx) error {
	redirect, err := h.authService.BeginConnect(c.Context())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Redirect(redirect, fiber.StatusFound)
}

func (h *AuthHandler) Callback(c *fiber.Ctx) error {
	h.log.Info("oauth callback received")
	redirect := h.authService.Callback(c.Context(), c.Query("code"), c.Query("state"))
	return c.Redirect(redirect, fiber.StatusFound)
}

func (h *AuthHandler) GetUser(c *fiber.Ctx) error {
	profile, err := h.authService.UserInfo(c.Params("userId"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.UserResponse{Success: true, User: profile})
}

func (h *AuthHandler) Disconnect(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		var req dto.DisconnectRequest
		_ = c.BodyParser(&req)
		userID = req.UserID
	}

	h.authService.Disconnect(c.Context(), userID)
	return c.JSON(dto.SuccessResponse{Success: true, Message: "Disconnected successfully"})
}
