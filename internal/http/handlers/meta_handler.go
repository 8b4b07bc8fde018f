package handlers

import (
	"github.com/ads-marketplace/tiktok-connector/internal/http/dto"
	"github.com/ads-marketplace/tiktok-connector/internal/models"
	"github.com/ads-marketplace/tiktok-connector/internal/validation"
	"github.com/gofiber/fiber/v2"
)

type MetaHandler struct {
	mockMode bool
}

func NewMetaHandler(mockMode bool) *MetaHandler {
	return &MetaHandler{mockMode: mockMode}
}

func (h *MetaHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "Backend server is running!"})
}

func (h *MetaHandler) FormOptions(c *fiber.Ctx) error {
	return c.JSON(dto.FormOptionsResponse{
		Objectives:      models.Objectives,
		CTAs:            models.CTAs,
		MusicOptions:    models.MusicOptions,
		MaxAdTextLength: validation.MaxAdTextLength,
		MockMode:        h.mockMode,
	})
}
