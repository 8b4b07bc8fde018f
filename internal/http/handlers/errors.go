package handlers

import (
	"github.com/ads-marketplace/tiktok-connector/internal/apperr"
	"github.com/ads-marketplace/tiktok-connector/internal/http/dto"
	"github.com/ads-marketplace/tiktok-connector/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindAuthorization:
		return fiber.StatusUnauthorized
	case apperr.KindValidation:
		return fiber.StatusBadRequest
	case apperr.KindExternal:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError renders err with the status matching its kind. Unexpected
// errors are logged and replaced with a generic message.
func writeError(c *fiber.Ctx, log *zap.Logger, err error) error {
	kind := apperr.KindOf(err)
	if kind == apperr.KindUnexpected {
		log.Error("unexpected error",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	return c.Status(statusFor(kind)).JSON(dto.ErrorResponse{
		Error:     apperr.MessageOf(err),
		RequestID: middleware.GetRequestID(c),
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error:     msg,
		RequestID: middleware.GetRequestID(c),
	})
}
