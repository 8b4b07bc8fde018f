package handlers

import (
	"strings"

	"github.com/ads-marketplace/tiktok-connector/internal/http/dto"
	"github.com/ads-marketplace/tiktok-connector/internal/middleware"
	"github.com/ads-marketplace/tiktok-connector/internal/models"
	"github.com/ads-marketplace/tiktok-connector/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AdHandler struct {
	adService *services.AdService
	log       *zap.Logger
}

func NewAdHandler(adService *services.AdService, log *zap.Logger) *AdHandler {
	return &AdHandler{adService: adService, log: log}
}

func (h *AdHandler) ValidateMusic(c *fiber.Ctx) error {
	var req dto.ValidateMusicRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	userID := firstNonEmpty(req.UserID, middleware.GetUserID(c))

	h.log.Debug("validating music id", zap.String("user_id", userID), zap.String("music_id", req.MusicID))

	res, err := h.adService.ValidateMusic(c.Context(), userID, req.MusicID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	if !res.Valid {
		return c.JSON(dto.ErrorResponse{Error: res.Reason})
	}
	return c.JSON(dto.MusicResponse{
		Success: true,
		MusicID: strings.TrimSpace(req.MusicID),
		Message: services.MsgMusicIDValidated,
	})
}

func (h *AdHandler) UploadMusic(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, services.MsgUploadEmpty)
	}

	file, err := fh.Open()
	if err != nil {
		return badRequest(c, services.MsgUploadEmpty)
	}
	defer file.Close()

	ref, errs, err := h.adService.RegisterUpload(c.Context(), userID, services.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Body:        file,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	if !errs.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:  errs[models.FieldMusic],
			Errors: errs,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.UploadResponse{
		Success:         true,
		UploadedFileRef: ref,
		MusicID:         ref,
	})
}

func (h *AdHandler) CreateAd(c *fiber.Ctx) error {
	var req dto.CreateAdRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	userID := firstNonEmpty(req.UserID, middleware.GetUserID(c))

	h.log.Info("creating ad",
		zap.String("user_id", userID),
		zap.String("campaign", req.CampaignName),
		zap.String("objective", req.Objective),
		zap.String("music_option", req.MusicOption),
	)

	result := h.adService.Submit(c.Context(), userID, req.CampaignDraft)

	resp := dto.CreateAdResponse{SubmissionResult: result}
	switch result.ErrorKind {
	case "":
		draft := req.CampaignDraft
		resp.Data = &draft
		return c.JSON(resp)
	case models.ErrorKindAuthorization:
		return c.Status(fiber.StatusUnauthorized).JSON(resp)
	case models.ErrorKindValidation:
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	default:
		// upstream failures are reported in the body, as the form expects
		return c.JSON(resp)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
