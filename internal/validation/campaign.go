package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/ads-marketplace/tiktok-connector/internal/models"
)

const minCampaignNameLength = 3

// MaxAdTextLength is the longest ad text accepted, counted in characters.
const MaxAdTextLength = 100

// Field error messages
const (
	MsgCampaignNameRequired = "Campaign name is required"
	MsgCampaignNameShort    = "Campaign name must be at least 3 characters"
	MsgAdTextRequired       = "Ad text is required"
	MsgAdTextTooLong        = "Ad text cannot exceed 100 characters"
	MsgCTARequired          = "Please select a call to action"
	MsgCTAInvalid           = "Please select a valid call to action"
	MsgObjectiveInvalid     = "Please select a valid objective"
	MsgMusicOptionInvalid   = "Please select a valid music option"
	MsgMusicRequired        = "Music is required for Conversion campaigns"
	MsgMusicUploadRequired  = "Please upload a music file"
	MsgMusicIDOrNoMusic     = "Please enter a Music ID or choose No Music"
)

// ValidateDraft applies every form rule to d and collects all field errors.
func ValidateDraft(d models.CampaignDraft) models.ValidationResult {
	errs := models.ValidationResult{}

	name := strings.TrimSpace(d.CampaignName)
	switch {
	case name == "":
		errs.Add(models.FieldCampaignName, MsgCampaignNameRequired)
	case utf8.RuneCountInString(name) < minCampaignNameLength:
		errs.Add(models.FieldCampaignName, MsgCampaignNameShort)
	}

	switch {
	case strings.TrimSpace(d.AdText) == "":
		errs.Add(models.FieldAdText, MsgAdTextRequired)
	case utf8.RuneCountInString(d.AdText) > MaxAdTextLength:
		errs.Add(models.FieldAdText, MsgAdTextTooLong)
	}

	switch {
	case d.CTA == "":
		errs.Add(models.FieldCTA, MsgCTARequired)
	case !models.IsValidCTA(d.CTA):
		errs.Add(models.FieldCTA, MsgCTAInvalid)
	}

	if !models.IsValidObjective(d.Objective) {
		errs.Add(models.FieldObjective, MsgObjectiveInvalid)
	}
	if !models.IsValidMusicOption(d.MusicOption) {
		errs.Add(models.FieldMusicOption, MsgMusicOptionInvalid)
	}

	validateMusic(d, errs)

	return errs
}

func validateMusic(d models.CampaignDraft, errs models.ValidationResult) {
	musicID := strings.TrimSpace(d.MusicID)

	switch d.Objective {
	case models.ObjectiveConversions:
		switch d.MusicOption {
		case models.MusicOptionNone:
			errs.Add(models.FieldMusic, MsgMusicRequired)
		case models.MusicOptionExisting:
			if r := CheckMusicID(musicID); !r.Valid {
				errs.Add(models.FieldMusicID, r.Reason)
			}
		case models.MusicOptionUpload:
			if strings.TrimSpace(d.UploadedFileRef) == "" {
				errs.Add(models.FieldMusic, MsgMusicUploadRequired)
			}
		}

	case models.ObjectiveTraffic:
		if d.MusicOption != models.MusicOptionExisting {
			return
		}
		if musicID == "" {
			errs.Add(models.FieldMusicID, MsgMusicIDOrNoMusic)
			return
		}
		if r := CheckMusicID(musicID); !r.Valid {
			errs.Add(models.FieldMusicID, r.Reason)
		}
	}
}
