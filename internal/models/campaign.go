package models

// Campaign objectives
const (
	ObjectiveTraffic     = "Traffic"
	ObjectiveConversions = "Conversions"
)

// Objective codes expected by the TikTok ads API
const (
	ObjectiveCodeTraffic     = "TRAFFIC"
	ObjectiveCodeConversions = "CONVERSIONS"
)

// Music options
const (
	MusicOptionNone     = "no-music"
	MusicOptionExisting = "existing"
	MusicOptionUpload   = "upload"
)

// Calls to action
const (
	CTAShopNow   = "Shop Now"
	CTALearnMore = "Learn More"
	CTASignUp    = "Sign Up"
	CTADownload  = "Download"
	CTABookNow   = "Book Now"
)

var (
	Objectives   = []string{ObjectiveTraffic, ObjectiveConversions}
	MusicOptions = []string{MusicOptionNone, MusicOptionExisting, MusicOptionUpload}
	CTAs         = []string{CTAShopNow, CTALearnMore, CTASignUp, CTADownload, CTABookNow}
)

var objectiveCodes = map[string]string{
	ObjectiveTraffic:     ObjectiveCodeTraffic,
	ObjectiveConversions: ObjectiveCodeConversions,
}

// ObjectiveCode maps a form objective to its API code. ok is false for
// unknown objectives.
func ObjectiveCode(objective string) (string, bool) {
	code, ok := objectiveCodes[objective]
	return code, ok
}

func IsValidObjective(objective string) bool {
	return contains(Objectives, objective)
}

func IsValidCTA(cta string) bool {
	return contains(CTAs, cta)
}

func IsValidMusicOption(option string) bool {
	return contains(MusicOptions, option)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// CampaignDraft is a candidate ad campaign as submitted by the form.
type CampaignDraft struct {
	CampaignName    string `json:"campaignName"`
	Objective       string `json:"objective"`
	AdText          string `json:"adText"`
	CTA             string `json:"cta"`
	MusicOption     string `json:"musicOption"`
	MusicID         string `json:"musicId,omitempty"`
	UploadedFileRef string `json:"uploadedFileRef,omitempty"`
}

// ValidationResult maps a field name to its error message. Empty means valid.
type ValidationResult map[string]string

func (r ValidationResult) Valid() bool {
	return len(r) == 0
}

// Add records msg for field unless the field already has an error.
func (r ValidationResult) Add(field, msg string) {
	if _, exists := r[field]; exists {
		return
	}
	r[field] = msg
}

// Field names used in ValidationResult
const (
	FieldCampaignName = "campaignName"
	FieldObjective    = "objective"
	FieldAdText       = "adText"
	FieldCTA          = "cta"
	FieldMusicOption  = "musicOption"
	FieldMusic        = "music"
	FieldMusicID      = "musicId"
)

// Submission error kinds
const (
	ErrorKindAuthorization = "authorization"
	ErrorKindValidation    = "validation"
	ErrorKindExternal      = "external"
	ErrorKindUnexpected    = "unexpected"
)

type SubmissionResult struct {
	Success     bool             `json:"success"`
	AdID        string           `json:"adId,omitempty"`
	Message     string           `json:"message,omitempty"`
	Error       string           `json:"error,omitempty"`
	ErrorKind   string           `json:"errorKind,omitempty"`
	FieldErrors ValidationResult `json:"errors,omitempty"`
}
