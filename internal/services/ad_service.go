package services

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/ads-marketplace/tiktok-connector/internal/apperr"
	"github.com/ads-marketplace/tiktok-connector/internal/events"
	"github.com/ads-marketplace/tiktok-connector/internal/metrics"
	"github.com/ads-marketplace/tiktok-connector/internal/models"
	"github.com/ads-marketplace/tiktok-connector/internal/session"
	"github.com/ads-marketplace/tiktok-connector/internal/storage"
	"github.com/ads-marketplace/tiktok-connector/internal/tiktok"
	"github.com/ads-marketplace/tiktok-connector/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Submission outcomes, used as metric labels
const (
	OutcomeSuccess      = "success"
	OutcomeUnauthorized = "unauthorized"
	OutcomeInvalid      = "invalid"
	OutcomeExternal     = "external_error"
	OutcomeUnexpected   = "unexpected_error"
)

const (
	MsgAdCreated        = "Ad created successfully!"
	MsgFixErrors        = "Please fix the errors before submitting"
	MsgUploadNotFound   = "Uploaded music file not found. Please upload it again."
	MsgUploadEmpty      = "Please upload a music file"
	MsgUploadTooLarge   = "Music file is too large"
	MsgUploadNotAudio   = "Please upload an audio file (mp3, wav, m4a, aac or ogg)"
	MsgUploadFailed     = "Failed to store music file. Please try again."
	MsgMusicIDValidated = "Music ID validated successfully"
)

var audioExtensions = map[string]bool{
	".mp3": true, ".wav": true, ".m4a": true, ".aac": true, ".ogg": true,
}

type AdService struct {
	store     session.Store
	music     validation.MusicValidator
	ads       tiktok.AdsAPI
	uploads   storage.MusicStorage
	publisher events.Publisher
	metrics   *metrics.Metrics
	timeout   time.Duration
	maxUpload int64
	log       *zap.Logger
}

func NewAdService(
	store session.Store,
	music validation.MusicValidator,
	ads tiktok.AdsAPI,
	uploads storage.MusicStorage,
	publisher events.Publisher,
	m *metrics.Metrics,
	timeout time.Duration,
	maxUpload int64,
	log *zap.Logger,
) *AdService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if m == nil {
		m = metrics.New(nil)
	}
	if uploads == nil {
		uploads = storage.Discard{}
	}
	return &AdService{
		store:     store,
		music:     music,
		ads:       ads,
		uploads:   uploads,
		publisher: publisher,
		metrics:   m,
		timeout:   timeout,
		maxUpload: maxUpload,
		log:       log,
	}
}

// ValidateMusic checks musicID with the caller's credentials.
func (s *AdService) ValidateMusic(ctx context.Context, userID, musicID string) (validation.MusicResult, error) {
	sess, ok := s.store.Get(userID)
	if !ok {
		return validation.MusicResult{}, apperr.Authorization(apperr.MsgReconnect, nil)
	}

	res, err := s.checkMusic(ctx, sess, strings.TrimSpace(musicID))
	if err != nil {
		s.metrics.MusicChecks.WithLabelValues("error").Inc()
		if apperr.KindOf(err) == apperr.KindAuthorization {
			s.store.Delete(userID)
			s.publishState(ctx, userID, models.ConnectionDisconnected, map[string]any{"reason": apperr.MessageOf(err)})
		}
		return validation.MusicResult{}, err
	}
	if res.Valid {
		s.metrics.MusicChecks.WithLabelValues("valid").Inc()
	} else {
		s.metrics.MusicChecks.WithLabelValues("invalid").Inc()
	}
	return res, nil
}

// Upload is a music file received from the form.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// RegisterUpload checks and stores an uploaded music file and returns the
// reference to submit with the draft.
func (s *AdService) RegisterUpload(ctx context.Context, userID string, up Upload) (string, models.ValidationResult, error) {
	if _, ok := s.store.Get(userID); !ok {
		return "", nil, apperr.Authorization(apperr.MsgReconnect, nil)
	}

	errs := models.ValidationResult{}
	switch {
	case up.Size <= 0 || up.Body == nil:
		errs.Add(models.FieldMusic, MsgUploadEmpty)
	case s.maxUpload > 0 && up.Size > s.maxUpload:
		errs.Add(models.FieldMusic, MsgUploadTooLarge)
	case !isAudio(up.Filename, up.ContentType):
		errs.Add(models.FieldMusic, MsgUploadNotAudio)
	}
	if !errs.Valid() {
		return "", errs, nil
	}

	ref := "uploaded_" + uuid.New().String()
	key := storage.MusicKey(userID, ref, up.Filename)
	if err := s.uploads.Put(ctx, key, up.Body, up.Size, up.ContentType); err != nil {
		s.log.Error("music upload store failed", zap.String("user_id", userID), zap.String("key", key), zap.Error(err))
		return "", nil, apperr.External(MsgUploadFailed, err)
	}

	ok := s.store.Update(userID, func(sess *models.Session) {
		sess.Uploads = append(sess.Uploads, ref)
	})
	if !ok {
		_ = s.uploads.Delete(ctx, key)
		return "", nil, apperr.Authorization(apperr.MsgReconnect, nil)
	}

	s.log.Info("music upload registered",
		zap.String("user_id", userID),
		zap.String("ref", ref),
		zap.String("key", key),
		zap.Int64("size", up.Size),
	)
	return ref, nil, nil
}

// Submit validates draft again on the server and creates the ad.
func (s *AdService) Submit(ctx context.Context, userID string, draft models.CampaignDraft) models.SubmissionResult {
	started := time.Now()

	sess, ok := s.store.Get(userID)
	if !ok {
		s.metrics.ObserveSubmission(OutcomeUnauthorized, started)
		return failure(apperr.Authorization(apperr.MsgSessionExpired, nil))
	}

	s.publishState(ctx, userID, models.ConnectionSubmitting, nil)

	result, outcome := s.submit(ctx, sess, draft)
	s.metrics.ObserveSubmission(outcome, started)

	switch {
	case result.Success:
		s.publish(ctx, events.Event{Type: events.EventAdCreated, UserID: userID, Payload: map[string]any{"ad_id": result.AdID, "campaign_name": strings.TrimSpace(draft.CampaignName)}})
	default:
		s.publish(ctx, events.Event{Type: events.EventAdFailed, UserID: userID, Payload: map[string]any{"error": result.Error, "kind": result.ErrorKind, "campaign_name": strings.TrimSpace(draft.CampaignName)}})
	}

	if outcome == OutcomeUnauthorized {
		s.store.Delete(userID)
		s.publishState(ctx, userID, models.ConnectionDisconnected, map[string]any{"reason": result.Error})
	} else {
		s.publishState(ctx, userID, models.ConnectionConnected, nil)
	}

	return result
}

func (s *AdService) submit(ctx context.Context, sess models.Session, draft models.CampaignDraft) (models.SubmissionResult, string) {
	errs := validation.ValidateDraft(draft)

	musicID := strings.TrimSpace(draft.MusicID)
	uploadRef := strings.TrimSpace(draft.UploadedFileRef)

	switch draft.MusicOption {
	case models.MusicOptionExisting:
		if _, bad := errs[models.FieldMusicID]; bad || musicID == "" {
			break
		}
		res, err := s.checkMusic(ctx, sess, musicID)
		if err != nil {
			return failure(err), outcomeOf(err)
		}
		if !res.Valid {
			errs.Add(models.FieldMusicID, res.Reason)
		}
	case models.MusicOptionUpload:
		if uploadRef != "" && !sess.HasUpload(uploadRef) {
			errs.Add(models.FieldMusic, MsgUploadNotFound)
		}
	}

	if !errs.Valid() {
		s.metrics.Validations.WithLabelValues("invalid").Inc()
		return models.SubmissionResult{
			Error:       MsgFixErrors,
			ErrorKind:   models.ErrorKindValidation,
			FieldErrors: errs,
		}, OutcomeInvalid
	}
	s.metrics.Validations.WithLabelValues("valid").Inc()

	objectiveCode, _ := models.ObjectiveCode(draft.Objective)
	req := tiktok.CreateAdRequest{
		AdvertiserID:  sess.PrimaryAdvertiserID(),
		CampaignName:  strings.TrimSpace(draft.CampaignName),
		ObjectiveType: objectiveCode,
		AdText:        draft.AdText,
		CallToAction:  draft.CTA,
	}
	switch draft.MusicOption {
	case models.MusicOptionExisting:
		req.MusicID = musicID
	case models.MusicOptionUpload:
		req.MusicID = uploadRef
	}

	cctx, cancel := s.withTimeout(ctx)
	defer cancel()

	adID, err := s.ads.CreateAd(cctx, sess.AccessToken, req)
	if err != nil {
		err = s.classifyCreateError(sess.UserID, err)
		return failure(err), outcomeOf(err)
	}

	s.log.Info("ad created",
		zap.String("user_id", sess.UserID),
		zap.String("ad_id", adID),
		zap.String("objective", objectiveCode),
		zap.String("music_option", draft.MusicOption),
	)
	return models.SubmissionResult{Success: true, AdID: adID, Message: MsgAdCreated}, OutcomeSuccess
}

func (s *AdService) checkMusic(ctx context.Context, sess models.Session, musicID string) (validation.MusicResult, error) {
	cctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.music.Validate(cctx, musicID, sess.AccessToken)
	if err == nil {
		return res, nil
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		if appErr.Kind == apperr.KindAuthorization {
			s.log.Info("access token rejected during music check", zap.String("user_id", sess.UserID))
		}
		return validation.MusicResult{}, err
	}
	s.log.Error("music check failed", zap.String("user_id", sess.UserID), zap.Error(err))
	return validation.MusicResult{}, apperr.Unexpected(err)
}

func (s *AdService) classifyCreateError(userID string, err error) error {
	if errors.Is(err, tiktok.ErrUnauthorized) {
		s.log.Info("access token rejected during ad creation", zap.String("user_id", userID))
		return apperr.Authorization(apperr.MsgTokenExpired, err)
	}

	var apiErr *tiktok.APIError
	if errors.As(err, &apiErr) {
		s.log.Warn("ad creation rejected",
			zap.String("user_id", userID),
			zap.Int("status", apiErr.Status),
			zap.Int("code", apiErr.Code),
			zap.String("message", apiErr.Message),
		)
		msg := strings.TrimSpace(apiErr.Message)
		if msg == "" || apiErr.Unavailable() {
			msg = apperr.MsgCreateFailed
		}
		return apperr.External(msg, err)
	}

	s.log.Warn("ad creation failed", zap.String("user_id", userID), zap.Error(err))
	return apperr.External(apperr.MsgCreateFailed, err)
}

func (s *AdService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *AdService) publishState(ctx context.Context, userID, state string, extra map[string]any) {
	payload := map[string]any{"state": state}
	for k, v := range extra {
		payload[k] = v
	}
	s.publish(ctx, events.Event{Type: events.EventConnectionState, UserID: userID, Payload: payload})
}

func (s *AdService) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, events.StreamAds, e); err != nil {
		s.log.Warn("failed to publish event", zap.String("type", e.Type), zap.Error(err))
	}
}

func failure(err error) models.SubmissionResult {
	return models.SubmissionResult{
		Error:     apperr.MessageOf(err),
		ErrorKind: string(apperr.KindOf(err)),
	}
}

func outcomeOf(err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindAuthorization:
		return OutcomeUnauthorized
	case apperr.KindExternal:
		return OutcomeExternal
	default:
		return OutcomeUnexpected
	}
}

func isAudio(filename, contentType string) bool {
	if strings.HasPrefix(strings.ToLower(contentType), "audio/") {
		return true
	}
	return audioExtensions[strings.ToLower(filepath.Ext(filename))]
}
