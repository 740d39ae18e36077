package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Kurdishgpt/Slaw/internal/linkdetect"
	"github.com/Kurdishgpt/Slaw/internal/models"
	"github.com/Kurdishgpt/Slaw/internal/repositories"
	"github.com/Kurdishgpt/Slaw/pkg/logger"
)

// Fixed policy parameters. These are rules, not deployment configuration.
const (
	MaxPoints          = 999
	DailyLinkLimit     = 10
	Cooldown           = 14 * time.Hour
	VoicePointInterval = time.Hour
	DailyWindow        = 24 * time.Hour
)

// AwardService is the point-award rules engine. It owns every mutation of the
// user ledger and activity log driven by gateway events, serialized per user
// so concurrent events and the voice sweep never produce lost updates.
type AwardService struct {
	userRepo        repositories.UserRepository
	activityRepo    repositories.ActivityRepository
	apiKeyRepo      repositories.APIKeyRepository
	targetChannelID string
	locks           *userLock
	now             func() time.Time
}

// NewAwardService creates a new AwardService. Link awards are restricted to
// targetChannelID; an empty value disables the restriction.
func NewAwardService(userRepo repositories.UserRepository, activityRepo repositories.ActivityRepository, apiKeyRepo repositories.APIKeyRepository, targetChannelID string) *AwardService {
	return &AwardService{
		userRepo:        userRepo,
		activityRepo:    activityRepo,
		apiKeyRepo:      apiKeyRepo,
		targetChannelID: targetChannelID,
		locks:           newUserLock(),
		now:             time.Now,
	}
}

// HandleMessage runs one link-award attempt. Messages outside the target
// channel or with no eligible link return (nil, nil); rejections come back as
// results, not errors.
func (s *AwardService) HandleMessage(ctx context.Context, msg models.MessagePosted) (*AwardResult, error) {
	if s.targetChannelID != "" && msg.ChannelID != s.targetChannelID {
		return nil, nil
	}
	kind := linkdetect.Detect(msg.Text)
	if kind == linkdetect.KindNone {
		return nil, nil
	}
	activityType := models.ActivityLinkPaste
	if kind == linkdetect.KindInvite {
		activityType = models.ActivityLinkInvite
	}

	s.locks.Lock(msg.UserID)
	defer s.locks.Unlock(msg.UserID)

	now := s.now()
	user, err := s.userRepo.Upsert(ctx, msg.UserID, msg.Username, msg.Discriminator, msg.Avatar)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	user, err = s.userRepo.ResetDailyLinksIfDue(ctx, user.ID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to roll daily window: %w", err)
	}

	reject := func(code OutcomeCode) *AwardResult {
		return &AwardResult{
			Code:             code,
			Type:             activityType,
			Points:           user.Points,
			DailyLinksPosted: user.DailyLinksPosted,
			LinksLeft:        DailyLinkLimit - user.DailyLinksPosted,
		}
	}

	if user.Points >= MaxPoints {
		return reject(OutcomeMaxPointsReached), nil
	}
	if user.DailyLinksPosted >= DailyLinkLimit {
		return reject(OutcomeDailyLimitReached), nil
	}

	link, ok := linkdetect.Extract(msg.Text, kind)
	if !ok {
		// Detect matched but Extract did not; the pattern lists have
		// diverged. Drop the event, retrying cannot help.
		logger.WithFields(map[string]interface{}{
			"userId":    msg.UserID,
			"messageId": msg.MessageID,
		}).Error("link extraction failed after successful classification")
		return reject(OutcomeExtractionFailed), nil
	}

	_, err = s.activityRepo.FindByLink(ctx, link)
	if err == nil {
		return reject(OutcomeDuplicateLink), nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check duplicate link: %w", err)
	}

	if user.LastPointEarned != nil {
		elapsed := now.Sub(*user.LastPointEarned)
		if elapsed < Cooldown {
			result := reject(OutcomeCooldownActive)
			result.RemainingHours = int(math.Ceil((Cooldown - elapsed).Hours()))
			return result, nil
		}
	}

	newPoints := user.Points + 1
	earned := now
	if err := s.userRepo.SetPoints(ctx, user.ID, newPoints, &earned); err != nil {
		return nil, fmt.Errorf("failed to set points: %w", err)
	}
	updated, err := s.userRepo.AdjustDailyLinks(ctx, user.ID, 1)
	if err != nil {
		s.revertPoints(ctx, user)
		return nil, fmt.Errorf("failed to increment daily links: %w", err)
	}
	activity := &models.Activity{
		UserID:       user.ID,
		Type:         activityType,
		Link:         link,
		MessageID:    &msg.MessageID,
		PointsEarned: 1,
		Timestamp:    now,
	}
	if err := s.activityRepo.Create(ctx, activity); err != nil {
		// No committed point without its log record
		if _, rerr := s.userRepo.AdjustDailyLinks(ctx, user.ID, -1); rerr != nil {
			logger.Errorf("failed to revert daily links for user %s: %v", user.ID, rerr)
		}
		s.revertPoints(ctx, user)
		return nil, fmt.Errorf("failed to append activity: %w", err)
	}

	return &AwardResult{
		Code:             OutcomeAwarded,
		Type:             activityType,
		Points:           newPoints,
		DailyLinksPosted: updated.DailyLinksPosted,
		LinksLeft:        DailyLinkLimit - updated.DailyLinksPosted,
	}, nil
}

func (s *AwardService) revertPoints(ctx context.Context, prev *models.User) {
	if err := s.userRepo.SetPoints(ctx, prev.ID, prev.Points, prev.LastPointEarned); err != nil {
		logger.Errorf("failed to revert points for user %s: %v", prev.ID, err)
	}
}

// HandleMessageDeleted reverses the award tied to a deleted message, if any.
// lastPointEarned is left as is: deleting a message does not restore cooldown
// eligibility.
func (s *AwardService) HandleMessageDeleted(ctx context.Context, ev models.MessageDeleted) error {
	activity, err := s.activityRepo.FindByMessageID(ctx, ev.MessageID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up activity: %w", err)
	}

	s.locks.Lock(activity.UserID)
	defer s.locks.Unlock(activity.UserID)

	// Re-check under the lock; a concurrent delivery of the same deletion
	// may have reversed this record while we waited
	activity, err = s.activityRepo.FindByMessageID(ctx, ev.MessageID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up activity: %w", err)
	}

	// Remove the record before touching the balance so the reversal can
	// never be applied twice
	if err := s.activityRepo.Delete(ctx, activity.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete activity: %w", err)
	}

	user, err := s.userRepo.FindByID(ctx, activity.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load user: %w", err)
	}
	newPoints := user.Points - activity.PointsEarned
	if newPoints < 0 {
		newPoints = 0
	}
	if err := s.userRepo.SetPoints(ctx, user.ID, newPoints, user.LastPointEarned); err != nil {
		return fmt.Errorf("failed to deduct points: %w", err)
	}
	if _, err := s.userRepo.AdjustDailyLinks(ctx, user.ID, -1); err != nil {
		return fmt.Errorf("failed to decrement daily links: %w", err)
	}
	logger.WithFields(map[string]interface{}{
		"userId":    activity.UserID,
		"messageId": ev.MessageID,
		"link":      activity.Link,
	}).Info("reversed award for deleted message")
	return nil
}

// HandleVoiceState records a voice session boundary. A channel switch is a
// leave plus a join, which restarts the accrual reference.
func (s *AwardService) HandleVoiceState(ctx context.Context, ev models.VoiceStateChanged) error {
	s.locks.Lock(ev.UserID)
	defer s.locks.Unlock(ev.UserID)

	user, err := s.userRepo.Upsert(ctx, ev.UserID, ev.Username, ev.Discriminator, ev.Avatar)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	joined := ev.NewChannelID != nil
	switched := joined && ev.PreviousChannelID != nil && *ev.PreviousChannelID != *ev.NewChannelID

	if joined {
		if !switched && user.InVoiceChannel {
			// Mute/deafen and similar in-channel state changes
			return nil
		}
		now := s.now()
		if err := s.userRepo.UpdateVoiceStatus(ctx, ev.UserID, true, ev.NewChannelName, &now); err != nil {
			return fmt.Errorf("failed to record voice join: %w", err)
		}
		return nil
	}
	if err := s.userRepo.UpdateVoiceStatus(ctx, ev.UserID, false, nil, nil); err != nil {
		return fmt.Errorf("failed to record voice leave: %w", err)
	}
	return nil
}

// LinkAccount handles the /login command: attaches an existing, unclaimed
// API key to the invoking member.
func (s *AwardService) LinkAccount(ctx context.Context, req models.LoginRequested) (OutcomeCode, error) {
	key, err := s.apiKeyRepo.FindByKey(ctx, req.Key)
	if errors.Is(err, repositories.ErrNotFound) {
		return OutcomeKeyNotFound, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up api key: %w", err)
	}

	s.locks.Lock(req.UserID)
	defer s.locks.Unlock(req.UserID)

	owner, err := s.userRepo.FindByAPIKey(ctx, req.Key)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return "", fmt.Errorf("failed to check key owner: %w", err)
	}
	if owner != nil && owner.ID != req.UserID {
		return OutcomeKeyAlreadyLinked, nil
	}

	if _, err := s.userRepo.Upsert(ctx, req.UserID, req.Username, req.Discriminator, req.Avatar); err != nil {
		return "", fmt.Errorf("failed to upsert user: %w", err)
	}
	if err := s.userRepo.LinkAPIKey(ctx, req.UserID, req.Key); err != nil {
		return "", fmt.Errorf("failed to link api key: %w", err)
	}
	if err := s.apiKeyRepo.TouchLastUsed(ctx, key.ID, s.now()); err != nil {
		logger.Errorf("failed to touch api key %s: %v", key.ID, err)
	}
	return OutcomeKeyLinked, nil
}

// SweepVoicePoints awards one point per elapsed whole hour to every user
// currently in voice. Accrual is anchored to interval boundaries so repeated
// sweeps never drift. Per-user failures are logged and skipped.
func (s *AwardService) SweepVoicePoints(ctx context.Context) {
	users, err := s.userRepo.FindInVoice(ctx)
	if err != nil {
		logger.Errorf("voice sweep failed to list users: %v", err)
		return
	}
	for _, u := range users {
		if err := s.sweepUser(ctx, u.ID); err != nil {
			logger.Errorf("voice sweep failed for user %s: %v", u.ID, err)
		}
	}
}

func (s *AwardService) sweepUser(ctx context.Context, id string) error {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	// Refetch under the lock; the listing snapshot may be stale
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !user.InVoiceChannel || user.Points >= MaxPoints {
		return nil
	}
	reference := user.LastVoicePointEarned
	if reference == nil {
		reference = user.VoiceJoinedAt
	}
	if reference == nil {
		return nil
	}

	now := s.now()
	elapsed := now.Sub(*reference)
	if elapsed < VoicePointInterval {
		return nil
	}
	wholeIntervals := int(elapsed / VoicePointInterval)
	pointsToAward := wholeIntervals
	if max := MaxPoints - user.Points; pointsToAward > max {
		pointsToAward = max
	}
	if pointsToAward <= 0 {
		return nil
	}

	earned := now
	if err := s.userRepo.SetPoints(ctx, id, user.Points+pointsToAward, &earned); err != nil {
		return err
	}
	advanced := reference.Add(time.Duration(wholeIntervals) * VoicePointInterval)
	if err := s.userRepo.SetLastVoicePoint(ctx, id, &advanced); err != nil {
		// A stale reference would re-award the same hours on the next
		// sweep, so take the points back
		s.revertPoints(ctx, user)
		return err
	}

	channel := ""
	if user.VoiceChannelName != nil {
		channel = *user.VoiceChannelName
	}
	created := make([]string, 0, pointsToAward)
	for i := 0; i < pointsToAward; i++ {
		activity := &models.Activity{
			UserID:       id,
			Type:         models.ActivityVoice,
			Link:         channel,
			PointsEarned: 1,
			Timestamp:    now,
		}
		if err := s.activityRepo.Create(ctx, activity); err != nil {
			// Unwind the whole batch so committed points never outrun
			// their log records
			for _, createdID := range created {
				if derr := s.activityRepo.Delete(ctx, createdID); derr != nil {
					logger.Errorf("failed to remove voice activity %s for user %s: %v", createdID, id, derr)
				}
			}
			if rerr := s.userRepo.SetLastVoicePoint(ctx, id, user.LastVoicePointEarned); rerr != nil {
				logger.Errorf("failed to revert voice reference for user %s: %v", id, rerr)
			}
			s.revertPoints(ctx, user)
			return err
		}
		created = append(created, activity.ID)
	}
	logger.WithFields(map[string]interface{}{
		"userId": id,
		"points": pointsToAward,
	}).Info("awarded voice points")
	return nil
}
