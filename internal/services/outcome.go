package services

import "github.com/Kurdishgpt/Slaw/internal/models"

// OutcomeCode identifies why an event did or did not award points. Codes are
// stable strings so the gateway adapter and API responses can switch on them.
type OutcomeCode string

const (
	OutcomeAwarded           OutcomeCode = "awarded"
	OutcomeMaxPointsReached  OutcomeCode = "max_points_reached"
	OutcomeDailyLimitReached OutcomeCode = "daily_limit_reached"
	OutcomeDuplicateLink     OutcomeCode = "duplicate_link"
	OutcomeCooldownActive    OutcomeCode = "cooldown_active"
	OutcomeExtractionFailed  OutcomeCode = "extraction_failed"

	OutcomeKeyNotFound      OutcomeCode = "key_not_found"
	OutcomeKeyAlreadyLinked OutcomeCode = "key_already_linked"
	OutcomeKeyLinked        OutcomeCode = "key_linked"
)

// AwardResult describes the decision taken for a link message. Points,
// DailyLinksPosted and LinksLeft reflect the user's state after the decision;
// RemainingHours is only set for cooldown rejections.
type AwardResult struct {
	Code             OutcomeCode
	Type             models.ActivityType
	Points           int
	DailyLinksPosted int
	RemainingHours   int
	LinksLeft        int
}
