package models

import (
	"time"
)

// ActivityType identifies what earned the point.
type ActivityType string

const (
	ActivityLinkPaste  ActivityType = "link-paste"
	ActivityLinkInvite ActivityType = "link-invite"
	ActivityVoice      ActivityType = "voice"
)

// Activity is one point transaction. Link is the canonical lowercased link for
// link kinds and the voice channel name for voice kinds; it doubles as the
// global dedupe key for link awards. Multi-hour voice batches are recorded as
// N separate 1-point records.
type Activity struct {
	ID           string       `bson:"_id" json:"id"`
	UserID       string       `bson:"userId" json:"userId"`
	Type         ActivityType `bson:"type" json:"type"`
	Link         string       `bson:"link" json:"link"`
	MessageID    *string      `bson:"messageId,omitempty" json:"messageId,omitempty"`
	PointsEarned int          `bson:"pointsEarned" json:"pointsEarned"`
	Timestamp    time.Time    `bson:"timestamp" json:"timestamp"`
}
