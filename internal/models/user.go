package models

import (
	"time"
)

// User represents a Discord member tracked by the points system. The Discord
// snowflake is the primary key; profile fields are a mirror refreshed on every
// observed event.
type User struct {
	ID                   string     `bson:"_id" json:"id"`
	Username             string     `bson:"username" json:"username"`
	Discriminator        *string    `bson:"discriminator,omitempty" json:"discriminator,omitempty"`
	Avatar               *string    `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Points               int        `bson:"points" json:"points"`
	LastPointEarned      *time.Time `bson:"lastPointEarned,omitempty" json:"lastPointEarned,omitempty"`
	DailyLinksPosted     int        `bson:"dailyLinksPosted" json:"dailyLinksPosted"`
	LastDailyReset       *time.Time `bson:"lastDailyReset,omitempty" json:"lastDailyReset,omitempty"`
	LinkedAPIKey         *string    `bson:"linkedApiKey,omitempty" json:"linkedApiKey,omitempty"`
	InVoiceChannel       bool       `bson:"inVoiceChannel" json:"inVoiceChannel"`
	VoiceChannelName     *string    `bson:"voiceChannelName,omitempty" json:"voiceChannelName,omitempty"`
	VoiceJoinedAt        *time.Time `bson:"voiceJoinedAt,omitempty" json:"voiceJoinedAt,omitempty"`
	LastVoicePointEarned *time.Time `bson:"lastVoicePointEarned,omitempty" json:"lastVoicePointEarned,omitempty"`
	CreatedAt            time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt            time.Time  `bson:"updatedAt" json:"updatedAt"`
}
