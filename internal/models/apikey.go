package models

import (
	"time"
)

// APIKey is a dashboard credential. A key may be linked to at most one user
// (enforced by the login flow, not here).
type APIKey struct {
	ID        string     `bson:"_id" json:"id"`
	Key       string     `bson:"key" json:"key"`
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
	LastUsed  *time.Time `bson:"lastUsed,omitempty" json:"lastUsed,omitempty"`
}
