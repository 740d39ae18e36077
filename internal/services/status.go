package services

import (
	"sync"
	"time"
)

// BotStatusTracker records whether the gateway connection is up and when the
// stores were last touched by it. It backs the dashboard's status fields.
type BotStatusTracker struct {
	mu       sync.RWMutex
	online   bool
	lastSync time.Time
}

// NewBotStatusTracker creates a tracker in the offline state
func NewBotStatusTracker() *BotStatusTracker {
	return &BotStatusTracker{}
}

// SetOnline marks the gateway connection up or down
func (t *BotStatusTracker) SetOnline(online bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.online = online
	t.lastSync = time.Now()
}

// Touch bumps lastSync without changing the online flag
func (t *BotStatusTracker) Touch() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastSync = time.Now()
}

// Status returns the current state as the dashboard string plus lastSync
func (t *BotStatusTracker) Status() (string, time.Time) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.online {
		return "online", t.lastSync
	}
	return "offline", t.lastSync
}
