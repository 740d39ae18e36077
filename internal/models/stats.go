package models

import (
	"time"
)

// DashboardStats is the aggregate view served to the dashboard.
type DashboardStats struct {
	TotalUsers  int64     `json:"totalUsers"`
	TotalPoints int64     `json:"totalPoints"`
	ActiveToday int64     `json:"activeToday"`
	LinksPosted int64     `json:"linksPosted"`
	BotStatus   string    `json:"botStatus"`
	LastSync    time.Time `json:"lastSync"`
}
