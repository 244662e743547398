package models

import "time"

type LeaderboardEntry struct {
	Rank        int        `json:"rank"`
	UserID      string     `json:"uid"`
	DisplayName string     `json:"displayName"`
	TotalPoints int        `json:"totalPoints"`
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
}
