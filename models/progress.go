package models

import "time"

// UserProgress is the private per-user progress record. TotalPoints is
// derived from the unlocked set by the caller; the store keeps whatever the
// last writer sent.
type UserProgress struct {
	UserID      string    `json:"userId" db:"user_id"`
	UnlockedIDs []int     `json:"unlockedIds" db:"unlocked_ids"`
	TotalPoints int       `json:"totalPoints" db:"total_points"`
	LastUpdated time.Time `json:"lastUpdated" db:"last_updated"`
}

type ProgressSaveRequest struct {
	UnlockedIDs []int `json:"unlockedIds"`
	TotalPoints int   `json:"totalPoints"`
}

type ProgressImportRequest struct {
	UID         string `json:"uid"`
	UnlockedIDs []int  `json:"unlockedIds"`
	TotalPoints int    `json:"totalPoints"`
	Merge       *bool  `json:"merge"`
}
