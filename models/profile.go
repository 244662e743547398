package models

import (
	"strings"
	"time"
)

// PublicProfile is the only entity visible to non-friends. SearchName is
// always the lowercased, trimmed display name; the repository derives it on
// every write so the prefix index never drifts from the display name.
type PublicProfile struct {
	UserID      string    `json:"uid" db:"user_id"`
	DisplayName string    `json:"displayName" db:"display_name"`
	SearchName  string    `json:"searchName" db:"search_name"`
	PhotoURL    string    `json:"photoURL,omitempty" db:"photo_url"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// NormalizeSearchName produces the key the prefix range query runs over.
func NormalizeSearchName(displayName string) string {
	return strings.ToLower(strings.TrimSpace(displayName))
}

type ProfileUpdateRequest struct {
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
}

// ProfileSearchResult is one match from the public profile search.
type ProfileSearchResult struct {
	UserID      string `json:"uid"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL,omitempty"`
}

// FriendProfile merges a friend's public profile with their private progress.
// Only returned after the edge-based admission check passes.
type FriendProfile struct {
	UserID      string `json:"uid"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL,omitempty"`
	UnlockedIDs []int  `json:"unlockedIds"`
	TotalPoints int    `json:"totalPoints"`
}
