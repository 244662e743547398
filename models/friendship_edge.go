package models

import "time"

// FriendshipEdge is one direction of an accepted friendship, stored under the
// owning user. Edges always exist as a mirrored pair; they are only created by
// the accept transition, never directly.
type FriendshipEdge struct {
	OwnerUID  string    `json:"ownerUid" db:"owner_uid"`
	FriendUID string    `json:"friendUid" db:"friend_uid"`
	Since     time.Time `json:"since" db:"since"`
}

// FriendSummary is an accepted friendship with the other user's public data.
type FriendSummary struct {
	FriendUID   string    `json:"friendUid"`
	DisplayName string    `json:"displayName"`
	PhotoURL    string    `json:"photoURL,omitempty"`
	Since       time.Time `json:"since"`
}
