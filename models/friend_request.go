package models

import "time"

const (
	RequestStatusPending  = "pending"
	RequestStatusAccepted = "accepted"
	RequestStatusRejected = "rejected"
)

const (
	DirectionIncoming = "incoming"
	DirectionOutgoing = "outgoing"
)

// FriendRequest is one ledger record. FromUID/ToUID never change after
// creation; pending is the only mutable status.
type FriendRequest struct {
	RequestID  string     `json:"requestId" db:"request_id"`
	FromUID    string     `json:"fromUid" db:"from_uid"`
	ToUID      string     `json:"toUid" db:"to_uid"`
	Status     string     `json:"status" db:"status"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
	AcceptedAt *time.Time `json:"acceptedAt,omitempty" db:"accepted_at"`
	RejectedAt *time.Time `json:"rejectedAt,omitempty" db:"rejected_at"`
}

// Live reports whether this record blocks a new request for its pair.
func (fr FriendRequest) Live() bool {
	return fr.Status == RequestStatusPending || fr.Status == RequestStatusAccepted
}

// PairKey is the deterministic identity of the unordered pair {a, b}. A
// partial unique index on this key is what guarantees at most one live
// request per pair even under concurrent sends from both sides.
func PairKey(a, b string) string {
	if a < b {
		return a + ":" + b
	}
	return b + ":" + a
}

// FriendRequestSummary is a pending request as shown to one participant.
type FriendRequestSummary struct {
	RequestID string    `json:"requestId"`
	Direction string    `json:"direction"`
	PeerUID   string    `json:"peerUid"`
	PeerName  string    `json:"peerName"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}
