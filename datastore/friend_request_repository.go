package datastore

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/achievement-hub/api/models"
)

type FriendRequestRepository interface {
	Create(request models.FriendRequest) (models.FriendRequest, error)
	Get(requestID string) (models.FriendRequest, error)
	GetLiveBetween(uid, otherUID string) ([]models.FriendRequest, error)
	Accept(requestID string) (models.FriendRequest, error)
	Reject(requestID string) (models.FriendRequest, error)
	ListForUser(uid string) ([]models.FriendRequestSummary, error)
}

// IsUniqueViolation reports whether err is the Postgres duplicate-key error.
// The partial unique index on pair_key surfaces a lost send race this way.
func IsUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}

type FriendRequestDatabase struct {
	database *sql.DB
}

func NewFriendRequestDatabase(db *sql.DB) (FriendRequestDatabase, error) {
	var requestDB FriendRequestDatabase
	requestDB.database = db
	return requestDB, nil
}

func (frdb FriendRequestDatabase) Create(request models.FriendRequest) (models.FriendRequest, error) {
	db := frdb.database

	sqlStatement := `
		INSERT INTO friend_requests (request_id, from_uid, to_uid, status, pair_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING request_id, from_uid, to_uid, status, created_at, accepted_at, rejected_at`

	var created models.FriendRequest
	err := db.QueryRow(
		sqlStatement,
		request.RequestID,
		request.FromUID,
		request.ToUID,
		models.RequestStatusPending,
		models.PairKey(request.FromUID, request.ToUID),
		time.Now(),
	).Scan(
		&created.RequestID,
		&created.FromUID,
		&created.ToUID,
		&created.Status,
		&created.CreatedAt,
		&created.AcceptedAt,
		&created.RejectedAt,
	)
	if err != nil {
		return models.FriendRequest{}, err
	}
	return created, nil
}

func (frdb FriendRequestDatabase) Get(requestID string) (models.FriendRequest, error) {
	db := frdb.database

	sqlStatement := `
		SELECT request_id, from_uid, to_uid, status, created_at, accepted_at, rejected_at
		FROM friend_requests
		WHERE request_id = $1`

	var request models.FriendRequest
	scanErr := db.QueryRow(sqlStatement, requestID).Scan(
		&request.RequestID,
		&request.FromUID,
		&request.ToUID,
		&request.Status,
		&request.CreatedAt,
		&request.AcceptedAt,
		&request.RejectedAt,
	)

	switch scanErr {
	case sql.ErrNoRows:
		return models.FriendRequest{}, NoRowsError{true, scanErr}
	case nil:
		return request, nil
	default:
		return models.FriendRequest{}, scanErr
	}
}

// GetLiveBetween returns any pending or accepted requests between the pair,
// in either direction.
func (frdb FriendRequestDatabase) GetLiveBetween(uid, otherUID string) ([]models.FriendRequest, error) {
	db := frdb.database

	sqlStatement := `
		SELECT request_id, from_uid, to_uid, status, created_at, accepted_at, rejected_at
		FROM friend_requests
		WHERE pair_key = $1 AND status IN ($2, $3)`

	rows, err := db.Query(
		sqlStatement,
		models.PairKey(uid, otherUID),
		models.RequestStatusPending,
		models.RequestStatusAccepted,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []models.FriendRequest
	for rows.Next() {
		var request models.FriendRequest
		err := rows.Scan(
			&request.RequestID,
			&request.FromUID,
			&request.ToUID,
			&request.Status,
			&request.CreatedAt,
			&request.AcceptedAt,
			&request.RejectedAt,
		)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}

	return requests, rows.Err()
}

// Accept transitions a pending request to accepted and creates the mirrored
// friendship edges under both participants. The three writes share one
// transaction: they commit together or not at all.
func (frdb FriendRequestDatabase) Accept(requestID string) (models.FriendRequest, error) {
	db := frdb.database

	tx, err := db.Begin()
	if err != nil {
		return models.FriendRequest{}, err
	}

	updateStatement := `
		UPDATE friend_requests
		SET status = $2, accepted_at = NOW()
		WHERE request_id = $1 AND status = $3
		RETURNING request_id, from_uid, to_uid, status, created_at, accepted_at, rejected_at`

	var request models.FriendRequest
	err = tx.QueryRow(
		updateStatement,
		requestID,
		models.RequestStatusAccepted,
		models.RequestStatusPending,
	).Scan(
		&request.RequestID,
		&request.FromUID,
		&request.ToUID,
		&request.Status,
		&request.CreatedAt,
		&request.AcceptedAt,
		&request.RejectedAt,
	)
	if err != nil {
		tx.Rollback()
		if err == sql.ErrNoRows {
			return models.FriendRequest{}, NoRowsError{true, err}
		}
		return models.FriendRequest{}, err
	}

	// ON CONFLICT DO NOTHING keeps this idempotent against the sender-side
	// self-heal write racing the accept.
	edgeStatement := `
		INSERT INTO friendship_edges (owner_uid, friend_uid, since)
		VALUES ($1, $2, NOW())
		ON CONFLICT (owner_uid, friend_uid) DO NOTHING`

	if _, err := tx.Exec(edgeStatement, request.ToUID, request.FromUID); err != nil {
		tx.Rollback()
		return models.FriendRequest{}, err
	}
	if _, err := tx.Exec(edgeStatement, request.FromUID, request.ToUID); err != nil {
		tx.Rollback()
		return models.FriendRequest{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.FriendRequest{}, err
	}
	return request, nil
}

// Reject marks a pending request rejected. No edge changes.
func (frdb FriendRequestDatabase) Reject(requestID string) (models.FriendRequest, error) {
	db := frdb.database

	sqlStatement := `
		UPDATE friend_requests
		SET status = $2, rejected_at = NOW()
		WHERE request_id = $1 AND status = $3
		RETURNING request_id, from_uid, to_uid, status, created_at, accepted_at, rejected_at`

	var request models.FriendRequest
	err := db.QueryRow(
		sqlStatement,
		requestID,
		models.RequestStatusRejected,
		models.RequestStatusPending,
	).Scan(
		&request.RequestID,
		&request.FromUID,
		&request.ToUID,
		&request.Status,
		&request.CreatedAt,
		&request.AcceptedAt,
		&request.RejectedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.FriendRequest{}, NoRowsError{true, err}
		}
		return models.FriendRequest{}, err
	}
	return request, nil
}

// ListForUser returns pending requests in both directions for one user.
func (frdb FriendRequestDatabase) ListForUser(uid string) ([]models.FriendRequestSummary, error) {
	db := frdb.database

	sqlStatement := `
		SELECT fr.request_id, fr.created_at, fr.status,
			CASE WHEN fr.to_uid = $1 THEN 'incoming' ELSE 'outgoing' END AS direction,
			CASE WHEN fr.to_uid = $1 THEN fr.from_uid ELSE fr.to_uid END AS peer_uid,
			COALESCE(up.display_name, '') AS peer_name
		FROM friend_requests fr
		LEFT JOIN users_public up
			ON up.user_id = CASE WHEN fr.to_uid = $1 THEN fr.from_uid ELSE fr.to_uid END
		WHERE (fr.from_uid = $1 OR fr.to_uid = $1) AND fr.status = $2
		ORDER BY fr.created_at DESC`

	rows, err := db.Query(sqlStatement, uid, models.RequestStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []models.FriendRequestSummary
	for rows.Next() {
		var request models.FriendRequestSummary
		err := rows.Scan(
			&request.RequestID,
			&request.CreatedAt,
			&request.Status,
			&request.Direction,
			&request.PeerUID,
			&request.PeerName,
		)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}

	return requests, rows.Err()
}
