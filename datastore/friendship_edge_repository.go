package datastore

import (
	"database/sql"

	"github.com/achievement-hub/api/models"
)

type FriendshipEdgeRepository interface {
	Exists(ownerUID, friendUID string) (bool, error)
	CreateIfAbsent(ownerUID, friendUID string) error
	ListForOwner(ownerUID string) ([]models.FriendSummary, error)
	ListUIDsForOwner(ownerUID string) ([]string, error)
}

type FriendshipEdgeDatabase struct {
	database *sql.DB
}

func NewFriendshipEdgeDatabase(db *sql.DB) (FriendshipEdgeDatabase, error) {
	var edgeDB FriendshipEdgeDatabase
	edgeDB.database = db
	return edgeDB, nil
}

func (fedb FriendshipEdgeDatabase) Exists(ownerUID, friendUID string) (bool, error) {
	db := fedb.database

	sqlStatement := `
		SELECT EXISTS (
			SELECT 1 FROM friendship_edges
			WHERE owner_uid = $1 AND friend_uid = $2
		)`

	var exists bool
	if err := db.QueryRow(sqlStatement, ownerUID, friendUID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// CreateIfAbsent writes one edge, tolerating an existing record. Used by the
// sender-side self-heal; the accept transaction is the normal creator.
func (fedb FriendshipEdgeDatabase) CreateIfAbsent(ownerUID, friendUID string) error {
	db := fedb.database

	sqlStatement := `
		INSERT INTO friendship_edges (owner_uid, friend_uid, since)
		VALUES ($1, $2, NOW())
		ON CONFLICT (owner_uid, friend_uid) DO NOTHING`

	_, err := db.Exec(sqlStatement, ownerUID, friendUID)
	return err
}

func (fedb FriendshipEdgeDatabase) ListForOwner(ownerUID string) ([]models.FriendSummary, error) {
	db := fedb.database

	sqlStatement := `
		SELECT fe.friend_uid, COALESCE(up.display_name, ''), COALESCE(up.photo_url, ''), fe.since
		FROM friendship_edges fe
		LEFT JOIN users_public up ON up.user_id = fe.friend_uid
		WHERE fe.owner_uid = $1
		ORDER BY fe.since DESC`

	rows, err := db.Query(sqlStatement, ownerUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var friends []models.FriendSummary
	for rows.Next() {
		var friend models.FriendSummary
		err := rows.Scan(
			&friend.FriendUID,
			&friend.DisplayName,
			&friend.PhotoURL,
			&friend.Since,
		)
		if err != nil {
			return nil, err
		}
		friends = append(friends, friend)
	}

	return friends, rows.Err()
}

func (fedb FriendshipEdgeDatabase) ListUIDsForOwner(ownerUID string) ([]string, error) {
	db := fedb.database

	sqlStatement := `
		SELECT friend_uid FROM friendship_edges
		WHERE owner_uid = $1`

	rows, err := db.Query(sqlStatement, ownerUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var uids []string
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, err
		}
		uids = append(uids, uid)
	}

	return uids, rows.Err()
}
