package datastore

import (
	"database/sql"
	"time"

	"github.com/achievement-hub/api/models"
)

// HighSentinel bounds the prefix range query: every search_name starting
// with q sorts inside [q, q+HighSentinel].
const HighSentinel = "\uf8ff"

type ProfileRepository interface {
	Upsert(profile models.PublicProfile) (models.PublicProfile, error)
	Get(userID string) (models.PublicProfile, error)
	SearchPrefix(normalizedQuery string, limit int) ([]models.PublicProfile, error)
	ScanPage(limit int) ([]models.PublicProfile, error)
}

type ProfileDatabase struct {
	database *sql.DB
}

func NewProfileDatabase(db *sql.DB) (ProfileDatabase, error) {
	var profileDB ProfileDatabase
	profileDB.database = db
	return profileDB, nil
}

// Upsert writes a public profile, always rederiving search_name from the
// display name so the prefix index cannot drift.
func (pdb ProfileDatabase) Upsert(profile models.PublicProfile) (models.PublicProfile, error) {
	db := pdb.database

	profile.SearchName = models.NormalizeSearchName(profile.DisplayName)
	profile.UpdatedAt = time.Now()

	sqlStatement := `
		INSERT INTO users_public (user_id, display_name, search_name, photo_url, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id)
		DO UPDATE SET
			display_name = EXCLUDED.display_name,
			search_name = EXCLUDED.search_name,
			photo_url = EXCLUDED.photo_url,
			updated_at = EXCLUDED.updated_at
		RETURNING user_id, display_name, search_name, photo_url, updated_at`

	var saved models.PublicProfile
	err := db.QueryRow(
		sqlStatement,
		profile.UserID,
		profile.DisplayName,
		profile.SearchName,
		profile.PhotoURL,
		profile.UpdatedAt,
	).Scan(
		&saved.UserID,
		&saved.DisplayName,
		&saved.SearchName,
		&saved.PhotoURL,
		&saved.UpdatedAt,
	)
	if err != nil {
		return models.PublicProfile{}, err
	}
	return saved, nil
}

func (pdb ProfileDatabase) Get(userID string) (models.PublicProfile, error) {
	db := pdb.database

	sqlStatement := `
		SELECT user_id, display_name, search_name, photo_url, updated_at
		FROM users_public
		WHERE user_id = $1`

	var profile models.PublicProfile
	scanErr := db.QueryRow(sqlStatement, userID).Scan(
		&profile.UserID,
		&profile.DisplayName,
		&profile.SearchName,
		&profile.PhotoURL,
		&profile.UpdatedAt,
	)

	switch scanErr {
	case sql.ErrNoRows:
		return models.PublicProfile{}, NoRowsError{true, scanErr}
	case nil:
		return profile, nil
	default:
		return models.PublicProfile{}, scanErr
	}
}

// SearchPrefix runs the half-open range query over search_name.
func (pdb ProfileDatabase) SearchPrefix(normalizedQuery string, limit int) ([]models.PublicProfile, error) {
	db := pdb.database
	if limit <= 0 {
		limit = 100
	}

	sqlStatement := `
		SELECT user_id, display_name, search_name, photo_url, updated_at
		FROM users_public
		WHERE search_name >= $1 AND search_name <= $2
		ORDER BY search_name ASC
		LIMIT $3`

	rows, err := db.Query(sqlStatement, normalizedQuery, normalizedQuery+HighSentinel, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanProfiles(rows)
}

// ScanPage returns a bounded page of profiles for the zero-result fallback.
func (pdb ProfileDatabase) ScanPage(limit int) ([]models.PublicProfile, error) {
	db := pdb.database
	if limit <= 0 {
		limit = 500
	}

	sqlStatement := `
		SELECT user_id, display_name, search_name, photo_url, updated_at
		FROM users_public
		ORDER BY search_name ASC
		LIMIT $1`

	rows, err := db.Query(sqlStatement, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanProfiles(rows)
}

func scanProfiles(rows *sql.Rows) ([]models.PublicProfile, error) {
	var profiles []models.PublicProfile
	for rows.Next() {
		var profile models.PublicProfile
		err := rows.Scan(
			&profile.UserID,
			&profile.DisplayName,
			&profile.SearchName,
			&profile.PhotoURL,
			&profile.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, rows.Err()
}
