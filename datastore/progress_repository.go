package datastore

import (
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/lib/pq"

	"github.com/achievement-hub/api/models"
)

type ProgressRepository interface {
	Get(userID string) (models.UserProgress, error)
	Save(userID string, unlockedIDs []int, totalPoints int) (models.UserProgress, error)
	Import(userID string, unlockedIDs []int, totalPoints int, merge bool) (int, error)
	GetLeaderboard(limit int) ([]models.LeaderboardEntry, error)
	BackupAll(backupTable string) (int, error)
}

type ProgressDatabase struct {
	database *sql.DB
}

func NewProgressDatabase(db *sql.DB) (ProgressDatabase, error) {
	var progressDB ProgressDatabase
	progressDB.database = db
	return progressDB, nil
}

func (pgdb ProgressDatabase) Get(userID string) (models.UserProgress, error) {
	db := pgdb.database

	sqlStatement := `
		SELECT user_id, unlocked_ids, total_points, last_updated
		FROM user_progress
		WHERE user_id = $1`

	var progress models.UserProgress
	var unlocked pq.Int64Array
	scanErr := db.QueryRow(sqlStatement, userID).Scan(
		&progress.UserID,
		&unlocked,
		&progress.TotalPoints,
		&progress.LastUpdated,
	)

	switch scanErr {
	case sql.ErrNoRows:
		return models.UserProgress{}, NoRowsError{true, scanErr}
	case nil:
		progress.UnlockedIDs = fromInt64Array(unlocked)
		return progress, nil
	default:
		return models.UserProgress{}, scanErr
	}
}

// Save overwrites the progress record. Last writer wins per the merge policy;
// there is no per-field reconciliation here.
func (pgdb ProgressDatabase) Save(userID string, unlockedIDs []int, totalPoints int) (models.UserProgress, error) {
	db := pgdb.database

	sqlStatement := `
		INSERT INTO user_progress (user_id, unlocked_ids, total_points, last_updated)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id)
		DO UPDATE SET
			unlocked_ids = EXCLUDED.unlocked_ids,
			total_points = EXCLUDED.total_points,
			last_updated = EXCLUDED.last_updated
		RETURNING user_id, unlocked_ids, total_points, last_updated`

	var progress models.UserProgress
	var unlocked pq.Int64Array
	err := db.QueryRow(
		sqlStatement,
		userID,
		toInt64Array(unlockedIDs),
		totalPoints,
		time.Now(),
	).Scan(
		&progress.UserID,
		&unlocked,
		&progress.TotalPoints,
		&progress.LastUpdated,
	)
	if err != nil {
		return models.UserProgress{}, err
	}
	progress.UnlockedIDs = fromInt64Array(unlocked)
	return progress, nil
}

// Import writes an imported snapshot. With merge the unlocked set is unioned
// with the stored one; without it the snapshot replaces the record. Returns
// the final unlocked count.
func (pgdb ProgressDatabase) Import(userID string, unlockedIDs []int, totalPoints int, merge bool) (int, error) {
	finalSet := make(map[int]bool)
	for _, id := range unlockedIDs {
		finalSet[id] = true
	}

	if merge {
		existing, err := pgdb.Get(userID)
		if err != nil && !IsNoRows(err) {
			return 0, err
		}
		for _, id := range existing.UnlockedIDs {
			finalSet[id] = true
		}
	}

	finalIDs := make([]int, 0, len(finalSet))
	for id := range finalSet {
		finalIDs = append(finalIDs, id)
	}

	if _, err := pgdb.Save(userID, finalIDs, totalPoints); err != nil {
		return 0, err
	}
	return len(finalIDs), nil
}

func (pgdb ProgressDatabase) GetLeaderboard(limit int) ([]models.LeaderboardEntry, error) {
	db := pgdb.database
	if limit <= 0 {
		limit = 10
	}

	sqlStatement := `
		SELECT
			ROW_NUMBER() OVER (ORDER BY up.total_points DESC, up.last_updated ASC) as rank,
			up.user_id,
			COALESCE(p.display_name, '') AS display_name,
			up.total_points,
			up.last_updated
		FROM user_progress up
		LEFT JOIN users_public p ON p.user_id = up.user_id
		ORDER BY up.total_points DESC, up.last_updated ASC
		LIMIT $1`

	rows, err := db.Query(sqlStatement, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.LeaderboardEntry
	for rows.Next() {
		var entry models.LeaderboardEntry
		err := rows.Scan(
			&entry.Rank,
			&entry.UserID,
			&entry.DisplayName,
			&entry.TotalPoints,
			&entry.LastUpdated,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

var backupTablePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]{0,62}$`)

// BackupAll copies every progress record into the named backup table,
// stamping each row with the backup time. Table names cannot be bound as
// query parameters, hence the identifier allowlist.
func (pgdb ProgressDatabase) BackupAll(backupTable string) (int, error) {
	db := pgdb.database

	if backupTable == "" {
		backupTable = "user_progress_backup"
	}
	if !backupTablePattern.MatchString(backupTable) {
		return 0, fmt.Errorf("invalid backup table name %q", backupTable)
	}

	createStatement := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			user_id VARCHAR(64) NOT NULL,
			unlocked_ids INTEGER[] NOT NULL DEFAULT '{}',
			total_points INTEGER NOT NULL DEFAULT 0,
			last_updated TIMESTAMPTZ,
			backed_up_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, backupTable)

	if _, err := db.Exec(createStatement); err != nil {
		return 0, err
	}

	copyStatement := fmt.Sprintf(`
		INSERT INTO %s (user_id, unlocked_ids, total_points, last_updated)
		SELECT user_id, unlocked_ids, total_points, last_updated
		FROM user_progress`, backupTable)

	result, err := db.Exec(copyStatement)
	if err != nil {
		return 0, err
	}

	copied, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(copied), nil
}

func toInt64Array(ids []int) pq.Int64Array {
	out := make(pq.Int64Array, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}

func fromInt64Array(ids pq.Int64Array) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}
