package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/achievement-hub/api/datastore"
	"github.com/achievement-hub/api/models"
)

// GET /v1/progress
func (app *Application) getProgress(w http.ResponseWriter, r *http.Request) {
	user, err := app.getUserFromToken(w, r)
	if err != nil {
		app.invalidAuthorization(w, r, err)
		return
	}

	progress, err := app.ProgressRepo.Get(user.UserID)
	if err != nil {
		if datastore.IsNoRows(err) {
			// No record yet is a normal state for a fresh account.
			progress = models.UserProgress{UserID: user.UserID, UnlockedIDs: []int{}}
		} else {
			app.internalServerError(w, r, err)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(progress)
}

// POST /v1/progress/save
//
// Rapid saves coalesce: the write lands after the quiet period, latest
// snapshot wins. Total points are always rederived from the catalog.
func (app *Application) saveProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		app.requirePostMethod(w, r, ErrPOST)
		return
	}

	user, err := app.getUserFromToken(w, r)
	if err != nil {
		app.invalidAuthorization(w, r, err)
		return
	}

	var payload models.ProgressSaveRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		app.badJSONRequest(w, r, err)
		return
	}

	if payload.UnlockedIDs == nil {
		payload.UnlockedIDs = []int{}
	}
	totalPoints := app.Catalog.PointsFor(payload.UnlockedIDs)

	app.Saver.Queue(user.UserID, payload.UnlockedIDs, totalPoints)

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":     true,
		"totalPoints": totalPoints,
	})
}

// POST /v1/progress/sync
//
// Sign-in reconciliation: pushes the local snapshot when no remote record
// exists, otherwise returns the remote record as the authoritative state.
func (app *Application) syncProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		app.requirePostMethod(w, r, ErrPOST)
		return
	}

	user, err := app.getUserFromToken(w, r)
	if err != nil {
		app.invalidAuthorization(w, r, err)
		return
	}

	var payload models.ProgressSaveRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		app.badJSONRequest(w, r, err)
		return
	}

	if payload.UnlockedIDs == nil {
		payload.UnlockedIDs = []int{}
	}

	progress, err := app.Progress.SyncOnSignIn(user.UserID, payload.UnlockedIDs)
	if err != nil {
		app.operationError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":  true,
		"progress": progress,
	})
}

// POST /v1/progress/import
func (app *Application) importProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		app.requirePostMethod(w, r, ErrPOST)
		return
	}

	user, err := app.getUserFromToken(w, r)
	if err != nil {
		app.invalidAuthorization(w, r, err)
		return
	}

	var payload models.ProgressImportRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		app.badJSONRequest(w, r, err)
		return
	}

	updatedCount, err := app.Progress.Import(user.UserID, user.IsAdmin(), payload)
	if err != nil {
		app.operationError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":      true,
		"updatedCount": updatedCount,
	})
}

const maxLeaderboardLimit = 100

// GET /v1/leaderboard
func (app *Application) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	leaderboard, err := app.ProgressRepo.GetLeaderboard(limit)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if leaderboard == nil {
		leaderboard = []models.LeaderboardEntry{}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":     true,
		"leaderboard": leaderboard,
	})
}

// GET /v1/catalog/achievements
func (app *Application) getCatalog(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"achievements": app.Catalog.Achievements(),
		"areas":        app.Catalog.Areas(),
	})
}
