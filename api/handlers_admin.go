package api

import (
	"encoding/json"
	"net/http"

	"github.com/achievement-hub/api/pkg/logger"
)

// POST /v1/admin/backup
func (app *Application) backupAllUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		app.requirePostMethod(w, r, ErrPOST)
		return
	}

	var payload struct {
		BackupCollectionName string `json:"backupCollectionName"`
	}
	// An empty body means the default backup destination.
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	backedUp, err := app.ProgressRepo.BackupAll(payload.BackupCollectionName)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	logger.Info("backed up user progress", "count", backedUp, "destination", payload.BackupCollectionName)

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":  true,
		"backedUp": backedUp,
	})
}
