package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/achievement-hub/api/models"
	"github.com/achievement-hub/api/pkg/apperr"
)

func TestGetProgressDefaultsForFreshAccount(t *testing.T) {
	ta := newTestApp(t)
	user := ta.addUser(t, "ana", "Ana")

	recorder := doJSON(t, ta.app.getProgress, http.MethodGet, "/v1/progress", ta.tokenFor(t, user), nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	body := decodeBody(t, recorder)
	assert.Equal(t, []interface{}{}, body["unlockedIds"])
	assert.Equal(t, float64(0), body["totalPoints"])
}

func TestSaveProgressRederivesPoints(t *testing.T) {
	ta := newTestApp(t)
	user := ta.addUser(t, "ana", "Ana")

	// The client-claimed total is ignored; the catalog decides.
	recorder := doJSON(t, ta.app.saveProgress, http.MethodPost, "/v1/progress/save", ta.tokenFor(t, user),
		models.ProgressSaveRequest{UnlockedIDs: []int{1, 2}, TotalPoints: 999})
	require.Equal(t, http.StatusOK, recorder.Code)

	body := decodeBody(t, recorder)
	assert.Equal(t, float64(30), body["totalPoints"])

	// The write is debounced; nothing lands until the saver flushes.
	_, err := ta.progressRepo.Get("ana")
	assert.Error(t, err)

	require.NoError(t, ta.app.Saver.Flush())

	saved, err := ta.progressRepo.Get("ana")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, saved.UnlockedIDs)
	assert.Equal(t, 30, saved.TotalPoints)
}

func TestSyncProgressPushesLocalWhenNoRemote(t *testing.T) {
	ta := newTestApp(t)
	user := ta.addUser(t, "ana", "Ana")

	recorder := doJSON(t, ta.app.syncProgress, http.MethodPost, "/v1/progress/sync", ta.tokenFor(t, user),
		models.ProgressSaveRequest{UnlockedIDs: []int{1}})
	require.Equal(t, http.StatusOK, recorder.Code)

	progressBody := decodeBody(t, recorder)["progress"].(map[string]interface{})
	assert.Equal(t, []interface{}{float64(1)}, progressBody["unlockedIds"])
	assert.Equal(t, float64(10), progressBody["totalPoints"])
}

func TestSyncProgressRemoteWins(t *testing.T) {
	ta := newTestApp(t)
	user := ta.addUser(t, "ana", "Ana")
	_, err := ta.progressRepo.Save("ana", []int{1, 2}, 30)
	require.NoError(t, err)

	recorder := doJSON(t, ta.app.syncProgress, http.MethodPost, "/v1/progress/sync", ta.tokenFor(t, user),
		models.ProgressSaveRequest{UnlockedIDs: []int{3}})
	require.Equal(t, http.StatusOK, recorder.Code)

	progressBody := decodeBody(t, recorder)["progress"].(map[string]interface{})
	assert.Equal(t, []interface{}{float64(1), float64(2)}, progressBody["unlockedIds"])

	// The remote record is untouched by the smaller local snapshot.
	saved, err := ta.progressRepo.Get("ana")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, saved.UnlockedIDs)
}

func TestImportProgressForOtherUserForbidden(t *testing.T) {
	ta := newTestApp(t)
	user := ta.addUser(t, "ana", "Ana")
	ta.addUser(t, "bob", "Bob")

	recorder := doJSON(t, ta.app.importProgress, http.MethodPost, "/v1/progress/import", ta.tokenFor(t, user),
		models.ProgressImportRequest{UID: "bob", UnlockedIDs: []int{1}})

	require.Equal(t, http.StatusForbidden, recorder.Code)
	assert.Equal(t, string(apperr.CodePermissionDenied), decodeBody(t, recorder)["code"])
}

func TestImportProgressMergesByDefault(t *testing.T) {
	ta := newTestApp(t)
	user := ta.addUser(t, "ana", "Ana")
	_, err := ta.progressRepo.Save("ana", []int{1}, 10)
	require.NoError(t, err)

	recorder := doJSON(t, ta.app.importProgress, http.MethodPost, "/v1/progress/import", ta.tokenFor(t, user),
		models.ProgressImportRequest{UID: "ana", UnlockedIDs: []int{2}, TotalPoints: 30})
	require.Equal(t, http.StatusOK, recorder.Code)

	body := decodeBody(t, recorder)
	assert.Equal(t, float64(2), body["updatedCount"])

	saved, err := ta.progressRepo.Get("ana")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2}, saved.UnlockedIDs)
}

func TestLeaderboardHandler(t *testing.T) {
	ta := newTestApp(t)
	_, err := ta.progressRepo.Save("ana", []int{1, 2, 3}, 60)
	require.NoError(t, err)

	recorder := doJSON(t, ta.app.getLeaderboard, http.MethodGet, "/v1/leaderboard?limit=5", "", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	body := decodeBody(t, recorder)
	assert.Equal(t, true, body["success"])
	assert.Len(t, body["leaderboard"].([]interface{}), 1)
}

func TestLeaderboardHandlerClampsLimit(t *testing.T) {
	ta := newTestApp(t)

	recorder := doJSON(t, ta.app.getLeaderboard, http.MethodGet, "/v1/leaderboard?limit=100000", "", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	require.Len(t, ta.progressRepo.leaderboardLimits, 1)
	assert.Equal(t, maxLeaderboardLimit, ta.progressRepo.leaderboardLimits[0])
}

func TestGetCatalogHandler(t *testing.T) {
	ta := newTestApp(t)

	recorder := doJSON(t, ta.app.getCatalog, http.MethodGet, "/v1/catalog/achievements", "", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	body := decodeBody(t, recorder)
	assert.Len(t, body["achievements"].([]interface{}), 3)
	assert.Len(t, body["areas"].([]interface{}), 1)
}

func TestBackupAllUsersHandler(t *testing.T) {
	ta := newTestApp(t)
	_, err := ta.progressRepo.Save("ana", []int{1}, 10)
	require.NoError(t, err)

	recorder := doJSON(t, ta.app.backupAllUsers, http.MethodPost, "/v1/admin/backup",
		"", map[string]string{"backupCollectionName": "snapshot_2026"})
	require.Equal(t, http.StatusOK, recorder.Code)

	body := decodeBody(t, recorder)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["backedUp"])
}
