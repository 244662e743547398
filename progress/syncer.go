// Package progress merges locally-tracked achievement state with the
// server-stored record and coalesces rapid local mutations into single
// writes.
package progress

import (
	"github.com/achievement-hub/api/catalog"
	"github.com/achievement-hub/api/datastore"
	"github.com/achievement-hub/api/models"
	"github.com/achievement-hub/api/pkg/apperr"
	"github.com/achievement-hub/api/pkg/logger"
)

type Syncer struct {
	Progress datastore.ProgressRepository
	Catalog  *catalog.Catalog
}

func NewSyncer(progressRepo datastore.ProgressRepository, cat *catalog.Catalog) *Syncer {
	return &Syncer{
		Progress: progressRepo,
		Catalog:  cat,
	}
}

// SyncOnSignIn reconciles a local unlocked snapshot with the server record.
// No remote record: the local snapshot is pushed and becomes the record.
// Remote record present: it wins outright, and the caller replaces local
// state with the returned record. Never a union.
func (s *Syncer) SyncOnSignIn(uid string, localUnlocked []int) (models.UserProgress, error) {
	if uid == "" {
		return models.UserProgress{}, apperr.New(apperr.CodeUnauthenticated, "sign in required")
	}

	remote, err := s.Progress.Get(uid)
	if err != nil {
		if !datastore.IsNoRows(err) {
			return models.UserProgress{}, apperr.Wrap(err, apperr.CodeInternal, "failed to load progress")
		}

		points := s.Catalog.PointsFor(localUnlocked)
		pushed, saveErr := s.Progress.Save(uid, localUnlocked, points)
		if saveErr != nil {
			return models.UserProgress{}, apperr.Wrap(saveErr, apperr.CodeInternal, "failed to push local progress")
		}
		logger.Info("pushed local progress as new remote record", "uid", uid, "unlocked", len(localUnlocked))
		return pushed, nil
	}

	return remote, nil
}

// Import applies an imported snapshot on behalf of targetUID. Only the user
// themselves or an admin may import. merge unions the unlocked sets; without
// it the snapshot replaces the record. Returns the final unlocked count.
func (s *Syncer) Import(requesterUID string, requesterIsAdmin bool, request models.ProgressImportRequest) (int, error) {
	if requesterUID == "" {
		return 0, apperr.New(apperr.CodeUnauthenticated, "sign in required")
	}
	if request.UID == "" {
		return 0, apperr.New(apperr.CodeInvalidArgument, "target uid is required")
	}
	if requesterUID != request.UID && !requesterIsAdmin {
		return 0, apperr.New(apperr.CodePermissionDenied, "cannot import progress for another user")
	}

	merge := true
	if request.Merge != nil {
		merge = *request.Merge
	}

	updated, err := s.Progress.Import(request.UID, request.UnlockedIDs, request.TotalPoints, merge)
	if err != nil {
		return 0, apperr.Wrap(err, apperr.CodeInternal, "failed to import progress")
	}

	logger.Info("imported progress", "uid", request.UID, "updatedCount", updated, "merge", merge)
	return updated, nil
}
