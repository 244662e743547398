// Package friends implements the friend-request state machine over the
// request ledger and the friendship edge store.
//
// States per unordered pair {A,B}:
//
//	NoRelation -> PendingAtoB | PendingBtoA -> Accepted | Rejected
//
// Accepted and Rejected are terminal for a request record; after a rejection
// a fresh request reopens the pair and re-runs every uniqueness check.
package friends

import (
	"github.com/google/uuid"

	"github.com/achievement-hub/api/datastore"
	"github.com/achievement-hub/api/models"
	"github.com/achievement-hub/api/pkg/apperr"
	"github.com/achievement-hub/api/pkg/logger"
)

type Service struct {
	Profiles datastore.ProfileRepository
	Requests datastore.FriendRequestRepository
	Edges    datastore.FriendshipEdgeRepository
	Progress datastore.ProgressRepository
}

func NewService(
	profiles datastore.ProfileRepository,
	requests datastore.FriendRequestRepository,
	edges datastore.FriendshipEdgeRepository,
	progress datastore.ProgressRepository,
) *Service {
	return &Service{
		Profiles: profiles,
		Requests: requests,
		Edges:    edges,
		Progress: progress,
	}
}

// SendRequest validates and creates a new pending request from fromUID to
// toUID, returning the new request id.
//
// The existence checks run in order: already-friends via the edge store, then
// live requests in the same direction, then the reverse direction. They are
// best-effort against a concurrent send from the other side; the store-level
// unique index on the pair key catches whatever slips through and surfaces
// here as already-exists.
func (s *Service) SendRequest(fromUID, toUID string) (string, error) {
	if fromUID == "" {
		return "", apperr.New(apperr.CodeUnauthenticated, "sign in required")
	}
	if toUID == "" {
		return "", apperr.New(apperr.CodeInvalidArgument, "target uid is required")
	}
	if toUID == fromUID {
		return "", apperr.New(apperr.CodeInvalidArgument, "cannot send a friend request to yourself")
	}

	// Target must have used the app and set an identity.
	if _, err := s.Profiles.Get(toUID); err != nil {
		if datastore.IsNoRows(err) {
			return "", apperr.New(apperr.CodeNotFound, "target user has no profile")
		}
		return "", apperr.Wrap(err, apperr.CodeInternal, "failed to look up target profile")
	}

	alreadyFriends, err := s.Edges.Exists(fromUID, toUID)
	if err != nil {
		return "", apperr.Wrap(err, apperr.CodeInternal, "failed to check friendship")
	}
	if alreadyFriends {
		return "", apperr.New(apperr.CodeAlreadyExists, "already friends")
	}

	live, err := s.Requests.GetLiveBetween(fromUID, toUID)
	if err != nil {
		return "", apperr.Wrap(err, apperr.CodeInternal, "failed to check existing requests")
	}
	for _, existing := range live {
		if existing.FromUID == fromUID {
			return "", apperr.New(apperr.CodeAlreadyExists, "request already exists")
		}
	}
	for _, existing := range live {
		if existing.Status == models.RequestStatusPending {
			return "", apperr.New(apperr.CodeAlreadyExists, "reverse request pending")
		}
		return "", apperr.New(apperr.CodeAlreadyExists, "already friends")
	}

	request := models.FriendRequest{
		RequestID: uuid.New().String(),
		FromUID:   fromUID,
		ToUID:     toUID,
	}

	created, err := s.Requests.Create(request)
	if err != nil {
		if datastore.IsUniqueViolation(err) {
			// Lost the race against the other side's send.
			logger.Info("friend request lost pair race", "fromUid", fromUID, "toUid", toUID)
			return "", apperr.New(apperr.CodeAlreadyExists, "request already exists")
		}
		return "", apperr.Wrap(err, apperr.CodeInternal, "failed to create friend request")
	}

	logger.Info("friend request created", "requestId", created.RequestID, "fromUid", fromUID, "toUid", toUID)
	return created.RequestID, nil
}

// AcceptRequest transitions a pending request to accepted and creates the
// mirrored edges under both participants as one atomic unit. Only the
// recipient may accept. Accepting an already-accepted request is a no-op.
func (s *Service) AcceptRequest(requestID, actingUID string) error {
	if actingUID == "" {
		return apperr.New(apperr.CodeUnauthenticated, "sign in required")
	}
	if requestID == "" {
		return apperr.New(apperr.CodeInvalidArgument, "request id is required")
	}

	request, err := s.Requests.Get(requestID)
	if err != nil {
		if datastore.IsNoRows(err) {
			return apperr.New(apperr.CodeNotFound, "friend request not found")
		}
		return apperr.Wrap(err, apperr.CodeInternal, "failed to load friend request")
	}

	if request.ToUID != actingUID {
		return apperr.New(apperr.CodePermissionDenied, "only the recipient may accept a request")
	}

	switch request.Status {
	case models.RequestStatusAccepted:
		return nil
	case models.RequestStatusRejected:
		return apperr.New(apperr.CodeInvalidArgument, "request was already rejected")
	}

	if _, err := s.Requests.Accept(requestID); err != nil {
		if datastore.IsNoRows(err) {
			// Someone else completed the transition between our read and
			// our write. Re-read and treat a completed accept as success.
			current, getErr := s.Requests.Get(requestID)
			if getErr == nil && current.Status == models.RequestStatusAccepted {
				return nil
			}
			return apperr.New(apperr.CodeInvalidArgument, "request is no longer pending")
		}
		return apperr.Wrap(err, apperr.CodeInternal, "failed to accept friend request")
	}

	logger.Info("friend request accepted", "requestId", requestID, "byUid", actingUID)
	return nil
}

// RejectRequest marks a pending request rejected. Either party may reject:
// the recipient declines, the sender cancels. Rejecting an already-rejected
// request is a no-op; no edges are touched.
func (s *Service) RejectRequest(requestID, actingUID string) error {
	if actingUID == "" {
		return apperr.New(apperr.CodeUnauthenticated, "sign in required")
	}
	if requestID == "" {
		return apperr.New(apperr.CodeInvalidArgument, "request id is required")
	}

	request, err := s.Requests.Get(requestID)
	if err != nil {
		if datastore.IsNoRows(err) {
			return apperr.New(apperr.CodeNotFound, "friend request not found")
		}
		return apperr.Wrap(err, apperr.CodeInternal, "failed to load friend request")
	}

	if request.FromUID != actingUID && request.ToUID != actingUID {
		return apperr.New(apperr.CodePermissionDenied, "not a participant in this request")
	}

	switch request.Status {
	case models.RequestStatusRejected:
		return nil
	case models.RequestStatusAccepted:
		return apperr.New(apperr.CodeInvalidArgument, "request was already accepted")
	}

	if _, err := s.Requests.Reject(requestID); err != nil {
		if datastore.IsNoRows(err) {
			current, getErr := s.Requests.Get(requestID)
			if getErr == nil && current.Status == models.RequestStatusRejected {
				return nil
			}
			return apperr.New(apperr.CodeInvalidArgument, "request is no longer pending")
		}
		return apperr.Wrap(err, apperr.CodeInternal, "failed to reject friend request")
	}

	logger.Info("friend request rejected", "requestId", requestID, "byUid", actingUID)
	return nil
}

// GetFriendProfile returns targetUID's public profile merged with their
// private progress. Admission is a single check: the requester must appear in
// the target's own friend list. permission-denied here is the designed
// not-a-friend signal, not a hard failure; the client falls back to the
// public profile and a send-request affordance.
func (s *Service) GetFriendProfile(requesterUID, targetUID string) (models.FriendProfile, error) {
	if requesterUID == "" {
		return models.FriendProfile{}, apperr.New(apperr.CodeUnauthenticated, "sign in required")
	}
	if targetUID == "" {
		return models.FriendProfile{}, apperr.New(apperr.CodeInvalidArgument, "friend uid is required")
	}
	if targetUID == requesterUID {
		return models.FriendProfile{}, apperr.New(apperr.CodeInvalidArgument, "use the progress endpoint for your own profile")
	}

	isFriend, err := s.Edges.Exists(targetUID, requesterUID)
	if err != nil {
		return models.FriendProfile{}, apperr.Wrap(err, apperr.CodeInternal, "failed to check friendship")
	}
	if !isFriend {
		return models.FriendProfile{}, apperr.New(apperr.CodePermissionDenied, "not a friend")
	}

	merged := models.FriendProfile{UserID: targetUID, UnlockedIDs: []int{}}

	profile, err := s.Profiles.Get(targetUID)
	if err != nil && !datastore.IsNoRows(err) {
		return models.FriendProfile{}, apperr.Wrap(err, apperr.CodeInternal, "failed to load public profile")
	}
	merged.DisplayName = profile.DisplayName
	merged.PhotoURL = profile.PhotoURL

	progress, err := s.Progress.Get(targetUID)
	if err != nil && !datastore.IsNoRows(err) {
		return models.FriendProfile{}, apperr.Wrap(err, apperr.CodeInternal, "failed to load progress")
	}
	if progress.UnlockedIDs != nil {
		merged.UnlockedIDs = progress.UnlockedIDs
	}
	merged.TotalPoints = progress.TotalPoints

	return merged, nil
}
