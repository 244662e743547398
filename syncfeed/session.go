package syncfeed

import (
	"sync"

	"github.com/achievement-hub/api/datastore"
	"github.com/achievement-hub/api/models"
	"github.com/achievement-hub/api/pkg/logger"
)

const (
	DirectionSent     = "sent"
	DirectionReceived = "received"
)

// PendingRequest is the session's view of one live request with a peer.
type PendingRequest struct {
	RequestID string
	Direction string
}

// Session holds one signed-in user's local caches: pending requests keyed by
// peer and the friend set. Created on sign-in, torn down on sign-out. Caches
// are only mutated by the feed goroutine; readers take the lock.
type Session struct {
	uid   string
	edges datastore.FriendshipEdgeRepository
	feed  Feed

	mu            sync.RWMutex
	pendingByPeer map[string]PendingRequest
	friendSet     map[string]bool

	closeOnce sync.Once
	stopped   chan struct{}
}

// NewSession primes the caches from the store and starts consuming the feed.
func NewSession(uid string, edges datastore.FriendshipEdgeRepository, requests datastore.FriendRequestRepository, feed Feed) (*Session, error) {
	session := &Session{
		uid:           uid,
		edges:         edges,
		feed:          feed,
		pendingByPeer: make(map[string]PendingRequest),
		friendSet:     make(map[string]bool),
		stopped:       make(chan struct{}),
	}

	friendUIDs, err := edges.ListUIDsForOwner(uid)
	if err != nil {
		return nil, err
	}
	for _, friendUID := range friendUIDs {
		session.friendSet[friendUID] = true
	}

	pending, err := requests.ListForUser(uid)
	if err != nil {
		return nil, err
	}
	for _, summary := range pending {
		direction := DirectionSent
		if summary.Direction == models.DirectionIncoming {
			direction = DirectionReceived
		}
		session.pendingByPeer[summary.PeerUID] = PendingRequest{
			RequestID: summary.RequestID,
			Direction: direction,
		}
	}

	go session.run()
	return session, nil
}

func (s *Session) run() {
	defer close(s.stopped)
	for event := range s.feed.Events() {
		s.Apply(event)
	}
}

// Apply folds one change event into the local caches. Events that do not
// involve this session's user are ignored.
func (s *Session) Apply(event Event) {
	switch event.Channel {
	case ChannelFriendRequests:
		s.applyRequest(event)
	case ChannelFriendshipEdges:
		s.applyEdge(event)
	}
}

func (s *Session) applyRequest(event Event) {
	request := event.Request
	if request.FromUID != s.uid && request.ToUID != s.uid {
		return
	}

	peer := request.ToUID
	direction := DirectionSent
	if request.ToUID == s.uid {
		peer = request.FromUID
		direction = DirectionReceived
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if event.Kind == ChangeRemoved {
		delete(s.pendingByPeer, peer)
		return
	}

	switch request.Status {
	case models.RequestStatusPending:
		s.pendingByPeer[peer] = PendingRequest{RequestID: request.RequestID, Direction: direction}
	case models.RequestStatusAccepted:
		delete(s.pendingByPeer, peer)
		s.friendSet[peer] = true
		if direction == DirectionSent {
			s.healOwnEdge(peer)
		}
	case models.RequestStatusRejected:
		delete(s.pendingByPeer, peer)
	}
}

// healOwnEdge recreates the sender-side edge if it is not visible yet. The
// acceptor's transaction is the authoritative creator of both edges, but the
// accepted status can reach the sender before its own edge read does.
// Existence is checked first, and the write tolerates a duplicate.
func (s *Session) healOwnEdge(peer string) {
	exists, err := s.edges.Exists(s.uid, peer)
	if err != nil {
		logger.Warn("edge self-heal existence check failed", "uid", s.uid, "peer", peer, "error", err)
		return
	}
	if exists {
		return
	}
	if err := s.edges.CreateIfAbsent(s.uid, peer); err != nil {
		logger.Warn("edge self-heal write failed", "uid", s.uid, "peer", peer, "error", err)
		return
	}
	logger.Info("recreated own friendship edge", "uid", s.uid, "peer", peer)
}

func (s *Session) applyEdge(event Event) {
	edge := event.Edge
	if edge.OwnerUID != s.uid {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch event.Kind {
	case ChangeRemoved:
		delete(s.friendSet, edge.FriendUID)
	default:
		s.friendSet[edge.FriendUID] = true
	}
}

// PendingRequests returns a copy of the pending-request cache.
func (s *Session) PendingRequests() map[string]PendingRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]PendingRequest, len(s.pendingByPeer))
	for peer, pending := range s.pendingByPeer {
		out[peer] = pending
	}
	return out
}

// IsFriend reports whether uid is in the cached friend set.
func (s *Session) IsFriend(uid string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.friendSet[uid]
}

// Friends returns a copy of the cached friend set.
func (s *Session) Friends() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.friendSet))
	for uid := range s.friendSet {
		out = append(out, uid)
	}
	return out
}

// Close detaches the feed and clears the caches.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.feed.Close()
		<-s.stopped

		s.mu.Lock()
		s.pendingByPeer = make(map[string]PendingRequest)
		s.friendSet = make(map[string]bool)
		s.mu.Unlock()
	})
	return err
}
