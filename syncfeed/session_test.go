package syncfeed

import (
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/achievement-hub/api/datastore"
	"github.com/achievement-hub/api/models"
)

type stubEdges struct {
	mu      sync.Mutex
	set     map[string]bool
	created [][2]string
}

func newStubEdges(pairs ...[2]string) *stubEdges {
	edges := &stubEdges{set: make(map[string]bool)}
	for _, pair := range pairs {
		edges.set[pair[0]+"|"+pair[1]] = true
	}
	return edges
}

func (s *stubEdges) Exists(ownerUID, friendUID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set[ownerUID+"|"+friendUID], nil
}

func (s *stubEdges) CreateIfAbsent(ownerUID, friendUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ownerUID + "|" + friendUID
	if !s.set[key] {
		s.set[key] = true
		s.created = append(s.created, [2]string{ownerUID, friendUID})
	}
	return nil
}

func (s *stubEdges) ListForOwner(ownerUID string) ([]models.FriendSummary, error) {
	return nil, nil
}

func (s *stubEdges) ListUIDsForOwner(ownerUID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var uids []string
	for key := range s.set {
		if len(key) > len(ownerUID) && key[:len(ownerUID)+1] == ownerUID+"|" {
			uids = append(uids, key[len(ownerUID)+1:])
		}
	}
	return uids, nil
}

func (s *stubEdges) createdEdges() [][2]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][2]string, len(s.created))
	copy(out, s.created)
	return out
}

type stubRequests struct {
	summaries []models.FriendRequestSummary
}

func (s *stubRequests) Create(request models.FriendRequest) (models.FriendRequest, error) {
	return models.FriendRequest{}, nil
}

func (s *stubRequests) Get(requestID string) (models.FriendRequest, error) {
	return models.FriendRequest{}, datastore.NoRowsError{NoRows: true, Err: sql.ErrNoRows}
}

func (s *stubRequests) GetLiveBetween(uid, otherUID string) ([]models.FriendRequest, error) {
	return nil, nil
}

func (s *stubRequests) Accept(requestID string) (models.FriendRequest, error) {
	return models.FriendRequest{}, datastore.NoRowsError{NoRows: true, Err: sql.ErrNoRows}
}

func (s *stubRequests) Reject(requestID string) (models.FriendRequest, error) {
	return models.FriendRequest{}, datastore.NoRowsError{NoRows: true, Err: sql.ErrNoRows}
}

func (s *stubRequests) ListForUser(uid string) ([]models.FriendRequestSummary, error) {
	return s.summaries, nil
}

type chanFeed struct {
	events chan Event
	once   sync.Once
}

func newChanFeed() *chanFeed {
	return &chanFeed{events: make(chan Event, 16)}
}

func (f *chanFeed) Events() <-chan Event {
	return f.events
}

func (f *chanFeed) Close() error {
	f.once.Do(func() { close(f.events) })
	return nil
}

func requestEvent(kind ChangeKind, fromUID, toUID, status string) Event {
	return Event{
		Channel: ChannelFriendRequests,
		Kind:    kind,
		Request: models.FriendRequest{
			RequestID: "req-" + fromUID + "-" + toUID,
			FromUID:   fromUID,
			ToUID:     toUID,
			Status:    status,
		},
	}
}

func newTestSession(t *testing.T, uid string, edges *stubEdges, requests *stubRequests) (*Session, *chanFeed) {
	t.Helper()
	feed := newChanFeed()
	session, err := NewSession(uid, edges, requests, feed)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session, feed
}

func TestSessionPrimesFromStore(t *testing.T) {
	edges := newStubEdges([2]string{"alice", "bob"})
	requests := &stubRequests{summaries: []models.FriendRequestSummary{
		{RequestID: "req-1", Direction: models.DirectionIncoming, PeerUID: "carol"},
		{RequestID: "req-2", Direction: models.DirectionOutgoing, PeerUID: "dave"},
	}}

	session, _ := newTestSession(t, "alice", edges, requests)

	assert.True(t, session.IsFriend("bob"))
	assert.False(t, session.IsFriend("carol"))

	pending := session.PendingRequests()
	require.Len(t, pending, 2)
	assert.Equal(t, PendingRequest{RequestID: "req-1", Direction: DirectionReceived}, pending["carol"])
	assert.Equal(t, PendingRequest{RequestID: "req-2", Direction: DirectionSent}, pending["dave"])
}

func TestSessionTracksIncomingPending(t *testing.T) {
	session, _ := newTestSession(t, "alice", newStubEdges(), &stubRequests{})

	session.Apply(requestEvent(ChangeAdded, "bob", "alice", models.RequestStatusPending))

	pending := session.PendingRequests()
	require.Contains(t, pending, "bob")
	assert.Equal(t, DirectionReceived, pending["bob"].Direction)
}

func TestSessionAcceptPromotesPeerToFriend(t *testing.T) {
	edges := newStubEdges([2]string{"alice", "bob"})
	session, _ := newTestSession(t, "alice", edges, &stubRequests{})

	session.Apply(requestEvent(ChangeAdded, "bob", "alice", models.RequestStatusPending))
	session.Apply(requestEvent(ChangeModified, "bob", "alice", models.RequestStatusAccepted))

	assert.Empty(t, session.PendingRequests())
	assert.True(t, session.IsFriend("bob"))
	// The recipient's edges come from the accept transaction, never from the
	// session.
	assert.Empty(t, edges.createdEdges())
}

func TestSessionAcceptHealsSenderEdge(t *testing.T) {
	edges := newStubEdges()
	session, _ := newTestSession(t, "alice", edges, &stubRequests{})

	session.Apply(requestEvent(ChangeAdded, "alice", "bob", models.RequestStatusPending))
	session.Apply(requestEvent(ChangeModified, "alice", "bob", models.RequestStatusAccepted))

	assert.True(t, session.IsFriend("bob"))
	assert.Equal(t, [][2]string{{"alice", "bob"}}, edges.createdEdges())
}

func TestSessionHealSkipsExistingEdge(t *testing.T) {
	edges := newStubEdges([2]string{"alice", "bob"})
	session, _ := newTestSession(t, "alice", edges, &stubRequests{})

	session.Apply(requestEvent(ChangeModified, "alice", "bob", models.RequestStatusAccepted))

	assert.True(t, session.IsFriend("bob"))
	assert.Empty(t, edges.createdEdges())
}

func TestSessionRejectionClearsPending(t *testing.T) {
	session, _ := newTestSession(t, "alice", newStubEdges(), &stubRequests{})

	session.Apply(requestEvent(ChangeAdded, "alice", "bob", models.RequestStatusPending))
	session.Apply(requestEvent(ChangeModified, "alice", "bob", models.RequestStatusRejected))

	assert.Empty(t, session.PendingRequests())
	assert.False(t, session.IsFriend("bob"))
}

func TestSessionIgnoresUnrelatedEvents(t *testing.T) {
	session, _ := newTestSession(t, "alice", newStubEdges(), &stubRequests{})

	session.Apply(requestEvent(ChangeAdded, "bob", "carol", models.RequestStatusPending))
	session.Apply(Event{
		Channel: ChannelFriendshipEdges,
		Kind:    ChangeAdded,
		Edge:    models.FriendshipEdge{OwnerUID: "bob", FriendUID: "carol"},
	})

	assert.Empty(t, session.PendingRequests())
	assert.Empty(t, session.Friends())
}

func TestSessionEdgeEvents(t *testing.T) {
	session, _ := newTestSession(t, "alice", newStubEdges(), &stubRequests{})

	session.Apply(Event{
		Channel: ChannelFriendshipEdges,
		Kind:    ChangeAdded,
		Edge:    models.FriendshipEdge{OwnerUID: "alice", FriendUID: "bob"},
	})
	assert.True(t, session.IsFriend("bob"))

	session.Apply(Event{
		Channel: ChannelFriendshipEdges,
		Kind:    ChangeRemoved,
		Edge:    models.FriendshipEdge{OwnerUID: "alice", FriendUID: "bob"},
	})
	assert.False(t, session.IsFriend("bob"))
}

func TestSessionConsumesFeed(t *testing.T) {
	feed := newChanFeed()
	session, err := NewSession("alice", newStubEdges(), &stubRequests{}, feed)
	require.NoError(t, err)
	defer session.Close()

	feed.events <- requestEvent(ChangeAdded, "bob", "alice", models.RequestStatusPending)

	require.Eventually(t, func() bool {
		_, ok := session.PendingRequests()["bob"]
		return ok
	}, time.Second, 5*time.Millisecond)
}

func TestSessionCloseClearsCaches(t *testing.T) {
	feed := newChanFeed()
	session, err := NewSession("alice", newStubEdges([2]string{"alice", "bob"}), &stubRequests{}, feed)
	require.NoError(t, err)

	require.True(t, session.IsFriend("bob"))

	require.NoError(t, session.Close())
	assert.False(t, session.IsFriend("bob"))
	assert.Empty(t, session.PendingRequests())

	// Closing again is safe.
	require.NoError(t, session.Close())
}
