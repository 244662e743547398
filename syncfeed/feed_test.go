package syncfeed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/achievement-hub/api/models"
)

func TestDecodeNotificationRequest(t *testing.T) {
	payload := `{
		"op": "UPDATE",
		"record": {
			"requestId": "req-1",
			"fromUid": "alice",
			"toUid": "bob",
			"status": "accepted",
			"createdAt": "2026-08-01T10:00:00Z",
			"acceptedAt": "2026-08-01T10:05:00Z"
		}
	}`

	event, err := decodeNotification(ChannelFriendRequests, payload)
	require.NoError(t, err)

	assert.Equal(t, ChannelFriendRequests, event.Channel)
	assert.Equal(t, ChangeModified, event.Kind)
	assert.Equal(t, "req-1", event.Request.RequestID)
	assert.Equal(t, "alice", event.Request.FromUID)
	assert.Equal(t, "bob", event.Request.ToUID)
	assert.Equal(t, models.RequestStatusAccepted, event.Request.Status)
	require.NotNil(t, event.Request.AcceptedAt)
}

func TestDecodeNotificationEdge(t *testing.T) {
	payload := `{
		"op": "INSERT",
		"record": {
			"ownerUid": "alice",
			"friendUid": "bob",
			"since": "2026-08-01T10:05:00Z"
		}
	}`

	event, err := decodeNotification(ChannelFriendshipEdges, payload)
	require.NoError(t, err)

	assert.Equal(t, ChangeAdded, event.Kind)
	assert.Equal(t, "alice", event.Edge.OwnerUID)
	assert.Equal(t, "bob", event.Edge.FriendUID)
}

func TestDecodeNotificationBadPayload(t *testing.T) {
	_, err := decodeNotification(ChannelFriendRequests, "not json")
	assert.Error(t, err)

	_, err = decodeNotification(ChannelFriendRequests, `{"op":"INSERT","record":[1,2]}`)
	assert.Error(t, err)
}

func TestKindForOp(t *testing.T) {
	assert.Equal(t, ChangeAdded, kindForOp("INSERT"))
	assert.Equal(t, ChangeRemoved, kindForOp("DELETE"))
	assert.Equal(t, ChangeModified, kindForOp("UPDATE"))
	assert.Equal(t, ChangeModified, kindForOp("TRUNCATE"))
}
