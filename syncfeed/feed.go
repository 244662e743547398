// Package syncfeed keeps a signed-in session's local view of the friend
// graph consistent with the request ledger and edge store as changes arrive.
package syncfeed

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"

	"github.com/achievement-hub/api/models"
	"github.com/achievement-hub/api/pkg/logger"
)

const (
	ChannelFriendRequests  = "friend_requests"
	ChannelFriendshipEdges = "friendship_edges"
)

type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeRemoved  ChangeKind = "removed"
)

// Event is one ledger or edge change. Request is populated for the request
// channel, Edge for the edge channel.
type Event struct {
	Channel string
	Kind    ChangeKind
	Request models.FriendRequest
	Edge    models.FriendshipEdge
}

// Feed is a stream of change events. The production implementation listens
// on Postgres NOTIFY channels; tests feed events through a plain channel.
type Feed interface {
	Events() <-chan Event
	Close() error
}

// notifyPayload is the JSON body the migration-installed triggers send
// through pg_notify.
type notifyPayload struct {
	Op     string          `json:"op"`
	Record json.RawMessage `json:"record"`
}

// ListenerFeed adapts pq.Listener to the Feed interface.
type ListenerFeed struct {
	listener *pq.Listener
	events   chan Event
	done     chan struct{}
}

func NewListenerFeed(connStr string) (*ListenerFeed, error) {
	listener := pq.NewListener(connStr, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Warn("sync feed listener event", "eventType", ev, "error", err)
		}
	})

	for _, channel := range []string{ChannelFriendRequests, ChannelFriendshipEdges} {
		if err := listener.Listen(channel); err != nil {
			listener.Close()
			return nil, err
		}
	}

	feed := &ListenerFeed{
		listener: listener,
		events:   make(chan Event, 64),
		done:     make(chan struct{}),
	}
	go feed.pump()
	return feed, nil
}

func (f *ListenerFeed) Events() <-chan Event {
	return f.events
}

func (f *ListenerFeed) Close() error {
	close(f.done)
	return f.listener.Close()
}

func (f *ListenerFeed) pump() {
	defer close(f.events)
	for {
		select {
		case <-f.done:
			return
		case notification, ok := <-f.listener.Notify:
			if !ok {
				return
			}
			if notification == nil {
				// Reconnect marker from pq; nothing to decode.
				continue
			}
			event, err := decodeNotification(notification.Channel, notification.Extra)
			if err != nil {
				logger.Warn("sync feed dropped undecodable notification", "channel", notification.Channel, "error", err)
				continue
			}
			f.events <- event
		}
	}
}

func decodeNotification(channel, extra string) (Event, error) {
	var payload notifyPayload
	if err := json.Unmarshal([]byte(extra), &payload); err != nil {
		return Event{}, err
	}

	event := Event{Channel: channel, Kind: kindForOp(payload.Op)}

	switch channel {
	case ChannelFriendRequests:
		if err := json.Unmarshal(payload.Record, &event.Request); err != nil {
			return Event{}, err
		}
	case ChannelFriendshipEdges:
		if err := json.Unmarshal(payload.Record, &event.Edge); err != nil {
			return Event{}, err
		}
	}

	return event, nil
}

func kindForOp(op string) ChangeKind {
	switch op {
	case "INSERT":
		return ChangeAdded
	case "DELETE":
		return ChangeRemoved
	default:
		return ChangeModified
	}
}
