package api

import (
	"sync"
	"time"

	"github.com/achievement-hub/api/catalog"
	"github.com/achievement-hub/api/datastore"
	"github.com/achievement-hub/api/friends"
	"github.com/achievement-hub/api/progress"
	"github.com/achievement-hub/api/syncfeed"
)

type Config struct {
	HTTPPort          string
	DatabaseType      string
	DatabaseUser      string
	DatabasePassword  string
	DatabaseHost      string
	DatabaseName      string
	SSLMode           string
	JwtSecret         string
	JwtAccessDuration int // seconds
	JwtDomain         string
	AllowedOrigins    []string
	CatalogDir        string
	DevMode           bool
}

type Application struct {
	Config       Config
	UserRepo     datastore.UserRepository
	ProfileRepo  datastore.ProfileRepository
	RequestRepo  datastore.FriendRequestRepository
	EdgeRepo     datastore.FriendshipEdgeRepository
	ProgressRepo datastore.ProgressRepository
	Friends      *friends.Service
	Progress     *progress.Syncer
	Saver        *progress.Saver
	Catalog      *catalog.Catalog
	SyncHub      *syncfeed.Hub

	sessionsMu sync.Mutex
	sessions   map[string]*sessionEntry
}

// sessionIdleTTL bounds how long a sync session may outlive its user's last
// authenticated request. Expired tokens never send a logout, so idle sessions
// are reaped on the next EnsureSession from any user.
const sessionIdleTTL = 30 * time.Minute

type sessionEntry struct {
	session  *syncfeed.Session
	lastSeen time.Time
}

// EnsureSession starts (or reuses) the realtime sync session for a signed-in
// user. Sessions self-heal sender-side edges as accept events arrive. Each
// call also reaps sessions idle past sessionIdleTTL.
func (app *Application) EnsureSession(uid string) error {
	if app.SyncHub == nil {
		return nil
	}

	app.sessionsMu.Lock()
	defer app.sessionsMu.Unlock()

	if app.sessions == nil {
		app.sessions = make(map[string]*sessionEntry)
	}

	now := time.Now()
	for other, entry := range app.sessions {
		if other == uid || now.Sub(entry.lastSeen) <= sessionIdleTTL {
			continue
		}
		delete(app.sessions, other)
		entry.session.Close()
	}

	if entry, ok := app.sessions[uid]; ok {
		entry.lastSeen = now
		return nil
	}

	session, err := syncfeed.NewSession(uid, app.EdgeRepo, app.RequestRepo, app.SyncHub.Subscribe())
	if err != nil {
		return err
	}
	app.sessions[uid] = &sessionEntry{session: session, lastSeen: now}
	return nil
}

// CloseSession tears down a user's sync session: feed detached, caches
// cleared.
func (app *Application) CloseSession(uid string) {
	app.sessionsMu.Lock()
	entry, ok := app.sessions[uid]
	if ok {
		delete(app.sessions, uid)
	}
	app.sessionsMu.Unlock()

	if ok {
		entry.session.Close()
	}
}
