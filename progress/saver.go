package progress

import (
	"sync"
	"time"

	"github.com/achievement-hub/api/datastore"
	"github.com/achievement-hub/api/pkg/logger"
)

// DefaultQuietPeriod is how long the saver waits after a user's last mutation
// before writing. Write-amplification control, not a correctness mechanism:
// the latest queued snapshot always wins.
const DefaultQuietPeriod = time.Second

type snapshot struct {
	unlockedIDs []int
	totalPoints int
}

// Saver coalesces rapid local progress mutations into a single remote write
// per user after a quiet period. Each Queue cancels and rearms that user's
// timer; one user's burst never displaces another user's pending write.
type Saver struct {
	progress datastore.ProgressRepository
	delay    time.Duration

	mu      sync.Mutex
	timers  map[string]*time.Timer
	pending map[string]*snapshot
}

func NewSaver(progressRepo datastore.ProgressRepository, delay time.Duration) *Saver {
	if delay <= 0 {
		delay = DefaultQuietPeriod
	}
	return &Saver{
		progress: progressRepo,
		delay:    delay,
		timers:   make(map[string]*time.Timer),
		pending:  make(map[string]*snapshot),
	}
}

// Queue records the latest local state for uid and rearms that user's
// quiet-period timer.
func (s *Saver) Queue(uid string, unlockedIDs []int, totalPoints int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[uid] = &snapshot{
		unlockedIDs: unlockedIDs,
		totalPoints: totalPoints,
	}

	if timer, ok := s.timers[uid]; ok {
		timer.Stop()
	}
	s.timers[uid] = time.AfterFunc(s.delay, func() {
		if err := s.flushUser(uid); err != nil {
			logger.Error("debounced progress save failed", "uid", uid, "error", err)
		}
	})
}

func (s *Saver) flushUser(uid string) error {
	s.mu.Lock()
	pending, ok := s.pending[uid]
	delete(s.pending, uid)
	if timer, armed := s.timers[uid]; armed {
		timer.Stop()
		delete(s.timers, uid)
	}
	s.mu.Unlock()

	if !ok {
		return nil
	}

	_, err := s.progress.Save(uid, pending.unlockedIDs, pending.totalPoints)
	return err
}

// Flush writes every pending snapshot immediately.
func (s *Saver) Flush() error {
	s.mu.Lock()
	uids := make([]string, 0, len(s.pending))
	for uid := range s.pending {
		uids = append(uids, uid)
	}
	s.mu.Unlock()

	var firstErr error
	for _, uid := range uids {
		if err := s.flushUser(uid); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close flushes all pending writes before shutdown.
func (s *Saver) Close() error {
	return s.Flush()
}
