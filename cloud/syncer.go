package cloud

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"homework-tracker/logger"
	"homework-tracker/models"
)

// State of the last sync attempt.
type State string

const (
	StateIdle    State = "IDLE"
	StateSyncing State = "SYNCING"
	StateError   State = "ERROR"
)

// Status is what the sync indicator shows.
type Status struct {
	State        State     `json:"state"`
	LastError    string    `json:"lastError,omitempty"`
	LastSyncedAt time.Time `json:"lastSyncedAt,omitempty"`
}

// Local is the side of the sync that owns the collections.
type Local interface {
	LoadSnapshot(ctx context.Context) (models.Snapshot, error)
	ReplaceSnapshot(ctx context.Context, snap models.Snapshot, replacePeriods bool) error
}

// Syncer mirrors the local collections to a per-user remote record. There is no
// merge: a push overwrites the remote, a pull overwrites local state, and the
// last one to complete wins.
type Syncer struct {
	local  Local
	remote Remote // nil when cloud sync is not configured

	mu       sync.Mutex
	status   Status
	inflight int
	batchErr error
	subs     map[int]chan Status
	nextSub  int

	wg      sync.WaitGroup
	nowFunc func() time.Time
}

// NewSyncer creates a Syncer. A nil remote runs in local-only mode: every
// operation returns ErrNotConfigured without touching the network.
func NewSyncer(local Local, remote Remote) *Syncer {
	return &Syncer{
		local:   local,
		remote:  remote,
		status:  Status{State: StateIdle},
		subs:    make(map[int]chan Status),
		nowFunc: time.Now,
	}
}

// Configured reports whether a remote is available.
func (s *Syncer) Configured() bool {
	return s.remote != nil
}

// Status returns the current sync status.
func (s *Syncer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Subscribe returns a channel receiving every status change, and a function
// to stop the subscription. Slow readers only miss intermediate states; the
// latest status is always delivered.
func (s *Syncer) Subscribe() (<-chan Status, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Status, 1)
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
}

// publish must be called with mu held.
func (s *Syncer) publish() {
	for _, ch := range s.subs {
		select {
		case ch <- s.status:
		default:
			// replace the stale value
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s.status:
			default:
			}
		}
	}
}

func (s *Syncer) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inflight++
	s.status.State = StateSyncing
	s.publish()
}

// end closes one attempt. Overlapping attempts form a batch which ends in
// ERROR if any of them failed.
func (s *Syncer) end(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inflight--
	if err != nil {
		s.batchErr = err
	}
	if s.inflight > 0 {
		return
	}
	if s.batchErr != nil {
		s.status.State = StateError
		s.status.LastError = s.batchErr.Error()
	} else {
		s.status.State = StateIdle
		s.status.LastError = ""
		s.status.LastSyncedAt = s.nowFunc().UTC()
	}
	s.batchErr = nil
	s.publish()
}

func (s *Syncer) identity(ctx context.Context) (Identity, error) {
	if s.remote == nil {
		return Identity{}, ErrNotConfigured
	}
	id, ok := IdentityFrom(ctx)
	if !ok {
		return Identity{}, ErrNotAuthenticated
	}
	return id, nil
}

// Push uploads all five collections to the remote record of the user in ctx,
// replacing whatever was there.
func (s *Syncer) Push(ctx context.Context) error {
	id, err := s.identity(ctx)
	if err != nil {
		return err
	}

	s.begin()
	err = s.push(ctx, id)
	s.end(err)
	return err
}

func (s *Syncer) push(ctx context.Context, id Identity) error {
	snap, err := s.local.LoadSnapshot(ctx)
	if err != nil {
		return errors.Wrap(err, "reading local collections")
	}
	snap.Normalize()
	content := Content{
		Snapshot:    snap,
		LastUpdated: s.nowFunc().UTC().Format(time.RFC3339Nano),
	}
	if err := s.remote.Upsert(ctx, id.UserID, content); err != nil {
		return errors.Wrap(err, "pushing to cloud")
	}
	logger.LogDebug("Pushed collections to cloud", "userId", id.UserID)
	return nil
}

// Pull replaces all five local collections with the remote record of the user
// in ctx. When the user has no record yet, local state is left untouched and
// ErrNoRemoteData is returned; the status stays IDLE.
func (s *Syncer) Pull(ctx context.Context) error {
	id, err := s.identity(ctx)
	if err != nil {
		return err
	}

	s.begin()
	err = s.pull(ctx, id)
	if errors.Is(err, ErrNoRemoteData) {
		s.end(nil)
		return err
	}
	s.end(err)
	return err
}

func (s *Syncer) pull(ctx context.Context, id Identity) error {
	content, err := s.remote.Fetch(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, ErrNoRemoteData) {
			return err
		}
		return errors.Wrap(err, "pulling from cloud")
	}
	snap := content.Snapshot
	snap.Normalize()
	if err := s.local.ReplaceSnapshot(ctx, snap, true); err != nil {
		return errors.Wrap(err, "writing local collections")
	}
	logger.LogInfo("Pulled collections from cloud", "userId", id.UserID, "lastUpdated", content.LastUpdated)
	return nil
}

// PushAsync starts a detached push for the user in ctx and returns at once.
// The request context may end before the push does; its values are kept but
// its cancellation is not. Failures are recorded in the status and logged.
func (s *Syncer) PushAsync(ctx context.Context) {
	if _, err := s.identity(ctx); err != nil {
		logger.LogDebug("Skipping cloud push", "reason", err.Error())
		return
	}

	detached := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.Push(detached); err != nil {
			logger.LogError("Background cloud push failed", err)
		}
	}()
}

// Wait blocks until every background push has completed.
func (s *Syncer) Wait() {
	s.wg.Wait()
}
