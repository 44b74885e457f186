package screen

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/appetiteclub/captain/pkg/lib/core"
	"github.com/appetiteclub/captain/services/captain/internal/ordering"
)

var ErrSessionNotFound = errors.New("order session not found")

const defaultSessionTTL = 30 * time.Minute

type entry struct {
	workflow     *ordering.Workflow
	lastActivity time.Time
}

// Registry keeps the open order screens. Entries idle for longer than the
// TTL are closed and dropped.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration
	now     func() time.Time
	logger  core.Logger
}

func NewRegistry(ttl time.Duration, logger core.Logger) *Registry {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	if logger == nil {
		logger = core.NewNoopLogger()
	}
	return &Registry{
		entries: make(map[string]*entry),
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
	}
}

func (r *Registry) Add(w *ordering.Workflow) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.entries[id] = &entry{workflow: w, lastActivity: r.now()}
	r.mu.Unlock()
	return id
}

// Get returns the workflow and refreshes its activity time.
func (r *Registry) Get(id string) (*ordering.Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	now := r.now()
	if now.Sub(e.lastActivity) > r.ttl {
		delete(r.entries, id)
		e.workflow.Close()
		return nil, ErrSessionNotFound
	}
	e.lastActivity = now
	return e.workflow, nil
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	e, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()
	if ok {
		e.workflow.Close()
	}
}

// CloseAll drops every open screen, used on logout.
func (r *Registry) CloseAll() int {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range entries {
		e.workflow.Close()
	}
	return len(entries)
}

// Each calls fn for every open workflow.
func (r *Registry) Each(fn func(id string, w *ordering.Workflow)) {
	r.mu.RLock()
	snapshot := make(map[string]*ordering.Workflow, len(r.entries))
	for id, e := range r.entries {
		snapshot[id] = e.workflow
	}
	r.mu.RUnlock()

	for id, w := range snapshot {
		fn(id, w)
	}
}

func (r *Registry) CleanupExpired() int {
	now := r.now()
	var expired []*ordering.Workflow

	r.mu.Lock()
	for id, e := range r.entries {
		if now.Sub(e.lastActivity) > r.ttl {
			delete(r.entries, id)
			expired = append(expired, e.workflow)
		}
	}
	r.mu.Unlock()

	for _, w := range expired {
		w.Close()
	}
	return len(expired)
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// StartCleanup runs CleanupExpired every interval until ctx is done.
func (r *Registry) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if count := r.CleanupExpired(); count > 0 {
					r.logger.Debug("closed idle order sessions", "count", count)
				}
			}
		}
	}()
}
