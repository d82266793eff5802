package session

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kokistudios/thinker/internal/fault"
)

// Registry owns every session for the lifetime of the process.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	order    []*Session

	newID func() string
	now   func() time.Time
}

type RegistryOption func(*Registry)

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.now = now
	}
}

// WithIDGenerator overrides uuid-based identifiers.
func WithIDGenerator(gen func() string) RegistryOption {
	return func(r *Registry) {
		r.newID = gen
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		newID:    uuid.NewString,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Create registers a new session. With a generated id it cannot fail; a
// caller-supplied id that is already registered yields a validation error.
func (r *Registry) Create(kind Kind, opts ...CreateOption) (Summary, error) {
	var options createOptions
	for _, o := range opts {
		o(&options)
	}
	if options.status == "" {
		options.status = StatusActive
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := options.id
	if id == "" {
		id = r.newID()
		for r.sessions[id] != nil {
			id = r.newID()
		}
	} else if _, exists := r.sessions[id]; exists {
		return Summary{}, fault.Validationf("session %q already exists", id)
	}

	now := r.now()
	s := &Session{
		ID:        id,
		Kind:      kind,
		Title:     options.title,
		CreatedAt: now,
		UpdatedAt: now,
		Status:    options.status,
		State:     options.state,
	}
	r.sessions[id] = s
	r.order = append(r.order, s)
	return s.Summary(), nil
}

func (r *Registry) lookup(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, fault.NotFoundf("session %q not found", id)
	}
	return s, nil
}

func (r *Registry) Get(id string) (Summary, error) {
	s, err := r.lookup(id)
	if err != nil {
		return Summary{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Summary(), nil
}

// List returns summaries ordered by creation, oldest first. When kinds are
// given only sessions of those kinds are returned.
func (r *Registry) List(kinds ...Kind) []Summary {
	r.mu.RLock()
	entries := make([]*Session, 0, len(r.order))
	for _, s := range r.order {
		if len(kinds) == 0 || slices.Contains(kinds, s.Kind) {
			entries = append(entries, s)
		}
	}
	r.mu.RUnlock()

	out := make([]Summary, 0, len(entries))
	for _, s := range entries {
		s.mu.RLock()
		out = append(out, s.Summary())
		s.mu.RUnlock()
	}
	return out
}

// WithExclusiveAccess runs fn while holding the session's write lock. Calls on
// the same session are serialized; calls on different sessions never wait on
// each other.
func (r *Registry) WithExclusiveAccess(id string, fn func(*Session) error) error {
	s, err := r.lookup(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s)
}

// WithSharedAccess runs fn under the session's read lock. fn must not mutate.
func (r *Registry) WithSharedAccess(id string, fn func(*Session) error) error {
	s, err := r.lookup(id)
	if err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s)
}

// Counts reports the number of sessions per kind and status.
func (r *Registry) Counts() map[Kind]map[Status]int {
	out := make(map[Kind]map[Status]int, len(Kinds))
	for _, k := range Kinds {
		out[k] = map[Status]int{StatusActive: 0, StatusCompleted: 0}
	}
	for _, sum := range r.List() {
		if out[sum.Kind] == nil {
			out[sum.Kind] = map[Status]int{}
		}
		out[sum.Kind][sum.Status]++
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Close drops every session.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = make(map[string]*Session)
	r.order = nil
}
