package chat

import (
	"log/slog"
	"sort"
	"sync"
)

// Registry is the only structure in the server mutated by more than one
// goroutine. It maps session IDs to sessions under a single mutex; insertion
// order is preserved so Snapshot returns a deterministic point-in-time view.
// No I/O happens while the lock is held.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	order    []string
	logger   *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		sessions: make(map[string]*Session),
		logger:   logger,
	}
}

// Register makes the session visible to future broadcasts. IDs are unique per
// accepted socket, so ErrDuplicateID signals an internal invariant failure
// rather than an expected condition. Display names are not unique keys.
func (r *Registry) Register(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[s.ID]; exists {
		return ErrDuplicateID
	}
	r.sessions[s.ID] = s
	r.order = append(r.order, s.ID)

	ConnectedClients.Set(float64(len(r.sessions)))
	r.logger.Info("user registered", "id", s.ID, "username", s.Name)
	return nil
}

// Unregister removes the session and closes its outbox, atomically with
// respect to concurrent broadcasts: once removal begins no frame can be
// enqueued to it. Idempotent; reports whether the session was still present.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return false
	}
	delete(r.sessions, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	s.CloseOutbound()

	ConnectedClients.Set(float64(len(r.sessions)))
	r.logger.Info("user left", "id", id, "username", s.Name)
	return true
}

// Snapshot returns the registered sessions in insertion order, taken under a
// single lock acquisition so broadcast sees a consistent view.
func (r *Registry) Snapshot() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Session, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.sessions[id])
	}
	return out
}

// ByName returns every session registered under the given display name.
func (r *Registry) ByName(name string) []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Session
	for _, id := range r.order {
		if s := r.sessions[id]; s.Name == name {
			out = append(out, s)
		}
	}
	return out
}

// Names returns the sorted display names of all registered sessions.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.sessions))
	for _, s := range r.sessions {
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
