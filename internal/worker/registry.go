package worker

import (
	"sync"

	"github.com/google/uuid"

	"github.com/makeasinger/studio/internal/model"
)

type jobKey struct {
	kind model.JobKind
	id   int64
}

// Registry tracks the active poller of each job. Every poll chain carries a
// token; a tick whose token is no longer registered belongs to a cancelled
// chain and is dropped.
type Registry struct {
	mu     sync.Mutex
	active map[jobKey]string
}

func NewRegistry() *Registry {
	return &Registry{active: make(map[jobKey]string)}
}

// Acquire starts a chain for the job. It returns false if one is already active.
func (r *Registry) Acquire(kind model.JobKind, id int64) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := jobKey{kind, id}
	if _, ok := r.active[key]; ok {
		return "", false
	}
	token := uuid.NewString()
	r.active[key] = token
	return token, true
}

// Owns reports whether token is the job's current chain
func (r *Registry) Owns(kind model.JobKind, id int64, token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.active[jobKey{kind, id}]
	return ok && current == token
}

// Release ends the chain identified by token. A newer chain is left alone.
func (r *Registry) Release(kind model.JobKind, id int64, token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := jobKey{kind, id}
	if r.active[key] == token {
		delete(r.active, key)
	}
}

// Cancel ends whatever chain the job has
func (r *Registry) Cancel(kind model.JobKind, id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := jobKey{kind, id}
	_, ok := r.active[key]
	delete(r.active, key)
	return ok
}

// Active reports whether the job has a running chain
func (r *Registry) Active(kind model.JobKind, id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[jobKey{kind, id}]
	return ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}
