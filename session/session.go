// Package session supplies the current user identity to the view-models.
// Identity is injected at construction rather than read from a global, so
// tests can run with fake identities.
package session

import "sync"

// Identity is the authenticated user a view-model is scoped to.
type Identity struct {
	UserID string
	Email  string
}

// Provider exposes the current identity and change notifications.
type Provider interface {
	// Current returns the signed-in identity; ok is false when signed out.
	Current() (id Identity, ok bool)

	// OnChange registers fn to run on every sign-in and sign-out. The
	// returned func removes the registration and is idempotent.
	OnChange(fn func(id Identity, ok bool)) (release func())
}

// Static is a Provider pinned to one identity for its whole lifetime. The
// HTTP layer builds one per authenticated user from the verified token.
type Static struct {
	id Identity
}

func NewStatic(id Identity) *Static {
	return &Static{id: id}
}

func (s *Static) Current() (Identity, bool) {
	return s.id, true
}

func (s *Static) OnChange(func(Identity, bool)) func() {
	return func() {}
}

// Emitter is a mutable Provider for scopes where the identity changes over
// time, such as tests driving a login/logout sequence.
type Emitter struct {
	mu        sync.Mutex
	id        Identity
	signedIn  bool
	listeners map[int]func(Identity, bool)
	nextID    int
}

func NewEmitter() *Emitter {
	return &Emitter{listeners: make(map[int]func(Identity, bool))}
}

func (e *Emitter) Current() (Identity, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.id, e.signedIn
}

func (e *Emitter) OnChange(fn func(Identity, bool)) func() {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = fn
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.listeners, id)
			e.mu.Unlock()
		})
	}
}

// SignIn sets the identity and notifies listeners.
func (e *Emitter) SignIn(id Identity) {
	e.mu.Lock()
	e.id = id
	e.signedIn = true
	fns := e.snapshotLocked()
	e.mu.Unlock()
	for _, fn := range fns {
		fn(id, true)
	}
}

// SignOut clears the identity and notifies listeners.
func (e *Emitter) SignOut() {
	e.mu.Lock()
	e.id = Identity{}
	e.signedIn = false
	fns := e.snapshotLocked()
	e.mu.Unlock()
	for _, fn := range fns {
		fn(Identity{}, false)
	}
}

// snapshotLocked copies the listener set so callbacks run outside the lock
// and may release themselves.
func (e *Emitter) snapshotLocked() []func(Identity, bool) {
	fns := make([]func(Identity, bool), 0, len(e.listeners))
	for _, fn := range e.listeners {
		fns = append(fns, fn)
	}
	return fns
}
