package viewmodel

import (
	"context"
	"sync"

	"todoapp/feed"
	"todoapp/scheduler"
	"todoapp/session"
)

// Registry hands out at most one live TaskViewModel per user, activated
// lazily on first use and held until the user signs out or the server
// shuts down.
type Registry struct {
	feed  feed.Feed
	sched *scheduler.Scheduler

	mu  sync.Mutex
	vms map[string]*TaskViewModel
}

func NewRegistry(f feed.Feed, sched *scheduler.Scheduler) *Registry {
	return &Registry{feed: f, sched: sched, vms: make(map[string]*TaskViewModel)}
}

// ForUser returns the user's live view-model, activating a new one if none
// exists. The subscription outlives the calling request.
func (r *Registry) ForUser(id session.Identity) (*TaskViewModel, error) {
	r.mu.Lock()
	if vm, ok := r.vms[id.UserID]; ok {
		r.mu.Unlock()
		return vm, nil
	}
	r.mu.Unlock()

	vm := NewTaskViewModel(r.feed, session.NewStatic(id), r.sched)
	if err := vm.Activate(context.Background()); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.vms[id.UserID]; ok {
		// Lost a race with a concurrent first request; keep the earlier one.
		vm.Deactivate()
		return existing, nil
	}
	r.vms[id.UserID] = vm
	return vm, nil
}

// Drop deactivates and forgets the user's view-model, if any.
func (r *Registry) Drop(userID string) {
	r.mu.Lock()
	vm, ok := r.vms[userID]
	delete(r.vms, userID)
	r.mu.Unlock()
	if ok {
		vm.Deactivate()
	}
}

// Close deactivates every live view-model.
func (r *Registry) Close() {
	r.mu.Lock()
	vms := make([]*TaskViewModel, 0, len(r.vms))
	for id, vm := range r.vms {
		vms = append(vms, vm)
		delete(r.vms, id)
	}
	r.mu.Unlock()
	for _, vm := range vms {
		vm.Deactivate()
	}
}
