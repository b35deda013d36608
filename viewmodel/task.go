package viewmodel

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"todoapp/feed"
	"todoapp/model"
	"todoapp/scheduler"
	"todoapp/session"
)

const (
	todosPath    = "todos"
	settingsPath = "settings"
)

var (
	ErrNoSession = errors.New("no signed-in session")
	ErrActive    = errors.New("view-model already active")
)

// TaskViewModel keeps one owner's task list synchronized with the feed and
// turns user intents into feed mutations. It holds no authoritative state:
// the displayed list is recomputed from the last snapshot plus the current
// filter and search, and a mutation shows up only once the subscription
// echoes it back. Failed mutations are returned to the caller, never retried
// or queued.
type TaskViewModel struct {
	feed  feed.Feed
	sess  session.Provider
	sched *scheduler.Scheduler // may be nil, reminders disabled

	mu             sync.Mutex
	owner          session.Identity
	active         bool
	cache          map[string]model.Task
	filter         string
	search         string
	sub            *feed.Subscription
	releaseSession func()
	listeners      map[int]func()
	nextListener   int
}

func NewTaskViewModel(f feed.Feed, sess session.Provider, sched *scheduler.Scheduler) *TaskViewModel {
	return &TaskViewModel{
		feed:      f,
		sess:      sess,
		sched:     sched,
		cache:     make(map[string]model.Task),
		filter:    model.FilterAll,
		listeners: make(map[int]func()),
	}
}

// Activate restores the owner's saved filter and opens the single live
// subscription scoped to them. A sign-out or identity change deactivates
// the view-model automatically.
func (vm *TaskViewModel) Activate(ctx context.Context) error {
	id, ok := vm.sess.Current()
	if !ok {
		return ErrNoSession
	}

	vm.mu.Lock()
	if vm.active {
		vm.mu.Unlock()
		return ErrActive
	}
	vm.active = true
	vm.owner = id
	vm.mu.Unlock()

	// Register for session changes before touching the feed, so a sign-out
	// arriving mid-activation deactivates instead of slipping past.
	release := vm.sess.OnChange(func(next session.Identity, ok bool) {
		if !ok || next.UserID != id.UserID {
			vm.Deactivate()
		}
	})
	vm.mu.Lock()
	if !vm.active {
		vm.mu.Unlock()
		release()
		return ErrNoSession
	}
	vm.releaseSession = release
	vm.mu.Unlock()

	filter, err := vm.loadSettings(ctx, id.UserID)
	if err != nil {
		vm.Deactivate()
		return err
	}
	vm.mu.Lock()
	if !vm.active {
		vm.mu.Unlock()
		return ErrNoSession
	}
	vm.filter = filter
	vm.mu.Unlock()

	q := feed.Query{
		Path:  todosPath,
		Where: []feed.Condition{{Field: "uid", Op: "==", Value: id.UserID}},
	}
	sub, err := vm.feed.Subscribe(ctx, q, vm.apply)
	if err != nil {
		vm.Deactivate()
		return err
	}

	vm.mu.Lock()
	if !vm.active {
		// Deactivated while subscribing; don't leak the handle.
		vm.mu.Unlock()
		sub.Release()
		return ErrNoSession
	}
	vm.sub = sub
	vm.mu.Unlock()
	return nil
}

// Deactivate releases the subscription and the session registration. Safe
// to call more than once; snapshots arriving afterwards are dropped.
func (vm *TaskViewModel) Deactivate() {
	vm.mu.Lock()
	if !vm.active {
		vm.mu.Unlock()
		return
	}
	vm.active = false
	sub := vm.sub
	rel := vm.releaseSession
	vm.sub = nil
	vm.releaseSession = nil
	vm.mu.Unlock()

	if sub != nil {
		sub.Release()
	}
	if rel != nil {
		rel()
	}
}

// loadSettings restores the saved filter, creating the settings document
// with the default on a user's first activation. Two simultaneous first
// loads both write; the merge write on a fixed document ID makes that
// last-write-wins, which is fine since both write the same default.
func (vm *TaskViewModel) loadSettings(ctx context.Context, userID string) (string, error) {
	data, ok, err := vm.feed.GetOnce(ctx, settingsPath, userID)
	if err != nil {
		return "", err
	}
	if ok {
		return model.SettingsFromDoc(data).Filter, nil
	}
	err = vm.feed.Set(ctx, settingsPath, userID, map[string]interface{}{"filter": model.FilterAll})
	if err != nil {
		return "", err
	}
	return model.FilterAll, nil
}

// apply replaces the cache with a snapshot's full membership. Owner scoping
// is the subscription's job; nothing is re-filtered here.
func (vm *TaskViewModel) apply(docs []feed.Document) {
	vm.mu.Lock()
	if !vm.active {
		vm.mu.Unlock()
		return
	}
	cache := make(map[string]model.Task, len(docs))
	for _, d := range docs {
		cache[d.ID] = model.TaskFromDoc(d.ID, d.Data)
	}
	vm.cache = cache
	fns := vm.listenersLocked()
	vm.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Tasks returns the derived, displayable list.
func (vm *TaskViewModel) Tasks() []model.Task {
	vm.mu.Lock()
	tasks := make([]model.Task, 0, len(vm.cache))
	for _, t := range vm.cache {
		tasks = append(tasks, t)
	}
	filter, search := vm.filter, vm.search
	vm.mu.Unlock()

	// Fix the map's iteration order before the stable sort so identical
	// caches always derive the identical sequence.
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return Derive(tasks, filter, search)
}

// Get returns the cached task by ID.
func (vm *TaskViewModel) Get(id string) (model.Task, bool) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	t, ok := vm.cache[id]
	return t, ok
}

func (vm *TaskViewModel) Filter() string {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.filter
}

func (vm *TaskViewModel) Search() string {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.search
}

// SetSearch updates the transient search text.
func (vm *TaskViewModel) SetSearch(s string) {
	vm.mu.Lock()
	changed := vm.search != s
	vm.search = s
	fns := vm.listenersLocked()
	vm.mu.Unlock()
	if changed {
		for _, fn := range fns {
			fn()
		}
	}
}

// SetFilter applies the filter locally right away and persists it to the
// settings document with merge semantics.
func (vm *TaskViewModel) SetFilter(ctx context.Context, f string) error {
	if !model.ValidFilter(f) {
		return fmt.Errorf("unknown filter %q", f)
	}
	vm.mu.Lock()
	vm.filter = f
	owner := vm.owner
	fns := vm.listenersLocked()
	vm.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
	return vm.feed.Set(ctx, settingsPath, owner.UserID, map[string]interface{}{"filter": f})
}

// Add submits a new task. Empty or whitespace-only text is discarded without
// a feed call. If the due date parses to a future moment, a best-effort
// reminder is armed for it.
func (vm *TaskViewModel) Add(ctx context.Context, text, dueDate string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	vm.mu.Lock()
	owner := vm.owner
	vm.mu.Unlock()

	due := dueDate
	if due == "" {
		due = model.NoDueDate
	}
	id, err := vm.feed.Create(ctx, todosPath, map[string]interface{}{
		"uid":       owner.UserID,
		"text":      text,
		"completed": false,
		"dueDate":   due,
		"createdAt": feed.ServerTimestamp,
	})
	if err != nil {
		return err
	}
	if vm.sched != nil {
		if at, ok := dueDateKey(due); ok {
			vm.sched.Schedule(id, text, at)
		}
	}
	return nil
}

// Toggle flips the task's completed flag with a partial update.
func (vm *TaskViewModel) Toggle(ctx context.Context, t model.Task) error {
	return vm.feed.Set(ctx, todosPath, t.ID, map[string]interface{}{"completed": !t.Completed})
}

// Edit replaces the task's text. Empty text discards the edit. A pending
// reminder is disarmed since its text no longer matches.
func (vm *TaskViewModel) Edit(ctx context.Context, t model.Task, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if err := vm.feed.Set(ctx, todosPath, t.ID, map[string]interface{}{"text": text}); err != nil {
		return err
	}
	if vm.sched != nil {
		vm.sched.Cancel(t.ID)
	}
	return nil
}

// Delete removes the task and disarms its pending reminder.
func (vm *TaskViewModel) Delete(ctx context.Context, t model.Task) error {
	if err := vm.feed.Delete(ctx, todosPath, t.ID); err != nil {
		return err
	}
	if vm.sched != nil {
		vm.sched.Cancel(t.ID)
	}
	return nil
}

// Err reports the error that terminated the live subscription, if any.
func (vm *TaskViewModel) Err() error {
	vm.mu.Lock()
	sub := vm.sub
	vm.mu.Unlock()
	if sub == nil {
		return nil
	}
	return sub.Err()
}

// OnChange registers fn to run whenever the derived list may have changed.
// The returned func removes the registration.
func (vm *TaskViewModel) OnChange(fn func()) (release func()) {
	vm.mu.Lock()
	id := vm.nextListener
	vm.nextListener++
	vm.listeners[id] = fn
	vm.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			vm.mu.Lock()
			delete(vm.listeners, id)
			vm.mu.Unlock()
		})
	}
}

func (vm *TaskViewModel) listenersLocked() []func() {
	fns := make([]func(), 0, len(vm.listeners))
	for _, fn := range vm.listeners {
		fns = append(fns, fn)
	}
	return fns
}
