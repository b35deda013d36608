package viewmodel

import (
	"context"
	"strings"
	"sync"

	"todoapp/feed"
	"todoapp/model"
	"todoapp/session"
)

func commentsPath(taskID string) string {
	return todosPath + "/" + taskID + "/comments"
}

// CommentViewModel keeps one task's comment thread synchronized with its
// sub-collection, oldest first. The thread is append-only.
type CommentViewModel struct {
	feed   feed.Feed
	sess   session.Provider
	taskID string

	mu           sync.Mutex
	active       bool
	list         []model.Comment
	sub          *feed.Subscription
	listeners    map[int]func()
	nextListener int
}

func NewCommentViewModel(f feed.Feed, sess session.Provider, taskID string) *CommentViewModel {
	return &CommentViewModel{
		feed:      f,
		sess:      sess,
		taskID:    taskID,
		listeners: make(map[int]func()),
	}
}

// Activate opens the live subscription on the task's comment thread, ordered
// by creation time ascending.
func (vm *CommentViewModel) Activate(ctx context.Context) error {
	vm.mu.Lock()
	if vm.active {
		vm.mu.Unlock()
		return ErrActive
	}
	vm.active = true
	vm.mu.Unlock()

	q := feed.Query{Path: commentsPath(vm.taskID), OrderBy: "createdAt"}
	sub, err := vm.feed.Subscribe(ctx, q, vm.apply)
	if err != nil {
		vm.mu.Lock()
		vm.active = false
		vm.mu.Unlock()
		return err
	}

	vm.mu.Lock()
	vm.sub = sub
	vm.mu.Unlock()
	return nil
}

// Deactivate releases the subscription; late snapshots are dropped.
func (vm *CommentViewModel) Deactivate() {
	vm.mu.Lock()
	if !vm.active {
		vm.mu.Unlock()
		return
	}
	vm.active = false
	sub := vm.sub
	vm.sub = nil
	vm.mu.Unlock()

	if sub != nil {
		sub.Release()
	}
}

func (vm *CommentViewModel) apply(docs []feed.Document) {
	vm.mu.Lock()
	if !vm.active {
		vm.mu.Unlock()
		return
	}
	list := make([]model.Comment, 0, len(docs))
	for _, d := range docs {
		list = append(list, model.CommentFromDoc(vm.taskID, d.ID, d.Data))
	}
	vm.list = list
	fns := make([]func(), 0, len(vm.listeners))
	for _, fn := range vm.listeners {
		fns = append(fns, fn)
	}
	vm.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Comments returns the thread in display order.
func (vm *CommentViewModel) Comments() []model.Comment {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	out := make([]model.Comment, len(vm.list))
	copy(out, vm.list)
	return out
}

// Append posts a comment as the current user. Empty or whitespace-only text
// is discarded without a feed call.
func (vm *CommentViewModel) Append(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	id, ok := vm.sess.Current()
	if !ok {
		return ErrNoSession
	}
	_, err := vm.feed.Create(ctx, commentsPath(vm.taskID), map[string]interface{}{
		"uid":       id.UserID,
		"text":      text,
		"createdAt": feed.ServerTimestamp,
	})
	return err
}

// OnChange registers fn to run whenever the thread changes. The returned
// func removes the registration.
func (vm *CommentViewModel) OnChange(fn func()) (release func()) {
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
