// Package feed defines the document-feed contract the view-models are built
// against: a subscribable collection store with create, merge-update, delete
// and single-read operations. Firestore backs it in production; Memory backs
// the tests.
package feed

import (
	"context"
	"sync"
)

// ServerTimestamp marks a field whose value is assigned by the backend at
// write time.
var ServerTimestamp = serverTimestamp{}

type serverTimestamp struct{}

// Document is one record of a subscribed collection.
type Document struct {
	ID   string
	Data map[string]interface{}
}

// Condition is a field filter applied by the backend, not client-side.
type Condition struct {
	Field string
	Op    string
	Value interface{}
}

// Query scopes a subscription to a collection path, optional conditions and
// an optional ascending order field.
type Query struct {
	Path    string
	Where   []Condition
	OrderBy string
}

// SnapshotFunc receives the complete current membership of a subscribed
// query, once on subscribe and again after every change.
type SnapshotFunc func(docs []Document)

type Feed interface {
	// Subscribe opens a live subscription. fn is invoked with the initial
	// membership before Subscribe returns, then on every subsequent change
	// from a feed-owned goroutine, until the handle is released.
	Subscribe(ctx context.Context, q Query, fn SnapshotFunc) (*Subscription, error)

	// Create adds a document under a generated ID and returns that ID.
	Create(ctx context.Context, path string, fields map[string]interface{}) (string, error)

	// Set merges fields into the document, creating it if absent. Fields
	// not named are left untouched.
	Set(ctx context.Context, path, id string, fields map[string]interface{}) error

	// Delete removes the document. Deleting an absent document is not an
	// error.
	Delete(ctx context.Context, path, id string) error

	// GetOnce reads a single document; ok is false if it does not exist.
	GetOnce(ctx context.Context, path, id string) (data map[string]interface{}, ok bool, err error)
}

// Subscription is a live subscription handle. Release is idempotent and
// stops snapshot delivery; it must be called on every exit path of the
// subscriber.
type Subscription struct {
	once    sync.Once
	release func()
	err     func() error
}

func NewSubscription(release func(), err func() error) *Subscription {
	return &Subscription{release: release, err: err}
}

func (s *Subscription) Release() {
	s.once.Do(s.release)
}

// Err reports the error that terminated the subscription, if any. A released
// subscription reports nil.
func (s *Subscription) Err() error {
	if s.err == nil {
		return nil
	}
	return s.err()
}
