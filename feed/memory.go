package feed

import (
	"context"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory implements Feed on an in-process map, mirroring the backend's
// observable behavior: conditions filter at the store, snapshots carry the
// full current membership, server timestamps resolve at write time.
// Snapshots are delivered synchronously on the mutating goroutine, which
// keeps tests deterministic.
type Memory struct {
	mu        sync.Mutex
	cols      map[string]map[string]map[string]interface{}
	listeners map[int]*memListener
	nextID    int
}

var _ Feed = (*Memory)(nil)

type memListener struct {
	q  Query
	fn SnapshotFunc
}

func NewMemory() *Memory {
	return &Memory{
		cols:      make(map[string]map[string]map[string]interface{}),
		listeners: make(map[int]*memListener),
	}
}

func (m *Memory) col(path string) map[string]map[string]interface{} {
	c, ok := m.cols[path]
	if !ok {
		c = make(map[string]map[string]interface{})
		m.cols[path] = c
	}
	return c
}

func (m *Memory) Subscribe(ctx context.Context, q Query, fn SnapshotFunc) (*Subscription, error) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = &memListener{q: q, fn: fn}
	docs := m.snapshotLocked(q)
	m.mu.Unlock()

	fn(docs)

	release := func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
	return NewSubscription(release, nil), nil
}

func (m *Memory) Create(ctx context.Context, path string, fields map[string]interface{}) (string, error) {
	id := uuid.New().String()
	m.mu.Lock()
	m.col(path)[id] = resolve(fields)
	m.mu.Unlock()
	m.notify(path)
	return id, nil
}

func (m *Memory) Set(ctx context.Context, path, id string, fields map[string]interface{}) error {
	m.mu.Lock()
	doc, ok := m.col(path)[id]
	if !ok {
		doc = make(map[string]interface{})
		m.col(path)[id] = doc
	}
	for k, v := range resolve(fields) {
		doc[k] = v
	}
	m.mu.Unlock()
	m.notify(path)
	return nil
}

func (m *Memory) Delete(ctx context.Context, path, id string) error {
	m.mu.Lock()
	delete(m.col(path), id)
	m.mu.Unlock()
	m.notify(path)
	return nil
}

func (m *Memory) GetOnce(ctx context.Context, path, id string) (map[string]interface{}, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.col(path)[id]
	if !ok {
		return nil, false, nil
	}
	return clone(doc), true, nil
}

// notify pushes a fresh snapshot to every listener on path. Callbacks run
// outside the lock so a callback may issue feed operations.
func (m *Memory) notify(path string) {
	type delivery struct {
		fn   SnapshotFunc
		docs []Document
	}
	m.mu.Lock()
	var due []delivery
	for _, l := range m.listeners {
		if l.q.Path != path {
			continue
		}
		due = append(due, delivery{l.fn, m.snapshotLocked(l.q)})
	}
	m.mu.Unlock()
	for _, d := range due {
		d.fn(d.docs)
	}
}

func (m *Memory) snapshotLocked(q Query) []Document {
	var docs []Document
	for id, fields := range m.cols[q.Path] {
		if !matches(q.Where, fields) {
			continue
		}
		docs = append(docs, Document{ID: id, Data: clone(fields)})
	}
	if q.OrderBy != "" {
		sort.SliceStable(docs, func(i, j int) bool {
			return lessValue(docs[i].Data[q.OrderBy], docs[j].Data[q.OrderBy])
		})
	} else {
		sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	}
	return docs
}

func matches(conds []Condition, fields map[string]interface{}) bool {
	for _, c := range conds {
		// Only equality is used by this system.
		if c.Op != "==" {
			return false
		}
		if !reflect.DeepEqual(fields[c.Field], c.Value) {
			return false
		}
	}
	return true
}

func lessValue(a, b interface{}) bool {
	switch av := a.(type) {
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Before(bv)
		}
	case string:
		if bv, ok := b.(string); ok {
			return av < bv
		}
	case int:
		if bv, ok := b.(int); ok {
			return av < bv
		}
	}
	return false
}

func resolve(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if _, ok := v.(serverTimestamp); ok {
			out[k] = time.Now()
			continue
		}
		out[k] = v
	}
	return out
}

func clone(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
