package feed

import (
	"context"
	"sync"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore implements Feed on a Firestore client. Collection paths map
// directly to Firestore collection paths, so sub-collections like
// "todos/{id}/comments" work unchanged.
type Firestore struct {
	client *firestore.Client
}

var _ Feed = (*Firestore)(nil)

func NewFirestore(client *firestore.Client) *Firestore {
	return &Firestore{client: client}
}

func (f *Firestore) build(q Query) firestore.Query {
	fq := f.client.Collection(q.Path).Query
	for _, c := range q.Where {
		fq = fq.Where(c.Field, c.Op, c.Value)
	}
	if q.OrderBy != "" {
		fq = fq.OrderBy(q.OrderBy, firestore.Asc)
	}
	return fq
}

func (f *Firestore) Subscribe(ctx context.Context, q Query, fn SnapshotFunc) (*Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	it := f.build(q).Snapshots(ctx)

	// Deliver the initial membership before returning so the subscriber
	// activates with a populated cache.
	snap, err := it.Next()
	if err != nil {
		cancel()
		it.Stop()
		return nil, err
	}
	docs, err := collect(snap)
	if err != nil {
		cancel()
		it.Stop()
		return nil, err
	}
	fn(docs)

	var mu sync.Mutex
	var subErr error
	fail := func(err error) {
		mu.Lock()
		subErr = err
		mu.Unlock()
	}

	// No reconnect on error: the subscription is dead and the subscriber
	// has to re-activate.
	go func() {
		for {
			snap, err := it.Next()
			if err != nil {
				if err != iterator.Done && status.Code(err) != codes.Canceled {
					fail(err)
				}
				return
			}
			docs, err := collect(snap)
			if err != nil {
				fail(err)
				return
			}
			fn(docs)
		}
	}()

	release := func() {
		cancel()
		it.Stop()
	}
	errFn := func() error {
		mu.Lock()
		defer mu.Unlock()
		return subErr
	}
	return NewSubscription(release, errFn), nil
}

func collect(snap *firestore.QuerySnapshot) ([]Document, error) {
	var docs []Document
	for {
		doc, err := snap.Documents.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{ID: doc.Ref.ID, Data: doc.Data()})
	}
	return docs, nil
}

func (f *Firestore) Create(ctx context.Context, path string, fields map[string]interface{}) (string, error) {
	ref, _, err := f.client.Collection(path).Add(ctx, translate(fields))
	if err != nil {
		return "", err
	}
	return ref.ID, nil
}

func (f *Firestore) Set(ctx context.Context, path, id string, fields map[string]interface{}) error {
	_, err := f.client.Collection(path).Doc(id).Set(ctx, translate(fields), firestore.MergeAll)
	return err
}

func (f *Firestore) Delete(ctx context.Context, path, id string) error {
	_, err := f.client.Collection(path).Doc(id).Delete(ctx)
	return err
}

func (f *Firestore) GetOnce(ctx context.Context, path, id string) (map[string]interface{}, bool, error) {
	doc, err := f.client.Collection(path).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	return doc.Data(), true, nil
}

// translate swaps the feed's server-timestamp marker for Firestore's.
func translate(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if _, ok := v.(serverTimestamp); ok {
			out[k] = firestore.ServerTimestamp
			continue
		}
		out[k] = v
	}
	return out
}
