package reconcile

import (
	"context"

	"github.com/OFFIS-RIT/inventory-sync/pkg/collection"

	"golang.org/x/sync/errgroup"
)

// Writer performs the remote writes of a reconciliation pass.
type Writer[T Record[T]] interface {
	Create(ctx context.Context, record T) (*collection.Response, error)
	Update(ctx context.Context, id string, record T) (*collection.Response, error)
	Delete(ctx context.Context, id string) (*collection.Response, error)
}

// CollectionWriter writes records to a collection endpoint.
type CollectionWriter[T Record[T]] struct {
	Client *collection.Client
}

func (w CollectionWriter[T]) Create(ctx context.Context, record T) (*collection.Response, error) {
	return w.Client.Post(ctx, record)
}

func (w CollectionWriter[T]) Update(ctx context.Context, id string, record T) (*collection.Response, error) {
	return w.Client.Put(ctx, id, record)
}

func (w CollectionWriter[T]) Delete(ctx context.Context, id string) (*collection.Response, error) {
	return w.Client.Delete(ctx, id)
}

// Outcome is the result of one dispatched operation.
// Err is set when no response arrived; Response is set otherwise.
type Outcome[T Record[T]] struct {
	Operation Operation[T]
	Response  *collection.Response
	Err       error
}

// Failure returns the transport error or, for a non-2xx response, a *collection.StatusError.
func (o Outcome[T]) Failure() error {
	if o.Err != nil {
		return o.Err
	}
	return o.Response.Err()
}

// Failed reports whether the operation did not succeed.
func (o Outcome[T]) Failed() bool {
	return o.Failure() != nil
}

// Batch holds the outcomes of one executed operation list.
type Batch[T Record[T]] struct {
	// Outcomes are in the order of the operations passed to Execute.
	Outcomes []Outcome[T]
	err      error
}

// Err returns the first failure observed, or nil when every operation succeeded.
func (b *Batch[T]) Err() error {
	return b.err
}

// Failed returns the failed outcomes in operation order.
func (b *Batch[T]) Failed() []Outcome[T] {
	var failed []Outcome[T]
	for _, o := range b.Outcomes {
		if o.Failed() {
			failed = append(failed, o)
		}
	}
	return failed
}

// Execute dispatches all operations concurrently and waits for every one of them.
// A failure does not cancel the others; writes that succeeded are not rolled back.
func Execute[T Record[T]](ctx context.Context, w Writer[T], ops []Operation[T]) *Batch[T] {
	b := &Batch[T]{Outcomes: make([]Outcome[T], len(ops))}
	if len(ops) == 0 {
		return b
	}

	var g errgroup.Group
	for i, op := range ops {
		g.Go(func() error {
			resp, err := dispatch(ctx, w, op)
			o := Outcome[T]{Operation: op, Response: resp, Err: err}
			b.Outcomes[i] = o
			return o.Failure()
		})
	}
	b.err = g.Wait()

	return b
}

func dispatch[T Record[T]](ctx context.Context, w Writer[T], op Operation[T]) (*collection.Response, error) {
	switch op.Kind {
	case Create:
		return w.Create(ctx, op.Record)
	case Update:
		return w.Update(ctx, op.ID, op.Record)
	default:
		return w.Delete(ctx, op.ID)
	}
}
