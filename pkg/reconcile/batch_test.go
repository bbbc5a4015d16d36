package reconcile

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/OFFIS-RIT/inventory-sync/pkg/collection"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	kind Kind
	id   string
}

type fakeWriter struct {
	mu       sync.Mutex
	calls    []call
	inFlight atomic.Int32
	peak     atomic.Int32
	// respond decides the outcome of a call; nil means 201/204.
	respond func(c call) (*collection.Response, error)
	// gate, when set, holds each call until it is closed.
	gate chan struct{}
}

func (f *fakeWriter) handle(ctx context.Context, c call) (*collection.Response, error) {
	n := f.inFlight.Add(1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	defer f.inFlight.Add(-1)

	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()

	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.respond != nil {
		return f.respond(c)
	}
	status := http.StatusNoContent
	if c.kind == Create {
		status = http.StatusCreated
	}
	return &collection.Response{StatusCode: status}, nil
}

func (f *fakeWriter) Create(ctx context.Context, r link) (*collection.Response, error) {
	return f.handle(ctx, call{Create, r.ID})
}

func (f *fakeWriter) Update(ctx context.Context, id string, r link) (*collection.Response, error) {
	return f.handle(ctx, call{Update, id})
}

func (f *fakeWriter) Delete(ctx context.Context, id string) (*collection.Response, error) {
	return f.handle(ctx, call{Delete, id})
}

func ops(kinds ...call) []Operation[link] {
	out := make([]Operation[link], 0, len(kinds))
	for _, k := range kinds {
		out = append(out, Operation[link]{Kind: k.kind, ID: k.id, Record: link{ID: k.id}})
	}
	return out
}

func TestExecute_Empty(t *testing.T) {
	w := &fakeWriter{}
	b := Execute[link](context.Background(), w, nil)
	assert.NoError(t, b.Err())
	assert.Empty(t, b.Outcomes)
	assert.Empty(t, w.calls)
}

func TestExecute_AllSucceed(t *testing.T) {
	w := &fakeWriter{}
	b := Execute[link](context.Background(), w, ops(call{Create, "a"}, call{Update, "b"}, call{Delete, "c"}))

	require.NoError(t, b.Err())
	require.Len(t, b.Outcomes, 3)
	assert.Equal(t, "a", b.Outcomes[0].Operation.ID)
	assert.Equal(t, http.StatusCreated, b.Outcomes[0].Response.StatusCode)
	assert.Equal(t, Update, b.Outcomes[1].Operation.Kind)
	assert.Equal(t, Delete, b.Outcomes[2].Operation.Kind)
	assert.Empty(t, b.Failed())
	assert.ElementsMatch(t, []call{{Create, "a"}, {Update, "b"}, {Delete, "c"}}, w.calls)
}

func TestExecute_DispatchesConcurrently(t *testing.T) {
	w := &fakeWriter{gate: make(chan struct{})}
	list := ops(call{Create, "a"}, call{Create, "b"}, call{Delete, "c"}, call{Update, "d"})

	done := make(chan *Batch[link])
	go func() { done <- Execute[link](context.Background(), w, list) }()

	require.Eventually(t, func() bool { return w.inFlight.Load() == int32(len(list)) },
		time.Second, time.Millisecond, "all operations must be in flight at once")
	close(w.gate)

	b := <-done
	require.NoError(t, b.Err())
	assert.Equal(t, int32(len(list)), w.peak.Load())
}

func TestExecute_FailureDoesNotCancelSiblings(t *testing.T) {
	release := make(chan struct{})
	w := &fakeWriter{
		respond: func(c call) (*collection.Response, error) {
			if c.kind == Delete {
				return &collection.Response{Method: http.MethodDelete, URL: "/x/" + c.id, StatusCode: http.StatusInternalServerError, Body: []byte("boom")}, nil
			}
			<-release
			return &collection.Response{StatusCode: http.StatusCreated}, nil
		},
	}

	done := make(chan *Batch[link])
	go func() {
		done <- Execute[link](context.Background(), w, ops(call{Create, "a"}, call{Delete, "d"}, call{Create, "b"}))
	}()

	select {
	case <-done:
		t.Fatal("batch settled before all operations finished")
	case <-time.After(20 * time.Millisecond):
	}
	close(release)
	b := <-done

	var statusErr *collection.StatusError
	require.ErrorAs(t, b.Err(), &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)

	require.Len(t, b.Outcomes, 3)
	assert.False(t, b.Outcomes[0].Failed())
	assert.True(t, b.Outcomes[1].Failed())
	assert.False(t, b.Outcomes[2].Failed())
	require.Len(t, b.Failed(), 1)
	assert.Equal(t, "d", b.Failed()[0].Operation.ID)
}

func TestExecute_ReportsFirstFailureObserved(t *testing.T) {
	second := make(chan struct{})
	w := &fakeWriter{
		respond: func(c call) (*collection.Response, error) {
			switch c.id {
			case "late":
				<-second
				time.Sleep(50 * time.Millisecond)
				return nil, errors.New("late failure")
			case "early":
				defer close(second)
				return nil, errors.New("early failure")
			}
			return &collection.Response{StatusCode: http.StatusCreated}, nil
		},
	}

	b := Execute[link](context.Background(), w, ops(call{Create, "late"}, call{Create, "ok"}, call{Create, "early"}))
	assert.EqualError(t, b.Err(), "early failure")
	assert.Len(t, b.Failed(), 2)
	assert.EqualError(t, b.Outcomes[0].Failure(), "late failure")
}

func TestCollectionWriter_MapsOperationsToMethods(t *testing.T) {
	var (
		mu      sync.Mutex
		methods []string
	)
	srv := newTestServer(t, func(method, path string) int {
		mu.Lock()
		methods = append(methods, method+" "+path)
		mu.Unlock()
		if method == http.MethodPost {
			return http.StatusCreated
		}
		return http.StatusNoContent
	})

	client, err := collection.NewFactory(collection.Options{}).Collection(collection.Context{OkapiURL: srv.URL, Tenant: "diku"}, "links")
	require.NoError(t, err)

	b := Execute[link](context.Background(), CollectionWriter[link]{Client: client},
		ops(call{Create, "a"}, call{Update, "b"}, call{Delete, "c"}))
	require.NoError(t, b.Err())
	assert.ElementsMatch(t, []string{"POST /links", "PUT /links/b", "DELETE /links/c"}, methods)
}
