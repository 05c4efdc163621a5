package quizgen

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// debouncer collapses identical requests submitted within a window into a
// single generation. The shared generation runs on a context detached from
// every caller and is cancelled only when all of its callers have gone.
type debouncer struct {
	window time.Duration
	now    func() time.Time

	group singleflight.Group

	mu      sync.Mutex
	seq     uint64
	flights map[string]*flight
}

type flight struct {
	key     string // singleflight key, unique per flight
	started time.Time
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
	done    bool
}

func newDebouncer(window time.Duration, now func() time.Time) *debouncer {
	return &debouncer{window: window, now: now, flights: make(map[string]*flight)}
}

// do runs fn once per flight of identical requests. shared reports whether
// the result was delivered to more than one caller.
func (d *debouncer) do(ctx context.Context, key string, fn func(context.Context) (*Quiz, error)) (quiz *Quiz, err error, shared bool) {
	if d.window <= 0 {
		q, err := fn(ctx)
		return q, err, false
	}

	d.mu.Lock()
	f := d.flights[key]
	if f == nil || f.done || d.now().Sub(f.started) >= d.window {
		d.seq++
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{
			key:     key + "#" + strconv.FormatUint(d.seq, 10),
			started: d.now(),
			ctx:     fctx,
			cancel:  cancel,
		}
		d.flights[key] = f
	}
	f.waiters++
	// Joining under the lock guarantees the flight has not completed yet:
	// completion needs the lock to mark it done.
	ch := d.group.DoChan(f.key, func() (any, error) {
		q, err := fn(f.ctx)
		d.finish(key, f)
		return q, err
	})
	d.mu.Unlock()

	select {
	case res := <-ch:
		d.leave(key, f, false)
		q, _ := res.Val.(*Quiz)
		return q.Clone(), copyError(res.Err), res.Shared
	case <-ctx.Done():
		d.leave(key, f, true)
		return nil, ctx.Err(), false
	}
}

func (d *debouncer) finish(key string, f *flight) {
	d.mu.Lock()
	f.done = true
	if d.flights[key] == f {
		delete(d.flights, key)
	}
	d.mu.Unlock()
	f.cancel()
}

// leave drops a caller from the flight. When the last caller cancels, the
// shared generation is cancelled and its memo entry released.
func (d *debouncer) leave(key string, f *flight, cancelled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	f.waiters--
	if !cancelled || f.waiters > 0 || f.done {
		return
	}
	f.cancel()
	d.group.Forget(f.key)
	if d.flights[key] == f {
		delete(d.flights, key)
	}
}

// copyError gives each caller its own GenerationError value.
func copyError(err error) error {
	gerr, ok := err.(*GenerationError)
	if !ok {
		return err
	}
	out := *gerr
	out.Attempts = append([]Attempt(nil), gerr.Attempts...)
	out.States = append([]State(nil), gerr.States...)
	return &out
}
