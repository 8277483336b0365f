// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package erl

import (
	"context"
	"sync/atomic"
	"time"

	"code.hybscloud.com/spin"
)

// Barrier is a single-waiter park/unpark primitive.
//
// Exactly one goroutine (the consumer) may wait on a Barrier at a time;
// any number of goroutines may call Signal. The barrier carries a single
// sticky permit: a Signal delivered while no waiter is parked makes the
// next Await return immediately. Further Signals before that Await are
// no-ops, so waiters can be woken spuriously and must re-check their wait
// condition after every wakeup.
//
// A mailbox with exactly one consumer needs only this single-slot wakeup
// device. Signal is wait-free apart from at most one channel send, which
// keeps the producers' enqueue path free of locks.
//
// The zero Barrier is ready to use.
type Barrier struct {
	_ pad
	// state is nil when idle, the permit sentinel when a signal is
	// pending, or the parked waiter otherwise.
	state atomic.Pointer[barrierWaiter]
	_     pad
}

type barrierWaiter struct {
	ch chan struct{}
}

// permit marks a pending signal with no waiter parked.
var permit = new(barrierWaiter)

// Await parks the calling goroutine until Signal is called or ctx is done.
//
// Returns nil on wakeup (possibly spurious) and ctx.Err() on cancellation.
// Panics if another goroutine is already waiting: a Barrier has a single
// consumer by contract.
func (b *Barrier) Await(ctx context.Context) error {
	w, err := b.install(ctx)
	if w == nil {
		return err
	}
	select {
	case <-w.ch:
		return nil
	case <-ctx.Done():
		b.state.CompareAndSwap(w, nil)
		return ctx.Err()
	}
}

// AwaitFor parks the calling goroutine for at most d.
//
// Returns the unused part of d (zero when the budget expired) and nil,
// or ctx.Err() on cancellation. A zero remainder with a nil error means
// the wait timed out; callers re-check their condition either way.
// Panics if another goroutine is already waiting.
func (b *Barrier) AwaitFor(ctx context.Context, d time.Duration) (time.Duration, error) {
	if d <= 0 {
		return 0, nil
	}
	w, err := b.install(ctx)
	if w == nil {
		return d, err
	}
	start := time.Now()
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-w.ch:
		if rem := d - time.Since(start); rem > 0 {
			return rem, nil
		}
		return 0, nil
	case <-t.C:
		b.state.CompareAndSwap(w, nil)
		return 0, nil
	case <-ctx.Done():
		b.state.CompareAndSwap(w, nil)
		return 0, ctx.Err()
	}
}

// install claims the waiter slot. It returns (nil, nil) when a pending
// permit was consumed (the caller wakes immediately), (nil, ctx.Err())
// when ctx is already done, and the installed waiter otherwise.
func (b *Barrier) install(ctx context.Context) (*barrierWaiter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w := &barrierWaiter{ch: make(chan struct{}, 1)}
	sw := spin.Wait{}
	for {
		switch cur := b.state.Load(); cur {
		case nil:
			if b.state.CompareAndSwap(nil, w) {
				return w, nil
			}
		case permit:
			if b.state.CompareAndSwap(permit, nil) {
				return nil, nil
			}
		default:
			panic("erl: barrier: concurrent await")
		}
		sw.Once()
	}
}

// Signal wakes the parked waiter, if any, or leaves a permit so the next
// Await returns immediately. Signalling an already-signalled barrier is a
// no-op. Safe to call from any number of goroutines.
func (b *Barrier) Signal() {
	sw := spin.Wait{}
	for {
		switch cur := b.state.Load(); cur {
		case nil:
			if b.state.CompareAndSwap(nil, permit) {
				return
			}
		case permit:
			return
		default:
			if b.state.CompareAndSwap(cur, nil) {
				cur.ch <- struct{}{}
				return
			}
		}
		sw.Once()
	}
}
