// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package erl

import (
	"context"
	"iter"
	"sync/atomic"
	"time"

	"code.hybscloud.com/spin"
)

// Mailbox is an unbounded multi-producer single-consumer FIFO queue with
// selective extraction, based on Vyukov's non-intrusive MPSC queue.
//
// Any number of goroutines may call Offer concurrently. Exactly one
// goroutine — the owner — may call the consumer operations (Poll, Take,
// PollFor, PollMatch, PollMatchFor, TakeMatch, DrainTo, All). Violating
// the single-consumer constraint causes undefined behavior.
//
// The queue is a linked list of nodes. head always points at a node whose
// item has already been consumed (a sentinel); the first live element, if
// any, is head.next. Producers append by atomically swapping tail to a
// fresh node and then linking the previous tail to it. Between the swap
// and the link there is a transient window in which a consumer observes
// next == nil on a non-empty queue; consumers treat that as empty and
// park on the mailbox's barrier rather than walking past it.
//
// Selective extraction (PollMatch and friends) scans in FIFO order and
// unlinks the first match, leaving every other element in its original
// relative order. Interior unlinking relies on the single-consumer
// discipline: producers only ever touch tail, so the region between head
// and the last linked node is under exclusive consumer control.
//
// Length is intentionally not provided: the consumer can drain or iterate,
// and producers have no stable count to observe.
//
// Use NewMailbox to create a Mailbox.
type Mailbox[T any] struct {
	_    pad
	head atomic.Pointer[mbNode[T]] // consumer sentinel
	_    pad
	tail atomic.Pointer[mbNode[T]] // producer insertion anchor
	_    pad
	sig  Barrier
}

type mbNode[T any] struct {
	next atomic.Pointer[mbNode[T]]
	item T
}

// NewMailbox creates an empty mailbox. The initial sentinel node is shared
// by head and tail.
func NewMailbox[T any]() *Mailbox[T] {
	m := &Mailbox[T]{}
	s := new(mbNode[T])
	m.head.Store(s)
	m.tail.Store(s)
	return m
}

// Offer enqueues elem. It never blocks and never fails: the queue is
// unbounded. Safe to call from any goroutine.
//
// The tail swap is the producer linearization point; elements from a
// single producer are observed by the consumer in program order.
func (m *Mailbox[T]) Offer(elem T) {
	n := &mbNode[T]{item: elem}
	prev := m.tail.Swap(n)
	prev.next.Store(n)
	m.sig.Signal()
}

// Poll dequeues the head element without blocking.
// Returns (zero-value, ErrWouldBlock) if the mailbox is empty.
func (m *Mailbox[T]) Poll() (T, error) {
	h := m.head.Load()
	n := h.next.Load()
	if n == nil {
		var zero T
		return zero, ErrWouldBlock
	}
	elem := n.item
	var zero T
	n.item = zero // n becomes the new sentinel
	m.head.Store(n)
	return elem, nil
}

// Take dequeues the head element, parking on the mailbox barrier until
// an element is available or ctx is done.
func (m *Mailbox[T]) Take(ctx context.Context) (T, error) {
	for {
		if elem, err := m.Poll(); err == nil {
			return elem, nil
		}
		if err := m.sig.Await(ctx); err != nil {
			var zero T
			return zero, err
		}
	}
}

// PollFor dequeues the head element, waiting up to d for one to arrive.
// Returns ErrWouldBlock when the budget expires, ctx.Err() on
// cancellation. PollFor with a non-positive d behaves as Poll.
func (m *Mailbox[T]) PollFor(ctx context.Context, d time.Duration) (T, error) {
	for {
		if elem, err := m.Poll(); err == nil {
			return elem, nil
		}
		if d <= 0 {
			var zero T
			return zero, ErrWouldBlock
		}
		var err error
		if d, err = m.sig.AwaitFor(ctx, d); err != nil {
			var zero T
			return zero, err
		}
	}
}

// PollMatch scans the mailbox in FIFO order and extracts the first element
// for which pred returns true, leaving all other elements in place in
// their original relative order. Returns (zero-value, ErrWouldBlock) if no
// element matches among those currently linked.
func (m *Mailbox[T]) PollMatch(pred func(T) bool) (T, error) {
	prev := m.head.Load()
	for {
		n := prev.next.Load()
		if n == nil {
			var zero T
			return zero, ErrWouldBlock
		}
		if pred(n.item) {
			return m.unlink(prev, n), nil
		}
		prev = n
	}
}

// TakeMatch is PollMatch with a blocking tail: when the scan exhausts the
// queue it parks until producers extend it, then resumes scanning from the
// last scanned node. Elements rejected by pred are scanned at most once
// per call.
func (m *Mailbox[T]) TakeMatch(ctx context.Context, pred func(T) bool) (T, error) {
	prev := m.head.Load()
	for {
		n := prev.next.Load()
		if n == nil {
			if err := m.sig.Await(ctx); err != nil {
				var zero T
				return zero, err
			}
			continue
		}
		if pred(n.item) {
			return m.unlink(prev, n), nil
		}
		prev = n
	}
}

// PollMatchFor is TakeMatch bounded by d. Returns ErrWouldBlock when the
// budget expires without a match; a non-positive d scans once without
// blocking.
func (m *Mailbox[T]) PollMatchFor(ctx context.Context, pred func(T) bool, d time.Duration) (T, error) {
	prev := m.head.Load()
	for {
		n := prev.next.Load()
		if n == nil {
			if d <= 0 {
				var zero T
				return zero, ErrWouldBlock
			}
			var err error
			if d, err = m.sig.AwaitFor(ctx, d); err != nil {
				var zero T
				return zero, err
			}
			continue
		}
		if pred(n.item) {
			return m.unlink(prev, n), nil
		}
		prev = n
	}
}

// unlink extracts n from the list, prev being its scan predecessor.
// Case analysis against concurrent producers:
//
//	(a) n is the current tail: CAS tail back to prev so producers append
//	    before the orphaned node, then sever prev.next so later scans do
//	    not descend into it. If the tail CAS loses, a producer has already
//	    swapped tail past n; wait for its link store to retire and fall
//	    through to case (b) or (c).
//	(b) prev is the head sentinel: advance head onto n; n becomes the new
//	    sentinel with its item cleared.
//	(c) interior: plain store prev.next = n.next. Producers only touch
//	    tail, so the interior region is under single-consumer control.
func (m *Mailbox[T]) unlink(prev, n *mbNode[T]) T {
	elem := n.item
	next := n.next.Load()
	if next == nil {
		if m.tail.CompareAndSwap(n, prev) {
			prev.next.CompareAndSwap(n, nil)
			return elem
		}
		sw := spin.Wait{}
		for {
			if next = n.next.Load(); next != nil {
				break
			}
			sw.Once()
		}
	}
	if prev == m.head.Load() {
		var zero T
		n.item = zero
		m.head.Store(n)
		return elem
	}
	prev.next.Store(next)
	return elem
}

// DrainTo repeatedly polls up to max elements into sink, preserving their
// order, and returns the number moved. Panics if sink is the receiver.
func (m *Mailbox[T]) DrainTo(sink *Mailbox[T], max int) int {
	if sink == m {
		panic("erl: mailbox: drain into itself")
	}
	moved := 0
	for moved < max {
		elem, err := m.Poll()
		if err != nil {
			break
		}
		sink.Offer(elem)
		moved++
	}
	return moved
}

// All iterates the queued elements in FIFO order without removing them.
// Consumer-side operation: only the owning goroutine may call it, and it
// must not mutate the mailbox while iterating. The walk stops at the last
// linked node; elements offered during iteration may or may not be seen.
func (m *Mailbox[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for n := m.head.Load().next.Load(); n != nil; n = n.next.Load() {
			if !yield(n.item) {
				return
			}
		}
	}
}
