// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package erl provides the concurrency core of an Erlang-style actor
// runtime embedded in a host process.
//
// Clients spawn lightweight processes (procs), address them by opaque
// PIDs, send asynchronous messages between them, and receive those
// messages with optional selective matching, timeout, and fall-through
// handler. Procs may be linked: when a linked proc exits abnormally its
// partners are notified and, by default, induced to exit as well.
//
// # Quick Start
//
//	node := erl.New("demo")
//
//	echo := node.Spawn(func(p *erl.Proc) error {
//	    for {
//	        if err := p.Receive(func(msg any) {
//	            if req, ok := msg.(request); ok {
//	                req.replyTo.Send(req.payload)
//	            }
//	        }); err != nil {
//	            return err // cancelled
//	        }
//	    }
//	})
//
//	node.Spawn(func(p *erl.Proc) error {
//	    echo.Send(request{replyTo: p.Self(), payload: "hi"})
//	    err := p.Receive(func(msg any) { fmt.Println(msg) })
//	    node.Cancel(echo)
//	    return err
//	})
//	node.JoinAll()
//
// # Procs
//
// Each proc runs a user-supplied body on its own goroutine, owns a
// private unbounded mailbox, and suspends only inside receive calls,
// Sleep, or its own blocking I/O. Bodies end three ways:
//
//   - return nil, or unwind via [Proc.Exit]: a normal exit; linked procs
//     are not notified;
//   - return the proc's context error after a cancellation: the proc was
//     asked to stop (by [Proc.Cancel] or a link partner's abnormal exit);
//     links are notified, nothing is recorded;
//   - return any other error, or panic: an uncaught failure; links are
//     notified and the error lands in [Node.Uncaught].
//
// # Receiving
//
// Receive delivers the next user message. ReceiveMatch delivers the first
// message in arrival order accepted by a [Clause], leaving earlier
// non-matching messages queued in their original order:
//
//	// consume the first int; strings sent earlier stay queued
//	p.ReceiveMatch(erl.MatchType(func(n int) { total += n }))
//
// The timed variants run an optional timeout handler when the budget
// expires without a delivery:
//
//	p.ReceiveFor(handle, 100*time.Millisecond, func() { retry(p) })
//
// Control messages carrying link state travel the same queue as user
// messages and are transparent: the engine applies their effect in
// arrival order and the receive keeps waiting.
//
// # Links
//
// [Proc.Link] makes a symmetric pairing. An abnormal exit sends a
// link-exit notification to every partner; dequeueing it cancels the
// recipient, which propagates further. Supervising code watches
// [Node.Uncaught] (or [Node.UncaughtError]) for the root causes:
//
//	crashed := node.Spawn(worker, erl.WithLink(supervisor))
//
// # Mailbox
//
// The mailbox is exported for callers that want the queue without the
// runtime: an unbounded lock-free MPSC linked queue with FIFO and
// selective extraction, blocking and timed variants.
//
//	m := erl.NewMailbox[int]()
//	m.Offer(1)
//	v, err := m.PollMatch(func(n int) bool { return n > 2 })
//	if erl.IsWouldBlock(err) {
//	    // no matching element queued
//	}
//
// Producer operations are safe from any goroutine; consumer operations
// (Poll, Take, the Match family, DrainTo, All) are single-consumer by
// contract. Empty-queue and expired-timeout results are reported as
// [ErrWouldBlock], a control flow signal sourced from
// [code.hybscloud.com/iox] for ecosystem consistency — use a backoff or a
// blocking variant rather than propagating it:
//
//	backoff := iox.Backoff{}
//	for {
//	    v, err := m.Poll()
//	    if err == nil {
//	        backoff.Reset()
//	        consume(v)
//	        continue
//	    }
//	    backoff.Wait()
//	}
//
// # Ordering Guarantees
//
// Messages from one sender to one receiver arrive in the order sent (the
// producer's tail swap is the linearization point). No order is implied
// across senders. A selectively received element appears, to the
// consumer, delivered ahead of earlier non-matching elements; survivors
// keep their relative order.
//
// # Scheduling Model
//
// Procs are goroutines: scheduling is preemptive and parallel, sized by
// the Go runtime. The core holds no locks while user code runs; Offer is
// wait-free (one swap, one store) and Signal degenerates to a swap plus
// at most one channel send.
//
// # Out of Scope
//
// Remote nodes and serialization, bounded mailboxes and backpressure,
// monitors (as distinct from links), and fairness beyond per-sender FIFO.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors,
// [code.hybscloud.com/atomix] for word-sized atomics with explicit
// memory ordering, and [code.hybscloud.com/spin] for CPU pause
// instructions in retry loops.
package erl
