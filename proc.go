// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package erl

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"code.hybscloud.com/atomix"
	"github.com/pkg/errors"
)

// ProcState is a proc's lifecycle phase. Transitions are monotonic:
// new → runnable (registered) → running (goroutine picked up) → terminated.
type ProcState int32

const (
	ProcNew ProcState = iota
	ProcRunnable
	ProcRunning
	ProcTerminated
)

// String returns the string representation of the state.
func (s ProcState) String() string {
	switch s {
	case ProcNew:
		return "new"
	case ProcRunnable:
		return "runnable"
	case ProcRunning:
		return "running"
	case ProcTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("unknown(%d)", int32(s))
	}
}

// Proc is one running actor: it owns a mailbox, runs a user-supplied body
// on its own goroutine, tracks linked partners, and reports its exit to
// the owning node.
//
// The *Proc handed to the body is the per-proc context: user code calls
// Receive, Link, Send-via-Self and friends on it. Consumer-side mailbox
// operations are only valid on the proc's own goroutine; producers
// (other procs, external code) address it through its PID.
type Proc struct {
	pid    PID
	node   *Node
	mbox   *Mailbox[any]
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	state  atomix.Int32

	// links is mutated by the proc goroutine (Link/Unlink, system message
	// effects) and read by the exit path; incoming link system messages
	// from other procs are applied on this proc's goroutine, but WithLink
	// at spawn time writes from the spawner, hence the lock.
	mu    sync.Mutex
	links map[PID]struct{}

	// err is the exit reason, written once before done closes.
	err error
}

// State reports the proc's current lifecycle phase, for diagnostics.
func (p *Proc) State() ProcState {
	return ProcState(p.state.LoadAcquire())
}

// Self returns the proc's PID.
func (p *Proc) Self() PID {
	return p.pid
}

// Node returns the owning node.
func (p *Proc) Node() *Node {
	return p.node
}

// Context returns the proc's context. It is cancelled when the proc is
// asked to stop: by Cancel, or by a LinkExit from a linked proc. User
// code performing its own blocking work should select on it.
func (p *Proc) Context() context.Context {
	return p.ctx
}

// Done returns a channel closed once the proc has terminated and been
// removed from its node.
func (p *Proc) Done() <-chan struct{} {
	return p.done
}

// Cancel asks the proc to stop. Cancellation is cooperative: every
// blocking receive returns the context error, which the body is expected
// to propagate. Safe to call from any goroutine, any number of times.
func (p *Proc) Cancel() {
	p.cancel()
}

// Exit terminates the calling proc immediately with a normal exit.
// It unwinds the body via a sentinel the runner recognizes, so links are
// not notified and nothing is recorded as uncaught. Must only be called
// from the proc's own goroutine; never returns.
func (p *Proc) Exit() {
	panic(exitSentinel{})
}

// Link establishes a symmetric link with other: adds other to this proc's
// links and sends a link request so other adds this proc in turn. If
// other has already exited the request lands in a doomed mailbox and is
// dropped; a LinkExit racing an in-flight Link is accepted behavior.
func (p *Proc) Link(other PID) {
	p.addLink(other)
	p.node.deliver(other, linkMsg{from: p.pid})
}

// Unlink removes the link with other on both sides.
func (p *Proc) Unlink(other PID) {
	p.removeLink(other)
	p.node.deliver(other, unlinkMsg{from: p.pid})
}

func (p *Proc) addLink(other PID) {
	p.mu.Lock()
	p.links[other] = struct{}{}
	p.mu.Unlock()
}

func (p *Proc) removeLink(other PID) {
	p.mu.Lock()
	delete(p.links, other)
	p.mu.Unlock()
}

func (p *Proc) linkSnapshot() []PID {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PID, 0, len(p.links))
	for pid := range p.links {
		out = append(out, pid)
	}
	return out
}

// applySystem applies the effect of a control message and reports whether
// msg was one. LinkExit cancels the proc: the next blocking receive
// returns the context error and the body unwinds.
func (p *Proc) applySystem(msg any) bool {
	switch m := msg.(type) {
	case linkMsg:
		p.addLink(m.from)
	case unlinkMsg:
		p.removeLink(m.from)
	case linkExitMsg:
		p.removeLink(m.from)
		p.cancel()
	default:
		return false
	}
	return true
}

// run executes the user body on the proc goroutine and feeds the exit
// protocol. A panic with the exit sentinel is a normal exit; any other
// panic is wrapped in PanicError and treated as an uncaught user error.
func (p *Proc) run(body func(*Proc) error) {
	p.state.StoreRelease(int32(ProcRunning))
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				if _, ok := r.(exitSentinel); ok {
					err = nil
					return
				}
				err = &PanicError{Value: r}
			}
		}()
		err = body(p)
	}()
	p.finish(err)
}

// finish runs the exit protocol:
//
//  1. classify the exit reason: normal (body returned nil or unwound via
//     Exit), cancelled (context error: Cancel or LinkExit), or a user
//     error (anything else, panics included);
//  2. on any abnormal exit, send LinkExit to every linked partner;
//  3. remove self from the node's live-procs map;
//  4. on a user error, append it to the node's uncaught list.
//
// Cancellation-induced exits propagate to links but are not recorded:
// they are consequences, not causes.
func (p *Proc) finish(err error) {
	p.err = err
	cancelled := err != nil &&
		(stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded))
	abnormal := err != nil

	if abnormal {
		for _, pid := range p.linkSnapshot() {
			p.node.deliver(pid, linkExitMsg{from: p.pid})
		}
	}

	p.node.unregister(p)

	if abnormal && !cancelled {
		p.node.recordUncaught(errors.Wrapf(err, "proc %s", p.pid))
	}

	p.state.StoreRelease(int32(ProcTerminated))
	p.cancel()
	close(p.done)

	switch {
	case !abnormal:
		p.node.log(LevelDebug, "proc exited", p.pid, nil)
	case cancelled:
		p.node.log(LevelDebug, "proc cancelled", p.pid, err)
	default:
		p.node.log(LevelError, "proc failed", p.pid, err)
	}
}

// ExitErr returns the proc's exit reason once Done is closed: nil for a
// normal exit, the context error for a cancellation, the body's error or
// a PanicError otherwise. Before termination it returns nil.
func (p *Proc) ExitErr() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Sleep pauses the proc for d, returning early with the context error if
// the proc is cancelled meanwhile.
func (p *Proc) Sleep(d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}
