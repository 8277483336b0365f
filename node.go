// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package erl

import (
	"context"
	"sync"

	"code.hybscloud.com/atomix"
	"github.com/hashicorp/go-multierror"
)

// Node is the per-host registry of live procs. It mints PIDs, spawns proc
// goroutines, routes messages to mailboxes, and collects errors no proc
// caught.
//
// A node has no shutdown API: procs exit individually and JoinAll lets
// callers wait for all current procs. The node outlives every proc it
// spawns; procs hold a non-owning back-reference to it.
type Node struct {
	name   string
	logger Logger

	seq atomix.Uint64

	// procs maps sequence number to live proc. Writers: Spawn (put) and
	// the exit protocol (remove). Readers: deliver, JoinAll, Procs.
	mu    sync.RWMutex
	procs map[uint64]*Proc

	// uncaught is the append-only list of errors procs failed to handle.
	unMu     sync.Mutex
	uncaught []error
}

// New creates a node with the given human-readable name.
func New(name string, opts ...Option) *Node {
	n := &Node{
		name:   name,
		logger: NopLogger{},
		procs:  make(map[uint64]*Proc),
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Name returns the node's name.
func (n *Node) Name() string {
	return n.name
}

// Spawn creates a proc running body on its own goroutine and returns its
// PID. The body receives the proc as its context value; returning nil or
// unwinding via Exit is a normal exit, returning the proc's context error
// after a cancellation is a cancelled exit, anything else (errors,
// panics) is recorded on the node and propagated to links.
//
// Panics on a nil body.
func (n *Node) Spawn(body func(*Proc) error, opts ...SpawnOption) PID {
	if body == nil {
		panic("erl: nil proc body")
	}
	var cfg spawnConfig
	for _, o := range opts {
		o(&cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Proc{
		node:   n,
		mbox:   NewMailbox[any](),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		links:  make(map[PID]struct{}),
	}
	p.state.StoreRelaxed(int32(ProcNew))
	p.pid = PID{node: n, seq: n.seq.AddAcqRel(1)}

	n.mu.Lock()
	n.procs[p.pid.seq] = p
	n.mu.Unlock()
	p.state.StoreRelease(int32(ProcRunnable))

	// Spawn-time links are established before the body runs, so a crash
	// in the first instruction still reaches the partner.
	for _, other := range cfg.links {
		p.addLink(other)
		n.deliver(other, linkMsg{from: p.pid})
	}

	n.log(LevelDebug, "proc spawned", p.pid, nil)
	go p.run(body)
	return p.pid
}

// Runner is the typed stand-in for a class-like proc descriptor: any value
// whose Run method is the proc body. Construct the value with whatever
// arguments it needs, then hand it to SpawnRunner.
type Runner interface {
	Run(p *Proc) error
}

// SpawnRunner spawns r.Run as a proc body. Panics on a nil Runner.
func (n *Node) SpawnRunner(r Runner, opts ...SpawnOption) PID {
	if r == nil {
		panic("erl: nil proc runner")
	}
	return n.Spawn(r.Run, opts...)
}

// SpawnLoop spawns a recursive body: step is applied to the current state
// until it reports stop (cont == false), then the proc exits normally.
// Errors from step terminate the proc like any body error.
func SpawnLoop[S any](n *Node, step func(p *Proc, state S) (next S, cont bool, err error), init S, opts ...SpawnOption) PID {
	if step == nil {
		panic("erl: nil proc body")
	}
	return n.Spawn(func(p *Proc) error {
		state := init
		for {
			next, cont, err := step(p, state)
			if err != nil {
				return err
			}
			if !cont {
				return nil
			}
			state = next
		}
	}, opts...)
}

// Send delivers msg to the proc named by to, asynchronously and
// best-effort: if the proc no longer exists the message is dropped.
// Equivalent to to.Send(msg) for PIDs minted by this node.
func (n *Node) Send(to PID, msg any) {
	to.Send(msg)
}

// deliver routes msg (user or system) to the target's mailbox, dropping
// it silently when the target is not a live local proc.
func (n *Node) deliver(to PID, msg any) {
	if to.node != n {
		if to.node != nil {
			to.node.deliver(to, msg)
		}
		return
	}
	n.mu.RLock()
	p := n.procs[to.seq]
	n.mu.RUnlock()
	if p == nil {
		return
	}
	p.mbox.Offer(msg)
}

// Cancel asks the proc named by to to stop, reporting whether it was
// alive. Cancellation is cooperative: blocking receives inside the proc
// return the context error and its body unwinds from there.
func (n *Node) Cancel(to PID) bool {
	if to.node != n {
		return to.node != nil && to.node.Cancel(to)
	}
	n.mu.RLock()
	p := n.procs[to.seq]
	n.mu.RUnlock()
	if p == nil {
		return false
	}
	p.cancel()
	return true
}

// unregister removes p from the live-procs map. Part of the exit
// protocol; after it returns, sends to p's PID are dropped.
func (n *Node) unregister(p *Proc) {
	n.mu.Lock()
	delete(n.procs, p.pid.seq)
	n.mu.Unlock()
}

// JoinAll blocks until every proc registered at the time of the call has
// terminated. Procs spawned afterwards are not waited for.
func (n *Node) JoinAll() {
	for _, p := range n.snapshot() {
		<-p.done
	}
}

// Procs returns a snapshot of the PIDs of currently live procs.
func (n *Node) Procs() []PID {
	procs := n.snapshot()
	out := make([]PID, len(procs))
	for i, p := range procs {
		out[i] = p.pid
	}
	return out
}

func (n *Node) snapshot() []*Proc {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]*Proc, 0, len(n.procs))
	for _, p := range n.procs {
		out = append(out, p)
	}
	return out
}

func (n *Node) recordUncaught(err error) {
	n.unMu.Lock()
	n.uncaught = append(n.uncaught, err)
	n.unMu.Unlock()
	n.log(LevelError, "uncaught proc error", PID{}, err)
}

// Uncaught returns a snapshot of the errors procs terminated with and no
// supervisor handled, in the order they were recorded.
func (n *Node) Uncaught() []error {
	n.unMu.Lock()
	defer n.unMu.Unlock()
	out := make([]error, len(n.uncaught))
	copy(out, n.uncaught)
	return out
}

// UncaughtError folds the uncaught list into a single error, or nil when
// the list is empty.
func (n *Node) UncaughtError() error {
	var merr *multierror.Error
	for _, err := range n.Uncaught() {
		merr = multierror.Append(merr, err)
	}
	return merr.ErrorOrNil()
}

func (n *Node) log(level Level, msg string, pid PID, err error) {
	n.logger.Log(LogEntry{Level: level, Node: n.name, PID: pid, Message: msg, Err: err})
}
