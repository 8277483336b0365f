// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package erl

import "fmt"

// PID is the opaque identifier of a proc: the owning node plus a sequence
// number the node minted at spawn. PIDs are immutable values, comparable
// with ==; two PIDs are equal iff they name the same proc. The zero PID
// names no proc.
type PID struct {
	node *Node
	seq  uint64
}

// Send delivers msg to the named proc's mailbox, asynchronously and
// best-effort. If the proc no longer exists (or the PID is zero), the
// message is dropped silently. Messages from one sender to one receiver
// arrive in the order they were sent; no cross-sender order is implied.
//
// Panics on a nil message: nil is reserved and cannot travel the queue.
func (p PID) Send(msg any) {
	if msg == nil {
		panic("erl: nil message")
	}
	if p.node == nil {
		return
	}
	p.node.deliver(p, msg)
}

// Seq returns the proc's sequence number, unique and never reused within
// its node.
func (p PID) Seq() uint64 {
	return p.seq
}

// Node returns the owning node, or nil for the zero PID.
func (p PID) Node() *Node {
	return p.node
}

// String formats the PID as "<node-name>-><seq>", for debugging only.
func (p PID) String() string {
	if p.node == nil {
		return "->0"
	}
	return fmt.Sprintf("%s->%d", p.node.name, p.seq)
}
