// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package erl

import "time"

// The receive engine binds the proc's mailbox to user handlers. All
// receives share three rules:
//
//   - system messages are transparent: their effect is applied in arrival
//     order and the receive keeps waiting for a user message;
//   - the handler is invoked only when a user message was actually
//     dequeued — never on timeout;
//   - cancellation (Cancel, or a dequeued LinkExit) surfaces as the
//     context error, which the body is expected to propagate.
//
// Receive and friends must only be called from the proc's own goroutine:
// they are consumer-side mailbox operations.

// Receive blocks until a user message arrives and passes it to handler.
// Returns nil after the handler ran, or the context error if the proc was
// cancelled while waiting. Panics on a nil handler.
func (p *Proc) Receive(handler func(msg any)) error {
	if handler == nil {
		panic("erl: nil receive handler")
	}
	for {
		msg, err := p.mbox.Take(p.ctx)
		if err != nil {
			return err
		}
		if p.applySystem(msg) {
			continue
		}
		handler(msg)
		return nil
	}
}

// ReceiveFor is Receive bounded by timeout. If no user message arrives in
// time, the handler is not invoked, onTimeout (when non-nil) runs exactly
// once, and ReceiveFor returns nil: a timeout is an outcome, not an error.
// A non-positive timeout checks the mailbox once without blocking.
func (p *Proc) ReceiveFor(handler func(msg any), timeout time.Duration, onTimeout func()) error {
	if handler == nil {
		panic("erl: nil receive handler")
	}
	deadline := time.Now().Add(timeout)
	for {
		msg, err := p.mbox.PollFor(p.ctx, time.Until(deadline))
		if err != nil {
			if IsWouldBlock(err) {
				if onTimeout != nil {
					onTimeout()
				}
				return nil
			}
			return err
		}
		if p.applySystem(msg) {
			continue
		}
		handler(msg)
		return nil
	}
}

// ReceiveMatch blocks until the first message in arrival order accepted
// by c arrives, and passes it to c.Handle. Earlier messages c rejects
// stay in the mailbox in their original order for future receives.
// System messages are extracted and applied regardless of c.
func (p *Proc) ReceiveMatch(c Clause) error {
	if c == nil {
		panic("erl: nil receive clause")
	}
	pred := func(msg any) bool {
		return isSystem(msg) || c.DefinedAt(msg)
	}
	for {
		msg, err := p.mbox.TakeMatch(p.ctx, pred)
		if err != nil {
			return err
		}
		if p.applySystem(msg) {
			continue
		}
		c.Handle(msg)
		return nil
	}
}

// ReceiveMatchFor is ReceiveMatch bounded by timeout, with the same
// timeout contract as ReceiveFor.
func (p *Proc) ReceiveMatchFor(c Clause, timeout time.Duration, onTimeout func()) error {
	if c == nil {
		panic("erl: nil receive clause")
	}
	pred := func(msg any) bool {
		return isSystem(msg) || c.DefinedAt(msg)
	}
	deadline := time.Now().Add(timeout)
	for {
		msg, err := p.mbox.PollMatchFor(p.ctx, pred, time.Until(deadline))
		if err != nil {
			if IsWouldBlock(err) {
				if onTimeout != nil {
					onTimeout()
				}
				return nil
			}
			return err
		}
		if p.applySystem(msg) {
			continue
		}
		c.Handle(msg)
		return nil
	}
}
