// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package erl

import (
	"fmt"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock indicates the operation cannot complete immediately.
//
// For Poll and PollMatch: the mailbox holds no (matching) message.
// For the timed variants: the wait budget expired without a (matching)
// message arriving.
//
// ErrWouldBlock is a control flow signal, not a failure. A timed receive
// expiring is the expected outcome of setting a timeout; the caller reacts
// (retries, runs its timeout handler) rather than propagating the error.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency.
var ErrWouldBlock = iox.ErrWouldBlock

// IsWouldBlock reports whether err indicates the operation would block.
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control flow signal (not a failure).
// Delegates to [iox.IsSemantic].
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Delegates to [iox.IsNonFailure].
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}

// PanicError wraps a value recovered from a panicking proc body.
//
// The proc terminates abnormally and the PanicError is appended to its
// node's uncaught-error list. Use [errors.As] to retrieve it, and Unwrap
// to match the underlying error through the cause chain.
type PanicError struct {
	// Value is the value the proc body panicked with.
	Value any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("proc body panicked: %v", e.Value)
}

// Unwrap returns the underlying error if the panic value is an error type.
// This enables use with [errors.Is] and [errors.As] through the cause
// chain. If the panic value is not an error, returns nil.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// exitSentinel is the value [Proc.Exit] panics with. The proc runner
// recovers it and classifies the termination as normal.
type exitSentinel struct{}
