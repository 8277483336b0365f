// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package erl

// System messages travel the same queue as user messages and are
// interpreted by the receive engine on dequeue, before the user handler
// sees anything. They are transparent: the engine applies their effect
// and keeps waiting for a user message.

// linkMsg asks the recipient to add the sender to its links set.
type linkMsg struct {
	from PID
}

// unlinkMsg asks the recipient to remove the sender from its links set.
type unlinkMsg struct {
	from PID
}

// linkExitMsg notifies the recipient that a linked proc exited abnormally.
// The default policy is for the recipient to cancel itself.
type linkExitMsg struct {
	from PID
}

// isSystem reports whether msg is a control message. Selective receives
// must extract system messages regardless of the user predicate, so their
// effects apply in arrival order.
func isSystem(msg any) bool {
	switch msg.(type) {
	case linkMsg, unlinkMsg, linkExitMsg:
		return true
	}
	return false
}
