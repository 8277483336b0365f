// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package erl

// Option configures a Node at creation.
type Option func(*Node)

// WithLogger installs a structured logger for runtime lifecycle events.
// The default discards everything.
func WithLogger(l Logger) Option {
	return func(n *Node) {
		if l != nil {
			n.logger = l
		}
	}
}

type spawnConfig struct {
	links []PID
}

// SpawnOption configures a single spawn.
type SpawnOption func(*spawnConfig)

// WithLink links the new proc to other before its body runs, closing the
// race between spawn and a separate Link call: if the child crashes
// immediately, other is still notified.
func WithLink(other PID) SpawnOption {
	return func(c *spawnConfig) {
		c.links = append(c.links, other)
	}
}

// Cache line padding to keep independently-contended fields apart.
type pad [64]byte
