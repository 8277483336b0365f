// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package erl_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/erl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeSequenceMonotonic(t *testing.T) {
	n := erl.New("seq")
	block := make(chan struct{})
	defer close(block)

	var pids []erl.PID
	for range 5 {
		pids = append(pids, n.Spawn(func(p *erl.Proc) error {
			<-block
			return nil
		}))
	}

	seen := map[uint64]bool{}
	var last uint64
	for _, pid := range pids {
		require.Greater(t, pid.Seq(), last, "sequence numbers are monotonic")
		require.False(t, seen[pid.Seq()], "sequence numbers are never reused")
		seen[pid.Seq()] = true
		last = pid.Seq()
		assert.Same(t, n, pid.Node())
	}
}

func TestNodeRegistryTracksLiveness(t *testing.T) {
	n := erl.New("registry")
	assert.Empty(t, n.Procs())

	release := make(chan struct{})
	pid := n.Spawn(func(p *erl.Proc) error {
		<-release
		return nil
	})
	require.Equal(t, []erl.PID{pid}, n.Procs())

	close(release)
	joinWithin(t, n, time.Second)
	assert.Empty(t, n.Procs(), "terminated procs leave the registry")
}

func TestNodeSendToDeadProcDrops(t *testing.T) {
	n := erl.New("drop")
	pid := n.Spawn(func(p *erl.Proc) error { return nil })
	joinWithin(t, n, time.Second)

	// Neither path may panic or resurrect the proc.
	pid.Send("into the void")
	n.Send(pid, "into the void")
	assert.Empty(t, n.Procs())
}

func TestNodeJoinAllEmpty(t *testing.T) {
	n := erl.New("idle")
	done := make(chan struct{})
	go func() {
		n.JoinAll()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("JoinAll on an idle node must return immediately")
	}
}

func TestNodeJoinAllWaitsForCurrentProcs(t *testing.T) {
	n := erl.New("join")
	const procs = 10
	for range procs {
		n.Spawn(func(p *erl.Proc) error {
			return p.Sleep(50 * time.Millisecond)
		})
	}
	start := time.Now()
	joinWithin(t, n, 2*time.Second)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
	assert.Empty(t, n.Procs())
}

func TestNodeUncaughtAggregation(t *testing.T) {
	n := erl.New("errs")
	require.NoError(t, n.UncaughtError())

	err1 := errors.New("first")
	err2 := errors.New("second")
	n.Spawn(func(p *erl.Proc) error { return err1 })
	n.Spawn(func(p *erl.Proc) error { return err2 })
	joinWithin(t, n, time.Second)

	require.Len(t, n.Uncaught(), 2)
	agg := n.UncaughtError()
	assert.ErrorIs(t, agg, err1)
	assert.ErrorIs(t, agg, err2)
}

func TestNodeUncaughtWrapsProcIdentity(t *testing.T) {
	n := erl.New("ident")
	pid := n.Spawn(func(p *erl.Proc) error {
		return errors.New("boom")
	})
	joinWithin(t, n, time.Second)

	uncaught := n.Uncaught()
	require.Len(t, uncaught, 1)
	assert.Contains(t, uncaught[0].Error(), pid.String())
}

func TestPIDString(t *testing.T) {
	n := erl.New("fmt")
	block := make(chan struct{})
	pid := n.Spawn(func(p *erl.Proc) error {
		<-block
		return nil
	})
	assert.Equal(t, fmt.Sprintf("fmt->%d", pid.Seq()), pid.String())
	assert.Equal(t, "->0", erl.PID{}.String())
	close(block)
	joinWithin(t, n, time.Second)
}

func TestPIDEquality(t *testing.T) {
	n := erl.New("eq")
	block := make(chan struct{})
	defer close(block)
	body := func(p *erl.Proc) error { <-block; return nil }

	a := n.Spawn(body)
	b := n.Spawn(body)
	assert.False(t, a == b, "distinct procs have distinct PIDs")

	other := erl.New("eq") // same name, distinct node
	c := other.Spawn(body)
	assert.False(t, a == c, "equality is by (node, seq), not by name")
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []erl.LogEntry
}

func (l *recordingLogger) Log(e erl.LogEntry) {
	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()
}

func (l *recordingLogger) byLevel(level erl.Level) []erl.LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []erl.LogEntry
	for _, e := range l.entries {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

func TestNodeLoggerObservesLifecycle(t *testing.T) {
	logger := &recordingLogger{}
	n := erl.New("logged", erl.WithLogger(logger))

	n.Spawn(func(p *erl.Proc) error { return nil })
	n.Spawn(func(p *erl.Proc) error { return errors.New("boom") })
	joinWithin(t, n, time.Second)

	assert.NotEmpty(t, logger.byLevel(erl.LevelDebug), "spawn and normal exit are debug entries")
	errEntries := logger.byLevel(erl.LevelError)
	require.NotEmpty(t, errEntries, "abnormal exit is an error entry")
	assert.Equal(t, "logged", errEntries[0].Node)
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", erl.LevelDebug.String())
	assert.Equal(t, "INFO", erl.LevelInfo.String())
	assert.Equal(t, "WARN", erl.LevelWarn.String())
	assert.Equal(t, "ERROR", erl.LevelError.String())
}
