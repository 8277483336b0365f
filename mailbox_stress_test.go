// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package erl_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/erl"
)

// =============================================================================
// Mailbox Stress Tests
//
// The mailbox is MPSC: many producers, exactly one consumer. These tests
// exercise the producer linearization (per-sender FIFO), loss-freedom,
// and selective extraction under concurrent appends.
// =============================================================================

// TestMailboxStressPerSenderFIFO tests that the subsequence of messages
// the consumer observes from each producer equals the sequence that
// producer offered.
func TestMailboxStressPerSenderFIFO(t *testing.T) {
	numProducers := 8
	itemsPerProd := 20000
	if erl.RaceEnabled {
		itemsPerProd = 2000
	}
	if testing.Short() {
		itemsPerProd = 1000
	}

	type msg struct{ id, seq int }
	m := erl.NewMailbox[msg]()

	var wg sync.WaitGroup
	for id := range numProducers {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for seq := range itemsPerProd {
				m.Offer(msg{id: id, seq: seq})
			}
		}(id)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	next := make([]int, numProducers)
	total := numProducers * itemsPerProd
	for range total {
		v, err := m.Take(ctx)
		if err != nil {
			t.Fatalf("Take: %v", err)
		}
		if v.seq != next[v.id] {
			t.Fatalf("producer %d: got seq %d, want %d", v.id, v.seq, next[v.id])
		}
		next[v.id]++
	}
	wg.Wait()

	if _, err := m.Poll(); !erl.IsWouldBlock(err) {
		t.Fatalf("Poll after drain: got %v, want ErrWouldBlock", err)
	}
}

// TestMailboxStressOfferNeverLoses tests loss-freedom: every offered
// element becomes visible to the consumer exactly once, counted across
// plain and selective dequeues.
func TestMailboxStressOfferNeverLoses(t *testing.T) {
	numProducers := 4
	itemsPerProd := 10000
	if erl.RaceEnabled {
		itemsPerProd = 1000
	}
	if testing.Short() {
		itemsPerProd = 1000
	}

	m := erl.NewMailbox[int]()
	var offered atomix.Int64

	var wg sync.WaitGroup
	for id := range numProducers {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for seq := range itemsPerProd {
				m.Offer(id*itemsPerProd + seq)
				offered.Add(1)
			}
		}(id)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	seen := make(map[int]bool, numProducers*itemsPerProd)
	odd := func(v int) bool { return v%2 == 1 }
	total := numProducers * itemsPerProd
	for len(seen) < total {
		// Try a selective dequeue first and fall back to a plain one, to
		// stress both paths.
		v, err := m.PollMatch(odd)
		if erl.IsWouldBlock(err) {
			v, err = m.Take(ctx)
		}
		if err != nil {
			t.Fatalf("dequeue: %v", err)
		}
		if seen[v] {
			t.Fatalf("element %d delivered twice", v)
		}
		seen[v] = true
	}
	wg.Wait()

	if got := offered.Load(); got != int64(total) {
		t.Fatalf("offered: got %d, want %d", got, total)
	}
	if _, err := m.Poll(); !erl.IsWouldBlock(err) {
		t.Fatalf("Poll after drain: got %v, want ErrWouldBlock", err)
	}
}

// TestMailboxStressSelectiveVsAppend tests selective extraction racing
// producers that keep extending the tail: survivors must come out in
// their original per-sender order afterwards.
func TestMailboxStressSelectiveVsAppend(t *testing.T) {
	items := 20000
	if erl.RaceEnabled || testing.Short() {
		items = 2000
	}

	m := erl.NewMailbox[int]()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range items {
			m.Offer(i)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Consumer pulls every multiple of 3 selectively while the producer
	// is still appending.
	divisible := func(v int) bool { return v%3 == 0 }
	matched := 0
	for matched*3 < items {
		v, err := m.TakeMatch(ctx, divisible)
		if err != nil {
			t.Fatalf("TakeMatch: %v", err)
		}
		if v%3 != 0 {
			t.Fatalf("TakeMatch: got %d, want a multiple of 3", v)
		}
		matched++
	}
	wg.Wait()

	// Survivors drain in arrival order with no gaps.
	want := 0
	for {
		if want%3 == 0 {
			want++
		}
		v, err := m.Poll()
		if err != nil {
			break
		}
		if v != want {
			t.Fatalf("survivor: got %d, want %d", v, want)
		}
		want++
	}
}

// TestMailboxStressTakeParkWake tests repeated park/wake cycles: a slow
// producer forces the consumer through the barrier on most elements.
func TestMailboxStressTakeParkWake(t *testing.T) {
	items := 200
	if testing.Short() {
		items = 50
	}

	m := erl.NewMailbox[int]()
	go func() {
		for i := range items {
			m.Offer(i)
			if i%10 == 0 {
				time.Sleep(time.Millisecond)
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for want := range items {
		v, err := m.Take(ctx)
		if err != nil {
			t.Fatalf("Take: %v", err)
		}
		if v != want {
			t.Fatalf("Take: got %d, want %d", v, want)
		}
	}
}
