// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package erl

// Clause is the contract between a selective receive and its handler: the
// engine asks DefinedAt for each queued message in arrival order and
// hands the first accepted one to Handle. Richer pattern DSLs can be
// layered on top; the engine only needs these two methods.
type Clause interface {
	// DefinedAt reports whether the clause accepts msg. Must be free of
	// side effects: the engine may call it for messages that are never
	// delivered.
	DefinedAt(msg any) bool
	// Handle processes an accepted message.
	Handle(msg any)
}

// When builds a Clause from a predicate and a handler. Panics if either
// is nil.
func When(pred func(msg any) bool, handler func(msg any)) Clause {
	if pred == nil || handler == nil {
		panic("erl: nil clause func")
	}
	return &funcClause{pred: pred, handler: handler}
}

type funcClause struct {
	pred    func(any) bool
	handler func(any)
}

func (c *funcClause) DefinedAt(msg any) bool { return c.pred(msg) }
func (c *funcClause) Handle(msg any)         { c.handler(msg) }

// MatchType builds a Clause accepting messages of dynamic type T.
//
//	p.ReceiveMatch(erl.MatchType(func(n int) {
//	    // first int in arrival order; earlier non-ints stay queued
//	}))
func MatchType[T any](handler func(T)) Clause {
	if handler == nil {
		panic("erl: nil clause func")
	}
	return matchType[T]{handler: handler}
}

type matchType[T any] struct {
	handler func(T)
}

func (c matchType[T]) DefinedAt(msg any) bool {
	_, ok := msg.(T)
	return ok
}

func (c matchType[T]) Handle(msg any) {
	c.handler(msg.(T))
}
