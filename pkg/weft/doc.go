// Package weft implements a fine-grained reactive dependency graph:
// signals (observable values), memos (cached derived computations), and
// effects (side effects that re-run when their inputs change).
//
// Reads performed inside a tracking context (a memo computation or an
// effect body) automatically record dependency edges. Writes mark
// dependents stale and propagation is push-then-pull: a write pushes
// Dirty/Check marks through the subscriber graph, and reading any node
// pulls freshness back down through its sources, recomputing only what
// actually changed. A memo whose recomputed value is equal to its
// previous value stops propagation to its own subscribers, which is
// what makes evaluation glitch-free: a diamond dependency recomputes
// each node at most once per settle.
//
// Ownership is explicit: every signal, memo, and effect is created
// under an Owner, and disposing the Owner disposes its whole subtree,
// running registered cleanups first.
package weft
