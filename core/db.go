package core

import (
	"context"
	"sync"
)

// Transactor runs fn inside a single store transaction: either every write made through the ctx passed to fn
// is committed, or none is.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type commitHooksKey struct{}

// CommitHooks collects the functions to run once a transaction has committed.
type CommitHooks struct {
	mu    sync.Mutex
	hooks []func(ctx context.Context)
}

// WithCommitHooks returns a ctx collecting OnCommit hooks. Transactors call it when a transaction starts,
// then Run once it has committed.
func WithCommitHooks(ctx context.Context) (context.Context, *CommitHooks) {
	h := &CommitHooks{}
	return context.WithValue(ctx, commitHooksKey{}, h), h
}

// Run calls the collected hooks in registration order.
func (h *CommitHooks) Run(ctx context.Context) {
	h.mu.Lock()
	hooks := h.hooks
	h.hooks = nil
	h.mu.Unlock()

	for _, fn := range hooks {
		fn(ctx)
	}
}

// OnCommit defers fn until the transaction carried by ctx commits. Outside a transaction, fn runs right away.
// Hooks of a rolled back transaction never run.
func OnCommit(ctx context.Context, fn func(ctx context.Context)) {
	h, ok := ctx.Value(commitHooksKey{}).(*CommitHooks)
	if !ok {
		fn(ctx)
		return
	}
	h.mu.Lock()
	h.hooks = append(h.hooks, fn)
	h.mu.Unlock()
}
