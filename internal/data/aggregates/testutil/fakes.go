// Package testutil holds in-memory stand-ins for the aggregate transaction
// runner and hooks.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/yungbote/resourcehub-backend/internal/data/aggregates"
	"github.com/yungbote/resourcehub-backend/internal/platform/dbctx"
)

// FakeTx runs aggregate bodies without a database and counts how each
// transaction ended. BeginErr fails before the body runs; CommitErr fails
// after a successful body.
type FakeTx struct {
	mu sync.Mutex

	BeginErr  error
	CommitErr error

	Begins    int
	Commits   int
	Rollbacks int
}

var _ aggregates.TxRunner = (*FakeTx)(nil)

func (f *FakeTx) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	f.mu.Lock()
	f.Begins++
	beginErr, commitErr := f.BeginErr, f.CommitErr
	f.mu.Unlock()
	if beginErr != nil {
		return beginErr
	}

	err := fn(dbctx.Context{Ctx: ctx})
	if err == nil {
		err = commitErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.Rollbacks++
		return err
	}
	f.Commits++
	return nil
}

// Outcome is one ObserveOperation call.
type Outcome struct {
	Op     string
	Status string
	Took   time.Duration
}

// RecordingHooks keeps every hook signal in call order.
type RecordingHooks struct {
	mu sync.Mutex

	Outcomes  []Outcome
	Conflicts []string
	Retries   []string
}

var _ aggregates.Hooks = (*RecordingHooks)(nil)

func (h *RecordingHooks) ObserveOperation(op, status string, took time.Duration) {
	h.mu.Lock()
	h.Outcomes = append(h.Outcomes, Outcome{Op: op, Status: status, Took: took})
	h.mu.Unlock()
}

func (h *RecordingHooks) IncConflict(op string) {
	h.mu.Lock()
	h.Conflicts = append(h.Conflicts, op)
	h.mu.Unlock()
}

func (h *RecordingHooks) IncRetry(op string) {
	h.mu.Lock()
	h.Retries = append(h.Retries, op)
	h.mu.Unlock()
}

// Statuses lists the recorded statuses for op.
func (h *RecordingHooks) Statuses(op string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, o := range h.Outcomes {
		if o.Op == op {
			out = append(out, o.Status)
		}
	}
	return out
}
