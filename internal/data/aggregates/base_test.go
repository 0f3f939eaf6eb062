package aggregates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainagg "github.com/yungbote/resourcehub-backend/internal/domain/aggregates"
	"github.com/yungbote/resourcehub-backend/internal/platform/dbctx"
)

type passthroughTx struct{}

func (passthroughTx) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	return fn(dbctx.Context{Ctx: ctx})
}

type countingHooks struct {
	statuses  []string
	conflicts int
	retries   int
}

func (h *countingHooks) ObserveOperation(_, status string, _ time.Duration) {
	h.statuses = append(h.statuses, status)
}
func (h *countingHooks) IncConflict(string) { h.conflicts++ }
func (h *countingHooks) IncRetry(string)    { h.retries++ }

func TestExecuteWriteReportsOutcome(t *testing.T) {
	cases := []struct {
		name      string
		body      error
		status    string
		conflicts int
		retries   int
	}{
		{"success", nil, "success", 0, 0},
		{"validation", domainagg.NewFieldError(domainagg.CodeValidation, "op", "name required", "name"), "validation", 0, 0},
		{"conflict", domainagg.NewError(domainagg.CodeConflict, "op", "duplicate url", nil), "conflict", 1, 0},
		{"deadline", context.DeadlineExceeded, "retryable", 0, 1},
		{"unknown", errors.New("disk on fire"), "internal", 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hooks := &countingHooks{}
			err := executeWrite(context.Background(), BaseDeps{Runner: passthroughTx{}, Hooks: hooks},
				"Catalog.Test", func(dbctx.Context) error { return tc.body })
			if tc.body == nil {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
			assert.Equal(t, []string{tc.status}, hooks.statuses)
			assert.Equal(t, tc.conflicts, hooks.conflicts)
			assert.Equal(t, tc.retries, hooks.retries)
		})
	}
}

func TestExecuteWriteWithoutDatabaseIsInternal(t *testing.T) {
	err := executeWrite(context.Background(), BaseDeps{}, "Catalog.Test", func(dbctx.Context) error {
		t.Fatal("body must not run without a database")
		return nil
	})
	assert.True(t, domainagg.IsCode(err, domainagg.CodeInternal))
}
