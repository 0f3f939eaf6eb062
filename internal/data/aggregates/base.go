package aggregates

import (
	"context"
	"time"

	"gorm.io/gorm"

	domainagg "github.com/yungbote/resourcehub-backend/internal/domain/aggregates"
	"github.com/yungbote/resourcehub-backend/internal/platform/dbctx"
	"github.com/yungbote/resourcehub-backend/internal/platform/logger"
)

// BaseDeps is shared by every aggregate. Runner and Hooks are optional.
type BaseDeps struct {
	DB     *gorm.DB
	Log    *logger.Logger
	Runner TxRunner
	Hooks  Hooks
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	return d
}

// executeWrite runs fn in one transaction, maps the failure to an aggregate
// code and reports the outcome to hooks.
func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	deps = deps.withDefaults()
	start := time.Now()

	err := MapError(op, deps.Runner.InTx(ctx, fn))
	switch domainagg.CodeOf(err) {
	case domainagg.CodeConflict:
		deps.Hooks.IncConflict(op)
	case domainagg.CodeRetryable:
		deps.Hooks.IncRetry(op)
	case domainagg.CodeInternal:
		deps.Log.Error("aggregate write failed", "op", op, "error", err)
	}
	deps.Hooks.ObserveOperation(op, writeStatus(err), time.Since(start))
	return err
}

func writeStatus(err error) string {
	if err == nil {
		return "success"
	}
	return string(domainagg.CodeOf(err))
}

func nowUTC() time.Time { return time.Now().UTC() }
