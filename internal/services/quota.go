package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/resourcehub-backend/internal/data/repos"
	"github.com/yungbote/resourcehub-backend/internal/platform/dbctx"
)

var ErrQuotaExceeded = errors.New("resource quota exceeded")

// QuotaGate decides whether a user may create another resource.
type QuotaGate interface {
	AllowCreate(ctx context.Context, userID uuid.UUID) error
}

type AllowAllQuota struct{}

func (AllowAllQuota) AllowCreate(context.Context, uuid.UUID) error { return nil }

// MaxResourcesQuota caps how many resources one user may own.
type MaxResourcesQuota struct {
	Resources repos.ResourceRepo
	Max       int64
}

func (q MaxResourcesQuota) AllowCreate(ctx context.Context, userID uuid.UUID) error {
	if q.Max <= 0 || q.Resources == nil {
		return nil
	}
	n, err := q.Resources.CountOwnedBy(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return fmt.Errorf("count owned resources: %w", err)
	}
	if n >= q.Max {
		return fmt.Errorf("%w: %d of %d", ErrQuotaExceeded, n, q.Max)
	}
	return nil
}
