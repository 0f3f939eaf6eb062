package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/resourcehub-backend/internal/domain"
)

// Unique suffixes name so fixtures never collide with committed rows.
func Unique(name string) string {
	return name + "-" + uuid.NewString()[:8]
}

func SeedCategory(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Category {
	tb.Helper()
	c := &types.Category{Name: name}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed category: %v", err)
	}
	return c
}

func SeedTag(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Tag {
	tb.Helper()
	t := &types.Tag{Name: name}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed tag: %v", err)
	}
	return t
}

// SeedResource inserts a resource owned by ownerID, linked to the given tags.
func SeedResource(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, categoryID int64, name string, tags ...*types.Tag) *types.Resource {
	tb.Helper()
	r := &types.Resource{
		OwnerID:     ownerID,
		CategoryID:  categoryID,
		Name:        name,
		Description: name + " description",
		URL:         "https://example.com/" + Unique(name),
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed resource: %v", err)
	}
	if err := tx.WithContext(ctx).Create(&types.ResourceOwner{ResourceID: r.ID, UserID: ownerID}).Error; err != nil {
		tb.Fatalf("seed resource owner: %v", err)
	}
	for _, t := range tags {
		if err := tx.WithContext(ctx).Create(&types.ResourceTag{ResourceID: r.ID, TagID: t.ID}).Error; err != nil {
			tb.Fatalf("seed resource tag: %v", err)
		}
	}
	return r
}
