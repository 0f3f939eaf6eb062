package services

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yungbote/resourcehub-backend/internal/data/repos"
	types "github.com/yungbote/resourcehub-backend/internal/domain"
	"github.com/yungbote/resourcehub-backend/internal/platform/dbctx"
	"github.com/yungbote/resourcehub-backend/internal/platform/logger"
	"github.com/yungbote/resourcehub-backend/internal/platform/redisbus"
)

const (
	taxonomyCacheKey = "taxonomy:snapshot"
	taxonomyCacheTTL = 5 * time.Minute
)

// TaxonomyService reads the category and tag vocabulary.
type TaxonomyService interface {
	ListCategories(ctx context.Context) ([]*types.Category, error)
	ListTags(ctx context.Context) ([]*types.Tag, error)
	// Snapshot returns every category and tag name, cached.
	Snapshot(ctx context.Context) (types.TaxonomySnapshot, error)
	Invalidate(ctx context.Context)
}

type taxonomyService struct {
	log        *logger.Logger
	categories repos.CategoryRepo
	tags       repos.TagRepo
	cache      redisbus.Cache
	group      singleflight.Group
}

func NewTaxonomyService(log *logger.Logger, categories repos.CategoryRepo, tags repos.TagRepo, cache redisbus.Cache) TaxonomyService {
	if cache == nil {
		cache = redisbus.NoopCache{}
	}
	return &taxonomyService{
		log:        log.With("service", "TaxonomyService"),
		categories: categories,
		tags:       tags,
		cache:      cache,
	}
}

func (s *taxonomyService) ListCategories(ctx context.Context) ([]*types.Category, error) {
	return s.categories.ListAll(dbctx.Context{Ctx: ctx})
}

func (s *taxonomyService) ListTags(ctx context.Context) ([]*types.Tag, error) {
	return s.tags.ListAll(dbctx.Context{Ctx: ctx})
}

func (s *taxonomyService) Snapshot(ctx context.Context) (types.TaxonomySnapshot, error) {
	if raw, ok, err := s.cache.Get(ctx, taxonomyCacheKey); err != nil {
		s.log.Warn("taxonomy cache read failed", "error", err)
	} else if ok {
		var snap types.TaxonomySnapshot
		if err := json.Unmarshal(raw, &snap); err == nil {
			return snap, nil
		}
	}

	v, err, _ := s.group.Do(taxonomyCacheKey, func() (interface{}, error) {
		return s.load(ctx)
	})
	if err != nil {
		return types.TaxonomySnapshot{}, err
	}
	return v.(types.TaxonomySnapshot), nil
}

func (s *taxonomyService) load(ctx context.Context) (types.TaxonomySnapshot, error) {
	snap := types.TaxonomySnapshot{Categories: []string{}, Tags: []string{}}
	cats, err := s.ListCategories(ctx)
	if err != nil {
		return snap, err
	}
	tags, err := s.ListTags(ctx)
	if err != nil {
		return snap, err
	}
	for _, c := range cats {
		snap.Categories = append(snap.Categories, c.Name)
	}
	for _, t := range tags {
		snap.Tags = append(snap.Tags, t.Name)
	}
	if raw, err := json.Marshal(snap); err == nil {
		if err := s.cache.Set(ctx, taxonomyCacheKey, raw, taxonomyCacheTTL); err != nil {
			s.log.Warn("taxonomy cache write failed", "error", err)
		}
	}
	return snap, nil
}

func (s *taxonomyService) Invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, taxonomyCacheKey); err != nil {
		s.log.Warn("taxonomy cache invalidate failed", "error", err)
	}
}
