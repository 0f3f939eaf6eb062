package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/resourcehub-backend/internal/data/aggregates"
	"github.com/yungbote/resourcehub-backend/internal/data/repos"
	types "github.com/yungbote/resourcehub-backend/internal/domain"
	domainagg "github.com/yungbote/resourcehub-backend/internal/domain/aggregates"
	"github.com/yungbote/resourcehub-backend/internal/platform/ctxutil"
	"github.com/yungbote/resourcehub-backend/internal/platform/dbctx"
	"github.com/yungbote/resourcehub-backend/internal/platform/logger"
	"github.com/yungbote/resourcehub-backend/internal/platform/redisbus"
	"github.com/yungbote/resourcehub-backend/internal/platform/scraper"
)

var (
	ErrUnauthenticated = errors.New("request data not set in context")
	ErrSearchDisabled  = errors.New("semantic search is not configured")
)

const defaultSimilarTopK = 10

type CreateResourceInput struct {
	Category    domainagg.CategoryRef
	Tags        []domainagg.TagRef
	Name        string
	Icon        string
	Thumbnail   string
	Description string
	URL         string
}

type UpdateResourceInput struct {
	Fields   domainagg.ResourceFields
	Tags     domainagg.TagDiff
	Category *domainagg.CategoryRef
}

type SearchInput struct {
	Query string
	Page  int
	Limit int
}

type SearchResult struct {
	Rows       []*types.ResourceView `json:"rows"`
	TotalCount int64                 `json:"totalCount"`
	Summary    string                `json:"summary"`
}

type ResourceService interface {
	Create(ctx context.Context, in CreateResourceInput) (*types.ResourceView, error)
	Update(ctx context.Context, id int64, in UpdateResourceInput) (*types.ResourceView, error)
	Delete(ctx context.Context, ids []int64, mode string) (domainagg.DeleteResourcesResult, error)
	Get(ctx context.Context, id int64) (*types.ResourceView, error)
	List(ctx context.Context, f repos.ResourceFilter) (*repos.ResourcePage, error)
	Search(ctx context.Context, in SearchInput) (*SearchResult, error)
	Similar(ctx context.Context, id int64, topK int) ([]*types.ResourceView, error)
	Like(ctx context.Context, id int64) (*types.ResourceView, error)
	Unlike(ctx context.Context, id int64) (*types.ResourceView, error)
	Save(ctx context.Context, id int64) (*types.ResourceView, error)

	CreateCollection(ctx context.Context, name string) (*types.Collection, error)
	ListCollections(ctx context.Context) ([]*types.Collection, error)
	AddToCollection(ctx context.Context, collectionID, resourceID int64) error
	RemoveFromCollection(ctx context.Context, collectionID, resourceID int64) error
}

type ResourceServiceDeps struct {
	Aggregate domainagg.ResourceAggregate
	Repos     repos.Set
	Taxonomy  TaxonomyService
	AI        AIOrchestrator
	Scraper   scraper.Scraper
	Vectors   VectorSync
	Quota     QuotaGate
	Bus       redisbus.Bus
}

type resourceService struct {
	log  *logger.Logger
	deps ResourceServiceDeps
}

func NewResourceService(log *logger.Logger, deps ResourceServiceDeps) ResourceService {
	if deps.Quota == nil {
		deps.Quota = AllowAllQuota{}
	}
	if deps.Bus == nil {
		deps.Bus = redisbus.NoopBus{}
	}
	return &resourceService{log: log.With("service", "ResourceService"), deps: deps}
}

func requestData(ctx context.Context) (*ctxutil.RequestData, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	return rd, nil
}

func (s *resourceService) Create(ctx context.Context, in CreateResourceInput) (*types.ResourceView, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Quota.AllowCreate(ctx, rd.UserID); err != nil {
		return nil, err
	}

	in.URL = strings.TrimSpace(in.URL)
	needsMeta := strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Description) == "" ||
		strings.TrimSpace(in.Icon) == "" || strings.TrimSpace(in.Thumbnail) == "" || in.Category.IsZero()
	meta := scraper.Metadata{URL: in.URL, Title: in.Name, Description: in.Description}
	if needsMeta && s.deps.Scraper != nil && in.URL != "" {
		scraped, err := s.deps.Scraper.Scrape(ctx, in.URL)
		if err != nil {
			s.log.Warn("metadata scrape failed", "url", in.URL, "error", err)
		} else {
			meta = mergeMetadata(meta, scraped)
			in.Name = firstNonBlank(in.Name, scraped.Title, scraped.SiteName)
			in.Description = firstNonBlank(in.Description, scraped.Description)
			in.Icon = firstNonBlank(in.Icon, scraped.Icon)
			in.Thumbnail = firstNonBlank(in.Thumbnail, scraped.Image)
		}
	}

	if in.Category.IsZero() && s.deps.AI != nil && s.deps.Taxonomy != nil && in.URL != "" {
		snap, err := s.deps.Taxonomy.Snapshot(ctx)
		if err != nil {
			return nil, fmt.Errorf("load taxonomy: %w", err)
		}
		cat, err := s.deps.AI.AutoCategorize(ctx, meta, snap)
		if err != nil {
			return nil, err
		}
		in.Category = domainagg.CategoryByName(cat.Category)
		in.Tags = append(in.Tags, domainagg.TagNames(cat.Tags...)...)
	}

	row, err := s.deps.Aggregate.CreateResource(ctx, domainagg.CreateResourceInput{
		OwnerID:     rd.UserID,
		Category:    in.Category,
		Tags:        in.Tags,
		Name:        in.Name,
		Icon:        in.Icon,
		Thumbnail:   in.Thumbnail,
		Description: in.Description,
		URL:         in.URL,
		SyncVectors: s.syncVectors(rd),
	})
	if err != nil {
		return nil, err
	}
	s.afterWrite(ctx, rd, true)
	return s.view(ctx, rd.UserID, row.ID)
}

func (s *resourceService) Update(ctx context.Context, id int64, in UpdateResourceInput) (*types.ResourceView, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	row, err := s.deps.Aggregate.UpdateResource(ctx, domainagg.UpdateResourceInput{
		ResourceID:  id,
		ActorID:     rd.UserID,
		Privileged:  rd.Privileged(),
		Fields:      in.Fields,
		Tags:        in.Tags,
		Category:    in.Category,
		SyncVectors: s.syncVectors(rd),
	})
	if err != nil {
		return nil, err
	}
	s.afterWrite(ctx, rd, in.Category != nil || len(in.Tags.Add) > 0)
	return s.view(ctx, rd.UserID, row.ID)
}

func (s *resourceService) Delete(ctx context.Context, ids []int64, mode string) (domainagg.DeleteResourcesResult, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return domainagg.DeleteResourcesResult{IDs: ids}, err
	}
	res, err := s.deps.Aggregate.DeleteResources(ctx, domainagg.DeleteResourcesInput{
		IDs:         ids,
		OwnerID:     rd.UserID,
		Mode:        domainagg.DeleteMode(mode),
		SyncVectors: s.syncVectors(rd),
	})
	if err != nil {
		return res, err
	}
	if res.Affected > 0 {
		s.afterWrite(ctx, rd, false)
	}
	return res, nil
}

func (s *resourceService) Get(ctx context.Context, id int64) (*types.ResourceView, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	ok, err := s.deps.Repos.Resources.IncrementViewCount(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, resourceNotFound("Catalog.Resource.Get", id)
	}
	return s.view(ctx, rd.UserID, id)
}

func (s *resourceService) List(ctx context.Context, f repos.ResourceFilter) (*repos.ResourcePage, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	f.ViewerID = rd.UserID
	return s.deps.Repos.Query.FindResources(dbctx.Context{Ctx: ctx}, f)
}

func (s *resourceService) Search(ctx context.Context, in SearchInput) (*SearchResult, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if s.deps.AI == nil {
		return nil, ErrSearchDisabled
	}
	owner := rd.UserID
	mine, err := s.deps.Repos.Query.FindResources(dbctx.Context{Ctx: ctx}, repos.ResourceFilter{
		OwnerID:  &owner,
		Limit:    repos.NoLimit,
		ViewerID: rd.UserID,
	})
	if err != nil {
		return nil, err
	}
	ranking, err := s.deps.AI.SemanticSearch(ctx, in.Query, mine.Rows)
	if err != nil {
		return nil, err
	}
	out := &SearchResult{Rows: []*types.ResourceView{}, Summary: ranking.Summary}
	if len(ranking.ResourceIDs) == 0 {
		return out, nil
	}
	page, err := s.deps.Repos.Query.FindResources(dbctx.Context{Ctx: ctx}, repos.ResourceFilter{
		ResourceIDs: ranking.ResourceIDs,
		Limit:       repos.NoLimit,
		ViewerID:    rd.UserID,
	})
	if err != nil {
		return nil, err
	}
	ranked := RankOrder(ranking.ResourceIDs, page.Rows)
	out.TotalCount = int64(len(ranked))
	out.Rows = paginate(ranked, in.Page, in.Limit)
	return out, nil
}

func (s *resourceService) Similar(ctx context.Context, id int64, topK int) ([]*types.ResourceView, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if s.deps.Vectors == nil {
		return nil, ErrVectorSyncDisabled
	}
	if topK <= 0 || topK > repos.MaxPageSize {
		topK = defaultSimilarTopK
	}
	self, err := s.view(ctx, rd.UserID, id)
	if err != nil {
		return nil, err
	}
	ids, err := s.deps.Vectors.SimilarResourceIDs(ctx, self, topK)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*types.ResourceView{}, nil
	}
	page, err := s.deps.Repos.Query.FindResources(dbctx.Context{Ctx: ctx}, repos.ResourceFilter{
		ResourceIDs: ids,
		Limit:       repos.NoLimit,
		ViewerID:    rd.UserID,
	})
	if err != nil {
		return nil, err
	}
	return RankOrder(ids, page.Rows), nil
}

func (s *resourceService) Like(ctx context.Context, id int64) (*types.ResourceView, error) {
	return s.withExisting(ctx, "Catalog.Resource.Like", id, func(dbc dbctx.Context, user uuid.UUID) error {
		_, err := s.deps.Repos.Likes.Like(dbc, id, user)
		return err
	})
}

func (s *resourceService) Unlike(ctx context.Context, id int64) (*types.ResourceView, error) {
	return s.withExisting(ctx, "Catalog.Resource.Unlike", id, func(dbc dbctx.Context, user uuid.UUID) error {
		_, err := s.deps.Repos.Likes.Unlike(dbc, id, user)
		return err
	})
}

// Save bookmarks an existing resource for the caller by adding an ownership link.
func (s *resourceService) Save(ctx context.Context, id int64) (*types.ResourceView, error) {
	return s.withExisting(ctx, "Catalog.Resource.Save", id, func(dbc dbctx.Context, user uuid.UUID) error {
		return s.deps.Repos.Owners.Link(dbc, id, user)
	})
}

func (s *resourceService) withExisting(ctx context.Context, op string, id int64, fn func(dbc dbctx.Context, user uuid.UUID) error) (*types.ResourceView, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	row, err := s.deps.Repos.Resources.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, resourceNotFound(op, id)
	}
	if err := fn(dbc, rd.UserID); err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return s.view(ctx, rd.UserID, id)
}

func (s *resourceService) CreateCollection(ctx context.Context, name string) (*types.Collection, error) {
	const op = "Catalog.Collection.Create"
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, domainagg.NewFieldError(domainagg.CodeValidation, op, "name is required", "name")
	}
	row, err := s.deps.Repos.Collections.Create(dbctx.Context{Ctx: ctx}, rd.UserID, name)
	if err != nil {
		mapped := aggregates.MapError(op, err)
		if domainagg.IsCode(mapped, domainagg.CodeConflict) {
			return nil, domainagg.NewFieldError(domainagg.CodeConflict, op, "collection with this name already exists", "name")
		}
		return nil, mapped
	}
	return row, nil
}

func (s *resourceService) ListCollections(ctx context.Context) ([]*types.Collection, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	return s.deps.Repos.Collections.ListByOwner(dbctx.Context{Ctx: ctx}, rd.UserID)
}

func (s *resourceService) AddToCollection(ctx context.Context, collectionID, resourceID int64) error {
	const op = "Catalog.Collection.AddResource"
	return s.withCollection(ctx, op, collectionID, func(dbc dbctx.Context) error {
		row, err := s.deps.Repos.Resources.GetByID(dbc, resourceID)
		if err != nil {
			return err
		}
		if row == nil {
			return resourceNotFound(op, resourceID)
		}
		_, err = s.deps.Repos.Collections.AddResource(dbc, collectionID, resourceID)
		return err
	})
}

func (s *resourceService) RemoveFromCollection(ctx context.Context, collectionID, resourceID int64) error {
	return s.withCollection(ctx, "Catalog.Collection.RemoveResource", collectionID, func(dbc dbctx.Context) error {
		_, err := s.deps.Repos.Collections.RemoveResource(dbc, collectionID, resourceID)
		return err
	})
}

func (s *resourceService) withCollection(ctx context.Context, op string, collectionID int64, fn func(dbc dbctx.Context) error) error {
	rd, err := requestData(ctx)
	if err != nil {
		return err
	}
	dbc := dbctx.Context{Ctx: ctx}
	coll, err := s.deps.Repos.Collections.GetForOwner(dbc, collectionID, rd.UserID)
	if err != nil {
		return err
	}
	if coll == nil {
		return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("collection %d not found", collectionID), nil)
	}
	if err := fn(dbc); err != nil {
		return aggregates.MapError(op, err)
	}
	return nil
}

// syncVectors gates outbox rows on a privileged caller and a configured index.
func (s *resourceService) syncVectors(rd *ctxutil.RequestData) bool {
	return rd.Privileged() && s.deps.Vectors != nil
}

// afterWrite wakes outbox workers once a privileged write has committed.
func (s *resourceService) afterWrite(ctx context.Context, rd *ctxutil.RequestData, taxonomyChanged bool) {
	if taxonomyChanged && s.deps.Taxonomy != nil {
		s.deps.Taxonomy.Invalidate(ctx)
	}
	if !s.syncVectors(rd) {
		return
	}
	if err := s.deps.Bus.Publish(ctx, redisbus.Event{Kind: redisbus.KindVectorSync}); err != nil {
		s.log.Warn("outbox wake-up publish failed", "error", err)
	}
}

func (s *resourceService) view(ctx context.Context, viewer uuid.UUID, id int64) (*types.ResourceView, error) {
	page, err := s.deps.Repos.Query.FindResources(dbctx.Context{Ctx: ctx}, repos.ResourceFilter{
		ResourceIDs: []int64{id},
		Limit:       1,
		ViewerID:    viewer,
	})
	if err != nil {
		return nil, err
	}
	if len(page.Rows) == 0 {
		return nil, resourceNotFound("Catalog.Resource.View", id)
	}
	return page.Rows[0], nil
}

func resourceNotFound(op string, id int64) error {
	return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("resource %d not found", id), nil)
}

func paginate[T any](rows []T, page, limit int) []T {
	if limit == repos.NoLimit {
		return rows
	}
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = repos.DefaultPageSize
	}
	if limit > repos.MaxPageSize {
		limit = repos.MaxPageSize
	}
	start := (page - 1) * limit
	if start >= len(rows) {
		return rows[:0]
	}
	end := start + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

func mergeMetadata(base, scraped scraper.Metadata) scraper.Metadata {
	base.Title = firstNonBlank(base.Title, scraped.Title)
	base.Description = firstNonBlank(base.Description, scraped.Description)
	base.Image = firstNonBlank(base.Image, scraped.Image)
	base.Icon = firstNonBlank(base.Icon, scraped.Icon)
	base.SiteName = firstNonBlank(base.SiteName, scraped.SiteName)
	return base
}

func firstNonBlank(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
