package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/resourcehub-backend/internal/domain"
	"github.com/yungbote/resourcehub-backend/internal/platform/dbctx"
	"github.com/yungbote/resourcehub-backend/internal/platform/logger"
)

type ResourcePage struct {
	Rows       []*types.ResourceView
	TotalCount int64
}

type ResourceQueryRepo interface {
	FindResources(dbc dbctx.Context, f ResourceFilter) (*ResourcePage, error)
}

type resourceQueryRepo struct {
	db       *gorm.DB
	prepared *gorm.DB
	tags     TagRepo
	log      *logger.Logger
}

func NewResourceQueryRepo(db *gorm.DB, tags TagRepo, baseLog *logger.Logger) ResourceQueryRepo {
	return &resourceQueryRepo{
		db:       db,
		prepared: db.Session(&gorm.Session{PrepareStmt: true}),
		tags:     tags,
		log:      baseLog.With("repo", "ResourceQueryRepo"),
	}
}

type resourceRow struct {
	ID             int64
	CategoryID     int64
	Name           string
	Icon           string
	Thumbnail      string
	Description    string
	URL            string `gorm:"column:url"`
	ViewCount      int64
	OwnerID        uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CategoryName   sql.NullString
	TagNames       datatypes.JSON
	BookmarksCount int64
	LikesCount     int64
	IsLiked        bool
	CollectionIDs  datatypes.JSON `gorm:"column:collection_ids"`
}

func (r *resourceQueryRepo) FindResources(dbc dbctx.Context, f ResourceFilter) (*ResourcePage, error) {
	f = f.Normalize()
	if f.ResourceIDs != nil && len(f.ResourceIDs) == 0 {
		return &ResourcePage{Rows: []*types.ResourceView{}}, nil
	}

	var tagIDs []int64
	if f.Tags != nil {
		ids, err := r.tags.IDsByNames(dbc, f.Tags)
		if err != nil {
			return nil, fmt.Errorf("resolve tag filter: %w", err)
		}
		tagIDs = ids
	}
	q := BuildResourceQuery(f, tagIDs)

	var (
		total int64
		rows  []resourceRow
	)
	count := func() error {
		return r.conn(dbc).Raw(q.CountSQL, q.Args).Scan(&total).Error
	}
	page := func() error {
		return r.conn(dbc).Raw(q.PageSQL, q.Args).Scan(&rows).Error
	}
	// A transaction owns one connection; only fan out on the pool.
	if dbc.Tx != nil {
		if err := count(); err != nil {
			return nil, fmt.Errorf("count resources: %w", err)
		}
		if err := page(); err != nil {
			return nil, fmt.Errorf("page resources: %w", err)
		}
	} else {
		var g errgroup.Group
		g.Go(func() error {
			if err := count(); err != nil {
				return fmt.Errorf("count resources: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			if err := page(); err != nil {
				return fmt.Errorf("page resources: %w", err)
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	out := make([]*types.ResourceView, 0, len(rows))
	for i := range rows {
		view, err := rows[i].view()
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return &ResourcePage{Rows: out, TotalCount: total}, nil
}

func (r *resourceQueryRepo) conn(dbc dbctx.Context) *gorm.DB {
	return dbc.Conn(r.prepared)
}

func (row resourceRow) view() (*types.ResourceView, error) {
	tags := []string{}
	if len(row.TagNames) > 0 {
		if err := json.Unmarshal(row.TagNames, &tags); err != nil {
			return nil, fmt.Errorf("decode tags for resource %d: %w", row.ID, err)
		}
	}
	sort.Strings(tags)
	collections := []int64{}
	if len(row.CollectionIDs) > 0 {
		if err := json.Unmarshal(row.CollectionIDs, &collections); err != nil {
			return nil, fmt.Errorf("decode collections for resource %d: %w", row.ID, err)
		}
	}
	return &types.ResourceView{
		ID:             row.ID,
		CategoryID:     row.CategoryID,
		Category:       row.CategoryName.String,
		Name:           row.Name,
		Icon:           row.Icon,
		Thumbnail:      row.Thumbnail,
		Description:    row.Description,
		URL:            row.URL,
		ViewCount:      row.ViewCount,
		OwnerID:        row.OwnerID,
		Tags:           tags,
		BookmarksCount: row.BookmarksCount,
		LikesCount:     row.LikesCount,
		IsLiked:        row.IsLiked,
		Collections:    collections,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}, nil
}
