package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	types "github.com/yungbote/resourcehub-backend/internal/domain"
	"github.com/yungbote/resourcehub-backend/internal/observability"
	"github.com/yungbote/resourcehub-backend/internal/platform/logger"
	"github.com/yungbote/resourcehub-backend/internal/platform/pinecone"
)

var ErrVectorSyncDisabled = errors.New("vector sync disabled")

// Embedder turns text into vectors. Both the OpenAI client and the Pinecone
// inference embedder satisfy it.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// VectorSync mirrors resources into the vector index.
type VectorSync interface {
	UpsertResources(ctx context.Context, rows []*types.ResourceView) error
	UpdateResource(ctx context.Context, row *types.ResourceView) error
	DeleteResources(ctx context.Context, ids []int64) error
	// SimilarResourceIDs returns ids nearest to row, best first, excluding row itself.
	SimilarResourceIDs(ctx context.Context, row *types.ResourceView, topK int) ([]int64, error)
}

type vectorSync struct {
	log       *logger.Logger
	store     pinecone.VectorStore
	embedder  Embedder
	namespace string
}

func NewVectorSync(log *logger.Logger, store pinecone.VectorStore, embedder Embedder, namespace string) VectorSync {
	ns := strings.TrimSpace(namespace)
	if ns == "" {
		ns = "resources"
	}
	return &vectorSync{
		log:       log.With("service", "VectorSync"),
		store:     store,
		embedder:  embedder,
		namespace: ns,
	}
}

func (s *vectorSync) enabled() bool {
	return s != nil && s.store != nil && s.embedder != nil
}

func (s *vectorSync) UpsertResources(ctx context.Context, rows []*types.ResourceView) (err error) {
	if !s.enabled() {
		return ErrVectorSyncDisabled
	}
	defer func() { observability.Current().ObserveVector("upsert", err) }()
	rows = compactRows(rows)
	if len(rows) == 0 {
		return nil
	}
	vecs, err := s.embedRows(ctx, rows)
	if err != nil {
		return err
	}
	records := make([]pinecone.Vector, 0, len(rows))
	for i, row := range rows {
		records = append(records, pinecone.Vector{
			ID:       vectorID(row.ID),
			Values:   vecs[i],
			Metadata: ResourceMetadata(row),
		})
	}
	if err := s.store.Upsert(ctx, s.namespace, records); err != nil {
		return fmt.Errorf("vector upsert: %w", err)
	}
	s.log.Debug("vectors upserted", "count", len(records), "namespace", s.namespace)
	return nil
}

func (s *vectorSync) UpdateResource(ctx context.Context, row *types.ResourceView) (err error) {
	if !s.enabled() {
		return ErrVectorSyncDisabled
	}
	if row == nil {
		return nil
	}
	defer func() { observability.Current().ObserveVector("update", err) }()
	vecs, err := s.embedRows(ctx, []*types.ResourceView{row})
	if err != nil {
		return err
	}
	if err := s.store.Update(ctx, s.namespace, pinecone.Vector{
		ID:       vectorID(row.ID),
		Values:   vecs[0],
		Metadata: ResourceMetadata(row),
	}); err != nil {
		return fmt.Errorf("vector update: %w", err)
	}
	return nil
}

func (s *vectorSync) DeleteResources(ctx context.Context, ids []int64) (err error) {
	if !s.enabled() {
		return ErrVectorSyncDisabled
	}
	if len(ids) == 0 {
		return nil
	}
	defer func() { observability.Current().ObserveVector("delete", err) }()
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, vectorID(id))
	}
	if err := s.store.DeleteIDs(ctx, s.namespace, keys); err != nil {
		return fmt.Errorf("vector delete: %w", err)
	}
	return nil
}

func (s *vectorSync) SimilarResourceIDs(ctx context.Context, row *types.ResourceView, topK int) (ids []int64, err error) {
	if !s.enabled() {
		return nil, ErrVectorSyncDisabled
	}
	if row == nil {
		return []int64{}, nil
	}
	if topK <= 0 {
		topK = 10
	}
	defer func() { observability.Current().ObserveVector("query", err) }()
	vecs, err := s.embedRows(ctx, []*types.ResourceView{row})
	if err != nil {
		return nil, err
	}
	matches, err := s.store.QueryMatches(ctx, s.namespace, vecs[0], topK+1, nil)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	ids = make([]int64, 0, len(matches))
	for _, m := range matches {
		id, perr := strconv.ParseInt(strings.TrimSpace(m.ID), 10, 64)
		if perr != nil || id == row.ID {
			continue
		}
		ids = append(ids, id)
		if len(ids) == topK {
			break
		}
	}
	return ids, nil
}

func (s *vectorSync) embedRows(ctx context.Context, rows []*types.ResourceView) ([][]float32, error) {
	texts := make([]string, len(rows))
	for i, row := range rows {
		texts[i] = ResourceText(row)
	}
	vecs, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed resources: %w", err)
	}
	if len(vecs) != len(rows) {
		return nil, fmt.Errorf("embed resources: want %d vectors, got %d", len(rows), len(vecs))
	}
	return vecs, nil
}

// ResourceText is the embedding input for a resource: one "key: value" line
// per field with tags sorted, so identical resources embed identically.
func ResourceText(row *types.ResourceView) string {
	if row == nil {
		return ""
	}
	tags := append([]string(nil), row.Tags...)
	sort.Strings(tags)
	var b strings.Builder
	fmt.Fprintf(&b, "name: %s\n", strings.TrimSpace(row.Name))
	fmt.Fprintf(&b, "description: %s\n", strings.TrimSpace(row.Description))
	fmt.Fprintf(&b, "category: %s\n", strings.TrimSpace(row.Category))
	fmt.Fprintf(&b, "tags: %s\n", strings.Join(tags, ", "))
	fmt.Fprintf(&b, "url: %s", strings.TrimSpace(row.URL))
	return b.String()
}

// ResourceMetadata is the snapshot stored next to each vector.
func ResourceMetadata(row *types.ResourceView) map[string]any {
	tags := append([]string{}, row.Tags...)
	sort.Strings(tags)
	return map[string]any{
		"resource_id": row.ID,
		"name":        row.Name,
		"description": row.Description,
		"category":    row.Category,
		"category_id": row.CategoryID,
		"tags":        tags,
		"url":         row.URL,
		"icon":        row.Icon,
		"thumbnail":   row.Thumbnail,
		"updated_at":  row.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func vectorID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func compactRows(rows []*types.ResourceView) []*types.ResourceView {
	out := rows[:0:0]
	for _, r := range rows {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}
