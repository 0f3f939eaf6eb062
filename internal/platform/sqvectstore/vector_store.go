package sqvectstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/liliang-cn/sqvect/v2/pkg/core"

	"github.com/yungbote/resourcehub-backend/internal/platform/logger"
	"github.com/yungbote/resourcehub-backend/internal/platform/pinecone"
)

// Config configures the embedded SQLite vector store used for local development.
type Config struct {
	Path            string
	VectorDim       int
	NamespacePrefix string
}

// Store implements pinecone.VectorStore on top of sqvect. Each qualified
// namespace maps to a sqvect collection; record ids are prefixed with the
// collection name because sqvect ids are global.
type Store struct {
	log      *logger.Logger
	db       *core.SQLiteStore
	nsPrefix string

	mu          sync.Mutex
	collections map[string]bool
}

var _ pinecone.VectorStore = (*Store)(nil)

func NewVectorStore(ctx context.Context, log *logger.Logger, cfg Config) (*Store, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, fmt.Errorf("missing SQVECT_PATH")
	}
	if cfg.VectorDim < 0 {
		return nil, fmt.Errorf("invalid vector dim %d", cfg.VectorDim)
	}
	db, err := core.New(path, cfg.VectorDim)
	if err != nil {
		return nil, fmt.Errorf("sqvect open: %w", err)
	}
	if err := db.Init(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqvect init: %w", err)
	}
	prefix := strings.TrimSpace(cfg.NamespacePrefix)
	if prefix == "" {
		prefix = "rh"
	}
	return &Store{
		log:         log.With("service", "SqvectVectorStore"),
		db:          db,
		nsPrefix:    prefix,
		collections: map[string]bool{},
	}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Upsert(ctx context.Context, namespace string, vectors []pinecone.Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	coll := s.collectionName(namespace)
	if err := s.ensureCollection(ctx, coll, len(vectors[0].Values)); err != nil {
		return err
	}
	embs := make([]*core.Embedding, 0, len(vectors))
	for _, v := range vectors {
		if strings.TrimSpace(v.ID) == "" {
			continue
		}
		meta := stringifyMetadata(v.Metadata)
		embs = append(embs, &core.Embedding{
			ID:         recordID(coll, v.ID),
			Collection: coll,
			Vector:     v.Values,
			Content:    meta["name"],
			DocID:      v.ID,
			Metadata:   meta,
		})
	}
	if len(embs) == 0 {
		return nil
	}
	if err := s.db.UpsertBatch(ctx, embs); err != nil {
		return fmt.Errorf("sqvect upsert: %w", err)
	}
	return nil
}

// Update replaces the record wholesale; sqvect has no partial metadata update.
func (s *Store) Update(ctx context.Context, namespace string, vector pinecone.Vector) error {
	return s.Upsert(ctx, namespace, []pinecone.Vector{vector})
}

func (s *Store) QueryMatches(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]pinecone.VectorMatch, error) {
	if len(q) == 0 {
		return nil, fmt.Errorf("query vector required")
	}
	if topK <= 0 {
		topK = 10
	}
	coll := s.collectionName(namespace)
	if !s.hasCollection(ctx, coll) {
		return []pinecone.VectorMatch{}, nil
	}
	res, err := s.db.Search(ctx, q, core.SearchOptions{
		Collection: coll,
		TopK:       topK,
		Filter:     stringifyFilter(filter),
	})
	if err != nil {
		return nil, fmt.Errorf("sqvect search: %w", err)
	}
	out := make([]pinecone.VectorMatch, 0, len(res))
	for _, r := range res {
		id := strings.TrimPrefix(r.ID, coll+"/")
		if id == "" {
			continue
		}
		out = append(out, pinecone.VectorMatch{ID: id, Score: r.Score})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

func (s *Store) DeleteIDs(ctx context.Context, namespace string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	coll := s.collectionName(namespace)
	full := make([]string, 0, len(ids))
	for _, id := range ids {
		if strings.TrimSpace(id) != "" {
			full = append(full, recordID(coll, id))
		}
	}
	// Deleting records that were never indexed is not an error.
	if err := s.db.DeleteBatch(ctx, full); err != nil && !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("sqvect delete: %w", err)
	}
	return nil
}

func (s *Store) collectionName(ns string) string {
	ns = strings.TrimSpace(ns)
	if ns == "" {
		return s.nsPrefix
	}
	return s.nsPrefix + ":" + ns
}

func (s *Store) hasCollection(ctx context.Context, name string) bool {
	s.mu.Lock()
	known := s.collections[name]
	s.mu.Unlock()
	if known {
		return true
	}
	if _, err := s.db.GetCollection(ctx, name); err != nil {
		return false
	}
	s.mu.Lock()
	s.collections[name] = true
	s.mu.Unlock()
	return true
}

func (s *Store) ensureCollection(ctx context.Context, name string, dims int) error {
	if s.hasCollection(ctx, name) {
		return nil
	}
	if _, err := s.db.CreateCollection(ctx, name, dims); err != nil {
		// Another caller may have created it in between.
		if !s.hasCollection(ctx, name) {
			return fmt.Errorf("sqvect create collection %q: %w", name, err)
		}
		return nil
	}
	s.log.Info("Created sqvect collection", "collection", name, "dimensions", dims)
	s.mu.Lock()
	s.collections[name] = true
	s.mu.Unlock()
	return nil
}

func recordID(coll, id string) string {
	return coll + "/" + strings.TrimSpace(id)
}

func stringifyMetadata(in map[string]any) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch t := v.(type) {
		case nil:
			continue
		case []string:
			out[k] = strings.Join(t, ",")
		default:
			out[k] = fmt.Sprint(t)
		}
	}
	return out
}

// stringifyFilter keeps plain equality clauses; operator objects are dropped.
func stringifyFilter(in map[string]any) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := map[string]string{}
	for k, v := range in {
		switch t := v.(type) {
		case map[string]any:
			if eq, ok := t["$eq"]; ok {
				out[k] = fmt.Sprint(eq)
			}
		case nil:
		default:
			out[k] = fmt.Sprint(t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
