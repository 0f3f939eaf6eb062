package app

import (
	"context"
	"time"

	"github.com/yungbote/resourcehub-backend/internal/observability"
	"github.com/yungbote/resourcehub-backend/internal/platform/pinecone"
)

// instrumentedVectorStore reports latency and status of every call under the
// selected provider label.
type instrumentedVectorStore struct {
	provider string
	inner    pinecone.VectorStore
	metrics  *observability.Metrics
}

func instrumentVectorStore(provider string, inner pinecone.VectorStore) pinecone.VectorStore {
	if inner == nil {
		return nil
	}
	return &instrumentedVectorStore{provider: provider, inner: inner, metrics: observability.Current()}
}

func (s *instrumentedVectorStore) observe(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	s.metrics.ObserveVectorStore(s.provider, op, err, time.Since(start))
	return err
}

func (s *instrumentedVectorStore) Upsert(ctx context.Context, namespace string, vectors []pinecone.Vector) error {
	return s.observe("upsert", func() error { return s.inner.Upsert(ctx, namespace, vectors) })
}

func (s *instrumentedVectorStore) Update(ctx context.Context, namespace string, vector pinecone.Vector) error {
	return s.observe("update", func() error { return s.inner.Update(ctx, namespace, vector) })
}

func (s *instrumentedVectorStore) QueryMatches(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) (matches []pinecone.VectorMatch, err error) {
	err = s.observe("query_matches", func() error {
		matches, err = s.inner.QueryMatches(ctx, namespace, q, topK, filter)
		return err
	})
	return matches, err
}

func (s *instrumentedVectorStore) DeleteIDs(ctx context.Context, namespace string, ids []string) error {
	return s.observe("delete_ids", func() error { return s.inner.DeleteIDs(ctx, namespace, ids) })
}
