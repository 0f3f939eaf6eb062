package app

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/resourcehub-backend/internal/observability"
	"github.com/yungbote/resourcehub-backend/internal/platform/pinecone"
)

type fakeInstrumentedInner struct {
	upsertCalls int
	updateCalls int
	queryCalls  int
	deleteCalls int
	deleteErr   error
}

func (f *fakeInstrumentedInner) Upsert(context.Context, string, []pinecone.Vector) error {
	f.upsertCalls++
	return nil
}

func (f *fakeInstrumentedInner) Update(context.Context, string, pinecone.Vector) error {
	f.updateCalls++
	return nil
}

func (f *fakeInstrumentedInner) QueryMatches(context.Context, string, []float32, int, map[string]any) ([]pinecone.VectorMatch, error) {
	f.queryCalls++
	return []pinecone.VectorMatch{{ID: "resource:1", Score: 0.9}}, nil
}

func (f *fakeInstrumentedInner) DeleteIDs(context.Context, string, []string) error {
	f.deleteCalls++
	return f.deleteErr
}

func TestInstrumentVectorStorePassesThrough(t *testing.T) {
	inner := &fakeInstrumentedInner{}
	vs := instrumentVectorStore(VectorProviderSqvect, inner)
	require.NotNil(t, vs)

	ctx := context.Background()
	require.NoError(t, vs.Upsert(ctx, "resources", []pinecone.Vector{{ID: "resource:1", Values: []float32{1, 2, 3}}}))
	require.NoError(t, vs.Update(ctx, "resources", pinecone.Vector{ID: "resource:1", Values: []float32{3, 2, 1}}))
	matches, err := vs.QueryMatches(ctx, "resources", []float32{1, 2, 3}, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, "resource:1", matches[0].ID)
	require.NoError(t, vs.DeleteIDs(ctx, "resources", []string{"resource:1"}))

	assert.Equal(t, 1, inner.upsertCalls)
	assert.Equal(t, 1, inner.updateCalls)
	assert.Equal(t, 1, inner.queryCalls)
	assert.Equal(t, 1, inner.deleteCalls)
}

func TestInstrumentVectorStoreRecordsErrors(t *testing.T) {
	want := errors.New("delete failed")
	m := observability.NewMetrics()
	vs := &instrumentedVectorStore{provider: VectorProviderPinecone, inner: &fakeInstrumentedInner{deleteErr: want}, metrics: m}

	assert.ErrorIs(t, vs.DeleteIDs(context.Background(), "resources", []string{"resource:1"}), want)

	var buf bytes.Buffer
	require.NoError(t, m.WritePrometheus(&buf))
	assert.Contains(t, buf.String(), `rh_vector_store_operations_total{provider="pinecone",op="delete_ids",status="error"} 1`)
}

func TestInstrumentVectorStoreNil(t *testing.T) {
	assert.Nil(t, instrumentVectorStore(VectorProviderPinecone, nil))
}
