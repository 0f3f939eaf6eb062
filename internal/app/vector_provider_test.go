package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/resourcehub-backend/internal/platform/logger"
	"github.com/yungbote/resourcehub-backend/internal/platform/pinecone"
	"github.com/yungbote/resourcehub-backend/internal/platform/sqvectstore"
)

type stubEmbedClient struct{}

func (stubEmbedClient) GenerateJSON(context.Context, string, string, string, map[string]any) (map[string]any, error) {
	return nil, nil
}
func (stubEmbedClient) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	return make([][]float32, len(inputs)), nil
}

type closingStore struct {
	fakeInstrumentedInner
	closed bool
}

func (c *closingStore) Close() error {
	c.closed = true
	return nil
}

func TestResolveVectorBackendDisabled(t *testing.T) {
	b, err := resolveVectorBackend(context.Background(), logger.Nop(), Config{VectorProvider: "disabled"}, nil)
	require.NoError(t, err)
	assert.Equal(t, VectorProviderDisabled, b.Provider)
	assert.Nil(t, b.Store)
	assert.Nil(t, b.Embedder)
	assert.NoError(t, b.Close())
}

func TestResolveVectorBackendSqvectUsesOpenAIEmbedder(t *testing.T) {
	orig := newSqvectStore
	t.Cleanup(func() { newSqvectStore = orig })

	store := &closingStore{}
	var captured sqvectstore.Config
	newSqvectStore = func(_ context.Context, _ *logger.Logger, cfg sqvectstore.Config) (closableVectorStore, error) {
		captured = cfg
		return store, nil
	}

	b, err := resolveVectorBackend(context.Background(), logger.Nop(), Config{
		VectorProvider: VectorProviderSqvect,
		EmbedProvider:  EmbedProviderOpenAI,
		SqvectPath:     "/tmp/vectors.db",
		SqvectDim:      1536,
	}, stubEmbedClient{})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/vectors.db", captured.Path)
	assert.Equal(t, 1536, captured.VectorDim)
	require.NotNil(t, b.Store)
	require.NotNil(t, b.Embedder)

	require.NoError(t, b.Store.Upsert(context.Background(), "resources", []pinecone.Vector{{ID: "1", Values: []float32{1}}}))
	assert.Equal(t, 1, store.upsertCalls)

	require.NoError(t, b.Close())
	assert.True(t, store.closed)
}

func TestResolveVectorBackendMissingEmbedderClosesStore(t *testing.T) {
	orig := newSqvectStore
	t.Cleanup(func() { newSqvectStore = orig })
	store := &closingStore{}
	newSqvectStore = func(context.Context, *logger.Logger, sqvectstore.Config) (closableVectorStore, error) {
		return store, nil
	}

	_, err := resolveVectorBackend(context.Background(), logger.Nop(), Config{
		VectorProvider: VectorProviderSqvect,
		EmbedProvider:  EmbedProviderOpenAI,
	}, nil)
	require.Error(t, err)
	assert.Equal(t, VectorProviderBootstrapErrorMissingEmbedder, vectorProviderBootstrapErrorCode(err))
	assert.True(t, store.closed)
}

func TestResolveVectorBackendPineconeMissingKey(t *testing.T) {
	origClient := newPineconeClient
	t.Cleanup(func() { newPineconeClient = origClient })
	newPineconeClient = func(*logger.Logger, pinecone.Config) (pinecone.Client, error) {
		t.Fatalf("pinecone client must not be built without an api key")
		return nil, nil
	}

	_, err := resolveVectorBackend(context.Background(), logger.Nop(), Config{VectorProvider: VectorProviderPinecone}, nil)
	require.Error(t, err)
	assert.Equal(t, VectorProviderBootstrapErrorMissingAPIKey, vectorProviderBootstrapErrorCode(err))
}

func TestResolveVectorBackendPineconeStoreFailureIsClassified(t *testing.T) {
	origClient, origStore := newPineconeClient, newPineconeVectorStore
	t.Cleanup(func() {
		newPineconeClient = origClient
		newPineconeVectorStore = origStore
	})
	newPineconeClient = func(*logger.Logger, pinecone.Config) (pinecone.Client, error) { return nil, nil }
	newPineconeVectorStore = func(*logger.Logger, pinecone.Client, pinecone.StoreConfig) (pinecone.VectorStore, error) {
		return nil, errors.New("dial tcp 10.0.0.1:443: connection refused")
	}

	_, err := resolveVectorBackend(context.Background(), logger.Nop(), Config{
		VectorProvider: VectorProviderPinecone,
		Pinecone:       PineconeConfig{APIKey: "k", IndexName: "resources"},
	}, nil)
	require.Error(t, err)
	assert.Equal(t, VectorProviderBootstrapErrorConnectFailed, vectorProviderBootstrapErrorCode(err))
}

func TestResolveVectorBackendUnknownProvider(t *testing.T) {
	_, err := resolveVectorBackend(context.Background(), logger.Nop(), Config{VectorProvider: "qdrant"}, nil)
	var bootstrapErr *VectorProviderBootstrapError
	require.ErrorAs(t, err, &bootstrapErr)
	assert.Equal(t, VectorProviderBootstrapErrorInvalidProvider, bootstrapErr.Code)
}
