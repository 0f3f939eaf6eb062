package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	neturl "net/url"
	"strings"

	"github.com/yungbote/resourcehub-backend/internal/observability"
	"github.com/yungbote/resourcehub-backend/internal/platform/logger"
	"github.com/yungbote/resourcehub-backend/internal/platform/openai"
	"github.com/yungbote/resourcehub-backend/internal/platform/pinecone"
	"github.com/yungbote/resourcehub-backend/internal/platform/sqvectstore"
	"github.com/yungbote/resourcehub-backend/internal/services"
)

const (
	VectorProviderPinecone = "pinecone"
	VectorProviderSqvect   = "sqvect"
	VectorProviderDisabled = "disabled"

	EmbedProviderOpenAI   = "openai"
	EmbedProviderPinecone = "pinecone"
)

var (
	newPineconeClient      = pinecone.New
	newPineconeVectorStore = pinecone.NewVectorStore
	newSqvectStore         = func(ctx context.Context, log *logger.Logger, cfg sqvectstore.Config) (closableVectorStore, error) {
		vs, err := sqvectstore.NewVectorStore(ctx, log, cfg)
		if err != nil {
			return nil, err
		}
		return vs, nil
	}
)

type closableVectorStore interface {
	pinecone.VectorStore
	Close() error
}

type VectorProviderBootstrapErrorCode string

const (
	VectorProviderBootstrapErrorInvalidProvider    VectorProviderBootstrapErrorCode = "invalid_provider"
	VectorProviderBootstrapErrorMissingAPIKey      VectorProviderBootstrapErrorCode = "missing_api_key"
	VectorProviderBootstrapErrorMissingEmbedder    VectorProviderBootstrapErrorCode = "missing_embedder"
	VectorProviderBootstrapErrorConnectFailed      VectorProviderBootstrapErrorCode = "connect_failed"
	VectorProviderBootstrapErrorProviderInitFailed VectorProviderBootstrapErrorCode = "provider_init_failed"
)

type VectorProviderBootstrapError struct {
	Code     VectorProviderBootstrapErrorCode
	Provider string
	Cause    error
}

func (e *VectorProviderBootstrapError) Error() string {
	if e == nil {
		return "vector provider bootstrap failed"
	}
	return fmt.Sprintf("vector provider bootstrap failed (code=%s provider=%q): %v", e.Code, e.Provider, e.Cause)
}

func (e *VectorProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// vectorBackend is the resolved store plus the embedder that feeds it.
type vectorBackend struct {
	Provider string
	Store    pinecone.VectorStore
	Embedder services.Embedder
	close    func() error
}

func (b vectorBackend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// resolveVectorBackend selects the vector store and embedder. A disabled
// provider returns an empty backend and no error; the sync adapter is then
// not wired and similar-resource lookups report unavailable.
func resolveVectorBackend(ctx context.Context, log *logger.Logger, cfg Config, oa openai.Client) (vectorBackend, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.VectorProvider))
	metrics := observability.Current()

	log.Info("Selecting vector store provider",
		"provider", provider,
		"embed_provider", cfg.EmbedProvider,
		"namespace", cfg.VectorNamespace,
	)

	var (
		pc      pinecone.Client
		backend = vectorBackend{Provider: provider}
		err     error
	)

	switch provider {
	case VectorProviderDisabled, "":
		metrics.SetVectorStoreProvider(VectorProviderDisabled)
		return vectorBackend{Provider: VectorProviderDisabled}, nil

	case VectorProviderPinecone:
		if strings.TrimSpace(cfg.Pinecone.APIKey) == "" {
			return vectorBackend{}, bootstrapFailed(log, provider, &VectorProviderBootstrapError{
				Code:     VectorProviderBootstrapErrorMissingAPIKey,
				Provider: provider,
				Cause:    errors.New("PINECONE_API_KEY not set"),
			})
		}
		pc, err = pineconeClient(log, cfg)
		if err != nil {
			return vectorBackend{}, bootstrapFailed(log, provider, classifyVectorProviderBootstrapError(provider, err))
		}
		vs, err := newPineconeVectorStore(log, pc, pinecone.StoreConfig{
			IndexName:       cfg.Pinecone.IndexName,
			IndexHost:       cfg.Pinecone.IndexHost,
			NamespacePrefix: cfg.Pinecone.NamespacePrefix,
		})
		if err != nil {
			return vectorBackend{}, bootstrapFailed(log, provider, classifyVectorProviderBootstrapError(provider, err))
		}
		backend.Store = instrumentVectorStore(provider, vs)

	case VectorProviderSqvect:
		vs, err := newSqvectStore(ctx, log, sqvectstore.Config{
			Path:            cfg.SqvectPath,
			VectorDim:       cfg.SqvectDim,
			NamespacePrefix: cfg.Pinecone.NamespacePrefix,
		})
		if err != nil {
			return vectorBackend{}, bootstrapFailed(log, provider, classifyVectorProviderBootstrapError(provider, err))
		}
		backend.Store = instrumentVectorStore(provider, vs)
		backend.close = vs.Close

	default:
		return vectorBackend{}, bootstrapFailed(log, provider, &VectorProviderBootstrapError{
			Code:     VectorProviderBootstrapErrorInvalidProvider,
			Provider: provider,
			Cause:    fmt.Errorf("unsupported vector provider %q", provider),
		})
	}

	backend.Embedder, err = resolveEmbedder(log, cfg, pc, oa)
	if err != nil {
		_ = backend.Close()
		return vectorBackend{}, bootstrapFailed(log, provider, err)
	}
	metrics.SetVectorStoreProvider(provider)
	return backend, nil
}

func resolveEmbedder(log *logger.Logger, cfg Config, pc pinecone.Client, oa openai.Client) (services.Embedder, error) {
	switch strings.TrimSpace(strings.ToLower(cfg.EmbedProvider)) {
	case EmbedProviderPinecone:
		if pc == nil {
			if strings.TrimSpace(cfg.Pinecone.APIKey) == "" {
				return nil, &VectorProviderBootstrapError{
					Code:     VectorProviderBootstrapErrorMissingEmbedder,
					Provider: cfg.VectorProvider,
					Cause:    errors.New("EMBED_PROVIDER=pinecone needs PINECONE_API_KEY"),
				}
			}
			var err error
			if pc, err = pineconeClient(log, cfg); err != nil {
				return nil, classifyVectorProviderBootstrapError(cfg.VectorProvider, err)
			}
		}
		emb, err := pinecone.NewEmbedder(pc, cfg.Pinecone.EmbedModel)
		if err != nil {
			return nil, err
		}
		return emb, nil
	default:
		if oa == nil {
			return nil, &VectorProviderBootstrapError{
				Code:     VectorProviderBootstrapErrorMissingEmbedder,
				Provider: cfg.VectorProvider,
				Cause:    errors.New("EMBED_PROVIDER=openai needs OPENAI_API_KEY"),
			}
		}
		return oa, nil
	}
}

func pineconeClient(log *logger.Logger, cfg Config) (pinecone.Client, error) {
	return newPineconeClient(log, pinecone.Config{
		APIKey:     strings.TrimSpace(cfg.Pinecone.APIKey),
		APIVersion: strings.TrimSpace(cfg.Pinecone.APIVersion),
		BaseURL:    strings.TrimSpace(cfg.Pinecone.BaseURL),
	})
}

func bootstrapFailed(log *logger.Logger, provider string, err error) error {
	log.Error("Vector store provider bootstrap failed",
		"provider", provider,
		"error_code", vectorProviderBootstrapErrorCode(err),
		"error", err,
	)
	return err
}

func classifyVectorProviderBootstrapError(provider string, err error) error {
	var bootstrapErr *VectorProviderBootstrapError
	if errors.As(err, &bootstrapErr) {
		return err
	}
	code := VectorProviderBootstrapErrorProviderInitFailed
	var urlErr *neturl.Error
	var netErr net.Error
	switch {
	case errors.As(err, &urlErr), errors.As(err, &netErr):
		code = VectorProviderBootstrapErrorConnectFailed
	case strings.Contains(strings.ToLower(err.Error()), "connection refused"):
		code = VectorProviderBootstrapErrorConnectFailed
	}
	return &VectorProviderBootstrapError{Code: code, Provider: provider, Cause: err}
}

func vectorProviderBootstrapErrorCode(err error) VectorProviderBootstrapErrorCode {
	var bootstrapErr *VectorProviderBootstrapError
	if errors.As(err, &bootstrapErr) && bootstrapErr.Code != "" {
		return bootstrapErr.Code
	}
	return VectorProviderBootstrapErrorProviderInitFailed
}
