package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	types "github.com/yungbote/resourcehub-backend/internal/domain"
	"github.com/yungbote/resourcehub-backend/internal/observability"
	"github.com/yungbote/resourcehub-backend/internal/platform/logger"
	"github.com/yungbote/resourcehub-backend/internal/platform/scraper"
)

var ErrModelRejected = errors.New("model rejected request")

// JSONGenerator is the structured-output half of the model client.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error)
}

type Categorization struct {
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

type SearchRanking struct {
	ResourceIDs []int64 `json:"resourceIds"`
	Summary     string  `json:"summary"`
}

type AIOrchestrator interface {
	AutoCategorize(ctx context.Context, meta scraper.Metadata, taxonomy types.TaxonomySnapshot) (Categorization, error)
	SemanticSearch(ctx context.Context, query string, candidates []*types.ResourceView) (SearchRanking, error)
}

type aiOrchestrator struct {
	log   *logger.Logger
	model JSONGenerator
}

func NewAIOrchestrator(log *logger.Logger, model JSONGenerator) AIOrchestrator {
	return &aiOrchestrator{log: log.With("service", "AIOrchestrator"), model: model}
}

const categorizeSystem = `You file bookmarked web resources into a shared taxonomy.
Pick exactly one category and up to five short tags for the resource.
Prefer an existing category or tag when one fits; invent a new one only when none does.
If the input is unusable, set "error" to a short reason and leave the other fields empty.`

const searchSystem = `You rank a user's saved resources against a search query.
Return only ids taken from the candidate list, most relevant first, and omit anything unrelated.
Write a one or two sentence summary of what matched.
If the query is unusable, set "error" to a short reason and return an empty list.`

func categorizeSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"category", "tags", "error"},
		"properties": map[string]any{
			"category": map[string]any{"type": "string"},
			"tags":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"error":    map[string]any{"type": "string"},
		},
	}
}

func searchSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"resourceIds", "summary", "error"},
		"properties": map[string]any{
			"resourceIds": map[string]any{"type": "array", "items": map[string]any{"type": "integer"}},
			"summary":     map[string]any{"type": "string"},
			"error":       map[string]any{"type": "string"},
		},
	}
}

func (o *aiOrchestrator) AutoCategorize(ctx context.Context, meta scraper.Metadata, taxonomy types.TaxonomySnapshot) (out Categorization, err error) {
	ctx, span := observability.Tracer().Start(ctx, "ai.auto_categorize",
		trace.WithAttributes(
			attribute.String("resource.url", meta.URL),
			attribute.Int("taxonomy.categories", len(taxonomy.Categories)),
			attribute.Int("taxonomy.tags", len(taxonomy.Tags)),
		))
	start := time.Now()
	defer func() {
		observability.Current().ObserveLLM("auto_categorize", err, time.Since(start))
		endSpan(span, err)
	}()

	payload, err := json.Marshal(map[string]any{
		"resource": map[string]string{
			"url":         meta.URL,
			"title":       meta.Title,
			"description": meta.Description,
			"siteName":    meta.SiteName,
		},
		"existingCategories": nonNilStrings(taxonomy.Categories),
		"existingTags":       nonNilStrings(taxonomy.Tags),
	})
	if err != nil {
		return out, err
	}
	obj, err := o.model.GenerateJSON(ctx, categorizeSystem, string(payload), "resource_categorization", categorizeSchema())
	if err != nil {
		return out, fmt.Errorf("auto categorize: %w", err)
	}
	if err := modelError(obj); err != nil {
		return out, fmt.Errorf("auto categorize: %w", err)
	}

	out.Category = strings.TrimSpace(stringFromAny(obj["category"]))
	if out.Category == "" {
		return out, fmt.Errorf("auto categorize: %w: empty category", ErrModelRejected)
	}
	out.Tags = dedupeStrings(stringsFromAny(obj["tags"]))
	span.SetAttributes(attribute.String("ai.category", out.Category), attribute.Int("ai.tags", len(out.Tags)))
	return out, nil
}

type searchCandidate struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	URL         string   `json:"url"`
}

func (o *aiOrchestrator) SemanticSearch(ctx context.Context, query string, candidates []*types.ResourceView) (out SearchRanking, err error) {
	ctx, span := observability.Tracer().Start(ctx, "ai.semantic_search",
		trace.WithAttributes(attribute.Int("search.candidates", len(candidates))))
	start := time.Now()
	defer func() {
		observability.Current().ObserveLLM("semantic_search", err, time.Since(start))
		endSpan(span, err)
	}()

	out.ResourceIDs = []int64{}
	query = strings.TrimSpace(query)
	if query == "" {
		return out, fmt.Errorf("semantic search: %w: empty query", ErrModelRejected)
	}

	known := make(map[int64]bool, len(candidates))
	list := make([]searchCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c == nil {
			continue
		}
		known[c.ID] = true
		list = append(list, searchCandidate{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			Category:    c.Category,
			Tags:        c.Tags,
			URL:         c.URL,
		})
	}
	payload, err := json.Marshal(map[string]any{"query": query, "candidates": list})
	if err != nil {
		return out, err
	}
	obj, err := o.model.GenerateJSON(ctx, searchSystem, string(payload), "resource_search", searchSchema())
	if err != nil {
		return out, fmt.Errorf("semantic search: %w", err)
	}
	if err := modelError(obj); err != nil {
		return out, fmt.Errorf("semantic search: %w", err)
	}

	out.Summary = strings.TrimSpace(stringFromAny(obj["summary"]))
	dropped := 0
	for _, id := range int64sFromAny(obj["resourceIds"]) {
		if !known[id] {
			dropped++
			continue
		}
		out.ResourceIDs = append(out.ResourceIDs, id)
	}
	if dropped > 0 {
		o.log.Warn("model ranked unknown resource ids", "dropped", dropped)
	}
	span.SetAttributes(attribute.Int("search.ranked", len(out.ResourceIDs)))
	return out, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// modelError surfaces the schema's "error" field.
func modelError(obj map[string]any) error {
	if obj == nil {
		return fmt.Errorf("%w: empty response", ErrModelRejected)
	}
	if msg := strings.TrimSpace(stringFromAny(obj["error"])); msg != "" {
		return fmt.Errorf("%w: %s", ErrModelRejected, msg)
	}
	return nil
}

func stringFromAny(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func stringsFromAny(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s := strings.TrimSpace(stringFromAny(item)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func int64sFromAny(v any) []int64 {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]int64, 0, len(arr))
	for _, item := range arr {
		switch n := item.(type) {
		case float64:
			if n == math.Trunc(n) && n > 0 {
				out = append(out, int64(n))
			}
		case json.Number:
			if id, err := n.Int64(); err == nil && id > 0 {
				out = append(out, id)
			}
		}
	}
	return out
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		key := strings.ToLower(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
