package pinecone

import (
	"context"
	"fmt"
	"strings"
)

// Embedder turns passages into vectors through Pinecone's hosted inference models.
type Embedder struct {
	pc    Client
	model string
}

func NewEmbedder(pc Client, model string) (*Embedder, error) {
	if pc == nil {
		return nil, fmt.Errorf("pinecone client required")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = "multilingual-e5-large"
	}
	return &Embedder{pc: pc, model: model}, nil
}

func (e *Embedder) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}
	req := EmbedRequest{
		Model:      e.model,
		Parameters: map[string]any{"input_type": "passage", "truncate": "END"},
		Inputs:     make([]EmbedInput, len(inputs)),
	}
	for i, in := range inputs {
		req.Inputs[i] = EmbedInput{Text: in}
	}
	resp, err := e.pc.Embed(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(inputs) {
		return nil, fmt.Errorf("pinecone embed returned %d vectors for %d inputs", len(resp.Data), len(inputs))
	}
	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = d.Values
	}
	return out, nil
}
