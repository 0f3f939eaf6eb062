package pinecone

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/yungbote/resourcehub-backend/internal/platform/logger"
)

type recorded struct {
	path string
	body map[string]any
}

type callLog struct {
	mu    sync.Mutex
	calls []recorded
}

func (l *callLog) snapshot() []recorded {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]recorded(nil), l.calls...)
}

func newTestStore(t *testing.T) (VectorStore, *callLog) {
	t.Helper()
	log := &callLog{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Api-Key") != "pc-test" {
			t.Errorf("missing api key header")
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		log.mu.Lock()
		log.calls = append(log.calls, recorded{path: r.URL.Path, body: body})
		log.mu.Unlock()
		switch r.URL.Path {
		case "/query":
			_, _ = w.Write([]byte(`{"matches":[{"id":"7","score":0.9},{"id":"","score":0.5},{"id":"3","score":0.4}]}`))
		case "/vectors/upsert":
			_, _ = w.Write([]byte(`{"upsertedCount":1}`))
		default:
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	t.Cleanup(srv.Close)

	pc, err := New(logger.Nop(), Config{APIKey: "pc-test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	vs, err := NewVectorStore(logger.Nop(), pc, StoreConfig{IndexName: "idx", IndexHost: srv.URL, NamespacePrefix: "rh"})
	if err != nil {
		t.Fatalf("NewVectorStore: %v", err)
	}
	return vs, log
}

func TestVectorStoreQualifiesNamespace(t *testing.T) {
	vs, log := newTestStore(t)
	ctx := context.Background()

	if err := vs.Upsert(ctx, "resources", []Vector{{ID: "1", Values: []float32{1}}}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := vs.Update(ctx, "resources", Vector{ID: "1", Values: []float32{2}, Metadata: map[string]any{"name": "x"}}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := vs.DeleteIDs(ctx, "resources", []string{"1"}); err != nil {
		t.Fatalf("DeleteIDs: %v", err)
	}

	calls := log.snapshot()
	want := []string{"/vectors/upsert", "/vectors/update", "/vectors/delete"}
	if len(calls) != len(want) {
		t.Fatalf("expected %d calls, got %d", len(want), len(calls))
	}
	for i, c := range calls {
		if c.path != want[i] {
			t.Fatalf("call %d: got %s want %s", i, c.path, want[i])
		}
		if c.body["namespace"] != "rh:resources" {
			t.Fatalf("call %d: unexpected namespace %v", i, c.body["namespace"])
		}
	}
	if calls[1].body["setMetadata"] == nil {
		t.Fatalf("update should send setMetadata")
	}
}

func TestVectorStoreQueryDropsEmptyIDs(t *testing.T) {
	vs, _ := newTestStore(t)
	matches, err := vs.QueryMatches(context.Background(), "resources", []float32{0.1}, 5, nil)
	if err != nil {
		t.Fatalf("QueryMatches: %v", err)
	}
	if len(matches) != 2 || matches[0].ID != "7" || matches[1].ID != "3" {
		t.Fatalf("unexpected matches: %+v", matches)
	}
}

func TestDeleteIDsNoopOnEmpty(t *testing.T) {
	vs, log := newTestStore(t)
	if err := vs.DeleteIDs(context.Background(), "resources", nil); err != nil {
		t.Fatalf("DeleteIDs: %v", err)
	}
	if n := len(log.snapshot()); n != 0 {
		t.Fatalf("expected no calls, got %d", n)
	}
}

func TestEmbedderMapsInputs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"model":"m","data":[{"values":[1,2]},{"values":[3,4]}]}`))
	}))
	defer srv.Close()

	pc, err := New(logger.Nop(), Config{APIKey: "pc-test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	emb, err := NewEmbedder(pc, "m")
	if err != nil {
		t.Fatalf("NewEmbedder: %v", err)
	}
	vecs, err := emb.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 2 || vecs[1][1] != 4 {
		t.Fatalf("unexpected vectors: %v", vecs)
	}
}
