package embeddings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type flakyEmbedder struct {
	failures int
	calls    int
	err      error
}

func (f *flakyEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, float32(i)}
	}
	return out, nil
}
func (f *flakyEmbedder) Dimensions() int { return 2 }
func (f *flakyEmbedder) Name() string    { return "flaky" }

func TestOpenAIEmbedderOrdersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "text-embedding-3-small" {
			t.Errorf("model = %q", req.Model)
		}
		w.Header().Set("Content-Type", "application/json")
		// Respond out of order.
		w.Write([]byte(`{"object":"list","data":[
			{"object":"embedding","index":1,"embedding":[0,1]},
			{"object":"embedding","index":0,"embedding":[1,0]}
		],"model":"text-embedding-3-small","usage":{"prompt_tokens":2,"total_tokens":2}}`))
	}))
	defer srv.Close()

	e := NewOpenAIEmbedderWithBaseURL("key", srv.URL+"/v1", ModelTextEmbedding3Small)
	vecs, err := e.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 2 {
		t.Fatalf("got %d vectors, want 2", len(vecs))
	}
	if vecs[0][0] != 1 || vecs[1][1] != 1 {
		t.Errorf("vectors not ordered by index: %v", vecs)
	}
	if e.Dimensions() != 1536 {
		t.Errorf("Dimensions() = %d, want 1536", e.Dimensions())
	}
}

func TestOpenAIEmbedderWrapsServiceErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	e := NewOpenAIEmbedderWithBaseURL("bad", srv.URL+"/v1", ModelTextEmbedding3Small)
	_, err := e.Embed(context.Background(), []string{"x"})
	if !errors.Is(err, ErrService) {
		t.Fatalf("expected ErrService, got %v", err)
	}
}

func TestOllamaEmbedderBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var req ollamaEmbedRequest
		json.NewDecoder(r.Body).Decode(&req)
		resp := ollamaEmbedResponse{}
		for range req.Input {
			resp.Embeddings = append(resp.Embeddings, []float32{0.5, 0.5})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	e := NewOllamaEmbedder("nomic-embed-text", 2, srv.URL)
	vecs, err := e.Embed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 3 {
		t.Errorf("got %d vectors, want 3", len(vecs))
	}
	if e.Name() != "ollama/nomic-embed-text" {
		t.Errorf("Name() = %q", e.Name())
	}
}

func TestOllamaEmbedderCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"embeddings":[[1,2]]}`))
	}))
	defer srv.Close()

	e := NewOllamaEmbedder("m", 2, srv.URL)
	if _, err := e.Embed(context.Background(), []string{"a", "b"}); !errors.Is(err, ErrService) {
		t.Errorf("expected ErrService, got %v", err)
	}
}

func TestWithRetryRecovers(t *testing.T) {
	inner := &flakyEmbedder{failures: 2, err: ErrService}
	e := WithRetry(inner, 2, time.Millisecond)

	vecs, err := e.Embed(context.Background(), []string{"a"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 1 {
		t.Errorf("got %d vectors, want 1", len(vecs))
	}
	if inner.calls != 3 {
		t.Errorf("calls = %d, want 3", inner.calls)
	}
	if e.Name() != "flaky" {
		t.Errorf("Name() should pass through, got %q", e.Name())
	}
}

func TestWithRetryGivesUp(t *testing.T) {
	inner := &flakyEmbedder{failures: 10, err: ErrService}
	_, err := WithRetry(inner, 1, time.Millisecond).Embed(context.Background(), []string{"a"})
	if !errors.Is(err, ErrService) {
		t.Errorf("expected ErrService, got %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("calls = %d, want 2", inner.calls)
	}
}

func TestWithRetryIgnoresOtherErrors(t *testing.T) {
	inner := &flakyEmbedder{failures: 1, err: errors.New("bad input")}
	if _, err := WithRetry(inner, 3, time.Millisecond).Embed(context.Background(), []string{"a"}); err == nil {
		t.Error("expected error")
	}
	if inner.calls != 1 {
		t.Errorf("non-service errors should not be retried, calls = %d", inner.calls)
	}
}

func TestWithRetryDisabled(t *testing.T) {
	inner := &flakyEmbedder{}
	if WithRetry(inner, 0, time.Second) != Embedder(inner) {
		t.Error("zero retries should return the embedder unchanged")
	}
}

func TestToChromemFunc(t *testing.T) {
	fn := ToChromemFunc(&flakyEmbedder{})
	vec, err := fn(context.Background(), "hello")
	if err != nil {
		t.Fatalf("embedding func: %v", err)
	}
	if len(vec) != 2 {
		t.Errorf("got %d dims, want 2", len(vec))
	}

	failing := ToChromemFunc(&flakyEmbedder{failures: 1, err: ErrService})
	if _, err := failing(context.Background(), "x"); !errors.Is(err, ErrService) {
		t.Errorf("expected ErrService, got %v", err)
	}
}
