package vectordb

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/ziadkadry99/docchat/internal/embeddings"
)

// mockEmbedder returns deterministic bag-of-words vectors: each distinct
// lowercase word gets its own dimension in first-seen order, so texts that
// share words are similar and unrelated texts are orthogonal. The last
// dimension carries a small constant so no vector is zero.
type mockEmbedder struct {
	mu    sync.Mutex
	dims  int
	vocab map[string]int
	err   error
}

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{dims: dims, vocab: make(map[string]int)}
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	results := make([][]float32, len(texts))
	for i, text := range texts {
		results[i] = m.vector(text)
	}
	return results, nil
}

func (m *mockEmbedder) Dimensions() int { return m.dims }
func (m *mockEmbedder) Name() string    { return "mock" }

func (m *mockEmbedder) vector(text string) []float32 {
	m.mu.Lock()
	defer m.mu.Unlock()

	vec := make([]float32, m.dims)
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	}) {
		idx, ok := m.vocab[w]
		if !ok {
			idx = len(m.vocab) % (m.dims - 1)
			m.vocab[w] = idx
		}
		vec[idx] += 1
	}
	vec[m.dims-1] = 0.1
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

func buildIndex(t *testing.T, e *mockEmbedder, texts ...string) *Index {
	t.Helper()
	chunks := make([]Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = Chunk{Content: text, Metadata: map[string]string{"source": "test.txt"}}
	}
	vecs, err := e.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	idx, err := Build(context.Background(), e, chunks, vecs)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return idx
}

func TestBuildEmpty(t *testing.T) {
	_, err := Build(context.Background(), newMockEmbedder(256), nil, nil)
	if !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
}

func TestBuildVectorMismatch(t *testing.T) {
	chunks := []Chunk{{Content: "a"}, {Content: "b"}}
	_, err := Build(context.Background(), newMockEmbedder(256), chunks, [][]float32{{1, 0}})
	if !errors.Is(err, embeddings.ErrService) {
		t.Fatalf("expected ErrService, got %v", err)
	}
}

func TestQueryRanksBySimilarity(t *testing.T) {
	e := newMockEmbedder(256)
	idx := buildIndex(t, e,
		"Bob likes coffee in the morning",
		"The weather report predicts rain",
		"Alice likes tea with milk",
		"Carol collects stamps",
	)

	if idx.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", idx.Len())
	}

	matches, err := idx.Query(context.Background(), "What does Alice like?", 3)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("got %d matches, want 3", len(matches))
	}
	if !strings.Contains(matches[0].Content, "Alice likes tea") {
		t.Errorf("top match = %q, want the Alice chunk", matches[0].Content)
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Similarity > matches[i-1].Similarity {
			t.Errorf("matches not ordered by descending similarity at %d", i)
		}
	}
	if matches[0].Metadata["source"] != "test.txt" {
		t.Errorf("metadata not preserved: %v", matches[0].Metadata)
	}
	if _, ok := matches[0].Metadata[positionKey]; ok {
		t.Error("internal position key should not leak into metadata")
	}
}

func TestQueryTiesBrokenByInsertionOrder(t *testing.T) {
	e := newMockEmbedder(256)
	idx := buildIndex(t, e, "same words", "same words", "same words", "same words", "same words")

	matches, err := idx.Query(context.Background(), "same words", 3)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	for i, m := range matches {
		if m.Position != i {
			t.Errorf("match %d has position %d, want %d", i, m.Position, i)
		}
	}
}

func TestQueryKLargerThanIndex(t *testing.T) {
	e := newMockEmbedder(256)
	idx := buildIndex(t, e, "one", "two")

	matches, err := idx.Query(context.Background(), "one", 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("got %d matches, want 2", len(matches))
	}
}

func TestQueryDefaultK(t *testing.T) {
	e := newMockEmbedder(256)
	idx := buildIndex(t, e, "a1", "a2", "a3", "a4", "a5")

	matches, err := idx.Query(context.Background(), "a1", 0)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(matches) != DefaultTopK {
		t.Errorf("got %d matches, want %d", len(matches), DefaultTopK)
	}
}

func TestIndexIsolation(t *testing.T) {
	e := newMockEmbedder(256)
	a := buildIndex(t, e, "apples grow on trees", "apples are red")
	b := buildIndex(t, e, "bananas are yellow", "bananas grow in bunches")

	matches, err := a.Query(context.Background(), "bananas yellow bunches", 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	for _, m := range matches {
		if strings.Contains(m.Content, "banana") {
			t.Errorf("index A returned chunk from index B: %q", m.Content)
		}
	}
	if b.Len() != 2 {
		t.Errorf("index B Len() = %d, want 2", b.Len())
	}
}

func TestQueryEmbedding(t *testing.T) {
	e := newMockEmbedder(256)
	idx := buildIndex(t, e, "red apples", "green pears")

	matches, err := idx.QueryEmbedding(context.Background(), e.vector("green pears"), 1)
	if err != nil {
		t.Fatalf("QueryEmbedding: %v", err)
	}
	if len(matches) != 1 || matches[0].Content != "green pears" {
		t.Errorf("unexpected matches: %+v", matches)
	}
	if matches[0].Similarity < 0.99 {
		t.Errorf("identical text similarity = %f, want ~1", matches[0].Similarity)
	}
}

func TestQueryEmbedderFailure(t *testing.T) {
	e := newMockEmbedder(256)
	idx := buildIndex(t, e, "something")

	e.err = embeddings.ErrService
	_, err := idx.Query(context.Background(), "something", 1)
	if !errors.Is(err, embeddings.ErrService) {
		t.Errorf("expected ErrService, got %v", err)
	}
}

func TestQueryWrapsPlainEmbedderErrors(t *testing.T) {
	e := newMockEmbedder(256)
	idx := buildIndex(t, e, "something")

	e.err = errors.New("connection reset")
	_, err := idx.Query(context.Background(), "something", 1)
	if !errors.Is(err, embeddings.ErrService) {
		t.Errorf("expected ErrService, got %v", err)
	}
	if err == nil || !strings.Contains(err.Error(), "connection reset") {
		t.Errorf("expected the cause in %v", err)
	}
}

func TestEmbedderName(t *testing.T) {
	idx := buildIndex(t, newMockEmbedder(8), "something")
	if got := idx.EmbedderName(); got != "mock" {
		t.Errorf("EmbedderName() = %q, want mock", got)
	}
}

func TestQueryEmptyText(t *testing.T) {
	idx := buildIndex(t, newMockEmbedder(256), "something")
	if _, err := idx.Query(context.Background(), "", 1); err == nil {
		t.Error("expected error for empty query")
	}
}

func TestFormatMatches(t *testing.T) {
	if got := FormatMatches(nil); got != "No matching passages." {
		t.Errorf("empty: got %q", got)
	}

	out := FormatMatches([]Match{{
		Chunk:      Chunk{Position: 2, Content: "Alice likes tea.", Metadata: map[string]string{"source": "notes.pdf", "page": "3"}},
		Similarity: 0.91,
	}})
	for _, want := range []string{"Found 1 passage(s)", "Source: notes.pdf, page 3", "Chunk: 2", "Alice likes tea."} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
