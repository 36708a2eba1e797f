package chat

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/ziadkadry99/docchat/internal/indexer"
	"github.com/ziadkadry99/docchat/internal/llm"
	"github.com/ziadkadry99/docchat/internal/session"
)

// letterEmbedder maps each letter to a dimension.
type letterEmbedder struct{}

func (letterEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, 27)
		for _, r := range strings.ToLower(text) {
			if r >= 'a' && r <= 'z' {
				vec[r-'a']++
			}
		}
		vec[26] = 1
		out[i] = vec
	}
	return out, nil
}
func (letterEmbedder) Dimensions() int { return 27 }
func (letterEmbedder) Name() string    { return "letters" }

// recordingProvider replays canned replies and keeps every request.
type recordingProvider struct {
	mu       sync.Mutex
	requests []llm.CompletionRequest
	replies  []string
	err      error
}

func (p *recordingProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	reply := "ok"
	if len(p.replies) > 0 {
		reply, p.replies = p.replies[0], p.replies[1:]
	}
	return &llm.CompletionResponse{Content: reply, InputTokens: 100, OutputTokens: 10, Model: req.Model}, nil
}

func (p *recordingProvider) Name() string { return "recording" }

// countingFactory returns the same provider and counts builds.
type countingFactory struct {
	provider *recordingProvider
	builds   int
	configs  []llm.ModelConfig
	err      error
}

func (f *countingFactory) build(cfg llm.ModelConfig) (llm.Provider, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.builds++
	f.configs = append(f.configs, cfg)
	return f.provider, nil
}

var defaultCfg = llm.ModelConfig{Model: "gpt-4", Temperature: 0.7}

func newRecord(t *testing.T, name, text string, opts ...indexer.SplitterOption) *session.Record {
	t.Helper()
	p := indexer.NewPipeline(letterEmbedder{}, indexer.NewSplitter(opts...), 0)
	doc, err := p.Ingest(context.Background(), name, []byte(text))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	rec, err := session.NewRegistry().RegisterDocument(doc)
	if err != nil {
		t.Fatalf("RegisterDocument: %v", err)
	}
	return rec
}

func mustAsk(t *testing.T, engine *DocumentEngine, rec *session.Record, question string, cfg llm.ModelConfig) *Answer {
	t.Helper()
	ans, err := engine.Ask(context.Background(), rec, question, cfg)
	if err != nil {
		t.Fatalf("Ask(%q): %v", question, err)
	}
	return ans
}

func TestDocumentEngine_PromptContainsRetrievedText(t *testing.T) {
	rec := newRecord(t, "notes.txt", "Alice likes tea. Bob likes coffee.")
	provider := &recordingProvider{replies: []string{"Alice likes tea."}}
	engine := NewDocumentEngine((&countingFactory{provider: provider}).build)

	ans := mustAsk(t, engine, rec, "What does Alice like?", defaultCfg)
	if ans.Text != "Alice likes tea." || ans.Document != "notes.txt" || ans.Model != "gpt-4" {
		t.Errorf("unexpected answer %+v", ans)
	}
	if len(ans.Sources) != 1 {
		t.Errorf("expected 1 source, got %d", len(ans.Sources))
	}
	if ans.InputTokens != 100 || ans.OutputTokens != 10 || ans.Cost <= 0 {
		t.Errorf("unexpected usage: %d in, %d out, cost %f", ans.InputTokens, ans.OutputTokens, ans.Cost)
	}

	if len(provider.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(provider.requests))
	}
	req := provider.requests[0]
	if req.Model != "gpt-4" || req.Temperature != 0.7 {
		t.Errorf("request model/temperature = %s/%v", req.Model, req.Temperature)
	}
	if len(req.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(req.Messages))
	}
	if req.Messages[0].Role != llm.RoleSystem || !strings.Contains(req.Messages[0].Content, "Alice likes tea. Bob likes coffee.") {
		t.Errorf("system prompt lacks the document text: %+v", req.Messages[0])
	}
	if want := (llm.Message{Role: llm.RoleUser, Content: "What does Alice like?"}); req.Messages[1] != want {
		t.Errorf("user message = %+v, want %+v", req.Messages[1], want)
	}

	turns := rec.History.Turns()
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != llm.RoleUser || turns[0].Text != "What does Alice like?" {
		t.Errorf("unexpected user turn %+v", turns[0])
	}
	if turns[1].Role != llm.RoleAssistant || turns[1].Text != "Alice likes tea." {
		t.Errorf("unexpected assistant turn %+v", turns[1])
	}
}

func TestDocumentEngine_HistoryInPrompt(t *testing.T) {
	rec := newRecord(t, "notes.txt", "Alice likes tea. Bob likes coffee.")
	provider := &recordingProvider{replies: []string{"tea", "coffee"}}
	engine := NewDocumentEngine((&countingFactory{provider: provider}).build)

	mustAsk(t, engine, rec, "What does Alice like?", defaultCfg)
	mustAsk(t, engine, rec, "And Bob?", defaultCfg)

	if len(provider.requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(provider.requests))
	}
	msgs := provider.requests[1].Messages
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(msgs))
	}
	want := []llm.Message{
		{Role: llm.RoleUser, Content: "What does Alice like?"},
		{Role: llm.RoleAssistant, Content: "tea"},
		{Role: llm.RoleUser, Content: "And Bob?"},
	}
	if !slices.Equal(msgs[1:], want) {
		t.Errorf("conversation = %+v, want %+v", msgs[1:], want)
	}
	if rec.History.Len() != 4 {
		t.Errorf("history has %d turns, want 4", rec.History.Len())
	}
}

func TestDocumentEngine_RebuildOnConfigChange(t *testing.T) {
	rec := newRecord(t, "notes.txt", "Alice likes tea.")
	factory := &countingFactory{provider: &recordingProvider{}}
	engine := NewDocumentEngine(factory.build)

	mustAsk(t, engine, rec, "q1", defaultCfg)
	mustAsk(t, engine, rec, "q2", defaultCfg)
	if factory.builds != 1 {
		t.Errorf("same config should reuse the chain, got %d builds", factory.builds)
	}

	warmer := llm.ModelConfig{Model: "gpt-4", Temperature: 0.9}
	mustAsk(t, engine, rec, "q3", warmer)
	if factory.builds != 2 || rec.Chain().Config() != warmer {
		t.Errorf("temperature change: %d builds, chain %+v", factory.builds, rec.Chain().Config())
	}

	mustAsk(t, engine, rec, "q4", llm.ModelConfig{Model: "gpt-3.5-turbo", Temperature: 0.9})
	if factory.builds != 3 {
		t.Errorf("model change: %d builds, want 3", factory.builds)
	}
}

func TestDocumentEngine_UpstreamFailureKeepsUserTurn(t *testing.T) {
	rec := newRecord(t, "notes.txt", "Alice likes tea.")
	provider := &recordingProvider{err: errors.New("rate limited")}
	engine := NewDocumentEngine((&countingFactory{provider: provider}).build)

	_, err := engine.Ask(context.Background(), rec, "What does Alice like?", defaultCfg)
	if !errors.Is(err, ErrUpstreamModel) {
		t.Fatalf("expected ErrUpstreamModel, got %v", err)
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("expected the cause in %v", err)
	}

	turns := rec.History.Turns()
	if len(turns) != 1 || turns[0].Role != llm.RoleUser {
		t.Errorf("expected only the user turn, got %+v", turns)
	}
}

func TestDocumentEngine_FactoryFailure(t *testing.T) {
	rec := newRecord(t, "notes.txt", "Alice likes tea.")
	engine := NewDocumentEngine((&countingFactory{err: errors.New("OPENAI_API_KEY environment variable is not set")}).build)

	_, err := engine.Ask(context.Background(), rec, "q", defaultCfg)
	if !errors.Is(err, ErrUpstreamModel) {
		t.Fatalf("expected ErrUpstreamModel, got %v", err)
	}
	if rec.History.Len() != 0 || rec.Chain() != nil {
		t.Errorf("factory failure must leave the record untouched")
	}
}

func TestDocumentEngine_EmptyQuestion(t *testing.T) {
	rec := newRecord(t, "notes.txt", "Alice likes tea.")
	engine := NewDocumentEngine((&countingFactory{provider: &recordingProvider{}}).build)

	if _, err := engine.Ask(context.Background(), rec, "   ", defaultCfg); !errors.Is(err, ErrEmptyQuestion) {
		t.Errorf("expected ErrEmptyQuestion, got %v", err)
	}
	if rec.History.Len() != 0 {
		t.Errorf("history has %d turns, want 0", rec.History.Len())
	}
}

func TestDocumentEngine_TopK(t *testing.T) {
	text := "alpha line\nbravo line\ncharlie line\ndelta line\necho line"
	rec := newRecord(t, "lines.txt", text, indexer.WithChunkSize(12), indexer.WithChunkOverlap(0))
	if rec.Chunks != 5 {
		t.Fatalf("expected 5 chunks, got %d", rec.Chunks)
	}
	provider := &recordingProvider{}

	ans := mustAsk(t, NewDocumentEngine((&countingFactory{provider: provider}).build), rec, "bravo", defaultCfg)
	if len(ans.Sources) != 3 {
		t.Errorf("default top k: got %d sources, want 3", len(ans.Sources))
	}

	ans = mustAsk(t, NewDocumentEngine((&countingFactory{provider: provider}).build, WithTopK(2)), rec, "bravo", defaultCfg)
	if len(ans.Sources) != 2 {
		t.Fatalf("WithTopK(2): got %d sources", len(ans.Sources))
	}
	if ans.Sources[0].Content != "bravo line" {
		t.Errorf("top source = %q, want bravo line", ans.Sources[0].Content)
	}
}

func TestDocumentEngine_Condense(t *testing.T) {
	rec := newRecord(t, "notes.txt", "Alice likes tea. Bob likes coffee.")
	provider := &recordingProvider{replies: []string{"tea", "What does Bob like?", "coffee"}}
	engine := NewDocumentEngine((&countingFactory{provider: provider}).build, WithCondense(true), WithMaxTokens(500))

	// No prior turns, nothing to condense.
	if first := mustAsk(t, engine, rec, "What does Alice like?", defaultCfg); first.Standalone != "" {
		t.Errorf("first question condensed to %q", first.Standalone)
	}

	second := mustAsk(t, engine, rec, "And Bob?", defaultCfg)
	if second.Standalone != "What does Bob like?" || second.Text != "coffee" {
		t.Errorf("unexpected second answer %+v", second)
	}
	if second.InputTokens != 200 {
		t.Errorf("condense and answer usage should be summed, got %d input tokens", second.InputTokens)
	}

	if len(provider.requests) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(provider.requests))
	}
	condense := provider.requests[1].Messages[0].Content
	for _, want := range []string{"Human: What does Alice like?", "Assistant: tea", "Follow Up Input: And Bob?"} {
		if !strings.Contains(condense, want) {
			t.Errorf("condense prompt lacks %q", want)
		}
	}
	if provider.requests[2].MaxTokens != 500 {
		t.Errorf("MaxTokens = %d, want 500", provider.requests[2].MaxTokens)
	}

	// The model still sees the question as asked.
	msgs := provider.requests[2].Messages
	if got := msgs[len(msgs)-1].Content; got != "And Bob?" {
		t.Errorf("last message = %q, want the original question", got)
	}
}

func TestGeneralEngine_FullHistory(t *testing.T) {
	st := session.NewState("s", defaultCfg)
	provider := &recordingProvider{replies: []string{"Hello!", "Paris."}}
	factory := &countingFactory{provider: provider}
	engine := NewGeneralEngine(factory.build, 0)
	ctx := context.Background()

	ans, err := engine.Ask(ctx, st, "Hi", defaultCfg)
	if err != nil {
		t.Fatal(err)
	}
	if ans.Text != "Hello!" || len(ans.Sources) != 0 {
		t.Errorf("unexpected answer %+v", ans)
	}
	if _, err := engine.Ask(ctx, st, "Capital of France?", defaultCfg); err != nil {
		t.Fatal(err)
	}

	if len(provider.requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(provider.requests))
	}
	want := []llm.Message{
		{Role: llm.RoleUser, Content: "Hi"},
		{Role: llm.RoleAssistant, Content: "Hello!"},
		{Role: llm.RoleUser, Content: "Capital of France?"},
	}
	if got := provider.requests[1].Messages; !slices.Equal(got, want) {
		t.Errorf("messages = %+v, want %+v", got, want)
	}
	if st.General.Len() != 4 || factory.builds != 1 {
		t.Errorf("history %d turns, %d builds; want 4 and 1", st.General.Len(), factory.builds)
	}
}

func TestGeneralEngine_RebuildOnChange(t *testing.T) {
	st := session.NewState("s", defaultCfg)
	factory := &countingFactory{provider: &recordingProvider{}}
	engine := NewGeneralEngine(factory.build, 0)

	cfgs := []llm.ModelConfig{
		{Model: "gpt-4", Temperature: 0.7},
		{Model: "gpt-4", Temperature: 0.7},
		{Model: "gpt-4", Temperature: 0.2},
		{Model: "gpt-3.5-turbo", Temperature: 0.2},
	}
	for _, cfg := range cfgs {
		if _, err := engine.Ask(context.Background(), st, "q", cfg); err != nil {
			t.Fatal(err)
		}
	}
	if factory.builds != 3 {
		t.Errorf("builds = %d, want 3", factory.builds)
	}
	if got := st.GeneralChain().Config(); got != cfgs[3] {
		t.Errorf("chain config = %+v, want %+v", got, cfgs[3])
	}
}

func TestGeneralEngine_FailureKeepsUserTurn(t *testing.T) {
	st := session.NewState("s", defaultCfg)
	engine := NewGeneralEngine((&countingFactory{provider: &recordingProvider{err: errors.New("down")}}).build, 0)

	if _, err := engine.Ask(context.Background(), st, "Hi", defaultCfg); !errors.Is(err, ErrUpstreamModel) {
		t.Fatalf("expected ErrUpstreamModel, got %v", err)
	}
	turns := st.General.Turns()
	if len(turns) != 1 || turns[0].Text != "Hi" {
		t.Errorf("expected only the user turn, got %+v", turns)
	}
}
