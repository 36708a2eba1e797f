package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ziadkadry99/docchat/internal/assistant"
	"github.com/ziadkadry99/docchat/internal/chat"
	"github.com/ziadkadry99/docchat/internal/config"
	"github.com/ziadkadry99/docchat/internal/indexer"
	"github.com/ziadkadry99/docchat/internal/llm"
	"github.com/ziadkadry99/docchat/internal/session"
)

type constEmbedder struct{}

func (constEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text)), 1}
	}
	return out, nil
}
func (constEmbedder) Dimensions() int { return 2 }
func (constEmbedder) Name() string    { return "const" }

type okProvider struct{}

func (okProvider) Name() string { return "ok" }
func (okProvider) Complete(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return &llm.CompletionResponse{Content: "ok"}, nil
}

func newTestREPL(t *testing.T) *repl {
	t.Helper()
	factory := func(llm.ModelConfig) (llm.Provider, error) { return okProvider{}, nil }
	backend := assistant.NewBackend(
		indexer.NewPipeline(constEmbedder{}, nil, 0),
		chat.NewDocumentEngine(factory),
		chat.NewGeneralEngine(factory, 0),
		assistant.Options{AllowedModels: llm.DefaultModels},
	)
	return &repl{
		svc:      backend.Service(session.NewState("test", config.DefaultConfig().ModelConfig())),
		reporter: silentReporter{},
	}
}

func TestREPLCommands(t *testing.T) {
	r := newTestREPL(t)
	ctx := context.Background()

	dir := t.TempDir()
	for name, content := range map[string]string{"a.txt": "alpha", "b.txt": "beta"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if quit := r.command(ctx, "/upload "+filepath.Join(dir, "*.txt")); quit {
		t.Fatal("/upload should not quit")
	}
	if got := r.svc.ListDocuments(); strings.Join(got, ",") != "a.txt,b.txt" {
		t.Fatalf("documents = %v", got)
	}
	if r.current != "a.txt" {
		t.Errorf("expected first upload to be selected, got %q", r.current)
	}

	r.command(ctx, "/use b.txt")
	if r.current != "b.txt" {
		t.Errorf("/use: current = %q", r.current)
	}
	r.command(ctx, "/use missing.txt")
	if r.current != "b.txt" {
		t.Errorf("/use of unknown document changed selection to %q", r.current)
	}

	if r.command(ctx, "/sources"); r.last != nil {
		t.Fatal("no answer should be recorded before the first question")
	}
	r.ask(ctx, "what is this?")
	if r.last == nil || len(r.last.Sources) != 1 || r.last.Sources[0].Content != "beta" {
		t.Errorf("last answer sources = %+v", r.last)
	}
	if turns, _ := r.svc.GetHistory("b.txt"); len(turns) != 2 {
		t.Errorf("expected 2 turns on b.txt, got %d", len(turns))
	}
	r.command(ctx, "/clear")
	if turns, _ := r.svc.GetHistory("b.txt"); len(turns) != 0 {
		t.Errorf("expected cleared history, got %d turns", len(turns))
	}

	r.command(ctx, "/model gpt-4")
	r.command(ctx, "/temp 0.3")
	if cfg := r.svc.ModelConfig(); cfg.Model != "gpt-4" || cfg.Temperature != 0.3 {
		t.Errorf("model config = %+v", cfg)
	}
	r.command(ctx, "/model not-a-model")
	if cfg := r.svc.ModelConfig(); cfg.Model != "gpt-4" {
		t.Errorf("invalid model was accepted: %+v", cfg)
	}

	r.command(ctx, "/remove")
	if r.current != "" {
		t.Errorf("removing the selected document should switch to general chat, got %q", r.current)
	}
	if got := r.svc.ListDocuments(); len(got) != 1 || got[0] != "a.txt" {
		t.Errorf("documents after remove = %v", got)
	}

	r.command(ctx, "/general")
	r.ask(ctx, "hello")
	if turns := r.svc.GeneralHistory(); len(turns) != 2 {
		t.Errorf("expected 2 general turns, got %d", len(turns))
	}

	if !r.command(ctx, "/quit") {
		t.Error("/quit should quit")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"line\nbreak", 20, "line break"},
		{"héllo wörld", 5, "héllo..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
