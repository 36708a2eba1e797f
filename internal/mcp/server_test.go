package mcp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/docchat/internal/assistant"
	"github.com/ziadkadry99/docchat/internal/chat"
	"github.com/ziadkadry99/docchat/internal/indexer"
	"github.com/ziadkadry99/docchat/internal/llm"
	"github.com/ziadkadry99/docchat/internal/session"
)

// mockEmbedder implements embeddings.Embedder with letter counts.
type mockEmbedder struct{}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, 27)
		for _, r := range strings.ToLower(text) {
			if r >= 'a' && r <= 'z' {
				vec[r-'a']++
			}
		}
		vec[26] = 1
		result[i] = vec
	}
	return result, nil
}
func (m *mockEmbedder) Dimensions() int { return 27 }
func (m *mockEmbedder) Name() string    { return "mock" }

// mockProvider echoes the last message.
type mockProvider struct {
	err error
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &llm.CompletionResponse{Content: "reply: " + req.Messages[len(req.Messages)-1].Content}, nil
}

func newTestServer(t *testing.T) (*Server, *mockProvider) {
	t.Helper()
	provider := &mockProvider{}
	factory := func(llm.ModelConfig) (llm.Provider, error) { return provider, nil }
	backend := assistant.NewBackend(
		indexer.NewPipeline(&mockEmbedder{}, indexer.NewSplitter(), 0),
		chat.NewDocumentEngine(factory),
		chat.NewGeneralEngine(factory, 0),
		assistant.Options{AllowedModels: llm.DefaultModels},
	)
	st := session.NewState("mcp", llm.ModelConfig{Model: "gpt-3.5-turbo", Temperature: 0.7})
	return NewServer(backend.Service(st)), provider
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := mcp.AsTextContent(result.Content[0])
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text, result.IsError
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name     string
		tool     mcp.Tool
		wantName string
	}{
		{"upload_document", uploadDocumentTool, "upload_document"},
		{"list_documents", listDocumentsTool, "list_documents"},
		{"ask_document", askDocumentTool, "ask_document"},
		{"ask_general", askGeneralTool, "ask_general"},
		{"get_history", getHistoryTool, "get_history"},
		{"clear_history", clearHistoryTool, "clear_history"},
		{"remove_document", removeDocumentTool, "remove_document"},
		{"set_model", setModelTool, "set_model"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	srv, _ := newTestServer(t)
	if srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
	if srv.svc == nil {
		t.Fatal("service not set")
	}
}

func TestUploadAndAsk(t *testing.T) {
	srv, _ := newTestServer(t)

	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("Alice likes tea. Bob likes coffee."), 0o644); err != nil {
		t.Fatal(err)
	}

	text, isErr := call(t, srv.handleUploadDocument, map[string]any{"path": path})
	if isErr {
		t.Fatalf("upload failed: %s", text)
	}
	if !strings.Contains(text, "Processed notes.txt") {
		t.Errorf("unexpected upload text %q", text)
	}

	text, isErr = call(t, srv.handleUploadDocument, map[string]any{"path": path})
	if isErr || !strings.Contains(text, "already processed") {
		t.Errorf("expected duplicate notice, got %q (error=%v)", text, isErr)
	}

	text, _ = call(t, srv.handleListDocuments, map[string]any{})
	if !strings.Contains(text, "notes.txt") {
		t.Errorf("expected notes.txt in listing, got %q", text)
	}

	text, isErr = call(t, srv.handleAskDocument, map[string]any{"document": "notes.txt", "question": "What does Alice like?"})
	if isErr {
		t.Fatalf("ask failed: %s", text)
	}
	if !strings.HasPrefix(text, "reply: What does Alice like?") {
		t.Errorf("unexpected answer %q", text)
	}
	if !strings.Contains(text, "Alice likes tea") {
		t.Errorf("expected source chunk in answer, got %q", text)
	}

	text, _ = call(t, srv.handleGetHistory, map[string]any{"document": "notes.txt"})
	if !strings.Contains(text, "[user] What does Alice like?") || !strings.Contains(text, "[assistant] reply:") {
		t.Errorf("unexpected history %q", text)
	}

	call(t, srv.handleClearHistory, map[string]any{"document": "notes.txt"})
	text, _ = call(t, srv.handleGetHistory, map[string]any{"document": "notes.txt"})
	if text != "The conversation is empty." {
		t.Errorf("expected empty history, got %q", text)
	}

	text, isErr = call(t, srv.handleRemoveDocument, map[string]any{"document": "notes.txt"})
	if isErr {
		t.Fatalf("remove failed: %s", text)
	}
	_, isErr = call(t, srv.handleAskDocument, map[string]any{"document": "notes.txt", "question": "hi"})
	if !isErr {
		t.Error("expected error asking a removed document")
	}
}

func TestUploadInline(t *testing.T) {
	srv, _ := newTestServer(t)

	_, isErr := call(t, srv.handleUploadDocument, map[string]any{"name": "a.txt", "content": "inline text"})
	if isErr {
		t.Fatal("inline upload failed")
	}

	tests := []struct {
		name string
		args map[string]any
	}{
		{"nothing", map[string]any{}},
		{"name only", map[string]any{"name": "b.txt"}},
		{"missing file", map[string]any{"path": filepath.Join(t.TempDir(), "nope.txt")}},
		{"unsupported", map[string]any{"name": "old.xls", "content": "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, isErr := call(t, srv.handleUploadDocument, tt.args); !isErr {
				t.Error("expected tool error")
			}
		})
	}
}

func TestListDocumentsEmpty(t *testing.T) {
	srv, _ := newTestServer(t)
	text, isErr := call(t, srv.handleListDocuments, map[string]any{})
	if isErr || !strings.Contains(text, "No documents") {
		t.Errorf("unexpected result %q", text)
	}
}

func TestMissingParameters(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name    string
		handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args    map[string]any
	}{
		{"ask_document without question", srv.handleAskDocument, map[string]any{"document": "x"}},
		{"ask_document without document", srv.handleAskDocument, map[string]any{"question": "x"}},
		{"ask_general", srv.handleAskGeneral, map[string]any{}},
		{"remove_document", srv.handleRemoveDocument, map[string]any{}},
		{"set_model", srv.handleSetModel, map[string]any{}},
		{"unknown document history", srv.handleGetHistory, map[string]any{"document": "missing"}},
		{"unknown document clear", srv.handleClearHistory, map[string]any{"document": "missing"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, isErr := call(t, tt.handler, tt.args); !isErr {
				t.Error("expected tool error")
			}
		})
	}
}

func TestGeneralConversation(t *testing.T) {
	srv, provider := newTestServer(t)

	text, isErr := call(t, srv.handleAskGeneral, map[string]any{"question": "hello", "model": "gpt-4"})
	if isErr || text != "reply: hello\n" {
		t.Errorf("unexpected answer %q (error=%v)", text, isErr)
	}

	text, _ = call(t, srv.handleGetHistory, map[string]any{})
	if !strings.Contains(text, "[user] hello") {
		t.Errorf("unexpected general history %q", text)
	}

	call(t, srv.handleClearHistory, map[string]any{})
	if turns := srv.svc.GeneralHistory(); len(turns) != 0 {
		t.Errorf("expected cleared general history, got %d turns", len(turns))
	}

	if _, isErr := call(t, srv.handleAskGeneral, map[string]any{"question": "hi", "model": "unknown"}); !isErr {
		t.Error("expected error for unknown model")
	}

	provider.err = errors.New("down")
	if _, isErr := call(t, srv.handleAskGeneral, map[string]any{"question": "hi"}); !isErr {
		t.Error("expected error when the provider fails")
	}
}

func TestSetModel(t *testing.T) {
	srv, _ := newTestServer(t)

	text, isErr := call(t, srv.handleSetModel, map[string]any{"model": "gpt-4", "temperature": 0.2})
	if isErr {
		t.Fatalf("set_model failed: %s", text)
	}
	cfg := srv.svc.ModelConfig()
	if cfg.Model != "gpt-4" || cfg.Temperature != 0.2 {
		t.Errorf("unexpected config %+v", cfg)
	}

	if _, isErr := call(t, srv.handleSetModel, map[string]any{"model": "gpt-2"}); !isErr {
		t.Error("expected error for disallowed model")
	}
}
