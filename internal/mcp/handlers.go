package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/docchat/internal/chat"
	"github.com/ziadkadry99/docchat/internal/llm"
	"github.com/ziadkadry99/docchat/internal/loader"
	"github.com/ziadkadry99/docchat/internal/session"
)

// handleUploadDocument ingests a file from disk or inline content.
func (s *Server) handleUploadDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var (
		name string
		data []byte
	)
	if path := request.GetString("path", ""); path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read %s: %v", path, err)), nil
		}
		name, data = filepath.Base(path), content
	} else {
		name = request.GetString("name", "")
		content := request.GetString("content", "")
		if name == "" || content == "" {
			return mcp.NewToolResultError("provide either path, or name and content"), nil
		}
		data = []byte(content)
	}

	sum, err := s.svc.ProcessUpload(ctx, name, data)
	if errors.Is(err, session.ErrDuplicateDocument) {
		return mcp.NewToolResultText(fmt.Sprintf("%s was already processed.\nSummary: %s", sum.Name, sum.Summary)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("upload failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Processed %s (%s, %d chunks).\nSummary: %s",
		sum.Name, sum.Format, sum.Chunks, sum.Summary)), nil
}

// handleListDocuments lists ingested documents with summaries.
func (s *Server) handleListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs := s.svc.Documents()
	if len(docs) == 0 {
		return mcp.NewToolResultText("No documents uploaded yet. Use upload_document first."), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d document(s):\n", len(docs)))
	for _, d := range docs {
		sb.WriteString(fmt.Sprintf("\n- %s (%s, %d chunks, %d turns)\n  %s\n", d.Name, d.Format, d.Chunks, d.Turns, d.Summary))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleAskDocument answers a question from one document.
func (s *Server) handleAskDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	document, err := request.RequireString("document")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: document"), nil
	}
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}

	ans, err := s.svc.AskDocument(ctx, document, question)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("question failed: %v", err)), nil
	}
	return mcp.NewToolResultText(formatAnswer(ans)), nil
}

// handleAskGeneral continues the general conversation.
func (s *Server) handleAskGeneral(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}

	cfg := s.svc.ModelConfig()
	cfg.Model = request.GetString("model", cfg.Model)
	cfg.Temperature = request.GetFloat("temperature", cfg.Temperature)

	ans, err := s.svc.AskGeneral(ctx, question, cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("question failed: %v", err)), nil
	}
	return mcp.NewToolResultText(formatAnswer(ans)), nil
}

// handleGetHistory returns a conversation transcript.
func (s *Server) handleGetHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	document := request.GetString("document", "")

	var turns []session.Turn
	if document == "" {
		turns = s.svc.GeneralHistory()
	} else {
		var err error
		turns, err = s.svc.GetHistory(document)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("history failed: %v", err)), nil
		}
	}

	if len(turns) == 0 {
		return mcp.NewToolResultText("The conversation is empty."), nil
	}
	return mcp.NewToolResultText(formatTurns(turns)), nil
}

// handleClearHistory empties a conversation.
func (s *Server) handleClearHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	document := request.GetString("document", "")
	if document == "" {
		s.svc.ClearGeneralHistory()
		return mcp.NewToolResultText("Cleared the general conversation."), nil
	}
	if err := s.svc.ClearHistory(document); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("clear failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Cleared the conversation for %s.", document)), nil
}

// handleRemoveDocument drops a document.
func (s *Server) handleRemoveDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	document, err := request.RequireString("document")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: document"), nil
	}
	if err := s.svc.RemoveDocument(document); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("remove failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Removed %s.", document)), nil
}

// handleSetModel changes the session's model selection.
func (s *Server) handleSetModel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	model, err := request.RequireString("model")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: model"), nil
	}
	cfg := llm.ModelConfig{
		Model:       model,
		Temperature: request.GetFloat("temperature", s.svc.ModelConfig().Temperature),
	}
	if err := s.svc.SetModelConfig(cfg); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Model set to " + cfg.String() + "."), nil
}

// formatAnswer renders an answer with its sources for agent consumption.
func formatAnswer(ans *chat.Answer) string {
	var sb strings.Builder
	sb.WriteString(ans.Text)
	sb.WriteString("\n")

	for i, src := range ans.Sources {
		sb.WriteString(fmt.Sprintf("\n--- Source %d (chunk %d", i+1, src.Position))
		if page := src.Metadata[loader.MetaPage]; page != "" {
			sb.WriteString(", page " + page)
		}
		sb.WriteString(fmt.Sprintf(", similarity %.1f%%) ---\n", src.Similarity*100))
		sb.WriteString(src.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatTurns(turns []session.Turn) string {
	var sb strings.Builder
	for _, t := range turns {
		sb.WriteString(fmt.Sprintf("[%s] %s\n", t.Role, t.Text))
	}
	return sb.String()
}
