package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/docchat/internal/assistant"
	"github.com/ziadkadry99/docchat/internal/chat"
	"github.com/ziadkadry99/docchat/internal/embeddings"
	"github.com/ziadkadry99/docchat/internal/llm"
	"github.com/ziadkadry99/docchat/internal/loader"
	"github.com/ziadkadry99/docchat/internal/session"
	"github.com/ziadkadry99/docchat/internal/vectordb"
)

type sessionResponse struct {
	ID        string          `json:"id"`
	Model     llm.ModelConfig `json:"model"`
	Documents []string        `json:"documents"`
}

type uploadResult struct {
	Name     string                     `json:"name"`
	Document *assistant.DocumentSummary `json:"document,omitempty"`
	Skipped  bool                       `json:"skipped,omitempty"`
	Error    string                     `json:"error,omitempty"`
}

type askRequest struct {
	Question    string   `json:"question"`
	Model       string   `json:"model,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

type sourceResponse struct {
	Position   int               `json:"position"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Similarity float32           `json:"similarity"`
}

type answerResponse struct {
	Text         string           `json:"text"`
	HTML         string           `json:"html"`
	Question     string           `json:"question"`
	Standalone   string           `json:"standalone,omitempty"`
	Document     string           `json:"document,omitempty"`
	Sources      []sourceResponse `json:"sources"`
	Model        string           `json:"model"`
	InputTokens  int              `json:"input_tokens"`
	OutputTokens int              `json:"output_tokens"`
	Cost         float64          `json:"cost_usd"`
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	svc := serviceFrom(r)
	writeJSON(w, http.StatusOK, sessionResponse{
		ID:        svc.State().ID,
		Model:     svc.ModelConfig(),
		Documents: nonNil(svc.ListDocuments()),
	})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	s.sessions.Delete(serviceFrom(r).State().ID)
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"models": nonNil(s.backend.AllowedModels())})
}

func (s *Server) handleGetModel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, serviceFrom(r).ModelConfig())
}

func (s *Server) handleSetModel(w http.ResponseWriter, r *http.Request) {
	var cfg llm.ModelConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	svc := serviceFrom(r)
	if err := svc.SetModelConfig(cfg); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, svc.ModelConfig())
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"documents": nonNil(serviceFrom(r).Documents())})
}

// handleUpload ingests every file in the multipart "files" field. A single
// file answers with the status of its outcome; a batch answers 200 with
// per-file results.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart upload: "+err.Error())
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "no files in field \"files\"")
		return
	}

	uploads := make([]assistant.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("reading %s: %v", fh.Filename, err))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("reading %s: %v", fh.Filename, err))
			return
		}
		uploads = append(uploads, assistant.Upload{Name: filepath.Base(fh.Filename), Data: data})
	}

	results := serviceFrom(r).ProcessUploads(r.Context(), uploads)
	out := make([]uploadResult, len(results))
	for i, res := range results {
		out[i] = uploadResult{Name: res.Name, Document: res.Document, Skipped: res.Skipped}
		if res.Err != nil {
			out[i].Error = res.Err.Error()
		}
	}

	status := http.StatusOK
	if len(results) == 1 && results[0].Err != nil {
		status = statusFor(results[0].Err)
	}
	writeJSON(w, status, map[string]any{"results": out})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	name, ok := docName(w, r)
	if !ok {
		return
	}
	doc, err := serviceFrom(r).Document(name)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleRemoveDocument(w http.ResponseWriter, r *http.Request) {
	name, ok := docName(w, r)
	if !ok {
		return
	}
	if err := serviceFrom(r).RemoveDocument(name); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	name, ok := docName(w, r)
	if !ok {
		return
	}
	turns, err := serviceFrom(r).GetHistory(name)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"document": name, "turns": nonNil(turns)})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	name, ok := docName(w, r)
	if !ok {
		return
	}
	if err := serviceFrom(r).ClearHistory(name); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAskDocument(w http.ResponseWriter, r *http.Request) {
	name, ok := docName(w, r)
	if !ok {
		return
	}
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ans, err := serviceFrom(r).AskDocument(r.Context(), name, req.Question)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.answerResponse(ans))
}

func (s *Server) handleGeneralHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"turns": nonNil(serviceFrom(r).GeneralHistory())})
}

func (s *Server) handleClearGeneral(w http.ResponseWriter, r *http.Request) {
	serviceFrom(r).ClearGeneralHistory()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAskGeneral(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	svc := serviceFrom(r)
	ans, err := svc.AskGeneral(r.Context(), req.Question, req.modelConfig(svc.ModelConfig()))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.answerResponse(ans))
}

// modelConfig overlays the request's model selection on the session's.
func (req askRequest) modelConfig(base llm.ModelConfig) llm.ModelConfig {
	cfg := base
	if req.Model != "" {
		cfg.Model = req.Model
	}
	if req.Temperature != nil {
		cfg.Temperature = *req.Temperature
	}
	return cfg
}

func (s *Server) answerResponse(ans *chat.Answer) answerResponse {
	html, err := s.renderer.HTML(ans.Text)
	if err != nil {
		log.Printf("server: %v", err)
	}
	sources := make([]sourceResponse, len(ans.Sources))
	for i, m := range ans.Sources {
		sources[i] = sourceResponse{
			Position:   m.Position,
			Content:    m.Content,
			Metadata:   m.Metadata,
			Similarity: m.Similarity,
		}
	}
	return answerResponse{
		Text:         ans.Text,
		HTML:         html,
		Question:     ans.Question,
		Standalone:   ans.Standalone,
		Document:     ans.Document,
		Sources:      sources,
		Model:        ans.Model,
		InputTokens:  ans.InputTokens,
		OutputTokens: ans.OutputTokens,
		Cost:         ans.Cost,
	}
}

// docName returns the {name} route parameter. chi matches on RawPath when
// the request carries one, leaving the parameter escaped; otherwise the
// parameter is already decoded and must not be unescaped again.
func docName(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := chi.URLParam(r, "name")
	var err error
	if r.URL.RawPath != "" {
		name, err = url.PathUnescape(name)
	}
	if err != nil || name == "" {
		writeError(w, http.StatusBadRequest, "invalid document name")
		return "", false
	}
	return name, true
}

// statusFor maps the error taxonomy to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrDuplicateDocument):
		return http.StatusConflict
	case errors.Is(err, loader.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, loader.ErrParse), errors.Is(err, vectordb.ErrEmptyDocument):
		return http.StatusUnprocessableEntity
	case errors.Is(err, chat.ErrUpstreamModel), errors.Is(err, embeddings.ErrService):
		return http.StatusBadGateway
	case errors.Is(err, chat.ErrEmptyQuestion), errors.Is(err, llm.ErrUnsupportedModel):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("server: %v", err)
	}
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
