package server

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/docchat/internal/assistant"
	"github.com/ziadkadry99/docchat/internal/session"
)

// checkOrigin admits websocket upgrades from the origins CORS allows: any
// origin with AllowAll, otherwise localhost and the server's own host.
// Requests without an Origin header come from non-browser clients.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if s.cfg.AllowAll || origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Scheme == "http" && slices.Contains(localHosts, u.Hostname()) {
		return true
	}
	return strings.EqualFold(u.Host, r.Host)
}

// chatRequest is the incoming WebSocket message format.
type chatRequest struct {
	Type        string   `json:"type"`               // "ask", "general", "history" or "clear"
	Document    string   `json:"document,omitempty"` // target of "ask", "history" and "clear"
	Content     string   `json:"content"`
	Model       string   `json:"model,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// chatResponse is the outgoing WebSocket message format.
type chatResponse struct {
	Type     string          `json:"type"` // "answer", "history", "cleared" or "error"
	Document string          `json:"document,omitempty"`
	Content  string          `json:"content,omitempty"`
	Answer   *answerResponse `json:"answer,omitempty"`
	Turns    []session.Turn  `json:"turns,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	svc := serviceFrom(r)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("server: websocket read: %v", err)
			}
			return
		}

		var req chatRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			sendError(conn, "", "invalid message format")
			continue
		}

		switch req.Type {
		case "ask":
			s.wsAsk(conn, r, svc, req)
		case "general":
			s.wsGeneral(conn, r, svc, req)
		case "history":
			wsHistory(conn, svc, req)
		case "clear":
			wsClear(conn, svc, req)
		default:
			sendError(conn, req.Document, "unknown message type: "+req.Type)
		}
	}
}

func (s *Server) wsAsk(conn *websocket.Conn, r *http.Request, svc *assistant.Service, req chatRequest) {
	ans, err := svc.AskDocument(r.Context(), req.Document, req.Content)
	if err != nil {
		sendError(conn, req.Document, err.Error())
		return
	}
	resp := s.answerResponse(ans)
	sendResponse(conn, chatResponse{Type: "answer", Document: req.Document, Content: ans.Text, Answer: &resp})
}

func (s *Server) wsGeneral(conn *websocket.Conn, r *http.Request, svc *assistant.Service, req chatRequest) {
	ask := askRequest{Question: req.Content, Model: req.Model, Temperature: req.Temperature}
	ans, err := svc.AskGeneral(r.Context(), req.Content, ask.modelConfig(svc.ModelConfig()))
	if err != nil {
		sendError(conn, "", err.Error())
		return
	}
	resp := s.answerResponse(ans)
	sendResponse(conn, chatResponse{Type: "answer", Content: ans.Text, Answer: &resp})
}

func wsHistory(conn *websocket.Conn, svc *assistant.Service, req chatRequest) {
	if req.Document == "" {
		sendResponse(conn, chatResponse{Type: "history", Turns: svc.GeneralHistory()})
		return
	}
	turns, err := svc.GetHistory(req.Document)
	if err != nil {
		sendError(conn, req.Document, err.Error())
		return
	}
	sendResponse(conn, chatResponse{Type: "history", Document: req.Document, Turns: turns})
}

func wsClear(conn *websocket.Conn, svc *assistant.Service, req chatRequest) {
	if req.Document == "" {
		svc.ClearGeneralHistory()
	} else if err := svc.ClearHistory(req.Document); err != nil {
		sendError(conn, req.Document, err.Error())
		return
	}
	sendResponse(conn, chatResponse{Type: "cleared", Document: req.Document})
}

func sendResponse(conn *websocket.Conn, resp chatResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("server: websocket write: %v", err)
	}
}

func sendError(conn *websocket.Conn, document, message string) {
	resp := chatResponse{
		Type:     "error",
		Document: document,
		Content:  message,
	}
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("server: websocket write error: %v", err)
	}
}
