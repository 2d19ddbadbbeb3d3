package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/clinicpulse/clinicpulse/internal/genie"
	"github.com/clinicpulse/clinicpulse/internal/metrics"
)

// handleChat runs a full Genie orchestration server-side and returns the
// assembled response. Status updates are not visible over plain POST;
// clients that want them use the websocket endpoint.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req genie.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.Message == "" {
		writeBadRequest(w, "message is required")
		return
	}

	start := time.Now()
	var polls int64
	resp, err := s.genie.SendMessage(r.Context(), req, func(genie.Status) {
		polls++
	})
	s.metrics.RecordPolled(metrics.OpGenieSend, time.Since(start), polls)

	if err != nil {
		writeError(w, err, "failed to get response from Genie")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// wsRequest is one chat turn sent over the websocket.
type wsRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId,omitempty"`
}

// wsFrame is a server-to-client websocket message. Type is "status"
// while polling, then exactly one "response" or "error".
type wsFrame struct {
	Type     string          `json:"type"`
	Status   genie.Status    `json:"status,omitempty"`
	Response *genie.Response `json:"response,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// handleChatWS streams chat progress over a websocket: the client sends
// one request per turn and receives status frames during polling followed
// by a final response or error frame. Turns on one connection run
// sequentially, so conversation continuation works naturally.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	for {
		var req wsRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read failed", "error", err)
			}
			return
		}

		if req.Message == "" {
			if err := conn.WriteJSON(wsFrame{Type: "error", Error: "message is required"}); err != nil {
				return
			}
			continue
		}

		start := time.Now()
		var polls int64
		resp, err := s.genie.SendMessage(r.Context(),
			genie.Request{Message: req.Message, ConversationID: req.ConversationID},
			func(status genie.Status) {
				polls++
				// Poll loop is sequential, so writes never interleave.
				_ = conn.WriteJSON(wsFrame{Type: "status", Status: status})
			})
		s.metrics.RecordPolled(metrics.OpGenieSend, time.Since(start), polls)

		var frame wsFrame
		if err != nil {
			frame = wsFrame{Type: "error", Error: err.Error()}
		} else {
			frame = wsFrame{Type: "response", Response: resp}
		}
		if err := conn.WriteJSON(frame); err != nil {
			return
		}
	}
}

// Pass-through proxy endpoints. These exist for the browser frontend:
// they inject credentials and avoid cross-origin calls to the workspace,
// with no business logic of their own.

func (s *Server) handleStartConversation(w http.ResponseWriter, r *http.Request) {
	path := fmt.Sprintf("/api/2.0/genie/spaces/%s/start-conversation", s.cfg.GenieSpaceID)
	s.proxy(w, r, http.MethodPost, path, "failed to start conversation")
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	path := fmt.Sprintf("/api/2.0/genie/spaces/%s/conversations/%s/messages",
		s.cfg.GenieSpaceID, r.PathValue("conversationID"))
	s.proxy(w, r, http.MethodPost, path, "failed to send message")
}

func (s *Server) handleGetMessage(w http.ResponseWriter, r *http.Request) {
	path := fmt.Sprintf("/api/2.0/genie/spaces/%s/conversations/%s/messages/%s",
		s.cfg.GenieSpaceID, r.PathValue("conversationID"), r.PathValue("messageID"))
	s.proxy(w, r, http.MethodGet, path, "failed to get message")
}

func (s *Server) handleGetQueryResult(w http.ResponseWriter, r *http.Request) {
	path := fmt.Sprintf("/api/2.0/genie/spaces/%s/conversations/%s/query-result/%s",
		s.cfg.GenieSpaceID, r.PathValue("conversationID"), r.PathValue("statementID"))
	s.proxy(w, r, http.MethodGet, path, "failed to get query result")
}

// proxy forwards the request body to the upstream path and relays the
// JSON response, translating upstream failures into the error envelope.
func (s *Server) proxy(w http.ResponseWriter, r *http.Request, method, path, fallback string) {
	start := time.Now()
	defer func() {
		s.metrics.RecordTiming(metrics.OpGenieProxy, time.Since(start))
	}()

	var out json.RawMessage
	var err error
	if method == http.MethodGet {
		err = s.upstream.Get(r.Context(), path, &out)
	} else {
		var body json.RawMessage
		if decodeErr := json.NewDecoder(r.Body).Decode(&body); decodeErr != nil {
			body = nil
		}
		var payload any
		if len(body) > 0 {
			payload = body
		}
		err = s.upstream.Post(r.Context(), path, payload, &out)
	}

	if err != nil {
		writeError(w, err, fallback)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
