package server

import (
	"net/http"
	"strings"

	"github.com/student3964/MindVault/pkg/domain"
)

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/summarize/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	summary, err := s.app.Summarize(r.Context(), user, id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

func (s *Server) handleMCQs(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/mcqs/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	mcqs, err := s.app.GenerateMCQs(r.Context(), user, id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"mcqs": mcqs})
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

type saveChatRequest struct {
	Messages []chatMessagePayload `json:"messages"`
}

type chatMessagePayload struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

// handleFileChat serves /api/chat/{fileId} (GET history),
// /api/chat/{fileId}/ask and /api/chat/{fileId}/save.
func (s *Server) handleFileChat(w http.ResponseWriter, r *http.Request, user domain.User) {
	path := strings.TrimPrefix(r.URL.Path, "/api/chat/")
	parts := strings.SplitN(path, "/", 2)
	id := parts[0]
	if id == "" {
		http.NotFound(w, r)
		return
	}

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		msgs, err := s.app.FileChatHistory(user, id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
		return
	}

	switch parts[1] {
	case "ask":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var req promptRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		response, err := s.app.AskFileChat(r.Context(), user, id, req.Prompt)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"response": response})
	case "save":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var req saveChatRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		msgs := make([]domain.ChatMessage, 0, len(req.Messages))
		for _, m := range req.Messages {
			msgs = append(msgs, domain.ChatMessage{Role: m.Role, Message: m.Message})
		}
		if err := s.app.SaveFileChat(user, id, msgs); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	default:
		http.NotFound(w, r)
	}
}
