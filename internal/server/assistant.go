package server

import (
	"net/http"
	"strings"

	"github.com/student3964/MindVault/pkg/domain"
)

func (s *Server) handleNewSession(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	session, err := s.app.NewAssistantSession(user)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"chatId": session.ID})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	sessions, err := s.app.ListAssistantSessions(user)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// handleSessionHistory serves /api/vaultai/chat/{chatId}.
func (s *Server) handleSessionHistory(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/vaultai/chat/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	msgs, err := s.app.AssistantHistory(user, id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

// handleSessionByID serves POST /api/vaultai/{chatId} (ask) and
// DELETE /api/vaultai/{chatId}.
func (s *Server) handleSessionByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	id := strings.TrimPrefix(r.URL.Path, "/api/vaultai/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodPost:
		var req promptRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		response, err := s.app.AskAssistant(r.Context(), user, id, req.Prompt)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"response": response})
	case http.MethodDelete:
		if err := s.app.DeleteAssistantSession(user, id); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	default:
		methodNotAllowed(w)
	}
}
