package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/student3964/MindVault/pkg/domain"
)

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeAppError(w, err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required (field: file)")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if declared := strings.TrimSpace(r.FormValue("type")); declared != "" {
		contentType = declared
	}
	uploaded, err := s.app.UploadFile(r.Context(), user, header.Filename, contentType, file, header.Size)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, uploaded)
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	files, err := s.app.ListFiles(user, r.URL.Query().Get("search"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, files)
}

// handleFileByID serves /api/vault/file/{id}/content and
// /api/vault/file/{id}/delete.
func (s *Server) handleFileByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	path := strings.TrimPrefix(r.URL.Path, "/api/vault/file/")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	id, action := parts[0], parts[1]

	switch action {
	case "content":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		s.handleFileContent(w, r, user, id)
	case "delete":
		if r.Method != http.MethodDelete {
			methodNotAllowed(w)
			return
		}
		if err := s.app.DeleteFile(r.Context(), user, id); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleFileContent(w http.ResponseWriter, r *http.Request, user domain.User, id string) {
	file, rc, err := s.app.FileContent(r.Context(), user, id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	defer rc.Close()
	if file.ContentType != "" {
		w.Header().Set("Content-Type", file.ContentType)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", file.Name))
	if _, err := io.Copy(w, rc); err != nil {
		// Headers already sent; nothing to do but log upstream.
		return
	}
}
