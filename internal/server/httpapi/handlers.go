package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dkotlyar/snipstash/internal/common"
	"github.com/dkotlyar/snipstash/internal/models"
	"github.com/dkotlyar/snipstash/internal/server/cryptox"
)

// Snippet handlers

type listResponse struct {
	Snippets   []models.Snippet `json:"snippets"`
	Pagination pagination       `json:"pagination"`
}

type pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalCount int  `json:"totalCount"`
	HasMore    bool `json:"hasMore"`
	TotalPages int  `json:"totalPages"`
}

type uploadTargetResponse struct {
	StoragePath string `json:"storagePath"`
	UploadURL   string `json:"uploadUrl"`
}

type saveRequest struct {
	Snippet  *models.Snippet `json:"snippet"`
	Snippets json.RawMessage `json:"snippets"`
}

type saveResponse struct {
	Success bool            `json:"success"`
	Snippet *models.Snippet `json:"snippet,omitempty"`
}

// getSnippetsHandler serves both the collection and, when ?id is given,
// a single snippet with its getUrl / getContent / putUrl variants.
func (s *Server) getSnippetsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if idRaw := q.Get("id"); idRaw != "" {
		id, err := models.ParseID(idRaw)
		if err != nil {
			jsonError(w, "invalid snippet id", http.StatusBadRequest)
			return
		}

		switch {
		case q.Get("putUrl") == "true":
			key, url, err := s.snippets.GetUploadTarget(r.Context(), id, q.Get("fileName"))
			if err != nil {
				s.serviceError(w, err)
				return
			}
			jsonResponse(w, uploadTargetResponse{StoragePath: key, UploadURL: url}, http.StatusOK)

		case q.Get("getContent") == "true":
			content, err := s.snippets.GetContent(r.Context(), id)
			if err != nil {
				s.serviceError(w, err)
				return
			}
			jsonResponse(w, map[string]string{"content": content}, http.StatusOK)

		case q.Get("getUrl") == "true":
			snippet, err := s.snippets.GetURL(r.Context(), id)
			if err != nil {
				s.serviceError(w, err)
				return
			}
			jsonResponse(w, snippet, http.StatusOK)

		default:
			snippet, err := s.snippets.GetByID(r.Context(), id)
			if err != nil {
				s.serviceError(w, err)
				return
			}
			jsonResponse(w, snippet, http.StatusOK)
		}
		return
	}

	page := atoiDefault(q.Get("page"), 1)
	limit := atoiDefault(q.Get("limit"), 50)
	lightweight := q.Get("lightweight") == "true"

	snippets, total, err := s.snippets.ListPage(r.Context(), page, limit, lightweight)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	if q.Get("countOnly") == "true" {
		jsonResponse(w, map[string]int{"totalCount": total}, http.StatusOK)
		return
	}

	if snippets == nil {
		snippets = []models.Snippet{}
	}
	jsonResponse(w, listResponse{
		Snippets: snippets,
		Pagination: pagination{
			Page:       page,
			Limit:      limit,
			TotalCount: total,
			HasMore:    page*limit < total,
			TotalPages: (total + limit - 1) / limit,
		},
	}, http.StatusOK)
}

// postSnippetsHandler accepts two request shapes: {"snippet": {...}}
// upserts one row, {"snippets": [...]} replaces the whole dataset.
func (s *Server) postSnippetsHandler(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Snippet != nil {
		saved, err := s.snippets.Save(r.Context(), req.Snippet)
		if err != nil {
			if errors.Is(err, common.ErrValidation) {
				jsonError(w, err.Error(), http.StatusBadRequest)
				return
			}
			s.serviceError(w, err)
			return
		}
		jsonResponse(w, saveResponse{Success: true, Snippet: saved}, http.StatusOK)
		return
	}

	if len(req.Snippets) > 0 && string(req.Snippets) != "null" {
		var snippets []models.Snippet
		if err := json.Unmarshal(req.Snippets, &snippets); err != nil {
			jsonError(w, "invalid snippets payload", http.StatusBadRequest)
			return
		}
		if err := s.snippets.ReplaceAll(r.Context(), snippets); err != nil {
			s.serviceError(w, err)
			return
		}
		jsonResponse(w, saveResponse{Success: true}, http.StatusOK)
		return
	}

	jsonError(w, "expected snippet or snippets", http.StatusBadRequest)
}

func (s *Server) deleteSnippetHandler(w http.ResponseWriter, r *http.Request) {
	idRaw := r.URL.Query().Get("id")
	if idRaw == "" {
		jsonError(w, "id is required", http.StatusBadRequest)
		return
	}
	id, err := models.ParseID(idRaw)
	if err != nil {
		jsonError(w, "invalid snippet id", http.StatusBadRequest)
		return
	}

	if err := s.snippets.Delete(r.Context(), id); err != nil {
		s.serviceError(w, err)
		return
	}
	jsonResponse(w, saveResponse{Success: true}, http.StatusOK)
}

// Crypto handler

type cryptoRequest struct {
	Action   string `json:"action"`
	Content  string `json:"content"`
	Password string `json:"password"`
}

type cryptoResponse struct {
	Success   bool   `json:"success"`
	Encrypted string `json:"encrypted,omitempty"`
	Decrypted string `json:"decrypted,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (s *Server) cryptoHandler(w http.ResponseWriter, r *http.Request) {
	var req cryptoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Content == "" || req.Password == "" {
		jsonResponse(w, cryptoResponse{Error: "content and password are required"}, http.StatusBadRequest)
		return
	}

	switch req.Action {
	case "encrypt":
		encrypted, err := cryptox.Encrypt(req.Content, req.Password)
		if err != nil {
			jsonResponse(w, cryptoResponse{Error: "encryption failed"}, http.StatusInternalServerError)
			return
		}
		jsonResponse(w, cryptoResponse{Success: true, Encrypted: encrypted}, http.StatusOK)

	case "decrypt":
		// A failed decrypt is a negative answer, not a server fault: the
		// client falls back to its legacy cipher on success=false.
		decrypted, err := cryptox.Decrypt(req.Content, req.Password)
		if err != nil {
			jsonResponse(w, cryptoResponse{Error: "decryption failed"}, http.StatusOK)
			return
		}
		jsonResponse(w, cryptoResponse{Success: true, Decrypted: decrypted}, http.StatusOK)

	default:
		jsonResponse(w, cryptoResponse{Error: "unknown action"}, http.StatusBadRequest)
	}
}

func (s *Server) serviceError(w http.ResponseWriter, err error) {
	if errors.Is(err, common.ErrNotFound) {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	jsonError(w, err.Error(), http.StatusInternalServerError)
}

func atoiDefault(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}
