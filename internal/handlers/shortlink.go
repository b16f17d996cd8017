package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"photo-social-backend/internal/middleware"
	"photo-social-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// LinkHandler serves short links, invite pages and invite images
type LinkHandler struct {
	links   *services.ShortLinkService
	invites *services.InviteService
}

// NewLinkHandler creates a new link handler
func NewLinkHandler(links *services.ShortLinkService, invites *services.InviteService) *LinkHandler {
	return &LinkHandler{links: links, invites: invites}
}

// CreateLink handles POST /api/v1/links
func (h *LinkHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req services.CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	link, err := h.links.Create(ctx, userID, req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			respondError(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create short link")
		respondError(w, "Failed to create short link", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, link)
}

// Redirect handles GET /links/{code}
func (h *LinkHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		http.Error(w, "Invalid short link format", http.StatusBadRequest)
		return
	}

	target, err := h.links.Resolve(r.Context(), code)
	switch {
	case err == nil:
		http.Redirect(w, r, target, http.StatusFound)
	case services.IsNotFound(err):
		http.Error(w, "This short link does not exist or has expired.", http.StatusNotFound)
	case errors.Is(err, services.ErrLinkInactive):
		http.Error(w, "This link has been deactivated", http.StatusGone)
	default:
		log.Error().Err(err).Str("short_code", code).Msg("Failed to resolve short link")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// InvitePage handles GET /invites/{userID}
func (h *LinkHandler) InvitePage(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	page := h.links.NewInvitePage(userID, r.URL.Path, r.URL.Query())

	var buf bytes.Buffer
	if err := services.RenderInvitePage(&buf, page); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to render invite page")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// InviteImageRequest represents the request body for an invite image
type InviteImageRequest struct {
	DisplayName string `json:"display_name"`
	Message     string `json:"message"`
}

// CreateInviteImage handles POST /api/v1/invite-images
func (h *LinkHandler) CreateInviteImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req InviteImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	url, err := h.invites.Generate(ctx, services.InviteInfo{
		UserID:      userID,
		DisplayName: req.DisplayName,
		Message:     req.Message,
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to generate invite image")
		respondError(w, "Failed to generate invite image", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{"success": true, "image_url": url})
}
