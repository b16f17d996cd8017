package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"photo-social-backend/internal/middleware"
	"photo-social-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// AccountHandler exposes account deletion and the manual sweep
type AccountHandler struct {
	accounts *services.AccountService
	cleanup  *services.CleanupService
	timeout  time.Duration
}

// NewAccountHandler creates a new account handler. timeout bounds each workflow.
func NewAccountHandler(accounts *services.AccountService, cleanup *services.CleanupService, timeout time.Duration) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		cleanup:  cleanup,
		timeout:  timeout,
	}
}

// SuccessResponse is the reply of fire-and-forget operations
type SuccessResponse struct {
	Success bool `json:"success"`
}

// CleanupResponse is the reply of a manual sweep
type CleanupResponse struct {
	Success      bool `json:"success"`
	DeletedCount int  `json:"deletedCount"`
	ErrorCount   int  `json:"errorCount"`
}

func (h *AccountHandler) workflowContext(r *http.Request) (context.Context, context.CancelFunc) {
	// The workflow outlives a dropped client connection.
	ctx := context.WithoutCancel(r.Context())
	if h.timeout > 0 {
		return context.WithTimeout(ctx, h.timeout)
	}
	return context.WithCancel(ctx)
}

// DeleteAccount handles POST /api/v1/account/delete
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	ctx, cancel := h.workflowContext(r)
	defer cancel()

	report, err := h.accounts.DeleteUserData(ctx, userID)
	if err != nil {
		if errors.Is(err, services.ErrUnauthenticated) {
			respondError(w, "Authentication required", http.StatusUnauthorized)
			return
		}
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to delete account")
		respondError(w, "Failed to delete account", http.StatusInternalServerError)
		return
	}

	for _, step := range report.Failed() {
		log.Warn().Err(step.Err).Str("user_id", userID).Str("step", step.Step).Msg("Account deleted with failed step")
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// CleanupDeletedPhotos handles POST /api/v1/admin/cleanup-deleted-photos
func (h *AccountHandler) CleanupDeletedPhotos(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	ctx, cancel := h.workflowContext(r)
	defer cancel()

	result, err := h.cleanup.CleanupDeletedPhotos(ctx, services.Trigger{Source: services.SourceManual, UserID: userID})
	if err != nil {
		if errors.Is(err, services.ErrUnauthenticated) {
			respondError(w, "Authentication required", http.StatusUnauthorized)
			return
		}
		log.Error().Err(err).Str("user_id", userID).Msg("Manual cleanup failed")
		respondError(w, "Cleanup failed", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, CleanupResponse{
		Success:      true,
		DeletedCount: result.DeletedCount,
		ErrorCount:   result.ErrorCount,
	})
}
