package handlers

import (
	"net/http"

	"photo-social-backend/internal/middleware"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router bundles the handlers mounted by NewRouter
type Router struct {
	Auth      middleware.Authenticator
	Users     *UserHandler
	Accounts  *AccountHandler
	Links     *LinkHandler
	WebSocket *WebSocketHandler
}

// NewRouter builds the HTTP routes
func NewRouter(h Router) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/users", h.Users.CreateUser)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(h.Auth))
			r.Get("/users/me", h.Users.GetMe)
			r.Post("/account/delete", h.Accounts.DeleteAccount)
			r.Post("/admin/cleanup-deleted-photos", h.Accounts.CleanupDeletedPhotos)
			r.Post("/links", h.Links.CreateLink)
			r.Post("/invite-images", h.Links.CreateInviteImage)
		})
	})

	r.Get("/links/{code}", h.Links.Redirect)
	r.Get("/invites/{userID}", h.Links.InvitePage)

	if h.WebSocket != nil {
		r.Get("/ws", h.WebSocket.HandleWebSocket)
	}

	return r
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
