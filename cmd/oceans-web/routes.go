package main

import (
	"net/http"
	"time"

	oceans "github.com/calmeoceans/oceans-tracers"
	"github.com/calmeoceans/oceans-tracers/internal/storage"
)

// newRouter sets up all routes using Go 1.22+ enhanced routing.
func newRouter(store *oceans.Store, cfg *storage.Config) http.Handler {
	mux := http.NewServeMux()

	h := &handlers{
		store:         store,
		adminPassword: cfg.Server.AdminPassword,
		jwtSecret:     []byte(cfg.Server.JWTSecret),
		tokenTTL:      time.Duration(cfg.Server.TokenTTLMinutes) * time.Minute,
	}

	// Public site API
	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.HandleFunc("GET /api/content", h.handleContentList)
	mux.HandleFunc("GET /api/content/{key}", h.handleContentGet)
	mux.HandleFunc("GET /api/images", h.handleImageList)
	mux.HandleFunc("GET /api/images/{id}", h.handleImageGet)
	mux.HandleFunc("GET /api/partners", h.handlePartnerList)
	mux.HandleFunc("POST /api/contact", h.handleContact)
	mux.HandleFunc("POST /api/newsletter", h.handleNewsletterSubscribe)
	mux.HandleFunc("DELETE /api/newsletter/{email}", h.handleNewsletterUnsubscribe)

	// Admin API; everything below requires a bearer token from /admin/login.
	mux.HandleFunc("POST /admin/login", h.handleLogin)
	mux.Handle("PUT /admin/content/{key}", h.requireAuth(h.handleContentPut))
	mux.Handle("POST /admin/images/{id}", h.requireAuth(h.handleImagePut))
	mux.Handle("GET /admin/submissions", h.requireAuth(h.handleSubmissionList))
	mux.Handle("POST /admin/submissions/{id}/status", h.requireAuth(h.handleSubmissionStatus))
	mux.Handle("POST /admin/submissions/{id}/read", h.requireAuth(h.handleSubmissionRead))
	mux.Handle("POST /admin/partners", h.requireAuth(h.handlePartnerUpsert))
	mux.Handle("GET /admin/subscribers", h.requireAuth(h.handleSubscriberList))
	mux.Handle("GET /admin/settings", h.requireAuth(h.handleSettingList))
	mux.Handle("PUT /admin/settings/{key}", h.requireAuth(h.handleSettingPut))
	mux.Handle("GET /admin/stats", h.requireAuth(h.handleStats))
	mux.Handle("GET /admin/export", h.requireAuth(h.handleExport))
	mux.Handle("POST /admin/import", h.requireAuth(h.handleImport))
	mux.Handle("POST /admin/clear", h.requireAuth(h.handleClear))

	return mux
}
