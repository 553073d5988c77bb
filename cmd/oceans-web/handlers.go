package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	oceans "github.com/calmeoceans/oceans-tracers"
)

// handlers holds dependencies for all HTTP handler methods.
type handlers struct {
	store         *oceans.Store
	adminPassword string
	jwtSecret     []byte
	tokenTTL      time.Duration
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("oceans-web: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps store errors onto HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	var verr *oceans.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Reason)
	case errors.Is(err, oceans.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		log.Printf("oceans-web: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 10<<20))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// --- public handlers ---

func (h *handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"backend": h.store.BackendKind(),
	})
}

func (h *handlers) handleContentList(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListContent()
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *handlers) handleContentGet(w http.ResponseWriter, r *http.Request) {
	value, ok, err := h.store.GetContent(r.PathValue("key"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"key":   r.PathValue("key"),
		"value": value,
	})
}

func (h *handlers) handleImageList(w http.ResponseWriter, r *http.Request) {
	assets, err := h.store.ListImages(r.URL.Query().Get("category"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assets)
}

func (h *handlers) handleImageGet(w http.ResponseWriter, r *http.Request) {
	payload, ok, err := h.store.GetImage(r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"id":   r.PathValue("id"),
		"data": payload,
	})
}

func (h *handlers) handlePartnerList(w http.ResponseWriter, r *http.Request) {
	partners, err := h.store.ListPartners(r.URL.Query().Get("status"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, partners)
}

func (h *handlers) handleContact(w http.ResponseWriter, r *http.Request) {
	var fields map[string]string
	if !decodeBody(w, r, &fields) {
		return
	}
	sub, err := h.store.AddSubmission(fields)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (h *handlers) handleNewsletterSubscribe(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	sub, err := h.store.Subscribe(body.Email)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (h *handlers) handleNewsletterUnsubscribe(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Unsubscribe(r.PathValue("email")); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unsubscribed"})
}

// --- admin handlers ---

func (h *handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if !h.checkPassword(body.Password) || len(h.jwtSecret) == 0 {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.issueToken()
	if err != nil {
		log.Printf("oceans-web: issue token: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":     token,
		"expiresIn": int(h.tokenTTL.Seconds()),
	})
}

func (h *handlers) handleContentPut(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Value string `json:"value"`
		Type  string `json:"type"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	item, err := h.store.PutContent(r.PathValue("key"), body.Value, body.Type)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *handlers) handleImagePut(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Data     string `json:"data"`
		Category string `json:"category"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	asset, err := h.store.PutImage(r.PathValue("id"), body.Data, body.Category)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

func (h *handlers) handleSubmissionList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	subs, err := h.store.ListSubmissions(r.URL.Query().Get("status"), limit)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func submissionID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *handlers) handleSubmissionStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := submissionID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid submission id")
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	sub, err := h.store.UpdateSubmissionStatus(id, body.Status)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *handlers) handleSubmissionRead(w http.ResponseWriter, r *http.Request) {
	id, ok := submissionID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid submission id")
		return
	}
	sub, err := h.store.MarkSubmissionRead(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *handlers) handlePartnerUpsert(w http.ResponseWriter, r *http.Request) {
	var p oceans.Partner
	if !decodeBody(w, r, &p) {
		return
	}
	stored, err := h.store.UpsertPartner(p)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (h *handlers) handleSubscriberList(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("all") != "true"
	subs, err := h.store.ListSubscribers(activeOnly)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (h *handlers) handleSettingList(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.ListSettings()
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *handlers) handleSettingPut(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Value string `json:"value"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	setting, err := h.store.SetSetting(r.PathValue("key"), body.Value)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, setting)
}

func (h *handlers) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Statistics()
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *handlers) handleExport(w http.ResponseWriter, r *http.Request) {
	snap, err := h.store.ExportSnapshot()
	if err != nil {
		writeStoreError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", "attachment; filename=oceans-snapshot.json")
	writeJSON(w, http.StatusOK, snap)
}

// handleImport replaces all stored data with the posted snapshot. The caller
// must pass ?confirm=true; a bare POST is rejected before anything is read.
func (h *handlers) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		writeError(w, http.StatusBadRequest, "import replaces all data; pass confirm=true")
		return
	}
	var snap oceans.Snapshot
	if !decodeBody(w, r, &snap) {
		return
	}
	if err := h.store.ImportSnapshot(&snap); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "imported", "snapshot": snap.Metadata.ID})
}

func (h *handlers) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		writeError(w, http.StatusBadRequest, "clear deletes all data; pass confirm=true")
		return
	}
	if err := h.store.ClearAll(); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
