// Package oceans is a consolidated content store for the Ocean Tracers
// marketing site. It persists editable site copy, images, contact-form
// submissions, partners, newsletter subscribers, and settings behind a
// single Store facade.
//
// Reads are served from an in-process cache mirror when possible and fall
// through to the structured backend on a miss. Writes go to the backend
// first and are mirrored into the cache only after they succeed, so the
// cache never gets ahead of durable state.
package oceans

import (
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/calmeoceans/oceans-tracers/internal/cache"
	"github.com/calmeoceans/oceans-tracers/internal/storage"
)

// ContentObserver is called after a content write commits. The callback runs
// outside the store's write lock, so observers may call back into the store.
type ContentObserver func(key, value string)

type contentObserver struct {
	prefix string
	fn     ContentObserver
}

type contentEvent struct {
	key   string
	value string
}

// Store is the consolidated content store. All methods are safe for
// concurrent use.
type Store struct {
	mu       sync.Mutex
	backend  storage.Backend
	cache    *cache.Cache
	notifier Notifier
	policy   *bluemonday.Policy

	obsMu     sync.RWMutex
	observers map[int64]contentObserver
	nextObsID int64

	// lastSubID guarantees strictly increasing submission IDs even when two
	// submissions land in the same millisecond.
	lastSubID int64
}

var defaultContent = []ContentItem{
	{Key: "hero-title", Value: "Tracing the Ocean's<br>Hidden Currents", Type: ContentTypeHTML},
	{Key: "hero-subtitle", Value: "Open data for a healthier ocean", Type: ContentTypeText},
	{Key: "mission-text", Value: "Ocean Tracers Net collects and publishes tracer measurements from research vessels and autonomous floats worldwide.", Type: ContentTypeText},
	{Key: "company-address", Value: "12 Harborside Way<br>Woods Hole, MA 02543", Type: ContentTypeHTML},
	{Key: "company-phone", Value: "+1 (508) 555-0142", Type: ContentTypeText},
	{Key: "company-email", Value: "hello@oceantracers.net", Type: ContentTypeText},
}

// Open opens the store. It tries the structured SQLite backend first and
// falls back to the JSON flat store when that fails; only when both are
// unusable does it return ErrStorageUnavailable.
func Open(cfg StoreConfig) (*Store, error) {
	var backend storage.Backend
	backend, err := storage.OpenSQLite(cfg.DatabasePath)
	if err != nil {
		log.Printf("oceans: structured backend unavailable (%v), falling back to flat store", err)
		backend, err = storage.OpenFlatMap(cfg.FallbackPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
	}

	s := &Store{
		backend:   backend,
		cache:     cache.New(),
		notifier:  cfg.Notifier,
		policy:    bluemonday.UGCPolicy(),
		observers: make(map[int64]contentObserver),
	}

	// Prime the ID watermark so restarts never reissue a submission ID.
	subs, err := backend.ListSubmissions("", 1)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("read submissions: %w", err)
	}
	if len(subs) > 0 {
		s.lastSubID = subs[0].ID
	}

	if cfg.SeedDefaults {
		if err := s.seedDefaults(); err != nil {
			backend.Close()
			return nil, err
		}
	}
	return s, nil
}

// Close releases the underlying backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// BackendKind reports which tier is serving the store, "sqlite" or
// "flatmap".
func (s *Store) BackendKind() string {
	return s.backend.Kind()
}

func (s *Store) seedDefaults() error {
	existing, err := s.backend.ListContent()
	if err != nil {
		return fmt.Errorf("read content: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	for _, item := range defaultContent {
		if _, err := s.PutContent(item.Key, item.Value, item.Type); err != nil {
			return fmt.Errorf("seed %q: %w", item.Key, err)
		}
	}
	return nil
}

// --- content ---

// PutContent stores one piece of site copy. HTML content is sanitized; the
// stored value may differ from the input. The version increments on every
// write, including writes that store an identical value.
func (s *Store) PutContent(key, value, contentType string) (*ContentItem, error) {
	if strings.TrimSpace(key) == "" {
		return nil, errValidation("content key is empty")
	}
	if contentType == "" {
		contentType = ContentTypeText
	}
	if contentType != ContentTypeText && contentType != ContentTypeHTML {
		return nil, errValidation("unknown content type %q", contentType)
	}

	s.mu.Lock()
	item, err := s.putContentLocked(key, value, contentType)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.emitContent([]contentEvent{{key: item.Key, value: item.Value}})
	return item, nil
}

// putContentLocked is the write core shared by PutContent and snapshot
// import. Caller holds s.mu and has validated the inputs.
func (s *Store) putContentLocked(key, value, contentType string) (*ContentItem, error) {
	if contentType == ContentTypeHTML {
		value = s.policy.Sanitize(value)
	}

	existing, err := s.backend.GetContent(key)
	if err != nil {
		return nil, fmt.Errorf("read content %q: %w", key, err)
	}
	version := int64(1)
	if existing != nil {
		version = existing.Version + 1
	}

	rec := storage.Content{
		Key:       key,
		Value:     value,
		Type:      contentType,
		UpdatedAt: time.Now().UTC(),
		Version:   version,
	}
	if err := s.backend.PutContent(rec); err != nil {
		return nil, fmt.Errorf("%w: content %q: %v", ErrWriteFailed, key, err)
	}
	s.cache.Set(cache.ContentKey(key), value)

	item := contentFromRecord(rec)
	return &item, nil
}

// GetContent returns the stored value for key. The second return value is
// false when the key does not exist; that is not an error.
func (s *Store) GetContent(key string) (string, bool, error) {
	if v, ok := s.cache.Get(cache.ContentKey(key)); ok {
		return v, true, nil
	}
	rec, err := s.backend.GetContent(key)
	if err != nil {
		return "", false, fmt.Errorf("read content %q: %w", key, err)
	}
	if rec == nil {
		return "", false, nil
	}
	s.cache.Set(cache.ContentKey(key), rec.Value)
	return rec.Value, true, nil
}

// ListContent returns every content item, keyed by content key.
func (s *Store) ListContent() (map[string]ContentItem, error) {
	recs, err := s.backend.ListContent()
	if err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}
	out := make(map[string]ContentItem, len(recs))
	for _, rec := range recs {
		out[rec.Key] = contentFromRecord(rec)
	}
	return out, nil
}

// OnContentChange registers fn to run after any content write whose key
// starts with prefix. An empty prefix matches every key. The returned
// function unregisters the observer.
func (s *Store) OnContentChange(prefix string, fn ContentObserver) func() {
	s.obsMu.Lock()
	s.nextObsID++
	id := s.nextObsID
	s.observers[id] = contentObserver{prefix: prefix, fn: fn}
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

func (s *Store) emitContent(events []contentEvent) {
	if len(events) == 0 {
		return
	}
	s.obsMu.RLock()
	obs := make([]contentObserver, 0, len(s.observers))
	for _, o := range s.observers {
		obs = append(obs, o)
	}
	s.obsMu.RUnlock()

	for _, ev := range events {
		for _, o := range obs {
			if strings.HasPrefix(ev.key, o.prefix) {
				o.fn(ev.key, ev.value)
			}
		}
	}
}

// --- images ---

var dataURIFormat = regexp.MustCompile(`^data:image/(\w+)[;,]`)

// PutImage stores an image under id. The payload is either a data URI, whose
// format and size are derived from the payload itself, or an external URL,
// which is stored by reference with a zero size.
func (s *Store) PutImage(id, payload, category string) (*ImageAsset, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errValidation("image id is empty")
	}
	if payload == "" {
		return nil, errValidation("image payload is empty")
	}
	if category == "" {
		category = "general"
	}

	format := "url"
	var size int64
	if strings.HasPrefix(payload, "data:") {
		format = "unknown"
		if m := dataURIFormat.FindStringSubmatch(payload); m != nil {
			format = m[1]
		}
		size = int64(len(payload))
	}

	rec := storage.Image{
		ID:         id,
		Data:       payload,
		Category:   category,
		Format:     format,
		SizeBytes:  size,
		UploadedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	err := s.backend.PutImage(rec)
	if err == nil && format != "url" {
		// External URLs are cheap to re-read; only inline data gets mirrored.
		s.cache.Set(cache.ImageKey(id), payload)
	}
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: image %q: %v", ErrWriteFailed, id, err)
	}

	asset := imageFromRecord(rec)
	return &asset, nil
}

// GetImage returns the stored payload for id, or ok=false if absent.
func (s *Store) GetImage(id string) (string, bool, error) {
	if v, ok := s.cache.Get(cache.ImageKey(id)); ok {
		return v, true, nil
	}
	rec, err := s.backend.GetImage(id)
	if err != nil {
		return "", false, fmt.Errorf("read image %q: %w", id, err)
	}
	if rec == nil {
		return "", false, nil
	}
	if strings.HasPrefix(rec.Data, "data:") {
		s.cache.Set(cache.ImageKey(id), rec.Data)
	}
	return rec.Data, true, nil
}

// ListImages returns image metadata and payloads in ID order, optionally
// filtered by category. An empty category returns everything.
func (s *Store) ListImages(category string) ([]ImageAsset, error) {
	recs, err := s.backend.ListImages()
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	out := make([]ImageAsset, 0, len(recs))
	for _, rec := range recs {
		if category != "" && rec.Category != category {
			continue
		}
		out = append(out, imageFromRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- submissions ---

// AddSubmission records a contact-form submission. The submission starts in
// the pending status, unread. The configured notifier is invoked after the
// write commits; notifier errors are logged, never returned.
func (s *Store) AddSubmission(fields map[string]string) (*Submission, error) {
	if len(fields) == 0 {
		return nil, errValidation("submission has no fields")
	}
	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}

	now := time.Now().UTC()

	s.mu.Lock()
	id := now.UnixMilli()
	if id <= s.lastSubID {
		id = s.lastSubID + 1
	}
	s.lastSubID = id

	rec := storage.Submission{
		ID:          id,
		Fields:      copied,
		SubmittedAt: now,
		Status:      StatusPending,
	}
	err := s.backend.AddSubmission(rec)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: submission: %v", ErrWriteFailed, err)
	}

	if s.notifier != nil {
		if err := s.notifier.NotifySubmission(id, copied, now); err != nil {
			log.Printf("oceans: notify submission %d: %v", id, err)
		}
	}

	sub := submissionFromRecord(rec)
	return &sub, nil
}

// ListSubmissions returns submissions newest first, optionally filtered by
// status. A limit of zero or less returns everything.
func (s *Store) ListSubmissions(status string, limit int) ([]Submission, error) {
	if status != "" && !validStatus(status) {
		return nil, errValidation("unknown submission status %q", status)
	}
	recs, err := s.backend.ListSubmissions(status, limit)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	out := make([]Submission, len(recs))
	for i, rec := range recs {
		out[i] = submissionFromRecord(rec)
	}
	return out, nil
}

// UpdateSubmissionStatus moves a submission to status and stamps its
// update time.
func (s *Store) UpdateSubmissionStatus(id int64, status string) (*Submission, error) {
	if !validStatus(status) {
		return nil, errValidation("unknown submission status %q", status)
	}
	return s.updateSubmission(id, func(rec *storage.Submission) {
		rec.Status = status
	})
}

// MarkSubmissionRead marks a submission as read.
func (s *Store) MarkSubmissionRead(id int64) (*Submission, error) {
	return s.updateSubmission(id, func(rec *storage.Submission) {
		rec.Read = true
	})
}

func (s *Store) updateSubmission(id int64, mutate func(*storage.Submission)) (*Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.backend.GetSubmission(id)
	if err != nil {
		return nil, fmt.Errorf("read submission %d: %w", id, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("submission %d: %w", id, ErrNotFound)
	}

	mutate(rec)
	now := time.Now().UTC()
	rec.UpdatedAt = &now
	if err := s.backend.UpdateSubmission(*rec); err != nil {
		return nil, fmt.Errorf("%w: submission %d: %v", ErrWriteFailed, id, err)
	}
	sub := submissionFromRecord(*rec)
	return &sub, nil
}

func validStatus(status string) bool {
	switch status {
	case StatusPending, StatusReviewed, StatusArchived:
		return true
	}
	return false
}

// --- partners ---

// UpsertPartner creates or replaces a partner. A missing ID is generated; a
// missing status defaults to active. JoinedAt is always stamped at write
// time.
func (s *Store) UpsertPartner(p Partner) (*Partner, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, errValidation("partner name is empty")
	}
	if p.ID == "" {
		p.ID = fmt.Sprintf("partner_%d", time.Now().UnixMilli())
	}
	if p.Status == "" {
		p.Status = PartnerActive
	}
	if p.Status != PartnerActive && p.Status != PartnerInactive {
		return nil, errValidation("unknown partner status %q", p.Status)
	}
	p.JoinedAt = time.Now().UTC()

	s.mu.Lock()
	err := s.backend.PutPartner(storage.Partner(p))
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: partner %q: %v", ErrWriteFailed, p.ID, err)
	}
	return &p, nil
}

// ListPartners returns partners with the given status. An empty status
// defaults to active; "all" returns everything.
func (s *Store) ListPartners(status string) ([]Partner, error) {
	if status == "" {
		status = PartnerActive
	}
	if status == "all" {
		status = ""
	}
	recs, err := s.backend.ListPartners(status)
	if err != nil {
		return nil, fmt.Errorf("list partners: %w", err)
	}
	out := make([]Partner, len(recs))
	for i, rec := range recs {
		out[i] = Partner(rec)
	}
	return out, nil
}

// --- subscribers ---

// Subscribe adds email to the newsletter list. Subscribing an address that
// already has an inactive record reactivates it; subscribing an active
// address is a no-op that returns the existing record.
func (s *Store) Subscribe(email string) (*Subscriber, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, errValidation("invalid email address %q", email)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.backend.GetSubscriber(email)
	if err != nil {
		return nil, fmt.Errorf("read subscriber %q: %w", email, err)
	}
	if existing != nil && existing.Active {
		sub := Subscriber(*existing)
		return &sub, nil
	}

	rec := storage.Subscriber{
		Email:        email,
		SubscribedAt: time.Now().UTC(),
		Active:       true,
	}
	if err := s.backend.PutSubscriber(rec); err != nil {
		return nil, fmt.Errorf("%w: subscriber %q: %v", ErrWriteFailed, email, err)
	}
	sub := Subscriber(rec)
	return &sub, nil
}

// Unsubscribe deactivates a subscriber. The record is kept so the address's
// history survives a later resubscribe.
func (s *Store) Unsubscribe(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.backend.GetSubscriber(email)
	if err != nil {
		return fmt.Errorf("read subscriber %q: %w", email, err)
	}
	if rec == nil {
		return fmt.Errorf("subscriber %q: %w", email, ErrNotFound)
	}
	rec.Active = false
	if err := s.backend.PutSubscriber(*rec); err != nil {
		return fmt.Errorf("%w: subscriber %q: %v", ErrWriteFailed, email, err)
	}
	return nil
}

// ListSubscribers returns subscribers, optionally restricted to active ones.
func (s *Store) ListSubscribers(activeOnly bool) ([]Subscriber, error) {
	recs, err := s.backend.ListSubscribers(activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	out := make([]Subscriber, len(recs))
	for i, rec := range recs {
		out[i] = Subscriber(rec)
	}
	return out, nil
}

// --- settings ---

// SetSetting stores a site-wide setting.
func (s *Store) SetSetting(key, value string) (*Setting, error) {
	if strings.TrimSpace(key) == "" {
		return nil, errValidation("setting key is empty")
	}
	rec := storage.Setting{Key: key, Value: value, UpdatedAt: time.Now().UTC()}

	s.mu.Lock()
	err := s.backend.PutSetting(rec)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: setting %q: %v", ErrWriteFailed, key, err)
	}
	set := Setting(rec)
	return &set, nil
}

// GetSetting returns the value for key, or ok=false if unset.
func (s *Store) GetSetting(key string) (string, bool, error) {
	rec, err := s.backend.GetSetting(key)
	if err != nil {
		return "", false, fmt.Errorf("read setting %q: %w", key, err)
	}
	if rec == nil {
		return "", false, nil
	}
	return rec.Value, true, nil
}

// ListSettings returns every setting, keyed by setting key.
func (s *Store) ListSettings() (map[string]Setting, error) {
	recs, err := s.backend.ListSettings()
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	out := make(map[string]Setting, len(recs))
	for _, rec := range recs {
		out[rec.Key] = Setting(rec)
	}
	return out, nil
}

// --- statistics, snapshot, clear ---

// Statistics summarizes the store's contents.
func (s *Store) Statistics() (*Statistics, error) {
	counts, err := s.backend.Counts()
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	return &Statistics{
		Submissions:        counts.Submissions,
		PendingSubmissions: counts.PendingSubmissions,
		ActivePartners:     counts.ActivePartners,
		ContentItems:       counts.Content,
		Images:             counts.Images,
		Subscribers:        counts.Subscribers,
		LastUpdated:        time.Now().UTC(),
	}, nil
}

// ExportSnapshot returns a consistent full export of the store.
func (s *Store) ExportSnapshot() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := s.backend.ListContent()
	if err != nil {
		return nil, fmt.Errorf("export content: %w", err)
	}
	images, err := s.backend.ListImages()
	if err != nil {
		return nil, fmt.Errorf("export images: %w", err)
	}
	partners, err := s.backend.ListPartners("")
	if err != nil {
		return nil, fmt.Errorf("export partners: %w", err)
	}
	submissions, err := s.backend.ListSubmissions("", 0)
	if err != nil {
		return nil, fmt.Errorf("export submissions: %w", err)
	}
	subscribers, err := s.backend.ListSubscribers(false)
	if err != nil {
		return nil, fmt.Errorf("export subscribers: %w", err)
	}
	settings, err := s.backend.ListSettings()
	if err != nil {
		return nil, fmt.Errorf("export settings: %w", err)
	}
	counts, err := s.backend.Counts()
	if err != nil {
		return nil, fmt.Errorf("export counts: %w", err)
	}

	now := time.Now().UTC()
	snap := &Snapshot{
		Metadata: SnapshotMetadata{
			ID:            uuid.NewString(),
			SchemaVersion: storage.SchemaVersion,
			ExportedAt:    now,
			Stats: Statistics{
				Submissions:        counts.Submissions,
				PendingSubmissions: counts.PendingSubmissions,
				ActivePartners:     counts.ActivePartners,
				ContentItems:       counts.Content,
				Images:             counts.Images,
				Subscribers:        counts.Subscribers,
				LastUpdated:        now,
			},
		},
		Content:     make([]ContentItem, len(content)),
		Images:      make([]ImageAsset, len(images)),
		Partners:    make([]Partner, len(partners)),
		Submissions: make([]Submission, len(submissions)),
		Subscribers: make([]Subscriber, len(subscribers)),
		Settings:    make([]Setting, len(settings)),
	}
	for i, rec := range content {
		snap.Content[i] = contentFromRecord(rec)
	}
	for i, rec := range images {
		snap.Images[i] = imageFromRecord(rec)
	}
	for i, rec := range partners {
		snap.Partners[i] = Partner(rec)
	}
	for i, rec := range submissions {
		snap.Submissions[i] = submissionFromRecord(rec)
	}
	for i, rec := range subscribers {
		snap.Subscribers[i] = Subscriber(rec)
	}
	for i, rec := range settings {
		snap.Settings[i] = Setting(rec)
	}
	return snap, nil
}

// ImportSnapshot replaces the store's entire contents with the snapshot.
// The snapshot must match the current schema version; a mismatch is
// rejected before anything is cleared. Content and images are replayed
// through the normal write path, so HTML is re-sanitized and versions are
// regenerated.
func (s *Store) ImportSnapshot(snap *Snapshot) error {
	if snap == nil {
		return errValidation("snapshot is nil")
	}
	if snap.Metadata.SchemaVersion != storage.SchemaVersion {
		return errValidation("snapshot schema version %d does not match %d",
			snap.Metadata.SchemaVersion, storage.SchemaVersion)
	}
	for _, item := range snap.Content {
		if strings.TrimSpace(item.Key) == "" {
			return errValidation("snapshot contains content with an empty key")
		}
		if item.Type != ContentTypeText && item.Type != ContentTypeHTML {
			return errValidation("snapshot content %q has unknown type %q", item.Key, item.Type)
		}
	}
	for _, img := range snap.Images {
		if strings.TrimSpace(img.ID) == "" {
			return errValidation("snapshot contains an image with an empty id")
		}
	}

	s.mu.Lock()
	events, err := s.importLocked(snap)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.emitContent(events)
	return nil
}

func (s *Store) importLocked(snap *Snapshot) ([]contentEvent, error) {
	if err := s.backend.ClearAll(); err != nil {
		return nil, fmt.Errorf("%w: clear before import: %v", ErrWriteFailed, err)
	}
	s.cache.PurgePrefix(cache.Namespace)

	events := make([]contentEvent, 0, len(snap.Content))
	for _, item := range snap.Content {
		stored, err := s.putContentLocked(item.Key, item.Value, item.Type)
		if err != nil {
			return nil, fmt.Errorf("import content %q: %w", item.Key, err)
		}
		events = append(events, contentEvent{key: stored.Key, value: stored.Value})
	}
	for _, img := range snap.Images {
		rec := storage.Image(img)
		if err := s.backend.PutImage(rec); err != nil {
			return nil, fmt.Errorf("%w: import image %q: %v", ErrWriteFailed, img.ID, err)
		}
		if strings.HasPrefix(img.Data, "data:") {
			s.cache.Set(cache.ImageKey(img.ID), img.Data)
		}
	}
	for _, p := range snap.Partners {
		if err := s.backend.PutPartner(storage.Partner(p)); err != nil {
			return nil, fmt.Errorf("%w: import partner %q: %v", ErrWriteFailed, p.ID, err)
		}
	}
	for _, sub := range snap.Submissions {
		if err := s.backend.AddSubmission(storage.Submission(sub)); err != nil {
			return nil, fmt.Errorf("%w: import submission %d: %v", ErrWriteFailed, sub.ID, err)
		}
		if sub.ID > s.lastSubID {
			s.lastSubID = sub.ID
		}
	}
	for _, sub := range snap.Subscribers {
		if err := s.backend.PutSubscriber(storage.Subscriber(sub)); err != nil {
			return nil, fmt.Errorf("%w: import subscriber %q: %v", ErrWriteFailed, sub.Email, err)
		}
	}
	for _, set := range snap.Settings {
		if err := s.backend.PutSetting(storage.Setting(set)); err != nil {
			return nil, fmt.Errorf("%w: import setting %q: %v", ErrWriteFailed, set.Key, err)
		}
	}
	return events, nil
}

// ClearAll removes every record and purges the cache mirror. Callers are
// expected to confirm before invoking this.
func (s *Store) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.ClearAll(); err != nil {
		return fmt.Errorf("%w: clear: %v", ErrWriteFailed, err)
	}
	s.cache.PurgePrefix(cache.Namespace)
	return nil
}

// --- record conversion ---

func contentFromRecord(rec storage.Content) ContentItem {
	return ContentItem(rec)
}

func imageFromRecord(rec storage.Image) ImageAsset {
	return ImageAsset(rec)
}

func submissionFromRecord(rec storage.Submission) Submission {
	sub := Submission{
		ID:          rec.ID,
		Fields:      make(map[string]string, len(rec.Fields)),
		SubmittedAt: rec.SubmittedAt,
		Status:      rec.Status,
		Read:        rec.Read,
	}
	for k, v := range rec.Fields {
		sub.Fields[k] = v
	}
	if rec.UpdatedAt != nil {
		t := *rec.UpdatedAt
		sub.UpdatedAt = &t
	}
	return sub
}
