package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
)

// FlatMap is the fallback backend: every collection lives in one JSON
// document persisted with a write-then-rename. Queries that the SQLite
// backend serves from an index are full scans here; behavior is otherwise
// identical.
type FlatMap struct {
	mu   sync.Mutex
	path string
	doc  document
}

type document struct {
	SchemaVersion int                   `json:"schema_version"`
	Content       map[string]Content    `json:"content"`
	Images        map[string]Image      `json:"images"`
	Partners      map[string]Partner    `json:"partners"`
	Submissions   map[string]Submission `json:"submissions"` // keyed by decimal id
	Subscribers   map[string]Subscriber `json:"subscribers"`
	Settings      map[string]Setting    `json:"settings"`
}

func emptyDocument() document {
	return document{
		SchemaVersion: SchemaVersion,
		Content:       make(map[string]Content),
		Images:        make(map[string]Image),
		Partners:      make(map[string]Partner),
		Submissions:   make(map[string]Submission),
		Subscribers:   make(map[string]Subscriber),
		Settings:      make(map[string]Setting),
	}
}

// OpenFlatMap loads (or creates) the JSON document at path. Documents from
// an older schema generation get their missing collections created in place,
// matching the SQLite upgrade behavior.
func OpenFlatMap(path string) (*FlatMap, error) {
	f := &FlatMap{path: path, doc: emptyDocument()}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if err := f.persist(); err != nil {
			return nil, err
		}
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read flat store: %w", err)
	}

	if err := json.Unmarshal(data, &f.doc); err != nil {
		return nil, fmt.Errorf("decode flat store: %w", err)
	}
	if f.doc.SchemaVersion > SchemaVersion {
		return nil, fmt.Errorf("flat store schema version %d is newer than supported version %d", f.doc.SchemaVersion, SchemaVersion)
	}

	upgraded := f.doc.SchemaVersion < SchemaVersion
	f.ensureCollections()
	if upgraded {
		f.doc.SchemaVersion = SchemaVersion
		if err := f.persist(); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// ensureCollections creates any maps missing from an older or hand-edited
// document.
func (f *FlatMap) ensureCollections() {
	if f.doc.Content == nil {
		f.doc.Content = make(map[string]Content)
	}
	if f.doc.Images == nil {
		f.doc.Images = make(map[string]Image)
	}
	if f.doc.Partners == nil {
		f.doc.Partners = make(map[string]Partner)
	}
	if f.doc.Submissions == nil {
		f.doc.Submissions = make(map[string]Submission)
	}
	if f.doc.Subscribers == nil {
		f.doc.Subscribers = make(map[string]Subscriber)
	}
	if f.doc.Settings == nil {
		f.doc.Settings = make(map[string]Setting)
	}
}

// persist writes the document to a temp file and renames it into place so a
// crash mid-write never leaves a truncated store. Caller holds f.mu.
func (f *FlatMap) persist() error {
	data, err := json.MarshalIndent(f.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode flat store: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create flat store directory: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write flat store: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace flat store: %w", err)
	}
	return nil
}

func (f *FlatMap) Kind() string { return "flatmap" }

func (f *FlatMap) Close() error { return nil }

func (f *FlatMap) PutContent(c Content) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.doc.Content[c.Key] = c
	return f.persist()
}

func (f *FlatMap) GetContent(key string) (*Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.doc.Content[key]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (f *FlatMap) ListContent() ([]Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]Content, 0, len(f.doc.Content))
	for _, c := range f.doc.Content {
		items = append(items, c)
	}
	return items, nil
}

func (f *FlatMap) PutImage(img Image) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.doc.Images[img.ID] = img
	return f.persist()
}

func (f *FlatMap) GetImage(id string) (*Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	img, ok := f.doc.Images[id]
	if !ok {
		return nil, nil
	}
	return &img, nil
}

func (f *FlatMap) ListImages() ([]Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	images := make([]Image, 0, len(f.doc.Images))
	for _, img := range f.doc.Images {
		images = append(images, img)
	}
	return images, nil
}

func (f *FlatMap) AddSubmission(s Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strconv.FormatInt(s.ID, 10)
	if _, exists := f.doc.Submissions[key]; exists {
		return fmt.Errorf("add submission %d: id already exists", s.ID)
	}
	f.doc.Submissions[key] = s
	return f.persist()
}

func (f *FlatMap) GetSubmission(id int64) (*Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.doc.Submissions[strconv.FormatInt(id, 10)]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (f *FlatMap) UpdateSubmission(s Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strconv.FormatInt(s.ID, 10)
	if _, ok := f.doc.Submissions[key]; !ok {
		return fmt.Errorf("update submission %d: no such record", s.ID)
	}
	f.doc.Submissions[key] = s
	return f.persist()
}

func (f *FlatMap) ListSubmissions(status string, limit int) ([]Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Scan + filter; the SQLite tier does this with a status index.
	subs := make([]Submission, 0, len(f.doc.Submissions))
	for _, s := range f.doc.Submissions {
		if status != "" && status != "all" && s.Status != status {
			continue
		}
		subs = append(subs, s)
	}
	sort.Slice(subs, func(i, j int) bool {
		if !subs[i].SubmittedAt.Equal(subs[j].SubmittedAt) {
			return subs[i].SubmittedAt.After(subs[j].SubmittedAt)
		}
		return subs[i].ID > subs[j].ID
	})
	if limit > 0 && len(subs) > limit {
		subs = subs[:limit]
	}
	return subs, nil
}

func (f *FlatMap) PutPartner(p Partner) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.doc.Partners[p.ID] = p
	return f.persist()
}

func (f *FlatMap) ListPartners(status string) ([]Partner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	partners := make([]Partner, 0, len(f.doc.Partners))
	for _, p := range f.doc.Partners {
		if status != "" && status != "all" && p.Status != status {
			continue
		}
		partners = append(partners, p)
	}
	sort.Slice(partners, func(i, j int) bool {
		return partners[i].JoinedAt.After(partners[j].JoinedAt)
	})
	return partners, nil
}

func (f *FlatMap) PutSubscriber(s Subscriber) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.doc.Subscribers[s.Email] = s
	return f.persist()
}

func (f *FlatMap) GetSubscriber(email string) (*Subscriber, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.doc.Subscribers[email]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (f *FlatMap) ListSubscribers(activeOnly bool) ([]Subscriber, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	subs := make([]Subscriber, 0, len(f.doc.Subscribers))
	for _, s := range f.doc.Subscribers {
		if activeOnly && !s.Active {
			continue
		}
		subs = append(subs, s)
	}
	sort.Slice(subs, func(i, j int) bool {
		return subs[i].SubscribedAt.After(subs[j].SubscribedAt)
	})
	return subs, nil
}

func (f *FlatMap) PutSetting(s Setting) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.doc.Settings[s.Key] = s
	return f.persist()
}

func (f *FlatMap) GetSetting(key string) (*Setting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.doc.Settings[key]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (f *FlatMap) ListSettings() ([]Setting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	settings := make([]Setting, 0, len(f.doc.Settings))
	for _, s := range f.doc.Settings {
		settings = append(settings, s)
	}
	return settings, nil
}

func (f *FlatMap) Counts() (*Counts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c := Counts{
		Submissions: len(f.doc.Submissions),
		Content:     len(f.doc.Content),
		Images:      len(f.doc.Images),
	}
	for _, s := range f.doc.Submissions {
		if s.Status == "pending" {
			c.PendingSubmissions++
		}
	}
	for _, p := range f.doc.Partners {
		if p.Status == "active" {
			c.ActivePartners++
		}
	}
	for _, s := range f.doc.Subscribers {
		if s.Active {
			c.Subscribers++
		}
	}
	return &c, nil
}

func (f *FlatMap) ClearAll() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.doc = emptyDocument()
	return f.persist()
}
