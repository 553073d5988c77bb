// Package storage implements the durable tier of the Ocean Tracers content
// store. Two backends satisfy the same Backend interface: an indexed SQLite
// store and a flat JSON document used when SQLite cannot be opened. The
// choice is made once at open time; callers cannot tell them apart.
package storage

import "time"

// Content is a single editable content entry, keyed by its DOM binding key
// (e.g. "hero-title").
type Content struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	Type      string    `json:"type"` // "text" or "html"
	UpdatedAt time.Time `json:"updated_at"`
	Version   int64     `json:"version"`
}

// Image is an uploaded image asset. Data holds either a data URI payload or
// an external URL.
type Image struct {
	ID         string    `json:"id"`
	Data       string    `json:"data"`
	Category   string    `json:"category"`
	Format     string    `json:"format"` // image subtype, or "url" for external links
	SizeBytes  int64     `json:"size_bytes"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Submission is a contact-form submission. Fields carries the raw form
// values; no schema is enforced on them.
type Submission struct {
	ID          int64             `json:"id"`
	Fields      map[string]string `json:"fields"`
	SubmittedAt time.Time         `json:"submitted_at"`
	UpdatedAt   *time.Time        `json:"updated_at,omitempty"`
	Status      string            `json:"status"` // pending, reviewed, archived
	Read        bool              `json:"read"`
}

// Partner is a partner organization record.
type Partner struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Website  string    `json:"website,omitempty"`
	Tier     string    `json:"tier,omitempty"`
	Status   string    `json:"status"`
	JoinedAt time.Time `json:"joined_at"`
}

// Subscriber is a newsletter signup.
type Subscriber struct {
	Email        string    `json:"email"`
	SubscribedAt time.Time `json:"subscribed_at"`
	Active       bool      `json:"active"`
}

// Setting is an arbitrary key-value setting entry.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Counts holds per-collection record counts taken from a single consistent
// snapshot of the backend.
type Counts struct {
	Submissions        int `json:"submissions"`
	PendingSubmissions int `json:"pending_submissions"`
	ActivePartners     int `json:"active_partners"`
	Content            int `json:"content"`
	Images             int `json:"images"`
	Subscribers        int `json:"subscribers"`
}

// Backend defines the storage contract shared by the SQLite and flat-map
// tiers. Get methods return (nil, nil) for absent records; absence is not an
// error at this layer. Put methods have insert-or-replace semantics keyed on
// the record's primary key.
type Backend interface {
	// Kind identifies the active backend ("sqlite" or "flatmap") for logging.
	Kind() string
	Close() error

	PutContent(c Content) error
	GetContent(key string) (*Content, error)
	ListContent() ([]Content, error)

	PutImage(img Image) error
	GetImage(id string) (*Image, error)
	ListImages() ([]Image, error)

	AddSubmission(s Submission) error
	GetSubmission(id int64) (*Submission, error)
	UpdateSubmission(s Submission) error
	// ListSubmissions returns submissions sorted by submission time, newest
	// first. status "" or "all" disables filtering; limit <= 0 disables
	// truncation.
	ListSubmissions(status string, limit int) ([]Submission, error)

	PutPartner(p Partner) error
	ListPartners(status string) ([]Partner, error)

	PutSubscriber(s Subscriber) error
	GetSubscriber(email string) (*Subscriber, error)
	ListSubscribers(activeOnly bool) ([]Subscriber, error)

	PutSetting(s Setting) error
	GetSetting(key string) (*Setting, error)
	ListSettings() ([]Setting, error)

	// Counts reads all collection counts from one logical snapshot.
	Counts() (*Counts, error)
	// ClearAll deletes every record in every collection.
	ClearAll() error
}
