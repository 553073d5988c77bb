package oceans

import "time"

// Content types accepted by PutContent. HTML content is sanitized before it
// is stored; text content is stored verbatim.
const (
	ContentTypeText = "text"
	ContentTypeHTML = "html"
)

// Submission lifecycle statuses.
const (
	StatusPending  = "pending"
	StatusReviewed = "reviewed"
	StatusArchived = "archived"
)

// Partner statuses.
const (
	PartnerActive   = "active"
	PartnerInactive = "inactive"
)

// ContentItem is one editable piece of site copy, addressed by key.
type ContentItem struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	Type      string    `json:"type"`
	UpdatedAt time.Time `json:"updatedAt"`
	Version   int64     `json:"version"`
}

// ImageAsset is a stored image, either an inline data URI or a reference to
// an external URL.
type ImageAsset struct {
	ID         string    `json:"id"`
	Data       string    `json:"data"`
	Category   string    `json:"category"`
	Format     string    `json:"format"`
	SizeBytes  int64     `json:"sizeBytes"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Submission is one contact-form submission with its review state.
type Submission struct {
	ID          int64             `json:"id"`
	Fields      map[string]string `json:"fields"`
	SubmittedAt time.Time         `json:"submittedAt"`
	UpdatedAt   *time.Time        `json:"updatedAt,omitempty"`
	Status      string            `json:"status"`
	Read        bool              `json:"read"`
}

// Partner is a partner organization shown on the site.
type Partner struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Website  string    `json:"website"`
	Tier     string    `json:"tier"`
	Status   string    `json:"status"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Subscriber is one newsletter subscriber. Unsubscribing deactivates the
// record rather than deleting it.
type Subscriber struct {
	Email        string    `json:"email"`
	SubscribedAt time.Time `json:"subscribedAt"`
	Active       bool      `json:"active"`
}

// Setting is one site-wide key/value setting.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Statistics summarizes the store's contents at a point in time.
type Statistics struct {
	Submissions        int       `json:"submissions"`
	PendingSubmissions int       `json:"pendingSubmissions"`
	ActivePartners     int       `json:"activePartners"`
	ContentItems       int       `json:"contentItems"`
	Images             int       `json:"images"`
	Subscribers        int       `json:"subscribers"`
	LastUpdated        time.Time `json:"lastUpdated"`
}

// SnapshotMetadata identifies an exported snapshot.
type SnapshotMetadata struct {
	ID            string     `json:"id"`
	SchemaVersion int        `json:"schemaVersion"`
	ExportedAt    time.Time  `json:"exportedAt"`
	Stats         Statistics `json:"stats"`
}

// Snapshot is a full export of the store, suitable for backup and restore.
type Snapshot struct {
	Metadata    SnapshotMetadata  `json:"metadata"`
	Content     []ContentItem     `json:"content"`
	Images      []ImageAsset      `json:"images"`
	Partners    []Partner         `json:"partners"`
	Submissions []Submission      `json:"submissions"`
	Subscribers []Subscriber      `json:"subscribers"`
	Settings    []Setting         `json:"settings"`
}

// Notifier receives newly created submissions. Implementations must not
// block for long; a notification failure is logged and never fails the
// submission write.
type Notifier interface {
	NotifySubmission(id int64, fields map[string]string, submittedAt time.Time) error
}

// StoreConfig configures Open.
type StoreConfig struct {
	// DatabasePath is the SQLite database file for the structured backend.
	DatabasePath string

	// FallbackPath is the JSON flat-store file used when the structured
	// backend cannot be opened.
	FallbackPath string

	// SeedDefaults populates default site content when the store is empty.
	SeedDefaults bool

	// Notifier, if set, is called for each new submission.
	Notifier Notifier
}
