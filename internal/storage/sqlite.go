package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLite is the indexed backend. All list filters use real indexes.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and brings the schema up
// to the current version.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path+"?_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

// migrate records the schema version and upgrades older databases. The
// Schema statements are idempotent, so the only per-version work left is
// anything additive beyond table creation.
func migrate(db *sql.DB) error {
	var version int
	err := db.QueryRow("SELECT version FROM schema_info WHERE id = 1").Scan(&version)
	switch {
	case err == sql.ErrNoRows:
		if _, err := db.Exec("INSERT INTO schema_info (id, version) VALUES (1, ?)", SchemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	}

	if version > SchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, SchemaVersion)
	}
	if version < SchemaVersion {
		// v1 -> v2: subscribers and settings tables, already created above.
		if _, err := db.Exec("UPDATE schema_info SET version = ? WHERE id = 1", SchemaVersion); err != nil {
			return fmt.Errorf("upgrade schema version: %w", err)
		}
	}
	return nil
}

func (s *SQLite) Kind() string { return "sqlite" }

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) PutContent(c Content) error {
	_, err := s.db.Exec(
		`INSERT INTO content (key, value, content_type, updated_at, version)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		   value = excluded.value,
		   content_type = excluded.content_type,
		   updated_at = excluded.updated_at,
		   version = excluded.version`,
		c.Key, c.Value, c.Type, c.UpdatedAt, c.Version,
	)
	if err != nil {
		return fmt.Errorf("put content %q: %w", c.Key, err)
	}
	return nil
}

func (s *SQLite) GetContent(key string) (*Content, error) {
	var c Content
	err := s.db.QueryRow(
		"SELECT key, value, content_type, updated_at, version FROM content WHERE key = ?", key,
	).Scan(&c.Key, &c.Value, &c.Type, &c.UpdatedAt, &c.Version)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get content %q: %w", key, err)
	}
	return &c, nil
}

func (s *SQLite) ListContent() ([]Content, error) {
	rows, err := s.db.Query("SELECT key, value, content_type, updated_at, version FROM content")
	if err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}
	defer rows.Close()

	var items []Content
	for rows.Next() {
		var c Content
		if err := rows.Scan(&c.Key, &c.Value, &c.Type, &c.UpdatedAt, &c.Version); err != nil {
			return nil, fmt.Errorf("scan content: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (s *SQLite) PutImage(img Image) error {
	_, err := s.db.Exec(
		`INSERT INTO images (id, data, category, format, size_bytes, uploaded_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   data = excluded.data,
		   category = excluded.category,
		   format = excluded.format,
		   size_bytes = excluded.size_bytes,
		   uploaded_at = excluded.uploaded_at`,
		img.ID, img.Data, img.Category, img.Format, img.SizeBytes, img.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("put image %q: %w", img.ID, err)
	}
	return nil
}

func (s *SQLite) GetImage(id string) (*Image, error) {
	var img Image
	err := s.db.QueryRow(
		"SELECT id, data, category, format, size_bytes, uploaded_at FROM images WHERE id = ?", id,
	).Scan(&img.ID, &img.Data, &img.Category, &img.Format, &img.SizeBytes, &img.UploadedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get image %q: %w", id, err)
	}
	return &img, nil
}

func (s *SQLite) ListImages() ([]Image, error) {
	rows, err := s.db.Query("SELECT id, data, category, format, size_bytes, uploaded_at FROM images")
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	var images []Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.ID, &img.Data, &img.Category, &img.Format, &img.SizeBytes, &img.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func (s *SQLite) AddSubmission(sub Submission) error {
	fields, err := json.Marshal(sub.Fields)
	if err != nil {
		return fmt.Errorf("encode submission fields: %w", err)
	}
	_, err = s.db.Exec(
		"INSERT INTO submissions (id, fields, submitted_at, status, read) VALUES (?, ?, ?, ?, ?)",
		sub.ID, string(fields), sub.SubmittedAt, sub.Status, sub.Read,
	)
	if err != nil {
		return fmt.Errorf("add submission %d: %w", sub.ID, err)
	}
	return nil
}

func (s *SQLite) GetSubmission(id int64) (*Submission, error) {
	row := s.db.QueryRow(
		"SELECT id, fields, submitted_at, updated_at, status, read FROM submissions WHERE id = ?", id,
	)
	sub, err := scanSubmission(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get submission %d: %w", id, err)
	}
	return sub, nil
}

func (s *SQLite) UpdateSubmission(sub Submission) error {
	fields, err := json.Marshal(sub.Fields)
	if err != nil {
		return fmt.Errorf("encode submission fields: %w", err)
	}
	res, err := s.db.Exec(
		"UPDATE submissions SET fields = ?, updated_at = ?, status = ?, read = ? WHERE id = ?",
		string(fields), sub.UpdatedAt, sub.Status, sub.Read, sub.ID,
	)
	if err != nil {
		return fmt.Errorf("update submission %d: %w", sub.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update submission %d: no such row", sub.ID)
	}
	return nil
}

func (s *SQLite) ListSubmissions(status string, limit int) ([]Submission, error) {
	query := "SELECT id, fields, submitted_at, updated_at, status, read FROM submissions"
	var args []any
	if status != "" && status != "all" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY submitted_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var subs []Submission
	for rows.Next() {
		sub, err := scanSubmission(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

func scanSubmission(scan func(...any) error) (*Submission, error) {
	var sub Submission
	var fields string
	var updated sql.NullTime
	if err := scan(&sub.ID, &fields, &sub.SubmittedAt, &updated, &sub.Status, &sub.Read); err != nil {
		return nil, err
	}
	if updated.Valid {
		t := updated.Time
		sub.UpdatedAt = &t
	}
	if err := json.Unmarshal([]byte(fields), &sub.Fields); err != nil {
		return nil, fmt.Errorf("decode submission fields: %w", err)
	}
	return &sub, nil
}

func (s *SQLite) PutPartner(p Partner) error {
	_, err := s.db.Exec(
		`INSERT INTO partners (id, name, website, tier, status, joined_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   website = excluded.website,
		   tier = excluded.tier,
		   status = excluded.status,
		   joined_at = excluded.joined_at`,
		p.ID, p.Name, p.Website, p.Tier, p.Status, p.JoinedAt,
	)
	if err != nil {
		return fmt.Errorf("put partner %q: %w", p.ID, err)
	}
	return nil
}

func (s *SQLite) ListPartners(status string) ([]Partner, error) {
	query := "SELECT id, name, website, tier, status, joined_at FROM partners"
	var args []any
	if status != "" && status != "all" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY joined_at DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list partners: %w", err)
	}
	defer rows.Close()

	var partners []Partner
	for rows.Next() {
		var p Partner
		var website, tier sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &website, &tier, &p.Status, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan partner: %w", err)
		}
		p.Website = website.String
		p.Tier = tier.String
		partners = append(partners, p)
	}
	return partners, rows.Err()
}

func (s *SQLite) PutSubscriber(sub Subscriber) error {
	_, err := s.db.Exec(
		`INSERT INTO subscribers (email, subscribed_at, active)
		 VALUES (?, ?, ?)
		 ON CONFLICT(email) DO UPDATE SET
		   subscribed_at = excluded.subscribed_at,
		   active = excluded.active`,
		sub.Email, sub.SubscribedAt, sub.Active,
	)
	if err != nil {
		return fmt.Errorf("put subscriber %q: %w", sub.Email, err)
	}
	return nil
}

func (s *SQLite) GetSubscriber(email string) (*Subscriber, error) {
	var sub Subscriber
	err := s.db.QueryRow(
		"SELECT email, subscribed_at, active FROM subscribers WHERE email = ?", email,
	).Scan(&sub.Email, &sub.SubscribedAt, &sub.Active)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get subscriber %q: %w", email, err)
	}
	return &sub, nil
}

func (s *SQLite) ListSubscribers(activeOnly bool) ([]Subscriber, error) {
	query := "SELECT email, subscribed_at, active FROM subscribers"
	if activeOnly {
		query += " WHERE active = 1"
	}
	query += " ORDER BY subscribed_at DESC"

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	var subs []Subscriber
	for rows.Next() {
		var sub Subscriber
		if err := rows.Scan(&sub.Email, &sub.SubscribedAt, &sub.Active); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *SQLite) PutSetting(st Setting) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		   value = excluded.value,
		   updated_at = excluded.updated_at`,
		st.Key, st.Value, st.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("put setting %q: %w", st.Key, err)
	}
	return nil
}

func (s *SQLite) GetSetting(key string) (*Setting, error) {
	var st Setting
	err := s.db.QueryRow(
		"SELECT key, value, updated_at FROM settings WHERE key = ?", key,
	).Scan(&st.Key, &st.Value, &st.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get setting %q: %w", key, err)
	}
	return &st, nil
}

func (s *SQLite) ListSettings() ([]Setting, error) {
	rows, err := s.db.Query("SELECT key, value, updated_at FROM settings")
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var st Setting
		if err := rows.Scan(&st.Key, &st.Value, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings = append(settings, st)
	}
	return settings, rows.Err()
}

// Counts runs all count queries inside one read transaction so the numbers
// describe a single point in time even with writes happening between calls.
func (s *SQLite) Counts() (*Counts, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin counts transaction: %w", err)
	}
	defer tx.Rollback()

	var c Counts
	queries := []struct {
		dst   *int
		query string
		args  []any
	}{
		{&c.Submissions, "SELECT COUNT(*) FROM submissions", nil},
		{&c.PendingSubmissions, "SELECT COUNT(*) FROM submissions WHERE status = ?", []any{"pending"}},
		{&c.ActivePartners, "SELECT COUNT(*) FROM partners WHERE status = ?", []any{"active"}},
		{&c.Content, "SELECT COUNT(*) FROM content", nil},
		{&c.Images, "SELECT COUNT(*) FROM images", nil},
		{&c.Subscribers, "SELECT COUNT(*) FROM subscribers WHERE active = 1", nil},
	}
	for _, q := range queries {
		if err := tx.QueryRow(q.query, q.args...).Scan(q.dst); err != nil {
			return nil, fmt.Errorf("count records: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit counts transaction: %w", err)
	}
	return &c, nil
}

func (s *SQLite) ClearAll() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin clear transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"content", "images", "partners", "submissions", "subscribers", "settings"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}
