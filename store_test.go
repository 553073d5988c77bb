package oceans

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(StoreConfig{
		DatabasePath: filepath.Join(dir, "store.db"),
		FallbackPath: filepath.Join(dir, "store.fallback.json"),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestContentRoundTrip(t *testing.T) {
	s := newTestStore(t)

	item, err := s.PutContent("hero-title", "Welcome", "text")
	if err != nil {
		t.Fatalf("PutContent: %v", err)
	}
	if item.Version != 1 {
		t.Errorf("first write version = %d, want 1", item.Version)
	}

	got, ok, err := s.GetContent("hero-title")
	if err != nil {
		t.Fatalf("GetContent: %v", err)
	}
	if !ok || got != "Welcome" {
		t.Errorf("GetContent = %q, %v; want %q, true", got, ok, "Welcome")
	}
}

func TestContentVersionIncrementsOnIdenticalWrite(t *testing.T) {
	s := newTestStore(t)

	for i := 1; i <= 3; i++ {
		item, err := s.PutContent("mission-text", "same value", "text")
		if err != nil {
			t.Fatalf("PutContent %d: %v", i, err)
		}
		if item.Version != int64(i) {
			t.Errorf("write %d version = %d, want %d", i, item.Version, i)
		}
	}
}

func TestContentMissingKey(t *testing.T) {
	s := newTestStore(t)

	got, ok, err := s.GetContent("no-such-key")
	if err != nil {
		t.Fatalf("GetContent: %v", err)
	}
	if ok || got != "" {
		t.Errorf("GetContent = %q, %v; want empty, false", got, ok)
	}
}

func TestContentValidation(t *testing.T) {
	s := newTestStore(t)

	var verr *ValidationError
	if _, err := s.PutContent("", "value", "text"); !errors.As(err, &verr) {
		t.Errorf("empty key: got %v, want ValidationError", err)
	}
	if _, err := s.PutContent("key", "value", "markdown"); !errors.As(err, &verr) {
		t.Errorf("bad type: got %v, want ValidationError", err)
	}
}

func TestHTMLContentSanitized(t *testing.T) {
	s := newTestStore(t)

	item, err := s.PutContent("hero-title", `Hello<script>alert(1)</script> <b>there</b>`, "html")
	if err != nil {
		t.Fatalf("PutContent: %v", err)
	}
	if strings.Contains(item.Value, "<script") {
		t.Errorf("stored value kept script tag: %q", item.Value)
	}
	if !strings.Contains(item.Value, "<b>there</b>") {
		t.Errorf("stored value lost safe markup: %q", item.Value)
	}
}

func TestContentObserver(t *testing.T) {
	s := newTestStore(t)

	var gotKey, gotValue string
	calls := 0
	cancel := s.OnContentChange("hero-", func(key, value string) {
		calls++
		gotKey, gotValue = key, value
	})

	if _, err := s.PutContent("mission-text", "no match", "text"); err != nil {
		t.Fatalf("PutContent: %v", err)
	}
	if calls != 0 {
		t.Fatalf("observer fired for non-matching prefix")
	}

	if _, err := s.PutContent("hero-subtitle", "matched", "text"); err != nil {
		t.Fatalf("PutContent: %v", err)
	}
	if calls != 1 || gotKey != "hero-subtitle" || gotValue != "matched" {
		t.Errorf("observer got (%q, %q) after %d calls", gotKey, gotValue, calls)
	}

	cancel()
	if _, err := s.PutContent("hero-subtitle", "again", "text"); err != nil {
		t.Fatalf("PutContent: %v", err)
	}
	if calls != 1 {
		t.Errorf("observer fired after cancel")
	}
}

func TestImageDataURI(t *testing.T) {
	s := newTestStore(t)

	payload := "data:image/png;base64,iVBORw0KGgo="
	asset, err := s.PutImage("hero-bg", payload, "backgrounds")
	if err != nil {
		t.Fatalf("PutImage: %v", err)
	}
	if asset.Format != "png" {
		t.Errorf("format = %q, want png", asset.Format)
	}
	if asset.SizeBytes != int64(len(payload)) {
		t.Errorf("size = %d, want %d", asset.SizeBytes, len(payload))
	}

	got, ok, err := s.GetImage("hero-bg")
	if err != nil || !ok || got != payload {
		t.Errorf("GetImage = %q, %v, %v", got, ok, err)
	}
}

func TestImageExternalURL(t *testing.T) {
	s := newTestStore(t)

	asset, err := s.PutImage("partner-logo", "https://example.org/logo.svg", "")
	if err != nil {
		t.Fatalf("PutImage: %v", err)
	}
	if asset.Format != "url" {
		t.Errorf("format = %q, want url", asset.Format)
	}
	if asset.SizeBytes != 0 {
		t.Errorf("size = %d, want 0 for external URL", asset.SizeBytes)
	}
	if asset.Category != "general" {
		t.Errorf("category = %q, want general", asset.Category)
	}
}

func TestImageOverwrite(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.PutImage("hero-bg", "data:image/png;base64,AAAA", ""); err != nil {
		t.Fatalf("first PutImage: %v", err)
	}
	if _, err := s.PutImage("hero-bg", "data:image/jpeg;base64,BBBB", ""); err != nil {
		t.Fatalf("second PutImage: %v", err)
	}

	got, ok, err := s.GetImage("hero-bg")
	if err != nil || !ok {
		t.Fatalf("GetImage: %q, %v, %v", got, ok, err)
	}
	if got != "data:image/jpeg;base64,BBBB" {
		t.Errorf("GetImage returned stale payload %q", got)
	}

	assets, err := s.ListImages("")
	if err != nil {
		t.Fatalf("ListImages: %v", err)
	}
	if len(assets) != 1 {
		t.Errorf("ListImages returned %d assets, want 1", len(assets))
	}
}

func TestSubmissionsNewestFirst(t *testing.T) {
	s := newTestStore(t)

	var ids []int64
	for i := 0; i < 3; i++ {
		sub, err := s.AddSubmission(map[string]string{"name": fmt.Sprintf("visitor %d", i)})
		if err != nil {
			t.Fatalf("AddSubmission: %v", err)
		}
		ids = append(ids, sub.ID)
	}

	// IDs are strictly increasing even within one millisecond.
	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			t.Fatalf("ids not strictly increasing: %v", ids)
		}
	}

	subs, err := s.ListSubmissions("", 0)
	if err != nil {
		t.Fatalf("ListSubmissions: %v", err)
	}
	if len(subs) != 3 {
		t.Fatalf("got %d submissions, want 3", len(subs))
	}
	if subs[0].ID != ids[2] || subs[2].ID != ids[0] {
		t.Errorf("submissions not newest first: %d, %d, %d", subs[0].ID, subs[1].ID, subs[2].ID)
	}
	if subs[0].Status != StatusPending || subs[0].Read {
		t.Errorf("new submission state = %q read=%v, want pending unread", subs[0].Status, subs[0].Read)
	}
}

func TestSubmissionStatusFilterAndLimit(t *testing.T) {
	s := newTestStore(t)

	var ids []int64
	for i := 0; i < 4; i++ {
		sub, err := s.AddSubmission(map[string]string{"n": fmt.Sprint(i)})
		if err != nil {
			t.Fatalf("AddSubmission: %v", err)
		}
		ids = append(ids, sub.ID)
	}
	if _, err := s.UpdateSubmissionStatus(ids[0], StatusReviewed); err != nil {
		t.Fatalf("UpdateSubmissionStatus: %v", err)
	}
	if _, err := s.UpdateSubmissionStatus(ids[1], StatusReviewed); err != nil {
		t.Fatalf("UpdateSubmissionStatus: %v", err)
	}

	reviewed, err := s.ListSubmissions(StatusReviewed, 0)
	if err != nil {
		t.Fatalf("ListSubmissions reviewed: %v", err)
	}
	if len(reviewed) != 2 {
		t.Errorf("reviewed count = %d, want 2", len(reviewed))
	}
	for _, sub := range reviewed {
		if sub.Status != StatusReviewed {
			t.Errorf("filter leaked status %q", sub.Status)
		}
		if sub.UpdatedAt == nil {
			t.Errorf("submission %d missing update timestamp", sub.ID)
		}
	}

	limited, err := s.ListSubmissions("", 2)
	if err != nil {
		t.Fatalf("ListSubmissions limited: %v", err)
	}
	if len(limited) != 2 || limited[0].ID != ids[3] {
		t.Errorf("limit 2 returned %d items, first %d", len(limited), limited[0].ID)
	}
}

func TestSubmissionUpdateMissing(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.UpdateSubmissionStatus(12345, StatusReviewed); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateSubmissionStatus on missing id: got %v, want ErrNotFound", err)
	}
	if _, err := s.MarkSubmissionRead(12345); !errors.Is(err, ErrNotFound) {
		t.Errorf("MarkSubmissionRead on missing id: got %v, want ErrNotFound", err)
	}

	var verr *ValidationError
	if _, err := s.UpdateSubmissionStatus(12345, "bogus"); !errors.As(err, &verr) {
		t.Errorf("bad status: got %v, want ValidationError", err)
	}
}

func TestMarkSubmissionRead(t *testing.T) {
	s := newTestStore(t)

	sub, err := s.AddSubmission(map[string]string{"name": "visitor"})
	if err != nil {
		t.Fatalf("AddSubmission: %v", err)
	}
	updated, err := s.MarkSubmissionRead(sub.ID)
	if err != nil {
		t.Fatalf("MarkSubmissionRead: %v", err)
	}
	if !updated.Read {
		t.Errorf("submission still unread after MarkSubmissionRead")
	}
	if updated.Status != StatusPending {
		t.Errorf("read flag changed status to %q", updated.Status)
	}
}

type recordingNotifier struct {
	ids []int64
	err error
}

func (n *recordingNotifier) NotifySubmission(id int64, fields map[string]string, at time.Time) error {
	n.ids = append(n.ids, id)
	return n.err
}

func TestSubmissionNotifier(t *testing.T) {
	dir := t.TempDir()
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	s, err := Open(StoreConfig{
		DatabasePath: filepath.Join(dir, "store.db"),
		FallbackPath: filepath.Join(dir, "store.fallback.json"),
		Notifier:     notifier,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	// Notifier failure must not fail the write.
	sub, err := s.AddSubmission(map[string]string{"name": "visitor"})
	if err != nil {
		t.Fatalf("AddSubmission: %v", err)
	}
	if len(notifier.ids) != 1 || notifier.ids[0] != sub.ID {
		t.Errorf("notifier saw %v, want [%d]", notifier.ids, sub.ID)
	}
}

func TestPartners(t *testing.T) {
	s := newTestStore(t)

	p, err := s.UpsertPartner(Partner{Name: "Blue Reef Labs", Website: "https://bluereef.example"})
	if err != nil {
		t.Fatalf("UpsertPartner: %v", err)
	}
	if p.ID == "" || p.Status != PartnerActive {
		t.Errorf("defaults not applied: id=%q status=%q", p.ID, p.Status)
	}

	if _, err := s.UpsertPartner(Partner{ID: "p2", Name: "Tide Watch", Status: PartnerInactive}); err != nil {
		t.Fatalf("UpsertPartner inactive: %v", err)
	}

	active, err := s.ListPartners("")
	if err != nil {
		t.Fatalf("ListPartners: %v", err)
	}
	if len(active) != 1 || active[0].Name != "Blue Reef Labs" {
		t.Errorf("default listing = %+v, want only the active partner", active)
	}

	all, err := s.ListPartners("all")
	if err != nil {
		t.Fatalf("ListPartners all: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("all listing = %d partners, want 2", len(all))
	}

	var verr *ValidationError
	if _, err := s.UpsertPartner(Partner{Name: ""}); !errors.As(err, &verr) {
		t.Errorf("empty name: got %v, want ValidationError", err)
	}
}

func TestSubscribeLifecycle(t *testing.T) {
	s := newTestStore(t)

	sub, err := s.Subscribe("  Diver@Example.ORG ")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if sub.Email != "diver@example.org" {
		t.Errorf("email not normalized: %q", sub.Email)
	}

	// Subscribing again is a no-op.
	again, err := s.Subscribe("diver@example.org")
	if err != nil {
		t.Fatalf("re-Subscribe: %v", err)
	}
	if !again.SubscribedAt.Equal(sub.SubscribedAt) {
		t.Errorf("re-subscribe replaced the record")
	}

	if err := s.Unsubscribe("diver@example.org"); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	activeSubs, err := s.ListSubscribers(true)
	if err != nil {
		t.Fatalf("ListSubscribers: %v", err)
	}
	if len(activeSubs) != 0 {
		t.Errorf("active listing after unsubscribe = %d, want 0", len(activeSubs))
	}
	allSubs, err := s.ListSubscribers(false)
	if err != nil {
		t.Fatalf("ListSubscribers all: %v", err)
	}
	if len(allSubs) != 1 || allSubs[0].Active {
		t.Errorf("record not retained inactive: %+v", allSubs)
	}

	// Resubscribing reactivates.
	re, err := s.Subscribe("diver@example.org")
	if err != nil {
		t.Fatalf("resubscribe: %v", err)
	}
	if !re.Active {
		t.Errorf("resubscribe left record inactive")
	}

	if err := s.Unsubscribe("ghost@example.org"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Unsubscribe unknown: got %v, want ErrNotFound", err)
	}
	var verr *ValidationError
	if _, err := s.Subscribe("not-an-email"); !errors.As(err, &verr) {
		t.Errorf("bad email: got %v, want ValidationError", err)
	}
}

func TestSettings(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.SetSetting("wallet.address", "0xabc123"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	got, ok, err := s.GetSetting("wallet.address")
	if err != nil || !ok || got != "0xabc123" {
		t.Errorf("GetSetting = %q, %v, %v", got, ok, err)
	}

	if _, ok, _ := s.GetSetting("missing"); ok {
		t.Errorf("GetSetting found a missing key")
	}

	all, err := s.ListSettings()
	if err != nil {
		t.Fatalf("ListSettings: %v", err)
	}
	if _, present := all["wallet.address"]; !present {
		t.Errorf("ListSettings missing stored key")
	}
}

func TestStatistics(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.PutContent("hero-title", "x", "text"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddSubmission(map[string]string{"n": "1"}); err != nil {
		t.Fatal(err)
	}
	sub, err := s.AddSubmission(map[string]string{"n": "2"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.UpdateSubmissionStatus(sub.ID, StatusArchived); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Subscribe("a@example.org"); err != nil {
		t.Fatal(err)
	}

	stats, err := s.Statistics()
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if stats.ContentItems != 1 || stats.Submissions != 2 || stats.PendingSubmissions != 1 || stats.Subscribers != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestSnapshotExportImport(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.PutContent("hero-title", "Original", "text"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.PutImage("hero-bg", "data:image/png;base64,AAAA", "backgrounds"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.UpsertPartner(Partner{ID: "p1", Name: "Blue Reef Labs"}); err != nil {
		t.Fatal(err)
	}
	orig, err := s.AddSubmission(map[string]string{"name": "visitor"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Subscribe("diver@example.org"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SetSetting("wallet.network", "mainnet"); err != nil {
		t.Fatal(err)
	}

	snap, err := s.ExportSnapshot()
	if err != nil {
		t.Fatalf("ExportSnapshot: %v", err)
	}
	if snap.Metadata.ID == "" {
		t.Errorf("snapshot missing id")
	}

	if err := s.ClearAll(); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if _, ok, _ := s.GetContent("hero-title"); ok {
		t.Fatalf("content survived ClearAll")
	}
	stats, _ := s.Statistics()
	if stats.Submissions != 0 || stats.Images != 0 {
		t.Fatalf("stats nonzero after clear: %+v", stats)
	}

	if err := s.ImportSnapshot(snap); err != nil {
		t.Fatalf("ImportSnapshot: %v", err)
	}

	got, ok, err := s.GetContent("hero-title")
	if err != nil || !ok || got != "Original" {
		t.Errorf("content after import = %q, %v, %v", got, ok, err)
	}
	img, ok, _ := s.GetImage("hero-bg")
	if !ok || img != "data:image/png;base64,AAAA" {
		t.Errorf("image after import = %q, %v", img, ok)
	}
	subs, _ := s.ListSubmissions("", 0)
	if len(subs) != 1 || subs[0].ID != orig.ID {
		t.Errorf("submissions after import = %+v", subs)
	}
	partners, _ := s.ListPartners("all")
	if len(partners) != 1 {
		t.Errorf("partners after import = %d", len(partners))
	}
	val, ok, _ := s.GetSetting("wallet.network")
	if !ok || val != "mainnet" {
		t.Errorf("setting after import = %q, %v", val, ok)
	}
}

func TestImportRejectsBadSnapshot(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.PutContent("hero-title", "keep me", "text"); err != nil {
		t.Fatal(err)
	}

	var verr *ValidationError
	if err := s.ImportSnapshot(nil); !errors.As(err, &verr) {
		t.Errorf("nil snapshot: got %v, want ValidationError", err)
	}

	snap, err := s.ExportSnapshot()
	if err != nil {
		t.Fatal(err)
	}
	snap.Metadata.SchemaVersion++
	if err := s.ImportSnapshot(snap); !errors.As(err, &verr) {
		t.Errorf("version mismatch: got %v, want ValidationError", err)
	}

	// Rejected imports must not touch existing data.
	got, ok, _ := s.GetContent("hero-title")
	if !ok || got != "keep me" {
		t.Errorf("rejected import destroyed data: %q, %v", got, ok)
	}
}

func TestSeedDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg := StoreConfig{
		DatabasePath: filepath.Join(dir, "store.db"),
		FallbackPath: filepath.Join(dir, "store.fallback.json"),
		SeedDefaults: true,
	}
	s, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	got, ok, err := s.GetContent("company-email")
	if err != nil || !ok || got == "" {
		t.Fatalf("seeded content missing: %q, %v, %v", got, ok, err)
	}

	// Seeding never clobbers existing content.
	if _, err := s.PutContent("company-email", "edited@oceantracers.net", "text"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, _, _ = s.GetContent("company-email")
	if got != "edited@oceantracers.net" {
		t.Errorf("reopen reseeded over edits: %q", got)
	}
}

func TestFallbackBackend(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(StoreConfig{
		// An uncreatable database path forces the flat-store tier.
		DatabasePath: filepath.Join(dir, "missing", "nested", "store.db"),
		FallbackPath: filepath.Join(dir, "store.fallback.json"),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if s.BackendKind() != "flatmap" {
		t.Fatalf("backend = %q, want flatmap", s.BackendKind())
	}

	if _, err := s.PutContent("hero-title", "flat", "text"); err != nil {
		t.Fatalf("PutContent: %v", err)
	}
	got, ok, err := s.GetContent("hero-title")
	if err != nil || !ok || got != "flat" {
		t.Errorf("GetContent = %q, %v, %v", got, ok, err)
	}
	if _, err := s.AddSubmission(map[string]string{"name": "visitor"}); err != nil {
		t.Fatalf("AddSubmission: %v", err)
	}
	stats, err := s.Statistics()
	if err != nil || stats.Submissions != 1 {
		t.Errorf("stats = %+v, %v", stats, err)
	}
}
