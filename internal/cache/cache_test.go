package cache

import "testing"

func TestSetGetDelete(t *testing.T) {
	c := New()

	if _, ok := c.Get(ContentKey("hero-title")); ok {
		t.Fatalf("empty cache returned a hit")
	}

	c.Set(ContentKey("hero-title"), "Welcome")
	if v, ok := c.Get(ContentKey("hero-title")); !ok || v != "Welcome" {
		t.Errorf("Get = %q, %v", v, ok)
	}

	c.Delete(ContentKey("hero-title"))
	if _, ok := c.Get(ContentKey("hero-title")); ok {
		t.Errorf("entry survived Delete")
	}
}

func TestPurgePrefix(t *testing.T) {
	c := New()
	c.Set(ContentKey("hero-title"), "a")
	c.Set(ContentKey("mission-text"), "b")
	c.Set(ImageKey("hero-bg"), "c")
	c.Set("unrelated_key", "d")

	// Image keys share the content namespace prefix, so a namespace purge
	// takes both.
	n := c.PurgePrefix(Namespace)
	if n != 3 {
		t.Errorf("purged %d entries, want 3", n)
	}
	if _, ok := c.Get("unrelated_key"); !ok {
		t.Errorf("purge removed a key outside the prefix")
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestKeyNamespaces(t *testing.T) {
	if ContentKey("x") == ImageKey("x") {
		t.Errorf("content and image keys collide for the same id")
	}
}
