package pagination

import (
	"testing"
	"time"
)

func TestCursorRoundtrip(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 30, 0, 123456789, time.UTC)
	token := Encode(ts, "art_8f2c")

	cur, err := Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !cur.Before.Equal(ts) {
		t.Errorf("Before = %v, want %v", cur.Before, ts)
	}
	if cur.ID != "art_8f2c" {
		t.Errorf("ID = %q, want art_8f2c", cur.ID)
	}
}

func TestDecodeEmpty(t *testing.T) {
	cur, err := Decode("")
	if err != nil {
		t.Fatalf("Decode(\"\"): %v", err)
	}
	if cur != nil {
		t.Errorf("empty token should decode to nil, got %+v", cur)
	}
}

func TestDecodeInvalid(t *testing.T) {
	for _, token := range []string{"not-base64!", "bm8tc2VwYXJhdG9y", "bm90YW51bWJlcjppZA"} {
		if _, err := Decode(token); err == nil {
			t.Errorf("Decode(%q) should fail", token)
		}
	}
}

func TestPage(t *testing.T) {
	type item struct {
		id string
		at time.Time
	}
	base := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	key := func(it item) (time.Time, string) { return it.at, it.id }

	// Fetched limit+1: a next page exists
	items := []item{
		{"art_3", base.Add(3 * time.Minute)},
		{"art_2", base.Add(2 * time.Minute)},
		{"art_1", base.Add(1 * time.Minute)},
	}
	page, next, more := Page(items, 2, key)
	if len(page) != 2 || !more {
		t.Fatalf("page len = %d, more = %v, want 2 items and more", len(page), more)
	}
	cur, err := Decode(next)
	if err != nil {
		t.Fatalf("Decode next: %v", err)
	}
	if cur.ID != "art_2" {
		t.Errorf("next cursor ID = %q, want art_2 (last item on page)", cur.ID)
	}

	// Fewer items than the limit: final page
	page, next, more = Page(items[:1], 2, key)
	if len(page) != 1 || more || next != "" {
		t.Errorf("final page: len = %d, more = %v, next = %q", len(page), more, next)
	}
}
