package texture

import (
	"strings"
	"testing"
)

func ptr(s string) *string { return &s }

func TestWrapMatchesKodiEncoding(t *testing.T) {
	cases := map[string]string{
		"/movies/Alien (1979)/poster.jpg":   "image://%2Fmovies%2FAlien%20%281979%29%2Fposter.jpg/",
		`C:\Movies\Alien\fanart.jpg`:        "image://C%3A%5CMovies%5CAlien%5Cfanart.jpg/",
		"smb://nas/media/a+b~c_d-e.f/x.png": "image://smb%3A%2F%2Fnas%2Fmedia%2Fa%2Bb~c_d-e.f%2Fx.png/",
		"/music/Björk/folder.jpg":           "image://%2Fmusic%2FBj%C3%B6rk%2Ffolder.jpg/",
	}
	for ref, want := range cases {
		if got := Wrap(ref); got != want {
			t.Fatalf("Wrap(%q) = %q, want %q", ref, got, want)
		}
	}
}

func TestMatchRawAndWrappedForms(t *testing.T) {
	m := NewMatcher([]Row{
		{ID: 1, URL: "/movies/Alien/poster.jpg"},
		{ID: 2, URL: Wrap("/movies/Alien/fanart.jpg"), LastHashCheck: ptr("2024-01-01 00:00:00")},
	}, nil)

	row, ok := m.Match("/movies/Alien/poster.jpg")
	if !ok || row.ID != 1 {
		t.Fatalf("expected raw reference to match row 1, got %#v %v", row, ok)
	}
	row, ok = m.Match("/movies/Alien/fanart.jpg")
	if !ok || row.ID != 2 || *row.LastHashCheck != "2024-01-01 00:00:00" {
		t.Fatalf("expected wrapped reference to match row 2, got %#v %v", row, ok)
	}
	if _, ok := m.Match("/movies/Alien/banner.jpg"); ok {
		t.Fatalf("expected uncached reference to miss")
	}
	if _, ok := m.Match("/movies/alien/poster.jpg"); ok {
		t.Fatalf("expected matching to be case sensitive")
	}
	if m.Len() != 2 {
		t.Fatalf("expected 2 indexed rows, got %d", m.Len())
	}
}

func TestMatchPrefersRawForm(t *testing.T) {
	ref := "/tv/Firefly/poster.jpg"
	m := NewMatcher([]Row{{ID: 9, URL: Wrap(ref)}, {ID: 4, URL: ref}}, nil)
	if row, _ := m.Match(ref); row.ID != 4 {
		t.Fatalf("expected raw row to win, got %d", row.ID)
	}
}

func TestMatchDuplicateURLKeepsLowestID(t *testing.T) {
	m := NewMatcher([]Row{{ID: 8, URL: "/a.jpg"}, {ID: 3, URL: "/a.jpg"}, {ID: 5, URL: "/a.jpg"}}, nil)
	if row, _ := m.Match("/a.jpg"); row.ID != 3 {
		t.Fatalf("expected lowest id to win, got %d", row.ID)
	}
}

func TestMatchWithNormalizer(t *testing.T) {
	m := NewMatcher([]Row{{ID: 1, URL: "/MOVIES/ALIEN/POSTER.JPG"}}, strings.ToLower)
	if _, ok := m.Match("/movies/Alien/poster.jpg"); !ok {
		t.Fatalf("expected case folding normalizer to match")
	}
}

func TestPinned(t *testing.T) {
	if (Row{}).Pinned() {
		t.Fatalf("expected NULL lasthashcheck not to be pinned")
	}
	if (Row{LastHashCheck: ptr("2024-01-01 00:00:00")}).Pinned() {
		t.Fatalf("expected an earlier value not to be pinned")
	}
	if !(Row{LastHashCheck: ptr(Sentinel)}).Pinned() {
		t.Fatalf("expected sentinel row to be pinned")
	}
	if !(Row{LastHashCheck: ptr("2100-01-01 00:00:00")}).Pinned() {
		t.Fatalf("expected a later value to be pinned")
	}
}

func TestTargetNeverLowers(t *testing.T) {
	cases := []struct {
		old  *string
		want string
	}{
		{nil, Sentinel},
		{ptr("2024-01-01 00:00:00"), Sentinel},
		{ptr(Sentinel), Sentinel},
		{ptr("2100-01-01 00:00:00"), "2100-01-01 00:00:00"},
	}
	for _, tc := range cases {
		if got := (Row{LastHashCheck: tc.old}).Target(); got != tc.want {
			t.Fatalf("Target(%v) = %q, want %q", tc.old, got, tc.want)
		}
	}
}

func TestMatchPrefersRawFormWhenBothCached(t *testing.T) {
	ref := "/movies/Alien/poster.jpg"
	m := NewMatcher([]Row{{ID: 5, URL: Wrap(ref)}, {ID: 7, URL: ref}}, nil)
	row, ok := m.Match(ref)
	if !ok || row.ID != 7 {
		t.Fatalf("expected raw row 7, got %#v %v", row, ok)
	}
}
