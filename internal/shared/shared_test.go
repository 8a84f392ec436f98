package shared

import "testing"

func TestNormalizeTrackKey(t *testing.T) {
	tc := []struct {
		name   string
		artist string
		title  string
		want   string
	}{
		{
			name:   "basic normalization",
			artist: "Artist Name",
			title:  "Song Title",
			want:   "artist name|song title",
		},
		{
			name:   "extra whitespace",
			artist: "  Artist Name  ",
			title:  "  Song Title  ",
			want:   "artist name|song title",
		},
		{
			name:   "mixed case",
			artist: "ArTiSt NaMe",
			title:  "SoNg TiTlE",
			want:   "artist name|song title",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTrackKey(tt.artist, tt.title)
			if got != tt.want {
				t.Errorf("NormalizeTrackKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tc := []struct {
		seconds int
		want    string
	}{
		{0, "0:00"},
		{59, "0:59"},
		{60, "1:00"},
		{215, "3:35"},
		{-5, "0:00"},
	}

	for _, tt := range tc {
		if got := FormatDuration(tt.seconds); got != tt.want {
			t.Errorf("FormatDuration(%d) = %v, want %v", tt.seconds, got, tt.want)
		}
	}
}

func TestMemoCache(t *testing.T) {
	t.Run("get and put", func(t *testing.T) {
		c := NewMemoCache[int](4)

		if _, ok := c.Get("missing"); ok {
			t.Error("expected miss for absent key")
		}

		c.Put("a", 1)
		if v, ok := c.Get("a"); !ok || v != 1 {
			t.Errorf("Get(a) = %v, %v, want 1, true", v, ok)
		}
	})

	t.Run("evicts least recently used", func(t *testing.T) {
		c := NewMemoCache[string](2)
		c.Put("a", "1")
		c.Put("b", "2")
		c.Get("a")
		c.Put("c", "3")

		if _, ok := c.Get("b"); ok {
			t.Error("expected b to be evicted")
		}
		if _, ok := c.Get("a"); !ok {
			t.Error("expected a to survive eviction")
		}
		if c.Len() != 2 {
			t.Errorf("Len() = %d, want 2", c.Len())
		}
	})

	t.Run("non-positive size uses default", func(t *testing.T) {
		c := NewMemoCache[int](0)
		c.Put("a", 1)
		if v, ok := c.Get("a"); !ok || v != 1 {
			t.Errorf("Get(a) = %v, %v, want 1, true", v, ok)
		}
	})
}
