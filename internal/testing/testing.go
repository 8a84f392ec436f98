// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/mixtape/internal/history"
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/shared"
)

// MockOracle is a test double for [services.SimilarityOracle]. Similarity is
// looked up from the Similar map keyed by the case-folded "artist|title" key;
// unknown keys yield an empty result, matching the real oracle.
type MockOracle struct {
	Similar map[string][]services.SimilarTrack
	Err     error
	Calls   int
}

func (m *MockOracle) SimilarTracks(ctx context.Context, artist, title string, limit int) ([]services.SimilarTrack, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	similar := m.Similar[shared.NormalizeTrackKey(artist, title)]
	if limit > 0 && len(similar) > limit {
		similar = similar[:limit]
	}
	return similar, nil
}

func (m *MockOracle) SimilarArtists(ctx context.Context, artist string, limit int) ([]services.SimilarArtist, error) {
	return nil, nil
}

func (m *MockOracle) Name() string { return "mock-oracle" }

// MockCatalog is a test double for [services.Catalog] backed by in-memory
// fixtures. Unset maps behave like an empty catalog.
type MockCatalog struct {
	Tracks      map[string]models.Track          // track id -> track
	Features    map[string]models.Features       // track id -> features
	Artists     map[string]models.Artist         // artist id -> artist
	Related     map[string][]models.Artist       // artist id -> related artists
	Albums      map[string][]services.Album      // artist id -> albums
	AlbumItems  map[string][]models.Track        // album id -> tracks
	TopTracks   map[string][]models.Track        // artist id -> top tracks
	ByGenre     map[string][]models.Track        // genre -> search results
	ByName      map[string]models.Track          // "artist|title" key -> resolved track
	Created     []services.CreatedPlaylist
	CreateError error
	Err         error
}

func (m *MockCatalog) ResolveTrack(ctx context.Context, artist, title string) (*models.Track, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if t, ok := m.ByName[shared.NormalizeTrackKey(artist, title)]; ok {
		return &t, nil
	}
	return nil, nil
}

func (m *MockCatalog) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	return nil, m.Err
}

func (m *MockCatalog) SearchTracksByGenre(ctx context.Context, genre string, limit int) ([]models.Track, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.ByGenre[genre], nil
}

func (m *MockCatalog) SeveralTracks(ctx context.Context, trackIDs []string) ([]models.Track, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	tracks := make([]models.Track, 0, len(trackIDs))
	for _, id := range trackIDs {
		if t, ok := m.Tracks[id]; ok {
			tracks = append(tracks, t)
		}
	}
	return tracks, nil
}

func (m *MockCatalog) AudioFeatures(ctx context.Context, trackIDs []string) (map[string]models.Features, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	features := make(map[string]models.Features)
	for _, id := range trackIDs {
		if f, ok := m.Features[id]; ok {
			features[id] = f
		}
	}
	return features, nil
}

func (m *MockCatalog) SeveralArtists(ctx context.Context, artistIDs []string) ([]models.Artist, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	artists := make([]models.Artist, 0, len(artistIDs))
	for _, id := range artistIDs {
		if a, ok := m.Artists[id]; ok {
			artists = append(artists, a)
		}
	}
	return artists, nil
}

func (m *MockCatalog) RelatedArtists(ctx context.Context, artistID string) ([]models.Artist, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Related[artistID], nil
}

func (m *MockCatalog) ArtistAlbums(ctx context.Context, artistID string, limit int) ([]services.Album, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	albums := m.Albums[artistID]
	if limit > 0 && len(albums) > limit {
		albums = albums[:limit]
	}
	return albums, nil
}

func (m *MockCatalog) AlbumTracks(ctx context.Context, albumID string) ([]models.Track, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.AlbumItems[albumID], nil
}

func (m *MockCatalog) ArtistTopTracks(ctx context.Context, artistID string) ([]models.Track, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.TopTracks[artistID], nil
}

func (m *MockCatalog) CreatePlaylist(ctx context.Context, name, description string, trackIDs []string) (*services.CreatedPlaylist, error) {
	if m.CreateError != nil {
		return nil, m.CreateError
	}
	created := services.CreatedPlaylist{ID: "mock-playlist", Name: name, URL: "https://example.com/mock-playlist"}
	m.Created = append(m.Created, created)
	return &created, nil
}

func (m *MockCatalog) Name() string { return "mock-catalog" }

// MockHistory is a test double for the generator's history reader.
type MockHistory struct {
	Tracks   map[string]history.TrackStats
	Activity *history.RecentActivity
	Genres   []history.GenreCount
	Err      error
}

func (m *MockHistory) AllTracksWithCounts(ctx context.Context) (map[string]history.TrackStats, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Tracks, nil
}

func (m *MockHistory) RecentActivity(ctx context.Context, days int) (*history.RecentActivity, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Activity == nil {
		return &history.RecentActivity{TrackPlays: map[string]int{}}, nil
	}
	return m.Activity, nil
}

func (m *MockHistory) TopGenres(ctx context.Context, limit int) ([]history.GenreCount, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if limit > 0 && len(m.Genres) > limit {
		return m.Genres[:limit], nil
	}
	return m.Genres, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// FloatPtr returns a pointer to v, for building feature fixtures.
func FloatPtr(v float64) *float64 { return &v }

// IntPtr returns a pointer to v, for popularity fixtures.
func IntPtr(v int) *int { return &v }
