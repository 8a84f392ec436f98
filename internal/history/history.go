// package history aggregates the local listening history database
package history

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"
)

// TrackStats summarizes every recorded play of one track.
type TrackStats struct {
	TrackID     string
	Title       string
	Artist      string
	Genres      []string
	PlayCount   int
	FirstPlayed time.Time
	LastPlayed  time.Time
}

// ArtistCount pairs an artist name with a play count.
type ArtistCount struct {
	Artist    string
	PlayCount int
}

// GenreCount pairs a genre with a play count.
type GenreCount struct {
	Genre     string
	PlayCount int
}

// RecentActivity summarizes plays within a recency window.
type RecentActivity struct {
	Artists    []ArtistCount
	Tracks     []TrackStats
	Genres     []GenreCount
	TrackPlays map[string]int // track id -> plays in window
	TotalPlays int
}

// Store provides read-only aggregation over the plays table plus persistence
// for generated playlists. Safe for concurrent use; all mutation is in sqlite.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store over an open database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// parsePlayedAt parses the collector's timestamp format, tolerating both
// RFC3339 and bare ISO 8601 without zone.
func parsePlayedAt(s string) (time.Time, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "Z")
	s = strings.TrimSuffix(s, "+00:00")
	for _, layout := range []string{"2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// splitGenres splits the collector's comma-separated genre column into a
// lowercased list.
func splitGenres(s string) []string {
	if s == "" {
		return nil
	}
	var genres []string
	for _, g := range strings.Split(s, ",") {
		g = strings.ToLower(strings.TrimSpace(g))
		if g != "" {
			genres = append(genres, g)
		}
	}
	return genres
}

// AllTracksWithCounts returns every track in the history keyed by track id,
// with play counts, first/last played timestamps, and genres.
func (s *Store) AllTracksWithCounts(ctx context.Context) (map[string]TrackStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT track_id, track, artist, COUNT(*), MIN(played_at), MAX(played_at), MAX(genre)
		FROM plays
		WHERE track_id IS NOT NULL AND track_id != ''
		GROUP BY track_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query plays: %w", err)
	}
	defer rows.Close()

	tracks := make(map[string]TrackStats)
	for rows.Next() {
		var ts TrackStats
		var first, last, genre string
		if err := rows.Scan(&ts.TrackID, &ts.Title, &ts.Artist, &ts.PlayCount, &first, &last, &genre); err != nil {
			return nil, fmt.Errorf("failed to scan play row: %w", err)
		}
		if t, ok := parsePlayedAt(first); ok {
			ts.FirstPlayed = t
		}
		if t, ok := parsePlayedAt(last); ok {
			ts.LastPlayed = t
		}
		ts.Genres = splitGenres(genre)
		tracks[ts.TrackID] = ts
	}

	return tracks, rows.Err()
}

// RecentActivity aggregates artist, track, and genre play counts over the
// last N days. Artist counts use the primary (first-listed) artist.
func (s *Store) RecentActivity(ctx context.Context, days int) (*RecentActivity, error) {
	if days <= 0 {
		days = 30
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format("2006-01-02T15:04:05")

	rows, err := s.db.QueryContext(ctx, `
		SELECT track_id, track, artist, genre FROM plays WHERE played_at > ?`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent plays: %w", err)
	}
	defer rows.Close()

	artists := make(map[string]int)
	genres := make(map[string]int)
	tracks := make(map[string]*TrackStats)
	total := 0

	for rows.Next() {
		var trackID sql.NullString
		var title, artist, genre string
		if err := rows.Scan(&trackID, &title, &artist, &genre); err != nil {
			return nil, fmt.Errorf("failed to scan recent play: %w", err)
		}

		total++

		primary := strings.TrimSpace(strings.SplitN(artist, ",", 2)[0])
		if primary != "" {
			artists[primary]++
		}

		if trackID.Valid && trackID.String != "" {
			ts, ok := tracks[trackID.String]
			if !ok {
				ts = &TrackStats{TrackID: trackID.String, Title: title, Artist: artist}
				tracks[trackID.String] = ts
			}
			ts.PlayCount++
		}

		for _, g := range splitGenres(genre) {
			genres[g]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	activity := &RecentActivity{
		TrackPlays: make(map[string]int, len(tracks)),
		TotalPlays: total,
	}

	for name, count := range artists {
		activity.Artists = append(activity.Artists, ArtistCount{Artist: name, PlayCount: count})
	}
	sort.Slice(activity.Artists, func(i, j int) bool {
		return activity.Artists[i].PlayCount > activity.Artists[j].PlayCount
	})

	for _, ts := range tracks {
		activity.Tracks = append(activity.Tracks, *ts)
		activity.TrackPlays[ts.TrackID] = ts.PlayCount
	}
	sort.Slice(activity.Tracks, func(i, j int) bool {
		return activity.Tracks[i].PlayCount > activity.Tracks[j].PlayCount
	})

	for g, count := range genres {
		activity.Genres = append(activity.Genres, GenreCount{Genre: g, PlayCount: count})
	}
	sort.Slice(activity.Genres, func(i, j int) bool {
		return activity.Genres[i].PlayCount > activity.Genres[j].PlayCount
	})

	return activity, nil
}

// TopArtists returns the most played artists across the whole history.
func (s *Store) TopArtists(ctx context.Context, limit int) ([]ArtistCount, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT artist, COUNT(*) AS plays FROM plays
		GROUP BY artist ORDER BY plays DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top artists: %w", err)
	}
	defer rows.Close()

	var artists []ArtistCount
	for rows.Next() {
		var ac ArtistCount
		if err := rows.Scan(&ac.Artist, &ac.PlayCount); err != nil {
			return nil, fmt.Errorf("failed to scan artist row: %w", err)
		}
		artists = append(artists, ac)
	}

	return artists, rows.Err()
}

// TopGenres returns the most played genres across the whole history.
// Genre strings are split per play, so multi-genre plays count once per genre.
func (s *Store) TopGenres(ctx context.Context, limit int) ([]GenreCount, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `SELECT genre FROM plays WHERE genre != ''`)
	if err != nil {
		return nil, fmt.Errorf("failed to query genres: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var genre string
		if err := rows.Scan(&genre); err != nil {
			return nil, fmt.Errorf("failed to scan genre row: %w", err)
		}
		for _, g := range splitGenres(genre) {
			counts[g]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	genres := make([]GenreCount, 0, len(counts))
	for g, c := range counts {
		genres = append(genres, GenreCount{Genre: g, PlayCount: c})
	}
	sort.Slice(genres, func(i, j int) bool {
		if genres[i].PlayCount != genres[j].PlayCount {
			return genres[i].PlayCount > genres[j].PlayCount
		}
		return genres[i].Genre < genres[j].Genre
	})

	if len(genres) > limit {
		genres = genres[:limit]
	}
	return genres, nil
}

// KnownArtists returns the lowercased set of every artist in the history,
// used to filter discovery candidates down to genuinely new artists.
func (s *Store) KnownArtists(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT artist FROM plays`)
	if err != nil {
		return nil, fmt.Errorf("failed to query artists: %w", err)
	}
	defer rows.Close()

	known := make(map[string]struct{})
	for rows.Next() {
		var artist string
		if err := rows.Scan(&artist); err != nil {
			return nil, fmt.Errorf("failed to scan artist: %w", err)
		}
		for _, name := range strings.Split(artist, ",") {
			name = strings.ToLower(strings.TrimSpace(name))
			if name != "" {
				known[name] = struct{}{}
			}
		}
	}

	return known, rows.Err()
}
