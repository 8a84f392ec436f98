package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/mixtape/internal/shared"
)

// SavedTrack is one positioned entry of a saved playlist.
type SavedTrack struct {
	Position int
	TrackID  string
	Title    string
	Artist   string
	Source   string
	Reason   string
	Score    *float64
}

// SavedPlaylist is a locally persisted generated playlist.
type SavedPlaylist struct {
	ID          string
	Name        string
	Description string
	Mode        string
	CreatedAt   time.Time
	Tracks      []SavedTrack
}

// SavePlaylist persists a playlist and its tracks in one transaction. A zero
// ID is assigned; the assigned ID is returned.
func (s *Store) SavePlaylist(ctx context.Context, p SavedPlaylist) (string, error) {
	if p.ID == "" {
		p.ID = shared.GenerateID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO playlists (id, name, description, mode, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Mode, p.CreatedAt.Format("2006-01-02T15:04:05"))
	if err != nil {
		return "", fmt.Errorf("failed to insert playlist: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO playlist_tracks (playlist_id, position, track_id, title, artist, source, reason, score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare track insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range p.Tracks {
		var score sql.NullFloat64
		if t.Score != nil {
			score = sql.NullFloat64{Float64: *t.Score, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, p.ID, t.Position, t.TrackID, t.Title, t.Artist, t.Source, t.Reason, score); err != nil {
			return "", fmt.Errorf("failed to insert playlist track: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit playlist: %w", err)
	}

	return p.ID, nil
}

// Playlists lists saved playlists, newest first, without their tracks.
func (s *Store) Playlists(ctx context.Context, limit int) ([]SavedPlaylist, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, mode, created_at
		FROM playlists ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []SavedPlaylist
	for rows.Next() {
		var p SavedPlaylist
		var created string
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Mode, &created); err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		if t, ok := parsePlayedAt(created); ok {
			p.CreatedAt = t
		}
		playlists = append(playlists, p)
	}

	return playlists, rows.Err()
}

// PlaylistTracks returns the tracks of a saved playlist in position order.
func (s *Store) PlaylistTracks(ctx context.Context, playlistID string) ([]SavedTrack, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT position, track_id, title, artist, source, reason, score
		FROM playlist_tracks WHERE playlist_id = ? ORDER BY position`, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist tracks: %w", err)
	}
	defer rows.Close()

	var tracks []SavedTrack
	for rows.Next() {
		var t SavedTrack
		var score sql.NullFloat64
		if err := rows.Scan(&t.Position, &t.TrackID, &t.Title, &t.Artist, &t.Source, &t.Reason, &score); err != nil {
			return nil, fmt.Errorf("failed to scan playlist track: %w", err)
		}
		if score.Valid {
			v := score.Float64
			t.Score = &v
		}
		tracks = append(tracks, t)
	}

	return tracks, rows.Err()
}
