package history

import (
	"fmt"
	"strings"

	"github.com/desertthunder/mixtape/internal/models"
)

// FromVibeResult converts a generated vibe playlist into its persistable form.
// An empty description is derived from the profile's top genres.
func FromVibeResult(name, description string, r *models.VibeResult) SavedPlaylist {
	if description == "" && len(r.Profile.TopGenres) > 0 {
		description = fmt.Sprintf("%d tracks around %s", len(r.Tracks), strings.Join(r.Profile.TopGenres, ", "))
	}

	tracks := make([]SavedTrack, 0, len(r.Tracks))
	for i, pt := range r.Tracks {
		score := pt.Scores.Total
		tracks = append(tracks, SavedTrack{
			Position: i + 1,
			TrackID:  pt.Track.ID,
			Title:    pt.Track.Title,
			Artist:   pt.Track.PrimaryArtist(),
			Source:   pt.Provenance.String(),
			Reason:   pt.Reason,
			Score:    &score,
		})
	}

	return SavedPlaylist{
		Name:        name,
		Description: description,
		Mode:        "vibe",
		Tracks:      tracks,
	}
}

// FromBridgeResult converts a generated bridge playlist into its persistable
// form. Bridge entries carry no coherence score; the similarity note lands in
// the reason column.
func FromBridgeResult(name string, r *models.BridgeResult) SavedPlaylist {
	tracks := make([]SavedTrack, 0, len(r.Tracks))
	for i, pt := range r.Tracks {
		tracks = append(tracks, SavedTrack{
			Position: i + 1,
			TrackID:  pt.Track.ID,
			Title:    pt.Track.Title,
			Artist:   pt.Track.PrimaryArtist(),
			Source:   string(pt.Role),
			Reason:   pt.Note,
		})
	}

	description := ""
	if len(r.Tracks) > 1 {
		first, last := r.Tracks[0].Track, r.Tracks[len(r.Tracks)-1].Track
		description = fmt.Sprintf("bridge from %s - %s to %s - %s",
			first.PrimaryArtist(), first.Title, last.PrimaryArtist(), last.Title)
	}

	return SavedPlaylist{
		Name:        name,
		Description: description,
		Mode:        "bridge",
		Tracks:      tracks,
	}
}
