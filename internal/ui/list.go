package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/mixtape/internal/history"
	"github.com/desertthunder/mixtape/internal/models"
)

var (
	_ list.Item = savedPlaylistItem{}
	_ list.Item = savedTrackItem{}
	_ list.Item = resultTrackItem{}
)

// savedPlaylistItem wraps [history.SavedPlaylist] to implement [list.Item].
type savedPlaylistItem struct {
	playlist history.SavedPlaylist
}

func (i savedPlaylistItem) FilterValue() string { return i.playlist.Name }
func (i savedPlaylistItem) Title() string       { return i.playlist.Name }
func (i savedPlaylistItem) Description() string {
	desc := fmt.Sprintf("%s • %s", i.playlist.Mode, i.playlist.CreatedAt.Format("2006-01-02"))
	if i.playlist.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.playlist.Description)
	}
	return desc
}

// savedTrackItem wraps [history.SavedTrack] to implement [list.Item].
type savedTrackItem struct {
	track history.SavedTrack
}

func (i savedTrackItem) FilterValue() string { return i.track.Title }
func (i savedTrackItem) Title() string {
	return fmt.Sprintf("%d. %s - %s", i.track.Position, i.track.Artist, i.track.Title)
}

func (i savedTrackItem) Description() string {
	desc := i.track.Source
	if i.track.Reason != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Reason)
	}
	if i.track.Score != nil {
		desc = fmt.Sprintf("%s • %.2f", desc, *i.track.Score)
	}
	return desc
}

// resultTrackItem wraps a freshly generated [models.PlaylistTrack].
type resultTrackItem struct {
	position int
	track    models.PlaylistTrack
}

func (i resultTrackItem) FilterValue() string { return i.track.Track.Title }
func (i resultTrackItem) Title() string {
	return fmt.Sprintf("%d. %s - %s", i.position, i.track.Track.PrimaryArtist(), i.track.Track.Title)
}

func (i resultTrackItem) Description() string {
	desc := i.track.Provenance.String()
	if i.track.Reason != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Reason)
	}
	return fmt.Sprintf("%s • %.2f", desc, i.track.Scores.Total)
}
