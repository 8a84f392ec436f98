package ui

import (
	"github.com/desertthunder/mixtape/internal/engine"
	"github.com/desertthunder/mixtape/internal/history"
	"github.com/desertthunder/mixtape/internal/models"
)

type playlistsFetchedMsg struct {
	playlists []history.SavedPlaylist
	err       error
}

type tracksFetchedMsg struct {
	playlist history.SavedPlaylist
	tracks   []history.SavedTrack
	err      error
}

type progressUpdateMsg engine.ProgressUpdate

type generationCompleteMsg struct {
	result *models.VibeResult
	err    error
}
