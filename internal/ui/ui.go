package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mixtape/internal/engine"
	"github.com/desertthunder/mixtape/internal/history"
	"github.com/desertthunder/mixtape/internal/models"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	TrackListView
	GeneratingView
)

// PlaylistBrowser is the slice of the local store the TUI reads from.
type PlaylistBrowser interface {
	Playlists(ctx context.Context, limit int) ([]history.SavedPlaylist, error)
	PlaylistTracks(ctx context.Context, playlistID string) ([]history.SavedTrack, error)
}

// Model represents the TUI application state.
//
// Two entry points: NewBrowseModel opens the saved-playlist browser,
// NewGenerateModel runs a vibe generation with live progress and lands on the
// result's track list.
type Model struct {
	ctx          context.Context
	view         ViewState
	store        PlaylistBrowser
	generator    *engine.Generator
	request      *models.VibeRequest
	width        int
	height       int
	playlistList list.Model
	playlists    []history.SavedPlaylist
	trackList    list.Model
	footer       string
	progressChan chan engine.ProgressUpdate
	progress     engine.ProgressUpdate
	result       *models.VibeResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewBrowseModel creates a TUI model that browses locally saved playlists.
func NewBrowseModel(ctx context.Context, store PlaylistBrowser) *Model {
	return &Model{
		ctx:   ctx,
		view:  PlaylistListView,
		store: store,
		help:  help.New(),
		keys:  newKeyMap(),
	}
}

// NewGenerateModel creates a TUI model that runs the given vibe request and
// shows progress while the engine works.
func NewGenerateModel(ctx context.Context, generator *engine.Generator, request models.VibeRequest) *Model {
	return &Model{
		ctx:       ctx,
		view:      GeneratingView,
		generator: generator,
		request:   &request,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init kicks off either the generation or the saved-playlist fetch.
func (m *Model) Init() tea.Cmd {
	if m.request != nil {
		return m.startGeneration()
	}
	return m.fetchPlaylists()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.playlistList.Width() == 0 {
			m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.trackList.Width() == 0 {
			m.trackList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case GeneratingView:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		}

	case playlistsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.playlists = msg.playlists
		items := make([]list.Item, len(msg.playlists))
		for i, pl := range msg.playlists {
			items[i] = savedPlaylistItem{playlist: pl}
		}
		m.playlistList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.playlistList.Title = "Saved Playlists"
		m.playlistList.SetSize(m.width-4, m.height-8)
		m.view = PlaylistListView
		return m, nil

	case tracksFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = PlaylistListView
			return m, nil
		}
		items := make([]list.Item, len(msg.tracks))
		for i, track := range msg.tracks {
			items[i] = savedTrackItem{track: track}
		}
		m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.trackList.Title = fmt.Sprintf("Tracks in '%s'", msg.playlist.Name)
		m.trackList.SetSize(m.width-4, m.height-8)
		m.footer = fmt.Sprintf("%s • %d tracks", msg.playlist.Mode, len(msg.tracks))
		m.view = TrackListView
		return m, nil

	case progressUpdateMsg:
		m.progress = engine.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case generationCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.progressChan = nil
		if msg.err != nil || msg.result == nil {
			return m, nil
		}
		items := make([]list.Item, len(msg.result.Tracks))
		for i, track := range msg.result.Tracks {
			items[i] = resultTrackItem{position: i + 1, track: track}
		}
		m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.trackList.Title = "Generated Playlist"
		m.trackList.SetSize(m.width-4, m.height-8)
		m.footer = flowFooter(msg.result)
		m.view = TrackListView
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case PlaylistListView:
		return m.renderPlaylistList()
	case TrackListView:
		return m.renderTrackList()
	case GeneratingView:
		return m.renderGenerating()
	default:
		return ""
	}
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		return m, m.fetchPlaylists()
	case "enter":
		selected := m.playlistList.SelectedItem()
		if selected != nil {
			if pl, ok := selected.(savedPlaylistItem); ok {
				return m, m.fetchTracks(pl.playlist)
			}
		}
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		// generation results have no playlist list to go back to
		if m.store == nil {
			return m, tea.Quit
		}
		m.view = PlaylistListView
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.store.Playlists(m.ctx, 50)
		return playlistsFetchedMsg{playlists: playlists, err: err}
	}
}

func (m *Model) fetchTracks(playlist history.SavedPlaylist) tea.Cmd {
	return func() tea.Msg {
		tracks, err := m.store.PlaylistTracks(m.ctx, playlist.ID)
		return tracksFetchedMsg{playlist: playlist, tracks: tracks, err: err}
	}
}

func (m *Model) startGeneration() tea.Cmd {
	m.progressChan = make(chan engine.ProgressUpdate, 64)

	go func() {
		result, err := m.generator.Vibe(m.ctx, *m.request, m.progressChan)
		m.result = result
		m.err = err
		close(m.progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return generationCompleteMsg{result: m.result, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			return generationCompleteMsg{result: m.result, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderPlaylistList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.refresh, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), helpView)
}

func (m *Model) renderTrackList() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	footer := styles.help.Render(m.footer)
	return fmt.Sprintf("%s\n\n%s\n%s", m.trackList.View(), footer, helpView)
}

func (m *Model) renderGenerating() string {
	title := styles.title.Render("Generating Playlist")
	phase := phaseLabel(m.progress)
	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func phaseLabel(update engine.ProgressUpdate) string {
	switch update.Phase {
	case engine.ResolveAnchors:
		return "Resolving anchor tracks..."
	case engine.BuildProfile:
		return "Building vibe profile..."
	case engine.GatherHistory:
		return "Gathering history candidates..."
	case engine.GatherDiscovery:
		return "Exploring the catalog..."
	case engine.ScoreCandidates:
		if update.Total > 0 {
			return fmt.Sprintf("Scoring candidates (%d/%d)", update.Step, update.Total)
		}
		return "Scoring candidates..."
	case engine.SelectTracks:
		return "Selecting tracks..."
	case engine.Sequence:
		return "Sequencing for flow..."
	default:
		return "Working..."
	}
}

func flowFooter(result *models.VibeResult) string {
	return fmt.Sprintf(
		"%d tracks (%d history / %d discovery) • flow: avg %.2f, max %.2f, %d smooth / %d jarring",
		len(result.Tracks), result.HistoryCount, result.DiscoveryCount,
		result.Flow.AvgTransitionCost, result.Flow.MaxTransitionCost,
		result.Flow.SmoothTransitions, result.Flow.JarringTransitions,
	)
}
