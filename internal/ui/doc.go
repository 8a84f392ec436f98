// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// Two workflows share one [Model]:
//
//  1. Browsing: [PlaylistListView] lists locally saved playlists, [TrackListView]
//     shows a playlist's tracks with their sourcing notes and coherence scores.
//  2. Generating: [GeneratingView] runs a vibe request and streams engine
//     progress phases, then lands on the result's track list with a flow-stats
//     footer.
//
// The Model implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the engine, providing
// non-blocking status reporting during generation.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, r, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
