// package models defines the data model for the playlist generation engine
package models

import (
	"fmt"
	"time"
)

// Artist identifies a catalog artist. Genres come from the catalog's artist
// object, not the track, and may be empty.
type Artist struct {
	ID     string
	Name   string
	Genres []string
}

// Track represents a catalog or history item. The artist list is ordered;
// the first entry is the primary artist used for diversity caps and
// exclusion filters.
type Track struct {
	ID         string
	Title      string
	Artists    []Artist
	Album      string
	Genres     []string
	Popularity *int // 0-100, nil when the catalog did not report one
}

// PrimaryArtist returns the first artist's name, or "" for an empty list.
func (t Track) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0].Name
}

// ArtistIDs returns the set of non-empty artist ids on the track.
func (t Track) ArtistIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(t.Artists))
	for _, a := range t.Artists {
		if a.ID != "" {
			ids[a.ID] = struct{}{}
		}
	}
	return ids
}

// Features holds a track's audio feature vector. Every dimension is optional:
// the catalog may withhold features entirely, and a centroid only defines the
// dimensions at least one anchor supplied. All values are in [0,1] except
// Tempo, which is in BPM.
type Features struct {
	Energy           *float64
	Valence          *float64
	Tempo            *float64
	Danceability     *float64
	Acousticness     *float64
	Instrumentalness *float64
}

// Defined reports whether any dimension is set.
func (f Features) Defined() bool {
	return f.Energy != nil || f.Valence != nil || f.Tempo != nil ||
		f.Danceability != nil || f.Acousticness != nil || f.Instrumentalness != nil
}

// VibeProfile captures the target character of a playlist, built once from
// 1-5 anchor tracks and read-only afterward.
type VibeProfile struct {
	AnchorIDs []string
	Centroid  Features

	// Genres maps genre -> normalized weight (weights sum to 1).
	// GenreOrder preserves first-seen order so equal weights stay stable.
	Genres     map[string]float64
	GenreOrder []string

	AnchorArtistIDs map[string]struct{}
	HasFeatures     bool
}

// TopGenres returns up to limit genres ordered by descending weight,
// ties broken by insertion order.
func (p *VibeProfile) TopGenres(limit int) []string {
	genres := make([]string, len(p.GenreOrder))
	copy(genres, p.GenreOrder)

	for i := 0; i < len(genres); i++ {
		best := i
		for j := i + 1; j < len(genres); j++ {
			if p.Genres[genres[j]] > p.Genres[genres[best]] {
				best = j
			}
		}
		genres[i], genres[best] = genres[best], genres[i]
	}

	if limit > 0 && len(genres) > limit {
		genres = genres[:limit]
	}
	return genres
}

// Provenance identifies where a candidate was sourced from.
type Provenance int

const (
	FromHistory Provenance = iota
	FromDiscovery
)

func (p Provenance) String() string {
	switch p {
	case FromHistory:
		return "history"
	case FromDiscovery:
		return "discovery"
	default:
		return ""
	}
}

// Candidate is a track under consideration for a vibe playlist.
// HistoryCandidate and DiscoveryCandidate are the two variants.
type Candidate interface {
	Track() Track
	Provenance() Provenance
	Reason() string // human-readable sourcing note for display
}

// HistoryCandidate is a candidate drawn from the local listening history.
type HistoryCandidate struct {
	Item       Track
	PlayCount  int
	LastPlayed time.Time
	Why        string
}

func (c HistoryCandidate) Track() Track           { return c.Item }
func (c HistoryCandidate) Provenance() Provenance { return FromHistory }
func (c HistoryCandidate) Reason() string         { return c.Why }

// DiscoveryCandidate is a candidate sourced from exploratory catalog browsing
// (deep cuts, related artists, genre search).
type DiscoveryCandidate struct {
	Item Track
	Via  string
}

func (c DiscoveryCandidate) Track() Track           { return c.Item }
func (c DiscoveryCandidate) Provenance() Provenance { return FromDiscovery }
func (c DiscoveryCandidate) Reason() string         { return c.Via }

// ScoreBreakdown holds the per-component coherence scores for diagnostics.
// All components and the weighted total are in [0,1].
type ScoreBreakdown struct {
	FeatureSimilarity  float64
	GenreMatch         float64
	ArtistRelationship float64
	RecencyBonus       float64
	PopularityBalance  float64
	DiversityPenalty   float64
	Total              float64
}

// ScoredCandidate pairs a candidate with its coherence scores.
type ScoredCandidate struct {
	Candidate
	Scores ScoreBreakdown
}

// FlowMode selects how a finished track set is ordered for playback.
type FlowMode string

const (
	FlowSmooth    FlowMode = "smooth"
	FlowEnergyArc FlowMode = "energy_arc"
	FlowShuffle   FlowMode = "shuffle"
)

// ParseFlowMode validates a flow mode string, defaulting empty input to FlowSmooth.
func ParseFlowMode(s string) (FlowMode, error) {
	switch FlowMode(s) {
	case "":
		return FlowSmooth, nil
	case FlowSmooth, FlowEnergyArc, FlowShuffle:
		return FlowMode(s), nil
	default:
		return "", fmt.Errorf("unknown flow mode %q (want smooth, energy_arc, or shuffle)", s)
	}
}

// FlowStats reports transition quality over an ordered playlist.
type FlowStats struct {
	AvgTransitionCost  float64
	MaxTransitionCost  float64
	SmoothTransitions  int // cost < 0.3
	JarringTransitions int // cost > 0.6
	TotalTransitions   int
}

// VibeRequest describes an anchor-based playlist generation request.
type VibeRequest struct {
	AnchorIDs       []string
	Count           int
	DiscoveryRatio  int // percentage of discovery tracks, 0-100
	Flow            FlowMode
	ExcludedArtists []string
}

// Validate rejects malformed requests before any search or scoring work starts.
func (r VibeRequest) Validate() error {
	if len(r.AnchorIDs) < 1 || len(r.AnchorIDs) > 5 {
		return fmt.Errorf("anchor count must be between 1 and 5, got %d", len(r.AnchorIDs))
	}
	if r.Count <= 0 {
		return fmt.Errorf("track count must be positive, got %d", r.Count)
	}
	if r.DiscoveryRatio < 0 || r.DiscoveryRatio > 100 {
		return fmt.Errorf("discovery ratio must be between 0 and 100, got %d", r.DiscoveryRatio)
	}
	return nil
}

// PlaylistTrack is one annotated entry of a generated vibe playlist.
type PlaylistTrack struct {
	Track      Track
	Provenance Provenance
	Reason     string
	Scores     ScoreBreakdown
}

// ProfileSummary is the reportable slice of a VibeProfile.
type ProfileSummary struct {
	AnchorIDs   []string
	TopGenres   []string
	HasFeatures bool
	Centroid    Features
}

// VibeResult is the response of a vibe playlist generation.
// HistoryCount and DiscoveryCount may fall short of the requested split
// when a candidate pool is exhausted.
type VibeResult struct {
	Tracks         []PlaylistTrack
	Profile        ProfileSummary
	Flow           FlowStats
	HistoryCount   int
	DiscoveryCount int
	Requested      int
}

// PathRole tags a bridge playlist entry by its position in the path.
type PathRole string

const (
	RoleStart  PathRole = "start"
	RoleBridge PathRole = "bridge"
	RoleEnd    PathRole = "end"
)

// PathTrack is one role-tagged entry of a bridge playlist.
type PathTrack struct {
	Track Track
	Role  PathRole
	Note  string // e.g. "87% similar" for bridge entries
}

// BridgeRequest describes a start-to-end bridge generation request.
type BridgeRequest struct {
	StartID       string
	EndID         string
	Count         int
	MaxIterations int
	Timeout       time.Duration
}

// BridgeResult is the response of a bridge generation. A failed search is a
// result with Success=false and a Reason, never an error.
type BridgeResult struct {
	Tracks     []PathTrack
	PathLength int // raw path length before sampling
	Iterations int
	Success    bool
	Reason     string
}
