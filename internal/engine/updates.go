package engine

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ResolveAnchors Phase = iota
	BuildProfile
	GatherHistory
	GatherDiscovery
	ScoreCandidates
	SelectTracks
	Sequence
	SearchInit
	SearchExpand
	ResolvePath
)

func (p Phase) String() string {
	switch p {
	case ResolveAnchors:
		return "resolve_anchors"
	case BuildProfile:
		return "build_profile"
	case GatherHistory:
		return "gather_history"
	case GatherDiscovery:
		return "gather_discovery"
	case ScoreCandidates:
		return "score_candidates"
	case SelectTracks:
		return "select_tracks"
	case Sequence:
		return "sequence"
	case SearchInit:
		return "search_init"
	case SearchExpand:
		return "search_expand"
	case ResolvePath:
		return "resolve_path"
	default:
		return ""
	}
}

func resolveAnchorsUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveAnchors,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Resolving %d anchor track(s)...", count),
	}
}

func buildProfileUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   BuildProfile,
		Step:    1,
		Total:   1,
		Message: "Building vibe profile from anchors...",
	}
}

func gatherHistoryUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   GatherHistory,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Gathered %d candidates from listening history", count),
	}
}

func gatherDiscoveryUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   GatherDiscovery,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Gathered %d discovery candidates", count),
	}
}

func scoreCandidatesUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScoreCandidates,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Scoring %d candidates...", count),
	}
}

func selectTracksUpdate(selected, target int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SelectTracks,
		Step:    selected,
		Total:   target,
		Message: fmt.Sprintf("Selected %d of %d tracks", selected, target),
	}
}

func sequenceUpdate(mode string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Sequence,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Ordering playlist (%s flow)...", mode),
	}
}

func searchInitUpdate(startArtist, endArtist string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchInit,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Finding path: %s → %s", startArtist, endArtist),
	}
}

func searchExpandUpdate(iteration, visited int, current string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchExpand,
		Step:    iteration,
		Total:   0,
		Message: fmt.Sprintf("[batch %d] visited %d | expanding %s", iteration, visited, current),
	}
}

func resolvePathUpdate(length int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolvePath,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found path with %d tracks, resolving to catalog...", length),
	}
}
