// Package engine implements the playlist generation core.
//
// The core abstraction is [Generator], which owns the two generation modes.
// Operations emit progress updates via channels for non-blocking status
// reporting to CLI/UI layers.
//
// # Vibe
//
// [Generator.Vibe] assembles a playlist around 1-5 anchor tracks. It builds
// a [models.VibeProfile] (feature centroid plus normalized genre weights),
// gathers a history candidate pool (each candidate must share an artist or
// genre with the anchors) and a discovery pool (anchor-artist deep cuts,
// related-artist top tracks, genre search), scores every candidate with the
// six-component coherence [Scorer], selects under the requested
// history/discovery ratio and a per-artist cap, and hands the final set to
// the [Sequencer] for ordering.
//
// # Bridge
//
// [Generator.Bridge] connects a start and end track through the similarity
// graph with [PathFinder], a bidirectional best-first search whose edges are
// revealed one oracle query at a time. Edge weight is 1 minus the match
// score. Frontier batches are expanded with bounded-parallelism concurrent
// queries; all frontier mutation stays on the calling goroutine. The search
// is bounded by an iteration budget and a wall-clock budget, falls back to
// the cheapest key both frontiers finalized, and reports exhaustion as a
// typed not-found result rather than an error.
//
// # Degradation
//
// Missing external data never fails a generation. Absent feature vectors,
// genre tags, popularity, and recency data all degrade to documented
// neutral scoring constants.
package engine
