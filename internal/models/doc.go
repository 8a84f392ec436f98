// Package models defines domain entities for the mixtape playlist generation engine.
//
// The package contains three categories of types:
//
// 1. Catalog items: [Track], [Artist], and [Features], the per-track audio
// feature vector. Every feature dimension is optional because the catalog
// provider may withhold audio features entirely.
//
// 2. Generation state: [VibeProfile] (the target character built from anchor
// tracks), the [Candidate] variants [HistoryCandidate] and
// [DiscoveryCandidate], and [ScoreBreakdown] for per-component coherence
// diagnostics. Provenance is a typed tag ([FromHistory], [FromDiscovery]),
// not a free-form string.
//
// 3. Requests and results: [VibeRequest]/[VibeResult] for anchor-based
// generation and [BridgeRequest]/[BridgeResult] for start-to-end bridges.
// Bridge failure is expressed as a result value, never a Go error, so callers
// can retry with larger budgets.
package models
