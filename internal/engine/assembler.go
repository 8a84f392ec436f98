package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/desertthunder/mixtape/internal/history"
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
)

// anchorAffinityBoost is added to the coherence total of history candidates,
// which already share an artist or genre with the anchors.
const anchorAffinityBoost = 0.05

const (
	historyPoolCap      = 100
	deepCutAlbums       = 2
	relatedArtistLimit  = 5
	relatedTopTracks    = 3
	genreSearchLimit    = 3
	genreSearchPageSize = 30
)

// Vibe assembles an anchor-based playlist: build a profile, gather history
// and discovery candidate pools, score them, select under the discovery
// ratio and per-artist cap, and order the result for playback.
func (g *Generator) Vibe(ctx context.Context, req models.VibeRequest, progress chan<- ProgressUpdate) (*models.VibeResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if req.Flow == "" {
		req.Flow = models.FlowSmooth
	}

	excluded := make(map[string]struct{}, len(req.ExcludedArtists))
	for _, artist := range req.ExcludedArtists {
		excluded[strings.ToLower(strings.TrimSpace(artist))] = struct{}{}
	}

	g.sendProgress(progress, resolveAnchorsUpdate(len(req.AnchorIDs)))

	anchors, err := g.resolveAnchors(ctx, req.AnchorIDs)
	if err != nil {
		return nil, err
	}

	g.sendProgress(progress, buildProfileUpdate())

	anchorFeatures, err := g.catalog.AudioFeatures(ctx, req.AnchorIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch anchor features: %w", err)
	}

	anchorArtistIDs := orderedArtistIDs(anchors)
	artistGenres, err := g.fetchArtistGenres(ctx, anchorArtistIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch anchor artist genres: %w", err)
	}

	profile := BuildVibeProfile(anchors, anchorFeatures, artistGenres)

	related := g.fetchRelatedArtists(ctx, anchorArtistIDs)

	var recentPlays map[string]int
	if activity, err := g.history.RecentActivity(ctx, 30); err != nil {
		g.logger.Warn("failed to load recent activity", "error", err)
	} else {
		recentPlays = activity.TrackPlays
	}

	discoveryTarget := req.Count * req.DiscoveryRatio / 100
	historyTarget := req.Count - discoveryTarget

	anchorIDs := make(map[string]struct{}, len(anchors))
	for _, a := range anchors {
		anchorIDs[a.ID] = struct{}{}
	}

	pool := g.gatherHistoryPool(ctx, profile, anchors, anchorIDs, excluded)
	g.sendProgress(progress, gatherHistoryUpdate(len(pool)))

	if discoveryTarget > 0 {
		existing := make(map[string]struct{}, len(pool)+len(anchorIDs))
		for id := range anchorIDs {
			existing[id] = struct{}{}
		}
		for _, c := range pool {
			existing[c.Track().ID] = struct{}{}
		}
		discovered := g.gatherDiscoveryPool(ctx, profile, anchors, related, existing, excluded)
		g.sendProgress(progress, gatherDiscoveryUpdate(len(discovered)))
		pool = append(pool, discovered...)
	}

	g.sendProgress(progress, scoreCandidatesUpdate(len(pool)))

	features := g.fetchCandidateFeatures(ctx, pool)
	g.enrichCandidateGenres(ctx, pool)

	scorer := NewScorer(profile, g.cfg.Weights, related, recentPlays, g.cfg.MaxPerArtist)
	scored := scoreCandidates(scorer, pool, features, g.cfg.CoherenceFloor)

	selected := g.selectTracks(scorer, scored, features, req.Count, historyTarget, discoveryTarget)
	g.sendProgress(progress, selectTracksUpdate(len(selected), req.Count))

	g.sendProgress(progress, sequenceUpdate(string(req.Flow)))

	genres := make(map[string]map[string]struct{}, len(selected))
	for _, t := range selected {
		genres[t.Track.ID] = genreSet(t.Track.Genres)
	}
	sequencer := NewSequencer(features, genres)
	ordered := sequencer.Order(selected, req.Flow)

	result := &models.VibeResult{
		Tracks: ordered,
		Profile: models.ProfileSummary{
			AnchorIDs:   profile.AnchorIDs,
			TopGenres:   profile.TopGenres(5),
			HasFeatures: profile.HasFeatures,
			Centroid:    profile.Centroid,
		},
		Flow:      sequencer.Stats(ordered),
		Requested: req.Count,
	}
	for _, t := range ordered {
		if t.Provenance == models.FromHistory {
			result.HistoryCount++
		} else {
			result.DiscoveryCount++
		}
	}

	return result, nil
}

// resolveAnchors fetches anchor tracks, failing when any id is unknown.
func (g *Generator) resolveAnchors(ctx context.Context, anchorIDs []string) ([]models.Track, error) {
	tracks, err := g.catalog.SeveralTracks(ctx, anchorIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch anchor tracks: %w", err)
	}

	byID := make(map[string]models.Track, len(tracks))
	for _, t := range tracks {
		byID[t.ID] = t
	}

	anchors := make([]models.Track, 0, len(anchorIDs))
	for _, id := range anchorIDs {
		t, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: anchor track %s could not be resolved", shared.ErrTrackNotFound, id)
		}
		anchors = append(anchors, t)
	}
	return anchors, nil
}

func orderedArtistIDs(tracks []models.Track) []string {
	var ids []string
	seen := make(map[string]struct{})
	for _, t := range tracks {
		for _, a := range t.Artists {
			if a.ID == "" {
				continue
			}
			if _, ok := seen[a.ID]; ok {
				continue
			}
			seen[a.ID] = struct{}{}
			ids = append(ids, a.ID)
		}
	}
	return ids
}

func (g *Generator) fetchArtistGenres(ctx context.Context, artistIDs []string) (map[string][]string, error) {
	genres := make(map[string][]string, len(artistIDs))
	for _, batch := range chunk(artistIDs, 50) {
		artists, err := g.catalog.SeveralArtists(ctx, batch)
		if err != nil {
			return nil, err
		}
		for _, a := range artists {
			genres[a.ID] = a.Genres
		}
	}
	return genres, nil
}

// fetchRelatedArtists builds the relationship map used by artist scoring:
// one hop out from every anchor artist, plus a second hop from the first
// few related artists so two-hop relationships are detectable. Failures
// degrade to a smaller map, never abort.
func (g *Generator) fetchRelatedArtists(ctx context.Context, anchorArtistIDs []string) map[string]map[string]struct{} {
	related := make(map[string]map[string]struct{})

	for _, artistID := range anchorArtistIDs {
		artists, err := g.catalog.RelatedArtists(ctx, artistID)
		if err != nil {
			g.logger.Warn("failed to fetch related artists", "artist", artistID, "error", err)
			continue
		}

		set := make(map[string]struct{}, len(artists))
		for _, a := range artists {
			set[a.ID] = struct{}{}
		}
		related[artistID] = set

		for i, a := range artists {
			if i >= relatedArtistLimit {
				break
			}
			second, err := g.catalog.RelatedArtists(ctx, a.ID)
			if err != nil {
				continue
			}
			secondSet := make(map[string]struct{}, len(second))
			for _, sa := range second {
				secondSet[sa.ID] = struct{}{}
			}
			related[a.ID] = secondSet
		}
	}

	return related
}

// gatherHistoryPool pulls candidates from the listening history. Each one
// must share an artist or an overlapping genre with the anchors; this keeps
// high-play-count noise that has nothing to do with the vibe out of the pool.
func (g *Generator) gatherHistoryPool(ctx context.Context, profile *models.VibeProfile, anchors []models.Track, anchorIDs map[string]struct{}, excluded map[string]struct{}) []models.Candidate {
	allTracks, err := g.history.AllTracksWithCounts(ctx)
	if err != nil {
		g.logger.Warn("failed to load listening history", "error", err)
		return nil
	}

	anchorArtistNames := make(map[string]struct{})
	for _, a := range anchors {
		for _, artist := range a.Artists {
			anchorArtistNames[strings.ToLower(artist.Name)] = struct{}{}
		}
	}

	var stats []history.TrackStats
	for id, ts := range allTracks {
		if _, isAnchor := anchorIDs[id]; isAnchor {
			continue
		}
		if _, skip := excluded[primaryArtistName(ts.Artist)]; skip {
			continue
		}

		sharesArtist := false
		for _, name := range strings.Split(ts.Artist, ",") {
			if _, ok := anchorArtistNames[strings.ToLower(strings.TrimSpace(name))]; ok {
				sharesArtist = true
				break
			}
		}
		sharesGenre := genreOverlapsProfile(ts.Genres, profile.Genres)
		if !sharesArtist && !sharesGenre {
			continue
		}

		stats = append(stats, ts)
	}

	sort.Slice(stats, func(i, j int) bool { return stats[i].PlayCount > stats[j].PlayCount })
	if len(stats) > historyPoolCap {
		stats = stats[:historyPoolCap]
	}

	resolved := g.resolveHistoryTracks(ctx, stats)

	candidates := make([]models.Candidate, 0, len(stats))
	for _, ts := range stats {
		track, ok := resolved[ts.TrackID]
		if !ok {
			// Unresolvable ids keep their play metadata; scoring degrades to
			// neutral constants for the missing catalog fields.
			track = models.Track{
				ID:     ts.TrackID,
				Title:  ts.Title,
				Genres: ts.Genres,
			}
			for _, name := range strings.Split(ts.Artist, ",") {
				if name = strings.TrimSpace(name); name != "" {
					track.Artists = append(track.Artists, models.Artist{Name: name})
				}
			}
		}
		if len(track.Genres) == 0 {
			track.Genres = ts.Genres
		}
		candidates = append(candidates, models.HistoryCandidate{
			Item:       track,
			PlayCount:  ts.PlayCount,
			LastPlayed: ts.LastPlayed,
			Why:        fmt.Sprintf("in your rotation (%d plays)", ts.PlayCount),
		})
	}

	return candidates
}

func (g *Generator) resolveHistoryTracks(ctx context.Context, stats []history.TrackStats) map[string]models.Track {
	ids := make([]string, 0, len(stats))
	for _, ts := range stats {
		ids = append(ids, ts.TrackID)
	}

	resolved := make(map[string]models.Track, len(ids))
	for _, batch := range chunk(ids, 50) {
		tracks, err := g.catalog.SeveralTracks(ctx, batch)
		if err != nil {
			g.logger.Warn("failed to enrich history tracks", "error", err)
			continue
		}
		for _, t := range tracks {
			resolved[t.ID] = t
		}
	}
	return resolved
}

// gatherDiscoveryPool browses the catalog for new material: anchor-artist
// deep cuts, related-artist top tracks, and genre search. Genre search falls
// back to the listener's top history genres when the profile has none.
func (g *Generator) gatherDiscoveryPool(ctx context.Context, profile *models.VibeProfile, anchors []models.Track, related map[string]map[string]struct{}, existing, excluded map[string]struct{}) []models.Candidate {
	var candidates []models.Candidate

	add := func(track models.Track, via string) {
		if track.ID == "" {
			return
		}
		if _, dup := existing[track.ID]; dup {
			return
		}
		if _, skip := excluded[strings.ToLower(track.PrimaryArtist())]; skip {
			return
		}
		existing[track.ID] = struct{}{}
		candidates = append(candidates, models.DiscoveryCandidate{Item: track, Via: via})
	}

	// Deep cuts: early album tracks from the anchor artists themselves.
	for _, anchor := range anchors {
		for _, artist := range anchor.Artists {
			if artist.ID == "" {
				continue
			}
			albums, err := g.catalog.ArtistAlbums(ctx, artist.ID, deepCutAlbums)
			if err != nil {
				g.logger.Warn("failed to fetch artist albums", "artist", artist.Name, "error", err)
				continue
			}
			for _, album := range albums {
				tracks, err := g.catalog.AlbumTracks(ctx, album.ID)
				if err != nil {
					g.logger.Warn("failed to fetch album tracks", "album", album.Name, "error", err)
					continue
				}
				for _, t := range tracks {
					add(t, fmt.Sprintf("deep cut from %s", artist.Name))
				}
			}
		}
	}

	// Related artists: the most popular tracks of artists one hop out.
	for _, anchor := range anchors {
		for _, artist := range anchor.Artists {
			count := 0
			for relatedID := range related[artist.ID] {
				if count >= relatedArtistLimit {
					break
				}
				count++
				tracks, err := g.catalog.ArtistTopTracks(ctx, relatedID)
				if err != nil {
					continue
				}
				for i, t := range tracks {
					if i >= relatedTopTracks {
						break
					}
					add(t, fmt.Sprintf("related to %s", artist.Name))
				}
			}
		}
	}

	// Genre search over the profile's strongest genres.
	genres := profile.TopGenres(genreSearchLimit)
	if len(genres) == 0 {
		if top, err := g.history.TopGenres(ctx, genreSearchLimit); err == nil {
			for _, gc := range top {
				genres = append(genres, gc.Genre)
			}
		}
	}
	for _, genre := range genres {
		tracks, err := g.catalog.SearchTracksByGenre(ctx, genre, genreSearchPageSize)
		if err != nil {
			g.logger.Warn("genre search failed", "genre", genre, "error", err)
			continue
		}
		for _, t := range tracks {
			add(t, fmt.Sprintf("genre: %s", genre))
		}
	}

	return candidates
}

// fetchCandidateFeatures bulk-fetches feature vectors for the whole pool.
// An empty result is fine; scoring degrades to neutral.
func (g *Generator) fetchCandidateFeatures(ctx context.Context, pool []models.Candidate) map[string]models.Features {
	ids := make([]string, 0, len(pool))
	for _, c := range pool {
		ids = append(ids, c.Track().ID)
	}

	features := make(map[string]models.Features, len(ids))
	for _, batch := range chunk(ids, 100) {
		batchFeatures, err := g.catalog.AudioFeatures(ctx, batch)
		if err != nil {
			g.logger.Warn("failed to fetch candidate features", "error", err)
			continue
		}
		for id, f := range batchFeatures {
			features[id] = f
		}
	}
	return features
}

// enrichCandidateGenres backfills genre tags from artist objects, since
// catalog track objects carry none of their own.
func (g *Generator) enrichCandidateGenres(ctx context.Context, pool []models.Candidate) {
	var artistIDs []string
	seen := make(map[string]struct{})
	for _, c := range pool {
		if len(c.Track().Genres) > 0 {
			continue
		}
		for _, a := range c.Track().Artists {
			if a.ID == "" {
				continue
			}
			if _, ok := seen[a.ID]; ok {
				continue
			}
			seen[a.ID] = struct{}{}
			artistIDs = append(artistIDs, a.ID)
		}
	}
	if len(artistIDs) == 0 {
		return
	}

	genresByArtist := make(map[string][]string)
	for _, batch := range chunk(artistIDs, 50) {
		artists, err := g.catalog.SeveralArtists(ctx, batch)
		if err != nil {
			g.logger.Warn("failed to enrich candidate genres", "error", err)
			continue
		}
		for _, a := range artists {
			genresByArtist[a.ID] = a.Genres
		}
	}

	for i, c := range pool {
		track := c.Track()
		if len(track.Genres) > 0 {
			continue
		}
		var genres []string
		for _, a := range track.Artists {
			genres = append(genres, genresByArtist[a.ID]...)
		}
		if len(genres) == 0 {
			continue
		}
		track.Genres = genres
		switch v := c.(type) {
		case models.HistoryCandidate:
			v.Item = track
			pool[i] = v
		case models.DiscoveryCandidate:
			v.Item = track
			pool[i] = v
		}
	}
}

// scoreCandidates scores the pool with neutral diversity, applies the
// anchor-affinity boost to history candidates, and drops everything below
// the coherence floor.
func scoreCandidates(scorer *Scorer, pool []models.Candidate, features map[string]models.Features, floor float64) []models.ScoredCandidate {
	scored := make([]models.ScoredCandidate, 0, len(pool))
	for _, c := range pool {
		track := c.Track()

		var f *models.Features
		if feat, ok := features[track.ID]; ok {
			f = &feat
		}

		breakdown := scorer.Score(track, f, nil)
		if c.Provenance() == models.FromHistory {
			breakdown.Total += anchorAffinityBoost
			if breakdown.Total > 1 {
				breakdown.Total = 1
			}
		}
		if breakdown.Total < floor {
			continue
		}

		scored = append(scored, models.ScoredCandidate{Candidate: c, Scores: breakdown})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Scores.Total > scored[j].Scores.Total
	})
	return scored
}

// selectTracks greedily walks the scored pool honoring the history/discovery
// split and the per-artist cap. The diversity component is re-evaluated
// against the running selection; leftover capacity is filled from either
// pool when one side runs dry.
func (g *Generator) selectTracks(scorer *Scorer, scored []models.ScoredCandidate, features map[string]models.Features, count, historyTarget, discoveryTarget int) []models.PlaylistTrack {
	selected := make([]models.PlaylistTrack, 0, count)
	artistCounts := make(map[string]int)
	historyCount, discoveryCount := 0, 0

	take := func(sc models.ScoredCandidate) bool {
		track := sc.Track()
		primary := track.PrimaryArtist()
		if artistCounts[primary] >= g.cfg.MaxPerArtist {
			return false
		}

		var f *models.Features
		if feat, ok := features[track.ID]; ok {
			f = &feat
		}
		breakdown := scorer.Score(track, f, artistCounts)
		if sc.Provenance() == models.FromHistory {
			breakdown.Total += anchorAffinityBoost
			if breakdown.Total > 1 {
				breakdown.Total = 1
			}
		}
		if breakdown.Total < g.cfg.CoherenceFloor {
			return false
		}

		artistCounts[primary]++
		selected = append(selected, models.PlaylistTrack{
			Track:      track,
			Provenance: sc.Provenance(),
			Reason:     sc.Reason(),
			Scores:     breakdown,
		})
		return true
	}

	var deferred []models.ScoredCandidate
	for _, sc := range scored {
		if len(selected) >= count {
			break
		}
		if sc.Provenance() == models.FromHistory {
			if historyCount >= historyTarget {
				deferred = append(deferred, sc)
				continue
			}
			if take(sc) {
				historyCount++
			}
		} else {
			if discoveryCount >= discoveryTarget {
				deferred = append(deferred, sc)
				continue
			}
			if take(sc) {
				discoveryCount++
			}
		}
	}

	// One pool came up short; backfill from the other.
	for _, sc := range deferred {
		if len(selected) >= count {
			break
		}
		take(sc)
	}

	return selected
}

func genreOverlapsProfile(genres []string, profileGenres map[string]float64) bool {
	for _, genre := range genres {
		genre = strings.ToLower(genre)
		if _, ok := profileGenres[genre]; ok {
			return true
		}
		for profileGenre := range profileGenres {
			if strings.Contains(profileGenre, genre) || strings.Contains(genre, profileGenre) {
				return true
			}
		}
	}
	return false
}

func primaryArtistName(artist string) string {
	return strings.ToLower(strings.TrimSpace(strings.SplitN(artist, ",", 2)[0]))
}

func genreSet(genres []string) map[string]struct{} {
	set := make(map[string]struct{}, len(genres))
	for _, g := range genres {
		set[strings.ToLower(g)] = struct{}{}
	}
	return set
}

func chunk(ids []string, size int) [][]string {
	var batches [][]string
	for len(ids) > 0 {
		n := size
		if len(ids) < n {
			n = len(ids)
		}
		batches = append(batches, ids[:n])
		ids = ids[n:]
	}
	return batches
}
