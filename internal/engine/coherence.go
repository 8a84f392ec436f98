package engine

import (
	"math"
	"strings"

	"github.com/desertthunder/mixtape/internal/models"
)

// Weights holds the six coherence component weights. They should sum to 1.
type Weights struct {
	FeatureSimilarity  float64
	GenreMatch         float64
	ArtistRelationship float64
	RecencyBonus       float64
	PopularityBalance  float64
	DiversityPenalty   float64
}

// DefaultWeights returns the empirically tuned component weights.
func DefaultWeights() Weights {
	return Weights{
		FeatureSimilarity:  0.35,
		GenreMatch:         0.25,
		ArtistRelationship: 0.15,
		RecencyBonus:       0.10,
		PopularityBalance:  0.10,
		DiversityPenalty:   0.05,
	}
}

// Scorer scores candidate tracks against a vibe profile. All component
// scores and the weighted total land in [0,1]; missing data degrades to
// documented neutral constants, never to an error.
type Scorer struct {
	profile        *models.VibeProfile
	weights        Weights
	relatedArtists map[string]map[string]struct{} // artist id -> related artist ids
	recentPlays    map[string]int                 // track id -> plays in recency window
	maxPerArtist   int
	maxRecentPlays int
}

// NewScorer creates a Scorer for one assembly pass.
func NewScorer(profile *models.VibeProfile, weights Weights, related map[string]map[string]struct{}, recentPlays map[string]int, maxPerArtist int) *Scorer {
	if maxPerArtist <= 0 {
		maxPerArtist = 3
	}
	return &Scorer{
		profile:        profile,
		weights:        weights,
		relatedArtists: related,
		recentPlays:    recentPlays,
		maxPerArtist:   maxPerArtist,
		maxRecentPlays: 10,
	}
}

// Score computes the full coherence breakdown for one candidate track.
// selectedArtists maps primary artist -> already-selected track count.
func (s *Scorer) Score(track models.Track, features *models.Features, selectedArtists map[string]int) models.ScoreBreakdown {
	b := models.ScoreBreakdown{
		FeatureSimilarity:  s.scoreFeatures(features),
		GenreMatch:         s.scoreGenres(track.Genres),
		ArtistRelationship: s.scoreArtistRelationship(track.ArtistIDs()),
		RecencyBonus:       s.scoreRecency(track.ID),
		PopularityBalance:  scorePopularity(track.Popularity),
		DiversityPenalty:   s.scoreDiversity(track.PrimaryArtist(), selectedArtists),
	}
	b.Total = s.weights.FeatureSimilarity*b.FeatureSimilarity +
		s.weights.GenreMatch*b.GenreMatch +
		s.weights.ArtistRelationship*b.ArtistRelationship +
		s.weights.RecencyBonus*b.RecencyBonus +
		s.weights.PopularityBalance*b.PopularityBalance +
		s.weights.DiversityPenalty*b.DiversityPenalty
	return b
}

// scoreFeatures converts centroid distance to similarity. Neutral 0.5 when
// either side has no feature data.
func (s *Scorer) scoreFeatures(features *models.Features) float64 {
	if features == nil || !features.Defined() {
		return 0.5
	}
	return math.Max(0, 1-s.featureDistance(*features))
}

// featureDistance is the mean absolute per-dimension distance to the
// centroid, over dimensions both sides define. Tempo distance is divided by
// 120 and capped at 1 so BPM stays comparable to the unit dimensions.
func (s *Scorer) featureDistance(f models.Features) float64 {
	if !s.profile.HasFeatures {
		return 0.5
	}
	c := s.profile.Centroid

	var distances []float64
	unit := func(a, b *float64) {
		if a != nil && b != nil {
			distances = append(distances, math.Abs(*a-*b))
		}
	}
	unit(c.Energy, f.Energy)
	unit(c.Valence, f.Valence)
	if c.Tempo != nil && f.Tempo != nil {
		distances = append(distances, math.Min(math.Abs(*c.Tempo-*f.Tempo)/120, 1))
	}
	unit(c.Danceability, f.Danceability)
	unit(c.Acousticness, f.Acousticness)

	if len(distances) == 0 {
		return 0.5
	}
	sum := 0.0
	for _, d := range distances {
		sum += d
	}
	return sum / float64(len(distances))
}

// scoreGenres is a weighted overlap with the profile genre map. Exact match
// earns the genre's full weight, substring match half. An empty profile is
// neutral (0.5); a candidate with no genre info is penalized (0.2); no
// overlap at all scores 0.1.
func (s *Scorer) scoreGenres(genres []string) float64 {
	if len(s.profile.Genres) == 0 {
		return 0.5
	}
	if len(genres) == 0 {
		return 0.2
	}

	match := 0.0
	for _, genre := range genres {
		genre = strings.ToLower(genre)
		if weight, ok := s.profile.Genres[genre]; ok {
			match += weight
			continue
		}
		for profileGenre, weight := range s.profile.Genres {
			if strings.Contains(profileGenre, genre) || strings.Contains(genre, profileGenre) {
				match += weight * 0.5
				break
			}
		}
	}

	if match == 0 {
		return 0.1
	}
	return math.Min(1, match)
}

// scoreArtistRelationship rewards closeness to the anchor artists: 1.0 same
// artist, 0.7 one hop via the related-artist map, 0.4 two hops, 0.1 for no
// relationship. Missing artist data on either side is neutral-low (0.3).
func (s *Scorer) scoreArtistRelationship(artistIDs map[string]struct{}) float64 {
	if len(s.profile.AnchorArtistIDs) == 0 || len(artistIDs) == 0 {
		return 0.3
	}

	best := 0.1
	for artistID := range artistIDs {
		if _, ok := s.profile.AnchorArtistIDs[artistID]; ok {
			return 1.0
		}

		for anchorID := range s.profile.AnchorArtistIDs {
			related := s.relatedArtists[anchorID]
			if _, ok := related[artistID]; ok {
				best = math.Max(best, 0.7)
				continue
			}
			for relatedID := range related {
				if _, ok := s.relatedArtists[relatedID][artistID]; ok {
					best = math.Max(best, 0.4)
					break
				}
			}
		}
	}

	return best
}

// scoreRecency grants a bonus for recently played tracks: 0.3 baseline for
// unplayed (discovery) tracks plus up to 0.5 scaled by play frequency,
// capped at maxRecentPlays. Neutral 0.5 when no recency data exists at all.
func (s *Scorer) scoreRecency(trackID string) float64 {
	if len(s.recentPlays) == 0 {
		return 0.5
	}
	plays := s.recentPlays[trackID]
	if plays == 0 {
		return 0.3
	}
	return math.Min(1, 0.5+float64(plays)/float64(s.maxRecentPlays)*0.5)
}

// scorePopularity prefers known-but-not-overplayed tracks. The sweet spot is
// popularity 30-60; the steps decay toward both extremes.
func scorePopularity(popularity *int) float64 {
	if popularity == nil {
		return 0.5
	}
	p := *popularity
	switch {
	case p >= 30 && p <= 60:
		return 1.0
	case (p >= 20 && p < 30) || (p > 60 && p <= 70):
		return 0.8
	case (p >= 10 && p < 20) || (p > 70 && p <= 80):
		return 0.6
	case p < 10:
		return 0.4
	default:
		return 0.3
	}
}

// scoreDiversity penalizes artists already well represented in the
// selection: 1.0 with none selected, 0.6 with one, 0.3 at cap-1, 0.0 at or
// beyond the cap.
func (s *Scorer) scoreDiversity(primaryArtist string, selectedArtists map[string]int) float64 {
	if len(selectedArtists) == 0 {
		return 1.0
	}
	count := selectedArtists[primaryArtist]
	switch {
	case count >= s.maxPerArtist:
		return 0.0
	case count == s.maxPerArtist-1:
		return 0.3
	case count >= 1:
		return 0.6
	default:
		return 1.0
	}
}
