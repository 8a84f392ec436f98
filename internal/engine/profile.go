package engine

import (
	"strings"

	"github.com/desertthunder/mixtape/internal/models"
)

// BuildVibeProfile builds the target profile from anchor tracks. The centroid
// is the per-dimension mean over only the anchors that define that dimension;
// a dimension stays nil when no anchor supplies it. Genre weights are
// normalized tag counts across all anchor artists, with first-seen order
// preserved so equal weights stay stable.
func BuildVibeProfile(anchors []models.Track, features map[string]models.Features, artistGenres map[string][]string) *models.VibeProfile {
	profile := &models.VibeProfile{
		Genres:          make(map[string]float64),
		AnchorArtistIDs: make(map[string]struct{}),
	}

	for _, anchor := range anchors {
		profile.AnchorIDs = append(profile.AnchorIDs, anchor.ID)
		for _, artist := range anchor.Artists {
			if artist.ID != "" {
				profile.AnchorArtistIDs[artist.ID] = struct{}{}
			}
		}
	}

	anchorFeatures := make([]models.Features, 0, len(anchors))
	for _, anchor := range anchors {
		if f, ok := features[anchor.ID]; ok && f.Defined() {
			anchorFeatures = append(anchorFeatures, f)
		}
	}
	profile.Centroid = featureCentroid(anchorFeatures)
	profile.HasFeatures = profile.Centroid.Defined()

	// Count genre tags in anchor artist order so ties resolve deterministically.
	counts := make(map[string]int)
	total := 0
	for _, anchor := range anchors {
		for _, artist := range anchor.Artists {
			for _, genre := range artistGenres[artist.ID] {
				genre = strings.ToLower(strings.TrimSpace(genre))
				if genre == "" {
					continue
				}
				if _, seen := counts[genre]; !seen {
					profile.GenreOrder = append(profile.GenreOrder, genre)
				}
				counts[genre]++
				total++
			}
		}
	}
	for genre, count := range counts {
		profile.Genres[genre] = float64(count) / float64(total)
	}

	return profile
}

// featureCentroid averages each dimension over the vectors that define it.
func featureCentroid(features []models.Features) models.Features {
	var centroid models.Features
	centroid.Energy = meanOf(features, func(f models.Features) *float64 { return f.Energy })
	centroid.Valence = meanOf(features, func(f models.Features) *float64 { return f.Valence })
	centroid.Tempo = meanOf(features, func(f models.Features) *float64 { return f.Tempo })
	centroid.Danceability = meanOf(features, func(f models.Features) *float64 { return f.Danceability })
	centroid.Acousticness = meanOf(features, func(f models.Features) *float64 { return f.Acousticness })
	centroid.Instrumentalness = meanOf(features, func(f models.Features) *float64 { return f.Instrumentalness })
	return centroid
}

func meanOf(features []models.Features, dim func(models.Features) *float64) *float64 {
	var sum float64
	var n int
	for _, f := range features {
		if v := dim(f); v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	mean := sum / float64(n)
	return &mean
}
