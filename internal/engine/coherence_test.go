package engine

import (
	"testing"

	"github.com/desertthunder/mixtape/internal/models"
	mocks "github.com/desertthunder/mixtape/internal/testing"
)

func testProfile() *models.VibeProfile {
	return &models.VibeProfile{
		AnchorIDs: []string{"anchor1"},
		Centroid: models.Features{
			Energy:  mocks.FloatPtr(0.6),
			Valence: mocks.FloatPtr(0.5),
			Tempo:   mocks.FloatPtr(120),
		},
		Genres:          map[string]float64{"art rock": 0.6, "alternative": 0.4},
		GenreOrder:      []string{"art rock", "alternative"},
		AnchorArtistIDs: map[string]struct{}{"a1": {}},
		HasFeatures:     true,
	}
}

func TestScoreFeatures(t *testing.T) {
	scorer := NewScorer(testProfile(), DefaultWeights(), nil, nil, 3)

	t.Run("identical features score 1", func(t *testing.T) {
		f := models.Features{
			Energy:  mocks.FloatPtr(0.6),
			Valence: mocks.FloatPtr(0.5),
			Tempo:   mocks.FloatPtr(120),
		}
		if got := scorer.scoreFeatures(&f); got != 1.0 {
			t.Errorf("expected 1.0, got %v", got)
		}
	})

	t.Run("missing features are neutral", func(t *testing.T) {
		if got := scorer.scoreFeatures(nil); got != 0.5 {
			t.Errorf("expected 0.5, got %v", got)
		}
	})

	t.Run("tempo distance is normalized by 120", func(t *testing.T) {
		f := models.Features{Tempo: mocks.FloatPtr(180)}
		// distance = 60/120 = 0.5 over one dimension
		if got := scorer.scoreFeatures(&f); got != 0.5 {
			t.Errorf("expected 0.5, got %v", got)
		}
	})
}

func TestScoreGenres(t *testing.T) {
	scorer := NewScorer(testProfile(), DefaultWeights(), nil, nil, 3)

	cases := []struct {
		name   string
		genres []string
		want   float64
	}{
		{"exact match earns full weight", []string{"art rock"}, 0.6},
		{"substring match earns half weight", []string{"rock"}, 0.3},
		{"no overlap is penalized", []string{"death metal"}, 0.1},
		{"no genre info is penalized", nil, 0.2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := scorer.scoreGenres(tc.genres); got != tc.want {
				t.Errorf("scoreGenres(%v) = %v, want %v", tc.genres, got, tc.want)
			}
		})
	}

	t.Run("empty profile is neutral", func(t *testing.T) {
		empty := NewScorer(&models.VibeProfile{}, DefaultWeights(), nil, nil, 3)
		if got := empty.scoreGenres([]string{"anything"}); got != 0.5 {
			t.Errorf("expected 0.5, got %v", got)
		}
	})
}

func TestScoreArtistRelationship(t *testing.T) {
	related := map[string]map[string]struct{}{
		"a1": {"a2": {}},
		"a2": {"a3": {}},
	}
	scorer := NewScorer(testProfile(), DefaultWeights(), related, nil, 3)

	cases := []struct {
		name string
		ids  map[string]struct{}
		want float64
	}{
		{"anchor artist", map[string]struct{}{"a1": {}}, 1.0},
		{"one hop", map[string]struct{}{"a2": {}}, 0.7},
		{"two hops", map[string]struct{}{"a3": {}}, 0.4},
		{"unrelated", map[string]struct{}{"a9": {}}, 0.1},
		{"no artist data", nil, 0.3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := scorer.scoreArtistRelationship(tc.ids); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestScoreRecency(t *testing.T) {
	plays := map[string]int{"hot": 10, "warm": 4}
	scorer := NewScorer(testProfile(), DefaultWeights(), nil, plays, 3)

	if got := scorer.scoreRecency("hot"); got != 1.0 {
		t.Errorf("expected capped 1.0, got %v", got)
	}
	if got := scorer.scoreRecency("warm"); got != 0.7 {
		t.Errorf("expected 0.7, got %v", got)
	}
	if got := scorer.scoreRecency("unplayed"); got != 0.3 {
		t.Errorf("expected discovery baseline 0.3, got %v", got)
	}

	noData := NewScorer(testProfile(), DefaultWeights(), nil, nil, 3)
	if got := noData.scoreRecency("hot"); got != 0.5 {
		t.Errorf("expected neutral 0.5 with no data, got %v", got)
	}
}

func TestScorePopularity(t *testing.T) {
	cases := []struct {
		popularity *int
		want       float64
	}{
		{mocks.IntPtr(45), 1.0},
		{mocks.IntPtr(30), 1.0},
		{mocks.IntPtr(60), 1.0},
		{mocks.IntPtr(25), 0.8},
		{mocks.IntPtr(65), 0.8},
		{mocks.IntPtr(15), 0.6},
		{mocks.IntPtr(75), 0.6},
		{mocks.IntPtr(5), 0.4},
		{mocks.IntPtr(90), 0.3},
		{nil, 0.5},
	}

	for _, tc := range cases {
		if got := scorePopularity(tc.popularity); got != tc.want {
			t.Errorf("scorePopularity(%v) = %v, want %v", tc.popularity, got, tc.want)
		}
	}
}

func TestScoreDiversity(t *testing.T) {
	scorer := NewScorer(testProfile(), DefaultWeights(), nil, nil, 3)
	selected := map[string]int{"Busy": 1, "Nearly": 2, "Full": 3}

	cases := []struct {
		artist string
		want   float64
	}{
		{"Fresh", 1.0},
		{"Busy", 0.6},
		{"Nearly", 0.3},
		{"Full", 0.0},
	}

	for _, tc := range cases {
		if got := scorer.scoreDiversity(tc.artist, selected); got != tc.want {
			t.Errorf("scoreDiversity(%q) = %v, want %v", tc.artist, got, tc.want)
		}
	}

	if got := scorer.scoreDiversity("Anyone", nil); got != 1.0 {
		t.Errorf("expected 1.0 with empty selection, got %v", got)
	}
}

// a candidate matching an anchor artist and genre, heavily played recently,
// with sweet-spot popularity and no same-artist selections must score > 0.9
func TestScoreHighAffinityCandidate(t *testing.T) {
	plays := map[string]int{"candidate": 10}
	scorer := NewScorer(testProfile(), DefaultWeights(), nil, plays, 3)

	track := models.Track{
		ID:         "candidate",
		Title:      "Perfect Fit",
		Artists:    []models.Artist{{ID: "a1", Name: "Anchor Artist"}},
		Genres:     []string{"art rock", "alternative"},
		Popularity: mocks.IntPtr(45),
	}
	features := models.Features{
		Energy:  mocks.FloatPtr(0.6),
		Valence: mocks.FloatPtr(0.5),
		Tempo:   mocks.FloatPtr(120),
	}

	breakdown := scorer.Score(track, &features, nil)

	if breakdown.Total <= 0.9 {
		t.Errorf("expected total > 0.9, got %v (%+v)", breakdown.Total, breakdown)
	}
	if breakdown.Total > 1.0 {
		t.Errorf("total exceeds 1: %v", breakdown.Total)
	}
}

func TestScoreAlwaysInUnitRange(t *testing.T) {
	scorer := NewScorer(testProfile(), DefaultWeights(), nil, map[string]int{}, 3)

	tracks := []models.Track{
		{ID: "x"},
		{ID: "y", Genres: []string{"noise"}, Popularity: mocks.IntPtr(99)},
		{ID: "z", Artists: []models.Artist{{ID: "a1", Name: "A"}}, Popularity: mocks.IntPtr(0)},
	}

	for _, track := range tracks {
		b := scorer.Score(track, nil, map[string]int{"A": 5})
		for name, v := range map[string]float64{
			"feature":    b.FeatureSimilarity,
			"genre":      b.GenreMatch,
			"artist":     b.ArtistRelationship,
			"recency":    b.RecencyBonus,
			"popularity": b.PopularityBalance,
			"diversity":  b.DiversityPenalty,
			"total":      b.Total,
		} {
			if v < 0 || v > 1 {
				t.Errorf("track %s: %s component %v outside [0,1]", track.ID, name, v)
			}
		}
	}
}
