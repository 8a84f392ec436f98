package engine

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/desertthunder/mixtape/internal/models"
	mocks "github.com/desertthunder/mixtape/internal/testing"
)

func playlistTracks(ids ...string) []models.PlaylistTrack {
	tracks := make([]models.PlaylistTrack, len(ids))
	for i, id := range ids {
		tracks[i] = models.PlaylistTrack{Track: models.Track{ID: id, Title: id}}
	}
	return tracks
}

func idsOf(tracks []models.PlaylistTrack) []string {
	ids := make([]string, len(tracks))
	for i, t := range tracks {
		ids[i] = t.Track.ID
	}
	return ids
}

func assertSameMultiset(t *testing.T, before, after []models.PlaylistTrack) {
	t.Helper()
	if len(before) != len(after) {
		t.Fatalf("length changed: %d -> %d", len(before), len(after))
	}
	a, b := idsOf(before), idsOf(after)
	sort.Strings(a)
	sort.Strings(b)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("multiset changed: %v vs %v", a, b)
		}
	}
}

func featuresFixture() map[string]models.Features {
	f := func(energy, valence, tempo float64) models.Features {
		return models.Features{
			Energy:  mocks.FloatPtr(energy),
			Valence: mocks.FloatPtr(valence),
			Tempo:   mocks.FloatPtr(tempo),
		}
	}
	return map[string]models.Features{
		"low1":  f(0.1, 0.3, 90),
		"low2":  f(0.2, 0.4, 95),
		"mid1":  f(0.45, 0.5, 110),
		"mid2":  f(0.55, 0.5, 115),
		"high1": f(0.8, 0.7, 140),
		"high2": f(0.9, 0.8, 150),
	}
}

func TestTransitionCost(t *testing.T) {
	features := map[string]models.Features{
		"a": {Energy: mocks.FloatPtr(0.5), Valence: mocks.FloatPtr(0.5), Tempo: mocks.FloatPtr(120)},
		"b": {Energy: mocks.FloatPtr(0.5), Valence: mocks.FloatPtr(0.5), Tempo: mocks.FloatPtr(120)},
		"c": {Energy: mocks.FloatPtr(1.0), Valence: mocks.FloatPtr(0.0), Tempo: mocks.FloatPtr(180)},
	}
	genres := map[string]map[string]struct{}{
		"a": {"rock": {}},
		"b": {"rock": {}},
		"x": {"rock": {}},
		"y": {"jazz": {}},
	}

	s := NewSequencer(features, genres)

	t.Run("identical tracks cost the genre discount floor", func(t *testing.T) {
		if got := s.TransitionCost("a", "b"); got != 0 {
			t.Errorf("expected 0, got %v", got)
		}
	})

	t.Run("large jumps are expensive", func(t *testing.T) {
		// energy: (0.5-0.1)*2 = 0.8; tempo: (60/20)*0.5 = 1.5; valence: 0.15
		got := s.TransitionCost("a", "c")
		if math.Abs(got-2.45) > 1e-9 {
			t.Errorf("expected 2.45, got %v", got)
		}
	})

	t.Run("genre fallback without features", func(t *testing.T) {
		if got := s.TransitionCost("x", "y"); got != 0.6 {
			t.Errorf("expected 0.6 for disjoint genres, got %v", got)
		}
		if got := s.TransitionCost("x", "c"); got != 0.5 {
			t.Errorf("expected neutral 0.5 when genre info is one-sided, got %v", got)
		}
	})
}

func TestOrderSmoothPreservesMultiset(t *testing.T) {
	tracks := playlistTracks("low1", "high2", "mid1", "low2", "high1", "mid2")
	s := NewSequencer(featuresFixture(), nil)
	s.SetRand(rand.New(rand.NewSource(7)))

	ordered := s.Order(tracks, models.FlowSmooth)
	assertSameMultiset(t, tracks, ordered)
}

func TestOrderShufflePreservesMultiset(t *testing.T) {
	tracks := playlistTracks("a", "b", "c", "d", "e")
	s := NewSequencer(nil, nil)
	s.SetRand(rand.New(rand.NewSource(7)))

	ordered := s.Order(tracks, models.FlowShuffle)
	assertSameMultiset(t, tracks, ordered)
}

func TestOrderEnergyArc(t *testing.T) {
	tracks := playlistTracks("high1", "low1", "mid2", "low2", "high2", "mid1")
	s := NewSequencer(featuresFixture(), nil)
	s.SetRand(rand.New(rand.NewSource(7)))

	ordered := s.Order(tracks, models.FlowEnergyArc)
	assertSameMultiset(t, tracks, ordered)

	// the arc opens with the lowest-energy track
	if ordered[0].Track.ID != "low1" {
		t.Errorf("expected low-energy opener, got %s", ordered[0].Track.ID)
	}

	// the high tercile forms a contiguous peak
	first, last := -1, -1
	for i, tr := range ordered {
		if tr.Track.ID == "high1" || tr.Track.ID == "high2" {
			if first == -1 {
				first = i
			}
			last = i
		}
	}
	if last-first != 1 {
		t.Errorf("expected contiguous peak, high tracks at %d and %d: %v", first, last, idsOf(ordered))
	}
}

func TestOrderSingleTrack(t *testing.T) {
	tracks := playlistTracks("only")
	s := NewSequencer(nil, nil)

	for _, mode := range []models.FlowMode{models.FlowSmooth, models.FlowEnergyArc, models.FlowShuffle} {
		ordered := s.Order(tracks, mode)
		if len(ordered) != 1 || ordered[0].Track.ID != "only" {
			t.Errorf("mode %s: unexpected result %v", mode, idsOf(ordered))
		}
	}
}

func TestFlowStats(t *testing.T) {
	s := NewSequencer(featuresFixture(), nil)

	t.Run("single track yields zero stats", func(t *testing.T) {
		stats := s.Stats(playlistTracks("low1"))
		if stats.TotalTransitions != 0 || stats.AvgTransitionCost != 0 || stats.MaxTransitionCost != 0 {
			t.Errorf("expected zero stats, got %+v", stats)
		}
	})

	t.Run("counts smooth and jarring transitions", func(t *testing.T) {
		stats := s.Stats(playlistTracks("low1", "low2", "high2"))
		if stats.TotalTransitions != 2 {
			t.Fatalf("expected 2 transitions, got %d", stats.TotalTransitions)
		}
		if stats.SmoothTransitions != 1 {
			t.Errorf("expected 1 smooth transition, got %d", stats.SmoothTransitions)
		}
		if stats.JarringTransitions != 1 {
			t.Errorf("expected 1 jarring transition, got %d", stats.JarringTransitions)
		}
		if stats.MaxTransitionCost <= stats.AvgTransitionCost {
			t.Errorf("max %v should exceed avg %v", stats.MaxTransitionCost, stats.AvgTransitionCost)
		}
	})
}
