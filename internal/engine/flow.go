package engine

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/desertthunder/mixtape/internal/models"
)

// Sequencer orders a finished track set for playback. It never adds, drops,
// or duplicates tracks; every mode returns a permutation of its input.
type Sequencer struct {
	features map[string]models.Features
	genres   map[string]map[string]struct{}
	rng      *rand.Rand
}

// NewSequencer creates a Sequencer over per-track feature and genre maps.
func NewSequencer(features map[string]models.Features, genres map[string]map[string]struct{}) *Sequencer {
	return &Sequencer{
		features: features,
		genres:   genres,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetRand overrides the random source. Test hook.
func (s *Sequencer) SetRand(rng *rand.Rand) {
	s.rng = rng
}

// Order arranges tracks according to the flow mode.
func (s *Sequencer) Order(tracks []models.PlaylistTrack, mode models.FlowMode) []models.PlaylistTrack {
	switch mode {
	case models.FlowShuffle:
		shuffled := make([]models.PlaylistTrack, len(tracks))
		copy(shuffled, tracks)
		s.rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		return shuffled
	case models.FlowEnergyArc:
		return s.orderEnergyArc(tracks)
	default:
		return s.orderSmooth(tracks)
	}
}

// TransitionCost estimates the perceptual jarringness of playing track b
// immediately after track a. Lower is smoother. Falls back to a genre-only
// estimate when either track lacks features.
func (s *Sequencer) TransitionCost(aID, bID string) float64 {
	fa, okA := s.features[aID]
	fb, okB := s.features[bID]
	if !okA || !okB || !fa.Defined() || !fb.Defined() {
		ga, gb := s.genres[aID], s.genres[bID]
		if len(ga) > 0 && len(gb) > 0 {
			if sharedGenres(ga, gb) > 0 {
				return 0.3
			}
			return 0.6
		}
		return 0.5
	}

	cost := 0.0

	energyDiff := math.Abs(orDefault(fa.Energy, 0.5) - orDefault(fb.Energy, 0.5))
	if energyDiff > 0.3 {
		cost += (energyDiff - 0.1) * 2
	} else {
		cost += energyDiff * 0.5
	}

	tempoDiff := math.Abs(orDefault(fa.Tempo, 120) - orDefault(fb.Tempo, 120))
	if tempoDiff > 20 {
		cost += (tempoDiff / 20) * 0.5
	} else {
		cost += (tempoDiff / 40) * 0.3
	}

	cost += math.Abs(orDefault(fa.Valence, 0.5)-orDefault(fb.Valence, 0.5)) * 0.3

	// Genre continuity discount, capped at two shared genres.
	if overlap := sharedGenres(s.genres[aID], s.genres[bID]); overlap > 0 {
		cost -= 0.2 * math.Min(float64(overlap), 2)
	}

	return math.Max(0, cost)
}

// orderSmooth is a greedy nearest-neighbor walk from a random start,
// repeatedly appending the unplaced track with the cheapest transition from
// the last placed one.
func (s *Sequencer) orderSmooth(tracks []models.PlaylistTrack) []models.PlaylistTrack {
	if len(tracks) <= 1 {
		return tracks
	}

	remaining := make([]models.PlaylistTrack, len(tracks))
	copy(remaining, tracks)
	ordered := make([]models.PlaylistTrack, 0, len(tracks))

	start := s.rng.Intn(len(remaining))
	ordered = append(ordered, remaining[start])
	remaining = append(remaining[:start], remaining[start+1:]...)

	for len(remaining) > 0 {
		lastID := ordered[len(ordered)-1].Track.ID

		bestIdx := 0
		bestCost := math.Inf(1)
		for i, candidate := range remaining {
			if cost := s.TransitionCost(lastID, candidate.Track.ID); cost < bestCost {
				bestCost = cost
				bestIdx = i
			}
		}

		ordered = append(ordered, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return ordered
}

// orderEnergyArc builds a rise, peak, fall shape: a short low-energy
// opening, a build through the remaining low and the first half of mid, the
// shuffled high tercile as the climax, then the rest of mid descending.
func (s *Sequencer) orderEnergyArc(tracks []models.PlaylistTrack) []models.PlaylistTrack {
	if len(tracks) <= 2 {
		return tracks
	}

	byEnergy := make([]models.PlaylistTrack, len(tracks))
	copy(byEnergy, tracks)
	sort.SliceStable(byEnergy, func(i, j int) bool {
		return s.energyOf(byEnergy[i]) < s.energyOf(byEnergy[j])
	})

	n := len(byEnergy)
	third := n / 3
	low := byEnergy[:third]
	mid := byEnergy[third : 2*third]
	high := make([]models.PlaylistTrack, n-2*third)
	copy(high, byEnergy[2*third:])

	ordered := make([]models.PlaylistTrack, 0, n)

	opening := max(1, n/6)
	if opening > len(low) {
		opening = len(low)
	}
	ordered = append(ordered, low[:opening]...)
	ordered = append(ordered, low[opening:]...)

	halfMid := len(mid) / 2
	ordered = append(ordered, mid[:halfMid]...)

	s.rng.Shuffle(len(high), func(i, j int) {
		high[i], high[j] = high[j], high[i]
	})
	ordered = append(ordered, high...)

	// Wind down from higher to lower energy.
	for i := len(mid) - 1; i >= halfMid; i-- {
		ordered = append(ordered, mid[i])
	}

	return ordered
}

func (s *Sequencer) energyOf(t models.PlaylistTrack) float64 {
	if f, ok := s.features[t.Track.ID]; ok {
		return orDefault(f.Energy, 0.5)
	}
	return 0.5
}

// Stats reports transition quality over an ordered playlist. A playlist
// shorter than two tracks yields all-zero stats.
func (s *Sequencer) Stats(tracks []models.PlaylistTrack) models.FlowStats {
	var stats models.FlowStats
	if len(tracks) < 2 {
		return stats
	}

	var total float64
	for i := 0; i < len(tracks)-1; i++ {
		cost := s.TransitionCost(tracks[i].Track.ID, tracks[i+1].Track.ID)
		total += cost
		if cost > stats.MaxTransitionCost {
			stats.MaxTransitionCost = cost
		}
		if cost < 0.3 {
			stats.SmoothTransitions++
		}
		if cost > 0.6 {
			stats.JarringTransitions++
		}
		stats.TotalTransitions++
	}
	stats.AvgTransitionCost = total / float64(stats.TotalTransitions)

	return stats
}

func sharedGenres(a, b map[string]struct{}) int {
	count := 0
	for g := range a {
		if _, ok := b[g]; ok {
			count++
		}
	}
	return count
}

func orDefault(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}
