// package engine implements playlist generation: vibe assembly and bridge pathfinding.
package engine

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtape/internal/history"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/shared"
)

// HistoryReader is the slice of the history store the generator reads.
type HistoryReader interface {
	// AllTracksWithCounts returns every track in the history keyed by track id.
	AllTracksWithCounts(ctx context.Context) (map[string]history.TrackStats, error)

	// RecentActivity aggregates plays over the last N days.
	RecentActivity(ctx context.Context, days int) (*history.RecentActivity, error)

	// TopGenres returns the most played genres across the whole history.
	TopGenres(ctx context.Context, limit int) ([]history.GenreCount, error)
}

// Config holds the generation tuning knobs. Zero values are replaced with
// defaults by ConfigFromShared / DefaultEngineConfig.
type Config struct {
	CoherenceFloor float64
	MaxPerArtist   int
	SimilarLimit   int
	BatchSize      int
	MaxConcurrency int
	MaxIterations  int
	SearchTimeout  time.Duration
	Weights        Weights
}

// DefaultEngineConfig returns the documented defaults.
func DefaultEngineConfig() Config {
	return Config{
		CoherenceFloor: 0.35,
		MaxPerArtist:   3,
		SimilarLimit:   30,
		BatchSize:      10,
		MaxConcurrency: 20,
		MaxIterations:  1000,
		SearchTimeout:  60 * time.Second,
		Weights:        DefaultWeights(),
	}
}

// ConfigFromShared converts the TOML generator section, substituting
// defaults for unset values.
func ConfigFromShared(gc shared.GeneratorConfig) Config {
	cfg := DefaultEngineConfig()
	if gc.CoherenceFloor > 0 {
		cfg.CoherenceFloor = gc.CoherenceFloor
	}
	if gc.MaxPerArtist > 0 {
		cfg.MaxPerArtist = gc.MaxPerArtist
	}
	if gc.SimilarLimit > 0 {
		cfg.SimilarLimit = gc.SimilarLimit
	}
	if gc.BatchSize > 0 {
		cfg.BatchSize = gc.BatchSize
	}
	if gc.MaxConcurrency > 0 {
		cfg.MaxConcurrency = gc.MaxConcurrency
	}
	if gc.MaxIterations > 0 {
		cfg.MaxIterations = gc.MaxIterations
	}
	if gc.SearchTimeoutSeconds > 0 {
		cfg.SearchTimeout = time.Duration(gc.SearchTimeoutSeconds) * time.Second
	}
	w := Weights{
		FeatureSimilarity:  gc.Weights.FeatureSimilarity,
		GenreMatch:         gc.Weights.GenreMatch,
		ArtistRelationship: gc.Weights.ArtistRelationship,
		RecencyBonus:       gc.Weights.RecencyBonus,
		PopularityBalance:  gc.Weights.PopularityBalance,
		DiversityPenalty:   gc.Weights.DiversityPenalty,
	}
	if w != (Weights{}) {
		cfg.Weights = w
	}
	return cfg
}

// Generator orchestrates vibe playlist assembly and bridge pathfinding.
// Each call is independent and safely reentrant; the only shared state is
// the memoization inside the services.
type Generator struct {
	oracle  services.SimilarityOracle
	catalog services.Catalog
	history HistoryReader
	logger  *log.Logger
	cfg     Config
}

// New creates a Generator with the provided collaborators.
func New(oracle services.SimilarityOracle, catalog services.Catalog, hist HistoryReader, logger *log.Logger, cfg Config) *Generator {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Generator{
		oracle:  oracle,
		catalog: catalog,
		history: hist,
		logger:  logger,
		cfg:     cfg,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks generation.
func (g *Generator) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}
