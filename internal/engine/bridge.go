package engine

import (
	"context"
	"fmt"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
)

// Bridge generates a playlist that transitions from one track to another by
// walking the similarity graph. A failed search produces a result with
// Success=false and a reason; only malformed input or catalog failures
// return an error.
func (g *Generator) Bridge(ctx context.Context, req models.BridgeRequest, progress chan<- ProgressUpdate) (*models.BridgeResult, error) {
	if req.StartID == "" || req.EndID == "" {
		return nil, fmt.Errorf("%w: start and end track ids are required", shared.ErrInvalidInput)
	}
	if req.Count <= 0 {
		req.Count = 20
	}

	cfg := g.cfg
	if req.MaxIterations > 0 {
		cfg.MaxIterations = req.MaxIterations
	}
	if req.Timeout > 0 {
		cfg.SearchTimeout = req.Timeout
	}

	endpoints, err := g.catalog.SeveralTracks(ctx, []string{req.StartID, req.EndID})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch endpoint tracks: %w", err)
	}
	byID := make(map[string]models.Track, len(endpoints))
	for _, t := range endpoints {
		byID[t.ID] = t
	}
	startTrack, okS := byID[req.StartID]
	endTrack, okE := byID[req.EndID]
	if !okS || !okE {
		return nil, fmt.Errorf("%w: could not resolve start or end track", shared.ErrTrackNotFound)
	}

	start := PathNode{Artist: startTrack.PrimaryArtist(), Title: startTrack.Title}
	end := PathNode{Artist: endTrack.PrimaryArtist(), Title: endTrack.Title}
	if start.Artist == "" || start.Title == "" || end.Artist == "" || end.Title == "" {
		return nil, fmt.Errorf("%w: endpoint track is missing artist or title", shared.ErrInvalidInput)
	}

	g.sendProgress(progress, searchInitUpdate(start.Artist, end.Artist))

	finder := NewPathFinder(g.oracle, g.logger, cfg)
	result := finder.FindPath(ctx, start, end, func(iteration, visited int, current PathNode) {
		g.sendProgress(progress, searchExpandUpdate(iteration, visited, current.Artist+" - "+current.Title))
	})

	if !result.Found {
		return &models.BridgeResult{
			Iterations: result.Iterations,
			Reason:     "no path found between tracks; they may be too different",
		}, nil
	}

	pathLength := len(result.Path)
	g.sendProgress(progress, resolvePathUpdate(pathLength))

	path := sampleEvenly(result.Path, req.Count)

	tracks := []models.PathTrack{{Track: startTrack, Role: models.RoleStart}}
	seen := map[string]struct{}{startTrack.ID: {}, endTrack.ID: {}}

	if len(path) > 2 {
		for _, node := range path[1 : len(path)-1] {
			resolved, err := g.catalog.ResolveTrack(ctx, node.Artist, node.Title)
			if err != nil {
				g.logger.Warn("failed to resolve bridge track", "artist", node.Artist, "title", node.Title, "error", err)
				continue
			}
			if resolved == nil {
				continue
			}
			// First occurrence wins: distinct path nodes can resolve to the
			// same catalog track.
			if _, dup := seen[resolved.ID]; dup {
				continue
			}
			seen[resolved.ID] = struct{}{}
			tracks = append(tracks, models.PathTrack{
				Track: *resolved,
				Role:  models.RoleBridge,
				Note:  fmt.Sprintf("%.0f%% similar", node.Match*100),
			})
		}
	}

	tracks = append(tracks, models.PathTrack{Track: endTrack, Role: models.RoleEnd})

	return &models.BridgeResult{
		Tracks:     tracks,
		PathLength: pathLength,
		Iterations: result.Iterations,
		Success:    true,
	}, nil
}

// sampleEvenly picks evenly spaced entries down to target length, always
// keeping the first and last.
func sampleEvenly(path []PathNode, target int) []PathNode {
	if len(path) <= target {
		return path
	}
	if target <= 2 {
		return []PathNode{path[0], path[len(path)-1]}
	}

	step := float64(len(path)-1) / float64(target-1)
	sampled := make([]PathNode, 0, target)
	for i := 0; i < target; i++ {
		sampled = append(sampled, path[int(float64(i)*step)])
	}
	sampled[len(sampled)-1] = path[len(path)-1]

	return sampled
}
