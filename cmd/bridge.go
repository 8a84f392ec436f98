package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/mixtape/internal/history"
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/urfave/cli/v3"
)

// Bridge builds a playlist connecting a start track to an end track through
// the similarity graph. An exhausted search is reported, not returned as an
// error.
func (r *Runner) Bridge(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	gen, err := r.generator(ctx)
	if err != nil {
		return err
	}

	endpointIDs, _, err := r.resolveTrackArgs(ctx, []string{cmd.String("from"), cmd.String("to")})
	if err != nil {
		return err
	}

	req := models.BridgeRequest{
		StartID:       endpointIDs[0],
		EndID:         endpointIDs[1],
		Count:         int(cmd.Int("count")),
		MaxIterations: int(cmd.Int("max-iterations")),
		Timeout:       time.Duration(cmd.Int("timeout")) * time.Second,
	}

	r.logger.Info("generating bridge playlist", "start", req.StartID, "end", req.EndID, "count", req.Count)

	progress, done := r.drainProgress()
	result, err := gen.Bridge(ctx, req, progress)
	close(progress)
	<-done
	if err != nil {
		return fmt.Errorf("bridge generation failed: %w", err)
	}

	if useJSON {
		return r.writeJSON(result, pretty)
	}

	if !result.Success {
		r.writePlainln("✗ No bridge found: %s", result.Reason)
		r.writePlain("Searched %d iterations\n", result.Iterations)
		return nil
	}

	name := cmd.String("name")
	if name == "" {
		name = bridgePlaylistName(result)
	}

	r.printBridgeResult(name, result)
	return r.finishPlaylist(ctx, cmd, history.FromBridgeResult(name, result))
}

func bridgePlaylistName(result *models.BridgeResult) string {
	if len(result.Tracks) == 0 {
		return "Bridge Mix"
	}
	first := result.Tracks[0].Track
	last := result.Tracks[len(result.Tracks)-1].Track
	return fmt.Sprintf("%s to %s", first.Title, last.Title)
}

func (r *Runner) printBridgeResult(name string, result *models.BridgeResult) {
	r.writePlainHeader(name)

	for i, t := range result.Tracks {
		r.writePlain("%2d. %s - %s\n", i+1, t.Track.PrimaryArtist(), t.Track.Title)
		detail := string(t.Role)
		if t.Note != "" {
			detail = fmt.Sprintf("%s · %s", detail, t.Note)
		}
		r.writePlain("    %s\n", detail)
	}

	r.writePlainln("Path length %d (sampled to %d), %d search iterations",
		result.PathLength, len(result.Tracks), result.Iterations)
}
