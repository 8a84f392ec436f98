package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/mixtape/internal/engine"
	"github.com/desertthunder/mixtape/internal/formatter"
	"github.com/desertthunder/mixtape/internal/history"
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/urfave/cli/v3"
)

// Vibe generates an anchor-based playlist and prints, saves, exports, or
// publishes the result depending on the flags.
func (r *Runner) Vibe(ctx context.Context, cmd *cli.Command) error {
	anchors := cmd.StringSlice("anchor")
	count := int(cmd.Int("count"))
	discovery := int(cmd.Int("discovery"))
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	flow, err := models.ParseFlowMode(cmd.String("flow"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}

	gen, err := r.generator(ctx)
	if err != nil {
		return err
	}

	anchorIDs, anchorTracks, err := r.resolveTrackArgs(ctx, anchors)
	if err != nil {
		return err
	}

	req := models.VibeRequest{
		AnchorIDs:       anchorIDs,
		Count:           count,
		DiscoveryRatio:  discovery,
		Flow:            flow,
		ExcludedArtists: cmd.StringSlice("exclude-artist"),
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	r.logger.Info("generating vibe playlist", "anchors", len(anchorIDs), "count", count, "discovery", discovery, "flow", flow)

	progress, done := r.drainProgress()
	result, err := gen.Vibe(ctx, req, progress)
	close(progress)
	<-done
	if err != nil {
		return fmt.Errorf("vibe generation failed: %w", err)
	}

	if useJSON {
		return r.writeJSON(result, pretty)
	}

	name := cmd.String("name")
	if name == "" {
		name = vibePlaylistName(anchorTracks)
	}

	r.printVibeResult(name, result)
	return r.finishPlaylist(ctx, cmd, history.FromVibeResult(name, "", result))
}

// resolveTrackArgs turns CLI track arguments into catalog track IDs. An
// argument containing " - " is treated as "Artist - Title" and resolved
// through search; anything else is passed through as an ID.
func (r *Runner) resolveTrackArgs(ctx context.Context, args []string) ([]string, []models.Track, error) {
	ids := make([]string, 0, len(args))
	tracks := make([]models.Track, 0, len(args))
	for _, arg := range args {
		artist, title, ok := strings.Cut(arg, " - ")
		if !ok {
			ids = append(ids, strings.TrimSpace(arg))
			continue
		}

		track, err := r.spotify.ResolveTrack(ctx, strings.TrimSpace(artist), strings.TrimSpace(title))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve %q: %w", arg, err)
		}
		if track == nil {
			return nil, nil, fmt.Errorf("%w: no catalog match for %q", shared.ErrTrackNotFound, arg)
		}
		r.logger.Debug("resolved track", "query", arg, "id", track.ID, "title", track.Title)
		ids = append(ids, track.ID)
		tracks = append(tracks, *track)
	}
	return ids, tracks, nil
}

// drainProgress consumes engine progress updates, printing a line per phase
// transition. The returned channel is closed once the drain goroutine exits.
func (r *Runner) drainProgress() (chan engine.ProgressUpdate, chan struct{}) {
	progress := make(chan engine.ProgressUpdate, 64)
	done := make(chan struct{})

	go func() {
		defer close(done)
		var last engine.Phase = -1
		for update := range progress {
			if update.Phase != last {
				r.writePlain("→ %s\n", phaseLine(update))
				last = update.Phase
			}
			r.logger.Debug("progress", "phase", update.Phase.String(), "step", update.Step, "total", update.Total, "message", update.Message)
		}
	}()

	return progress, done
}

func phaseLine(update engine.ProgressUpdate) string {
	switch update.Phase {
	case engine.ResolveAnchors:
		return "Resolving anchor tracks..."
	case engine.BuildProfile:
		return "Building vibe profile..."
	case engine.GatherHistory:
		return "Gathering history candidates..."
	case engine.GatherDiscovery:
		return "Exploring the catalog..."
	case engine.ScoreCandidates:
		return "Scoring candidates..."
	case engine.SelectTracks:
		return "Selecting tracks..."
	case engine.Sequence:
		return "Sequencing for flow..."
	case engine.SearchInit:
		return "Preparing bridge search..."
	case engine.SearchExpand:
		return "Expanding the similarity graph..."
	case engine.ResolvePath:
		return "Resolving the path..."
	default:
		return "Working..."
	}
}

func vibePlaylistName(anchors []models.Track) string {
	if len(anchors) == 0 {
		return "Vibe Mix"
	}
	return fmt.Sprintf("Vibe of %s", anchors[0].Title)
}

func (r *Runner) printVibeResult(name string, result *models.VibeResult) {
	r.writePlainHeader(name)

	for i, t := range result.Tracks {
		r.writePlain("%2d. %s - %s\n", i+1, t.Track.PrimaryArtist(), t.Track.Title)
		detail := fmt.Sprintf("[%s] %.2f", t.Provenance, t.Scores.Total)
		if t.Reason != "" {
			detail = fmt.Sprintf("%s · %s", detail, t.Reason)
		}
		r.writePlain("    %s\n", detail)
	}

	if len(result.Profile.TopGenres) > 0 {
		r.writePlainln("Profile genres: %s", strings.Join(result.Profile.TopGenres, ", "))
	}
	r.writePlain("%d tracks (%d history / %d discovery)\n", len(result.Tracks), result.HistoryCount, result.DiscoveryCount)
	r.writePlain("Flow: avg cost %.2f, max %.2f, %d smooth / %d jarring\n",
		result.Flow.AvgTransitionCost, result.Flow.MaxTransitionCost,
		result.Flow.SmoothTransitions, result.Flow.JarringTransitions)
}

// finishPlaylist applies the shared --save/--create/--export flags to a
// generated playlist.
func (r *Runner) finishPlaylist(ctx context.Context, cmd *cli.Command, playlist history.SavedPlaylist) error {
	if cmd.Bool("save") {
		store, err := r.ensureStore()
		if err != nil {
			return err
		}
		id, err := store.SavePlaylist(ctx, playlist)
		if err != nil {
			return fmt.Errorf("failed to save playlist: %w", err)
		}
		playlist.ID = id
		r.writePlainln("✓ Saved locally as %s", id)
	}

	if format := cmd.String("export"); format != "" {
		if err := r.exportPlaylist(&playlist, format, cmd.String("output")); err != nil {
			return err
		}
	}

	if cmd.Bool("create") {
		created, err := r.createOnSpotify(ctx, &playlist)
		if err != nil {
			return err
		}
		r.writePlainln("✓ Created on Spotify: %s", created.URL)
	}

	return nil
}

func (r *Runner) exportPlaylist(playlist *history.SavedPlaylist, format, output string) error {
	switch format {
	case "csv":
		result, err := formatter.WriteCSVExport(playlist, output)
		if err != nil {
			return fmt.Errorf("failed to export CSV: %w", err)
		}
		r.writePlainln("✓ Exported to %s (+ %s)", result.TracksFile, result.MetadataFile)
	case "markdown", "md":
		path, err := formatter.WriteMarkdownExport(playlist, output)
		if err != nil {
			return fmt.Errorf("failed to export Markdown: %w", err)
		}
		r.writePlainln("✓ Exported to %s", path)
	case "text", "txt":
		path, err := formatter.WriteTextExport(playlist, output)
		if err != nil {
			return fmt.Errorf("failed to export text: %w", err)
		}
		r.writePlainln("✓ Exported to %s", path)
	case "json":
		path, err := formatter.WriteJSONExport(playlist, output)
		if err != nil {
			return fmt.Errorf("failed to export JSON: %w", err)
		}
		r.writePlainln("✓ Exported to %s", path)
	default:
		return fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, format)
	}
	return nil
}

func (r *Runner) createOnSpotify(ctx context.Context, playlist *history.SavedPlaylist) (*services.CreatedPlaylist, error) {
	catalog, err := r.ensureSpotify(ctx)
	if err != nil {
		return nil, err
	}

	trackIDs := make([]string, 0, len(playlist.Tracks))
	for _, t := range playlist.Tracks {
		if t.TrackID != "" {
			trackIDs = append(trackIDs, t.TrackID)
		}
	}
	if len(trackIDs) == 0 {
		return nil, fmt.Errorf("%w: playlist has no catalog track ids", shared.ErrInvalidInput)
	}

	created, err := catalog.CreatePlaylist(ctx, playlist.Name, playlist.Description, trackIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to create Spotify playlist: %w", err)
	}
	return created, nil
}
