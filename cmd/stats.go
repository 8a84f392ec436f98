package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/mixtape/internal/history"
	"github.com/urfave/cli/v3"
)

// statsReport is the JSON shape of the stats command output.
type statsReport struct {
	Days       int                     `json:"days"`
	TopArtists []history.ArtistCount   `json:"top_artists"`
	TopGenres  []history.GenreCount    `json:"top_genres"`
	Recent     *history.RecentActivity `json:"recent"`
}

// Stats reports top artists, top genres, and recent activity from the local
// listening history.
func (r *Runner) Stats(ctx context.Context, cmd *cli.Command) error {
	days := int(cmd.Int("days"))
	top := int(cmd.Int("top"))
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	store, err := r.ensureStore()
	if err != nil {
		return err
	}

	r.logger.Info("aggregating listening history", "days", days, "top", top)

	artists, err := store.TopArtists(ctx, top)
	if err != nil {
		return fmt.Errorf("failed to aggregate artists: %w", err)
	}
	genres, err := store.TopGenres(ctx, top)
	if err != nil {
		return fmt.Errorf("failed to aggregate genres: %w", err)
	}
	recent, err := store.RecentActivity(ctx, days)
	if err != nil {
		return fmt.Errorf("failed to aggregate recent activity: %w", err)
	}

	if useJSON {
		return r.writeJSON(statsReport{Days: days, TopArtists: artists, TopGenres: genres, Recent: recent}, pretty)
	}

	r.writePlainHeader("Listening History")

	r.writePlain("Top artists:\n")
	for i, a := range artists {
		r.writePlain("%2d. %s (%d plays)\n", i+1, a.Artist, a.PlayCount)
	}

	r.writePlainln("Top genres:")
	for i, g := range genres {
		r.writePlain("%2d. %s (%d plays)\n", i+1, g.Genre, g.PlayCount)
	}

	r.writePlainln("Last %d days: %d plays", days, recent.TotalPlays)
	if len(recent.Artists) > 0 {
		names := make([]string, 0, len(recent.Artists))
		for i, a := range recent.Artists {
			if i == 5 {
				break
			}
			names = append(names, a.Artist)
		}
		r.writePlain("Recent rotation: %s\n", strings.Join(names, ", "))
	}

	return nil
}
