package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/desertthunder/mixtape/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI. Without flags it browses saved
// playlists; with --anchor it runs a vibe generation with live progress.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/mixtape-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	anchors := cmd.StringSlice("anchor")

	var model *ui.Model
	if len(anchors) > 0 {
		gen, err := r.generator(ctx)
		if err != nil {
			return err
		}

		anchorIDs, _, err := r.resolveTrackArgs(ctx, anchors)
		if err != nil {
			return err
		}

		flow, err := models.ParseFlowMode(cmd.String("flow"))
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
		}

		req := models.VibeRequest{
			AnchorIDs:      anchorIDs,
			Count:          int(cmd.Int("count")),
			DiscoveryRatio: int(cmd.Int("discovery")),
			Flow:           flow,
		}
		if err := req.Validate(); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
		}

		model = ui.NewGenerateModel(ctx, gen, req)
	} else {
		store, err := r.ensureStore()
		if err != nil {
			return err
		}
		model = ui.NewBrowseModel(ctx, store)
	}

	p := tea.NewProgram(model)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
