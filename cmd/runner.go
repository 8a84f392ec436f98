package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtape/internal/engine"
	"github.com/desertthunder/mixtape/internal/history"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	spotify    *services.SpotifyService
	lastfm     *services.LastFMService
	db         *sql.DB
	store      *history.Store
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Spotify    *services.SpotifyService
	LastFM     *services.LastFMService
	DB         *sql.DB
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		spotify:    opts.Spotify,
		lastfm:     opts.LastFM,
		db:         opts.DB,
		logger:     opts.Logger,
		output:     opts.Output,
	}
	if opts.DB != nil {
		r.store = history.NewStore(opts.DB)
	}
	return r
}

// SetLogger swaps the Runner's logger, used by the TUI to redirect logs to a file.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, vibeCommand, bridgeCommand, statsCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// ensureStore lazily opens the history database from the configured path.
func (r *Runner) ensureStore() (*history.Store, error) {
	if r.store != nil {
		return r.store, nil
	}

	if _, err := os.Stat(r.config.Database.Path); err != nil {
		return nil, fmt.Errorf("%w: database not found at %s, run 'mixtape setup' first", shared.ErrMissingConfig, r.config.Database.Path)
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	r.db = db
	r.store = history.NewStore(db)
	return r.store, nil
}

// ensureSpotify authenticates the catalog service from the stored tokens.
func (r *Runner) ensureSpotify(ctx context.Context) (*services.SpotifyService, error) {
	if r.spotify == nil {
		return nil, fmt.Errorf("%w: Spotify credentials not configured, set client_id and client_secret in config.toml", shared.ErrServiceUnavailable)
	}
	if r.spotify.Token() != nil {
		return r.spotify, nil
	}

	creds := r.config.Credentials.Spotify.Map()
	if creds["access_token"] == "" && creds["refresh_token"] == "" {
		return nil, fmt.Errorf("%w: run 'mixtape auth' first", shared.ErrNotAuthenticated)
	}
	if err := r.spotify.Authenticate(ctx, creds); err != nil {
		return nil, fmt.Errorf("failed to authenticate with Spotify: %w", err)
	}
	return r.spotify, nil
}

// generator builds the playlist generator from the Runner's collaborators.
func (r *Runner) generator(ctx context.Context) (*engine.Generator, error) {
	catalog, err := r.ensureSpotify(ctx)
	if err != nil {
		return nil, err
	}
	if r.lastfm == nil {
		return nil, fmt.Errorf("%w: Last.fm api_key not configured in config.toml", shared.ErrServiceUnavailable)
	}
	store, err := r.ensureStore()
	if err != nil {
		return nil, err
	}

	cfg := engine.ConfigFromShared(r.config.Generator)
	return engine.New(r.lastfm, catalog, store, r.logger, cfg), nil
}

// saveTokens persists freshly issued OAuth tokens to the config file. With no
// config path set the tokens are only updated in memory.
func (r *Runner) saveTokens(token *oauth2.Token) error {
	if r.config == nil {
		return fmt.Errorf("%w: config is nil", shared.ErrMissingConfig)
	}

	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}

	if r.configPath == "" {
		return nil
	}

	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
