package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/desertthunder/mixtape/internal/server"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/urfave/cli/v3"
)

// Auth runs the Spotify OAuth2 authorization-code flow.
//
// Starts a local HTTP server on the redirect URI's address, opens the browser
// for user authorization, exchanges the auth code for tokens, and persists
// them to the config file.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config := r.config
	if _, err := os.Stat(configPath); err == nil {
		if loaded, err := shared.LoadConfig(configPath); err == nil {
			config = loaded
		} else {
			r.logger.Warnf("failed to load config, using current settings %v", err)
		}
	}
	r.config = config
	r.configPath = configPath

	if config.Credentials.Spotify.ClientID == "" || config.Credentials.Spotify.ClientSecret == "" {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in %s", shared.ErrMissingCredentials, configPath)
	}

	svc, err := services.NewSpotifyService(config.Credentials.Spotify.Map(), config.Generator.CacheSize)
	if err != nil {
		return fmt.Errorf("failed to create Spotify service: %w", err)
	}

	state := shared.GenerateState()
	authURL := svc.GetAuthURL(state)
	handler := server.NewOAuthHandler(svc.OAuthConfig(), state)

	addr, err := callbackAddr(config.Credentials.Spotify.RedirectURI)
	if err != nil {
		return err
	}

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	authCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	token, err := server.ListenForCallback(authCtx, addr, handler, r.logger)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	if err := r.saveTokens(token); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Tokens saved to %s\n\n", configPath)
	r.writePlain("You can now use: mixtape vibe --anchor 'Artist - Title'\n")

	return nil
}

// callbackAddr derives the listen address from the configured redirect URI.
func callbackAddr(redirectURI string) (string, error) {
	u, err := url.Parse(redirectURI)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: invalid redirect_uri %q", shared.ErrInvalidConfig, redirectURI)
	}
	host := u.Host
	if u.Port() == "" {
		host += ":80"
	}
	return host, nil
}
