package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/desertthunder/spt/internal/server"
	"github.com/desertthunder/spt/internal/services"
	"github.com/desertthunder/spt/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// SpotifyAuth performs the OAuth2 authorization-code flow for Spotify.
//
// Binds the loopback redirect listener, opens the browser for user authorization, captures the redirect,
// exchanges the code for tokens, and saves them to the config file.
func (r *Runner) SpotifyAuth(ctx context.Context, cmd *cli.Command) error {
	oauthSrv := r.oauth
	if oauthSrv == nil {
		srv, err := r.newSpotify()
		if err != nil {
			return err
		}
		oauthSrv = srv
	}

	token, err := r.doOAuth(ctx, oauthSrv)
	if err != nil {
		return err
	}

	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}

	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Tokens saved to %s\n\n", r.configPath)
	r.writePlain("You can now use: spt status --watch\n")

	return nil
}

// doOAuth binds the redirect listener before the browser opens so the callback cannot race the bind.
func (r *Runner) doOAuth(ctx context.Context, oauthSrv services.OAuthService) (*oauth2.Token, error) {
	r.checkRedirectPort()

	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	listener, err := server.Bind(r.config.Server.Port, server.WithLogger(r.logger))
	if err != nil {
		return nil, err
	}
	defer listener.Close()

	r.logger.Info("listening for OAuth redirect", "addr", listener.Addr())

	authURL := oauthSrv.AuthURL(state)
	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := r.openBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%s timeout)...\n", r.authTimeout)

	captureCtx, cancel := context.WithTimeout(ctx, r.authTimeout)
	defer cancel()

	raw, err := listener.Capture(captureCtx)
	if err != nil {
		if errors.Is(err, shared.ErrTimeout) {
			return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, r.authTimeout)
		}
		return nil, err
	}

	callback, err := server.ParseCallback(raw, state)
	if err != nil {
		return nil, fmt.Errorf("authorization failed: %w", err)
	}

	token, err := oauthSrv.Exchange(ctx, callback.Code)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	return token, nil
}

// checkRedirectPort warns when the registered redirect URI would not reach the listener.
func (r *Runner) checkRedirectPort() {
	redirect := r.config.Credentials.Spotify.RedirectURI
	if redirect == "" {
		return
	}

	u, err := url.Parse(redirect)
	if err != nil {
		r.logger.Warn("redirect_uri is not a valid URL", "redirect_uri", redirect, "error", err)
		return
	}
	if u.Port() != strconv.Itoa(r.config.Server.Port) {
		r.logger.Warn("redirect_uri port does not match server.port", "redirect_uri", redirect, "port", r.config.Server.Port)
	}
}
