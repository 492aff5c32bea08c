package main

import (
	"context"
	"errors"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/autospoty/internal/services"
	"github.com/desertthunder/autospoty/internal/shared"
	"github.com/desertthunder/autospoty/internal/ui"
)

// AuthLogin always runs the browser authorization flow, replacing any cached token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	s, err := r.newSession()
	if err != nil {
		return err
	}

	if err := s.auth.Login(ctx); err != nil {
		return err
	}

	r.session = s
	r.catalog = s.service

	r.writePlainln("%s", ui.Success("✓ Authorization successful"))
	r.writePlain("✓ Token saved to %s\n", s.cache.Path())
	return nil
}

// AuthLogout deletes the cached token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	cache := services.NewTokenCache(r.config.Auth.CachePath)
	if err := cache.Clear(); err != nil {
		return err
	}

	r.logger.Info("token cache cleared", "path", cache.Path())
	return r.writePlain("✓ Logged out\n")
}

// AuthStatus reports the cached token without contacting Spotify.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	cache := services.NewTokenCache(r.config.Auth.CachePath)
	token, err := cache.Load()
	if errors.Is(err, shared.ErrNoCachedToken) {
		r.writePlain("%s\n", ui.Warning("Not logged in"))
		return r.writePlain("Run 'autospoty auth login' to authorize.\n")
	} else if err != nil {
		return err
	}

	r.writePlainHeader("Spotify session")
	r.writePlain("Cache:    %s\n", cache.Path())

	switch {
	case token.Valid():
		r.writePlain("Status:   %s\n", ui.Success("valid"))
	case token.RefreshToken != "":
		r.writePlain("Status:   %s\n", ui.Warning("expired, will refresh on next use"))
	default:
		r.writePlain("Status:   %s\n", ui.Failure("expired"))
	}

	if !token.Expiry.IsZero() {
		r.writePlain("Expires:  %s\n", token.Expiry.Local().Format(time.RFC1123))
	}
	return nil
}
