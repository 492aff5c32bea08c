package main

import (
	"context"

	"github.com/desertthunder/autospoty/internal/server"
	"github.com/desertthunder/autospoty/internal/services"
	"github.com/desertthunder/autospoty/internal/shared"
)

// session bundles the authenticated Spotify client with its token cache.
type session struct {
	creds   shared.Credentials
	service *services.SpotifyService
	cache   *services.TokenCache
	auth    *services.Authenticator
}

// newSession reads the credentials and wires the service, token cache and callback receiver.
// Nothing is contacted until the authenticator runs.
func (r *Runner) newSession() (*session, error) {
	creds, err := shared.LoadCredentials(r.getenv)
	if err != nil {
		return nil, err
	}

	cfg := r.config
	service, err := services.NewSpotifyService(services.SpotifyOpts{
		Credentials: creds,
		Scopes:      cfg.Auth.Scopes,
		ShowDialog:  cfg.Auth.ShowDialog,
		Catalog:     cfg.Catalog,
		Logger:      r.logger,
	})
	if err != nil {
		return nil, err
	}

	receiver := &server.CallbackReceiver{
		RedirectURI: creds.RedirectURI,
		Timeout:     cfg.Auth.AuthTimeout(),
		Out:         r.output,
		Logger:      r.logger,
		Prompt: func(ctx context.Context, message string) (string, error) {
			return r.prompter.Input(message)
		},
	}

	cache := services.NewTokenCache(cfg.Auth.CachePath)
	r.logger.Debug("spotify session configured", "client", creds.Masked(), "redirect", creds.RedirectURI)

	return &session{
		creds:   creds,
		service: service,
		cache:   cache,
		auth:    services.NewAuthenticator(service, cache, receiver, r.logger),
	}, nil
}
