package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/autospoty/internal/shared"
)

// CodeReceiver obtains an authorization code from the user.
//
// Implementations present authURL (browser, terminal), wait for the redirect and must reject a
// redirect whose state differs from state with [shared.ErrStateMismatch].
type CodeReceiver interface {
	ReceiveCode(ctx context.Context, authURL, state string) (string, error)
}

// Authenticator establishes an authorized session for a [SpotifyService].
type Authenticator struct {
	service  *SpotifyService
	cache    *TokenCache
	receiver CodeReceiver
	logger   *log.Logger
}

// NewAuthenticator wires service, cache and receiver together.
func NewAuthenticator(service *SpotifyService, cache *TokenCache, receiver CodeReceiver, logger *log.Logger) *Authenticator {
	if logger == nil {
		logger = log.Default()
	}
	return &Authenticator{service: service, cache: cache, receiver: receiver, logger: logger}
}

// Authenticate installs a token on the service, reusing the cached one when it is usable and
// running the interactive flow otherwise. Refreshed tokens are saved back to the cache.
func (a *Authenticator) Authenticate(ctx context.Context) error {
	a.service.SetTokenRefreshCallback(a.persist)

	token, err := a.cache.Load()
	switch {
	case err == nil && (token.Valid() || token.RefreshToken != ""):
		a.logger.Debug("using cached token", "path", a.cache.Path(), "expiry", token.Expiry)
		a.service.UseToken(ctx, token)
		return nil
	case err == nil:
		a.logger.Info("cached token expired and cannot be refreshed")
	case errors.Is(err, shared.ErrNoCachedToken):
		a.logger.Debug("no usable cached token", "err", err)
	default:
		return err
	}

	return a.Login(ctx)
}

// Login always runs the interactive authorization flow and caches the resulting token.
func (a *Authenticator) Login(ctx context.Context) error {
	if a.receiver == nil {
		return fmt.Errorf("%w: no way to receive an authorization code", shared.ErrAuthFailed)
	}

	state, err := shared.GenerateState()
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}

	code, err := a.receiver.ReceiveCode(ctx, a.service.AuthURL(state), state)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}

	token, err := a.service.Exchange(ctx, code)
	if err != nil {
		return err
	}

	a.persist(token)
	a.logger.Info("authenticated with Spotify")
	return nil
}

// Logout forgets the cached token.
func (a *Authenticator) Logout() error {
	return a.cache.Clear()
}

// Status returns the cached token without contacting Spotify.
func (a *Authenticator) Status() (*oauth2.Token, error) {
	return a.cache.Load()
}

func (a *Authenticator) persist(token *oauth2.Token) {
	if err := a.cache.Save(token); err != nil {
		a.logger.Warn("failed to cache token", "err", err)
	}
}
