package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/autospoty/internal/shared"
)

// PromptFunc asks the user for a line of input.
type PromptFunc func(ctx context.Context, message string) (string, error)

// CallbackReceiver obtains an authorization code by listening on the loopback redirect URI.
//
// When the redirect URI is not a loopback address, or its port cannot be bound, the user is
// asked to paste the URL the browser was redirected to instead.
type CallbackReceiver struct {
	RedirectURI string
	Timeout     time.Duration
	Out         io.Writer
	Logger      *log.Logger

	// OpenBrowser launches the authorization URL. Defaults to [shared.OpenBrowser].
	OpenBrowser func(string) error

	// Prompt reads the pasted redirect URL. Without it the manual fallback is unavailable.
	Prompt PromptFunc
}

func (c *CallbackReceiver) logger() *log.Logger {
	if c.Logger == nil {
		return log.Default()
	}
	return c.Logger
}

func (c *CallbackReceiver) out() io.Writer {
	if c.Out == nil {
		return io.Discard
	}
	return c.Out
}

// ReceiveCode implements the authorization code handoff for the Spotify authenticator.
func (c *CallbackReceiver) ReceiveCode(ctx context.Context, authURL, state string) (string, error) {
	redirect, err := url.Parse(c.RedirectURI)
	if err != nil {
		return "", fmt.Errorf("%w: redirect uri %q: %w", shared.ErrInvalidConfig, c.RedirectURI, err)
	}

	if !isLoopback(redirect.Hostname()) {
		c.logger().Debug("redirect uri is not local, asking for the redirected URL", "redirect_uri", c.RedirectURI)
		return c.manual(ctx, authURL, state)
	}

	listener, err := net.Listen("tcp", hostPort(redirect))
	if err != nil {
		c.logger().Warn("could not listen for the OAuth callback", "addr", hostPort(redirect), "err", err)
		return c.manual(ctx, authURL, state)
	}

	return c.listen(ctx, listener, redirect.Path, authURL, state)
}

func (c *CallbackReceiver) listen(ctx context.Context, listener net.Listener, path, authURL, state string) (string, error) {
	if path == "" {
		path = "/"
	}
	handler := NewOAuthHandler(path, state)
	router := NewBasicRouter()
	router.Use(Recover(c.logger()), Logging(c.logger()))
	router.Handler(handler)

	httpServer := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}

	serverErrors := make(chan error, 1)
	go func() {
		c.logger().Debug("waiting for OAuth callback", "addr", listener.Addr().String())
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			c.logger().Warn("error shutting down callback server", "err", err)
		}
	}()

	c.present(authURL)

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	fmt.Fprintf(c.out(), "→ Waiting for authorization (%s timeout)...\n", timeout)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-handler.Result():
		if err := result.Error(); err != nil {
			return "", err
		}
		return result.Code, nil
	case err := <-serverErrors:
		return "", fmt.Errorf("callback server error: %w", err)
	case <-timer.C:
		return "", fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *CallbackReceiver) manual(ctx context.Context, authURL, state string) (string, error) {
	if c.Prompt == nil {
		return "", fmt.Errorf("%w: cannot listen on %s and no prompt is available", shared.ErrAuthFailed, c.RedirectURI)
	}

	c.present(authURL)
	raw, err := c.Prompt(ctx, "Paste the URL you were redirected to")
	if err != nil {
		return "", err
	}
	return CodeFromRedirect(strings.TrimSpace(raw), state)
}

func (c *CallbackReceiver) present(authURL string) {
	open := c.OpenBrowser
	if open == nil {
		open = shared.OpenBrowser
	}

	fmt.Fprintln(c.out(), "→ Opening browser for Spotify authorization...")
	if err := open(authURL); err != nil {
		c.logger().Warn("failed to open browser automatically", "err", err)
		fmt.Fprintln(c.out(), "⚠ Could not open browser automatically.")
	}
	fmt.Fprintf(c.out(), "If the browser did not open, visit:\n%s\n\n", authURL)
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func hostPort(u *url.URL) string {
	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}
	return net.JoinHostPort(u.Hostname(), port)
}
