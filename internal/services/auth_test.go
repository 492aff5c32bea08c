package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/autospoty/internal/shared"
)

// fakeReceiver answers with a fixed code and records what it was asked.
type fakeReceiver struct {
	code    string
	err     error
	calls   int
	authURL string
	state   string
}

func (f *fakeReceiver) ReceiveCode(ctx context.Context, authURL, state string) (string, error) {
	f.calls++
	f.authURL = authURL
	f.state = state
	return f.code, f.err
}

func tokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("code") != "auth_code" {
			w.WriteHeader(http.StatusBadRequest)
			writeJSON(t, w, map[string]string{"error": "invalid_grant"})
			return
		}
		writeJSON(t, w, map[string]any{
			"access_token":  "exchanged",
			"token_type":    "Bearer",
			"refresh_token": "refresh",
			"expires_in":    3600,
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestAuthenticator(t *testing.T, receiver CodeReceiver) (*Authenticator, *SpotifyService, *TokenCache) {
	t.Helper()
	server := tokenServer(t)

	svc, err := NewSpotifyService(SpotifyOpts{
		Credentials: testCredentials(),
		HTTPClient:  server.Client(),
		Logger:      log.New(io.Discard),
		TokenURL:    server.URL,
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	cache := NewTokenCache(filepath.Join(t.TempDir(), ".spotify_cache"))
	return NewAuthenticator(svc, cache, receiver, log.New(io.Discard)), svc, cache
}

func TestAuthenticator(t *testing.T) {
	t.Run("uses cached token without prompting", func(t *testing.T) {
		receiver := &fakeReceiver{code: "auth_code"}
		auth, svc, cache := newTestAuthenticator(t, receiver)

		cached := &oauth2.Token{AccessToken: "cached", Expiry: time.Now().Add(time.Hour)}
		if err := cache.Save(cached); err != nil {
			t.Fatalf("failed to seed cache: %v", err)
		}

		if err := auth.Authenticate(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if receiver.calls != 0 {
			t.Errorf("expected no prompt, got %d", receiver.calls)
		}
		if svc.Token().AccessToken != "cached" {
			t.Errorf("expected cached token, got %s", svc.Token().AccessToken)
		}
	})

	t.Run("runs the flow and caches the token", func(t *testing.T) {
		receiver := &fakeReceiver{code: "auth_code"}
		auth, svc, cache := newTestAuthenticator(t, receiver)

		if err := auth.Authenticate(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if receiver.calls != 1 {
			t.Errorf("expected one prompt, got %d", receiver.calls)
		}
		if len(receiver.state) != 32 || !strings.Contains(receiver.authURL, receiver.state) {
			t.Errorf("auth URL %s should carry state %s", receiver.authURL, receiver.state)
		}
		if svc.Token().AccessToken != "exchanged" {
			t.Errorf("expected exchanged token, got %s", svc.Token().AccessToken)
		}

		saved, err := cache.Load()
		if err != nil {
			t.Fatalf("expected token to be cached, got %v", err)
		}
		if saved.RefreshToken != "refresh" {
			t.Errorf("expected refresh token to be cached, got %+v", saved)
		}
	})

	t.Run("expired token without refresh token prompts again", func(t *testing.T) {
		receiver := &fakeReceiver{code: "auth_code"}
		auth, _, cache := newTestAuthenticator(t, receiver)
		_ = cache.Save(&oauth2.Token{AccessToken: "stale", Expiry: time.Now().Add(-time.Hour)})

		if err := auth.Authenticate(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if receiver.calls != 1 {
			t.Errorf("expected one prompt, got %d", receiver.calls)
		}
	})

	t.Run("corrupt cache falls back to the flow", func(t *testing.T) {
		receiver := &fakeReceiver{code: "auth_code"}
		auth, _, cache := newTestAuthenticator(t, receiver)
		if err := os.WriteFile(cache.Path(), []byte("{not json"), 0o600); err != nil {
			t.Fatal(err)
		}

		if err := auth.Authenticate(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if receiver.calls != 1 {
			t.Errorf("expected one prompt, got %d", receiver.calls)
		}
	})

	t.Run("receiver failure", func(t *testing.T) {
		receiver := &fakeReceiver{err: shared.ErrStateMismatch}
		auth, svc, _ := newTestAuthenticator(t, receiver)

		err := auth.Authenticate(context.Background())
		if !errors.Is(err, shared.ErrAuthFailed) || !errors.Is(err, shared.ErrStateMismatch) {
			t.Errorf("expected ErrAuthFailed wrapping ErrStateMismatch, got %v", err)
		}
		if svc.Authenticated() {
			t.Error("service should not be authenticated")
		}
	})

	t.Run("bad code", func(t *testing.T) {
		auth, _, cache := newTestAuthenticator(t, &fakeReceiver{code: "wrong"})
		if err := auth.Authenticate(context.Background()); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
		if _, err := cache.Load(); !errors.Is(err, shared.ErrNoCachedToken) {
			t.Errorf("nothing should be cached, got %v", err)
		}
	})

	t.Run("no receiver", func(t *testing.T) {
		auth, _, _ := newTestAuthenticator(t, nil)
		if err := auth.Login(context.Background()); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("logout clears cache", func(t *testing.T) {
		auth, _, cache := newTestAuthenticator(t, &fakeReceiver{code: "auth_code"})
		_ = cache.Save(&oauth2.Token{AccessToken: "cached"})

		if err := auth.Logout(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := auth.Status(); !errors.Is(err, shared.ErrNoCachedToken) {
			t.Errorf("expected ErrNoCachedToken after logout, got %v", err)
		}
	})

	t.Run("refreshed tokens are persisted", func(t *testing.T) {
		auth, svc, cache := newTestAuthenticator(t, &fakeReceiver{code: "auth_code"})
		_ = cache.Save(&oauth2.Token{AccessToken: "cached", RefreshToken: "r", Expiry: time.Now().Add(time.Hour)})
		if err := auth.Authenticate(context.Background()); err != nil {
			t.Fatal(err)
		}

		svc.refreshed(&oauth2.Token{AccessToken: "rotated", RefreshToken: "r"})

		saved, err := cache.Load()
		if err != nil || saved.AccessToken != "rotated" {
			t.Errorf("expected rotated token in cache, got %v, %v", saved, err)
		}
	})
}

func TestTokenCache(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		cache := NewTokenCache(filepath.Join(dir, "missing"))
		if _, err := cache.Load(); !errors.Is(err, shared.ErrNoCachedToken) {
			t.Errorf("expected ErrNoCachedToken, got %v", err)
		}
	})

	t.Run("save and load", func(t *testing.T) {
		cache := NewTokenCache(filepath.Join(dir, "nested", "token.json"))
		expiry := time.Now().Add(time.Hour).Truncate(time.Second)
		token := &oauth2.Token{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer", Expiry: expiry}

		if err := cache.Save(token); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		info, err := os.Stat(cache.Path())
		if err != nil {
			t.Fatalf("expected cache file, got %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0o600 {
			t.Errorf("expected 0600 permissions, got %o", perm)
		}

		loaded, err := cache.Load()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if loaded.AccessToken != "a" || loaded.RefreshToken != "r" || !loaded.Expiry.Equal(expiry) {
			t.Errorf("unexpected token %+v", loaded)
		}
	})

	t.Run("empty token is not usable", func(t *testing.T) {
		cache := NewTokenCache(filepath.Join(dir, "empty.json"))
		_ = os.WriteFile(cache.Path(), []byte(`{}`), 0o600)
		if _, err := cache.Load(); !errors.Is(err, shared.ErrNoCachedToken) {
			t.Errorf("expected ErrNoCachedToken, got %v", err)
		}
	})

	t.Run("save nil", func(t *testing.T) {
		if err := NewTokenCache(filepath.Join(dir, "nil.json")).Save(nil); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("clear is idempotent", func(t *testing.T) {
		cache := NewTokenCache(filepath.Join(dir, "clear.json"))
		_ = cache.Save(&oauth2.Token{AccessToken: "a"})
		if err := cache.Clear(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := cache.Clear(); err != nil {
			t.Errorf("second clear should succeed, got %v", err)
		}
	})
}
