package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/autospoty/internal/shared"
)

func TestOAuthHandler(t *testing.T) {
	t.Run("captures code", func(t *testing.T) {
		h := NewOAuthHandler("/callback", "s1")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/callback?code=abc&state=s1", nil))

		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", w.Code)
		}
		result := <-h.Result()
		if result.Error() != nil || result.Code != "abc" {
			t.Errorf("unexpected result %+v", result)
		}
	})

	t.Run("rejects state mismatch", func(t *testing.T) {
		h := NewOAuthHandler("/callback", "s1")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/callback?code=abc&state=other", nil))

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
		result := <-h.Result()
		if !errors.Is(result.Error(), shared.ErrStateMismatch) {
			t.Errorf("expected ErrStateMismatch, got %v", result.Error())
		}
	})

	t.Run("reports denied authorization", func(t *testing.T) {
		h := NewOAuthHandler("/callback", "s1")
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?error=access_denied&state=s1", nil))

		result := <-h.Result()
		if !errors.Is(result.Error(), shared.ErrAuthFailed) || !strings.Contains(result.Error().Error(), "access_denied") {
			t.Errorf("expected ErrAuthFailed with access_denied, got %v", result.Error())
		}
	})

	t.Run("processes only the first callback", func(t *testing.T) {
		h := NewOAuthHandler("/callback", "s1")
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?code=abc&state=s1", nil))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/callback?code=def&state=s1", nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for replay, got %d", w.Code)
		}

		if result := <-h.Result(); result.Code != "abc" {
			t.Errorf("expected first code, got %s", result.Code)
		}
		if _, open := <-h.Result(); open {
			t.Error("expected channel to be closed")
		}
	})

	t.Run("default route", func(t *testing.T) {
		if routes := NewOAuthHandler("", "s").Routes(); len(routes) != 1 || routes[0] != "/callback" {
			t.Errorf("unexpected routes %v", routes)
		}
	})
}

func TestCodeFromRedirect(t *testing.T) {
	tc := []struct {
		name    string
		raw     string
		want    string
		wantErr error
	}{
		{name: "valid", raw: "http://127.0.0.1:8888/callback?code=abc&state=s1", want: "abc"},
		{name: "wrong state", raw: "http://127.0.0.1:8888/callback?code=abc&state=s2", wantErr: shared.ErrStateMismatch},
		{name: "missing code", raw: "http://127.0.0.1:8888/callback?state=s1", wantErr: shared.ErrAuthFailed},
		{name: "not a url", raw: "http://[::1", wantErr: shared.ErrInvalidArgument},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CodeFromRedirect(tt.raw, "s1")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("CodeFromRedirect() = %q, %v", got, err)
			}
		})
	}
}

func TestBasicRouter(t *testing.T) {
	logger := log.New(io.Discard)

	t.Run("middleware order", func(t *testing.T) {
		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(mw("first"), mw("second"))
		r.Handle(http.MethodGet, "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if strings.Join(order, ",") != "first,second,handler" {
			t.Errorf("unexpected order %v", order)
		}
	})

	t.Run("method filtering", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle(http.MethodGet, "/only-get", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/only-get", nil))
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", w.Code)
		}
	})

	t.Run("recover", func(t *testing.T) {
		r := NewBasicRouter()
		r.Use(Recover(logger), Logging(logger))
		r.Handle(http.MethodGet, "/panic", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
		if w.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", w.Code)
		}
	})
}

func TestCallbackReceiver(t *testing.T) {
	logger := log.New(io.Discard)

	t.Run("receives code over loopback", func(t *testing.T) {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to listen: %v", err)
		}
		base := "http://" + listener.Addr().String()

		receiver := &CallbackReceiver{
			Logger:  logger,
			Timeout: 5 * time.Second,
			OpenBrowser: func(authURL string) error {
				go func() {
					resp, err := http.Get(base + "/callback?code=abc&state=s1")
					if err == nil {
						resp.Body.Close()
					}
				}()
				return nil
			},
		}

		code, err := receiver.listen(context.Background(), listener, "/callback", "https://accounts.example/authorize", "s1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if code != "abc" {
			t.Errorf("expected abc, got %s", code)
		}
	})

	t.Run("times out", func(t *testing.T) {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to listen: %v", err)
		}

		receiver := &CallbackReceiver{
			Logger:      logger,
			Timeout:     50 * time.Millisecond,
			OpenBrowser: func(string) error { return nil },
		}

		_, err = receiver.listen(context.Background(), listener, "/callback", "https://accounts.example/authorize", "s1")
		if !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})

	t.Run("manual paste for remote redirect", func(t *testing.T) {
		var prompted string
		receiver := &CallbackReceiver{
			RedirectURI: "https://example.com/callback",
			Logger:      logger,
			OpenBrowser: func(string) error { return errors.New("no browser") },
			Prompt: func(ctx context.Context, message string) (string, error) {
				prompted = message
				return "  https://example.com/callback?code=pasted&state=s1\n", nil
			},
		}

		code, err := receiver.ReceiveCode(context.Background(), "https://accounts.example/authorize", "s1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if code != "pasted" || prompted == "" {
			t.Errorf("unexpected code %q (prompted %q)", code, prompted)
		}
	})

	t.Run("manual without prompt", func(t *testing.T) {
		receiver := &CallbackReceiver{RedirectURI: "https://example.com/callback", Logger: logger}
		if _, err := receiver.ReceiveCode(context.Background(), "u", "s1"); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("loopback detection", func(t *testing.T) {
		for host, want := range map[string]bool{"localhost": true, "127.0.0.1": true, "::1": true, "example.com": false, "10.0.0.1": false} {
			if got := isLoopback(host); got != want {
				t.Errorf("isLoopback(%s) = %v, want %v", host, got, want)
			}
		}
	})

	t.Run("host port defaults", func(t *testing.T) {
		u, _ := url.Parse("http://localhost/callback")
		if got := hostPort(u); got != "localhost:80" {
			t.Errorf("unexpected host port %s", got)
		}
	})
}
