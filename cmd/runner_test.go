package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/spt/internal/services"
	"github.com/desertthunder/spt/internal/shared"
	tu "github.com/desertthunder/spt/internal/testing"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

type fakeOAuth struct {
	code  string
	token *oauth2.Token
	err   error
}

func (f *fakeOAuth) AuthURL(state string) string {
	return "https://accounts.example/authorize?state=" + state
}

func (f *fakeOAuth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	f.code = code
	return f.token, f.err
}

func (f *fakeOAuth) Authenticate(ctx context.Context, token *oauth2.Token) error { return nil }

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func run(t *testing.T, r *Runner, args ...string) error {
	t.Helper()
	root := &cli.Command{Name: "spt", Commands: r.register()}
	return root.Run(context.Background(), append([]string{"spt"}, args...))
}

func newTestRunner(t *testing.T, player services.Player) (*Runner, *bytes.Buffer) {
	t.Helper()
	config := shared.DefaultConfig()
	config.Playback.CachedDeviceIDPath = filepath.Join(t.TempDir(), "device.txt")
	output := &bytes.Buffer{}
	r := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: filepath.Join(t.TempDir(), "config.toml"),
		Player:     player,
		Logger:     shared.NewLogger(&bytes.Buffer{}),
		Output:     output,
	})
	return r, output
}

func testPlayer() *tu.MockPlayer {
	return &tu.MockPlayer{
		DeviceList: []services.Device{
			{ID: "dev-1", Name: "Laptop", Type: "Computer", IsActive: true},
			{ID: "dev-2", Name: "Kitchen", Type: "Speaker"},
		},
		Playback: &services.Playback{
			Device:     services.Device{ID: "dev-1", Name: "Laptop"},
			Track:      &services.Track{ID: "t1", Name: "Song", Artists: []string{"Band"}, Album: "Record", DurationMS: 200000},
			ProgressMS: 61000,
			IsPlaying:  false,
		},
	}
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			player := &tu.MockPlayer{}
			oauth := &fakeOAuth{}

			runner := NewRunner(RunnerOpts{
				Config:      config,
				ConfigPath:  "custom.toml",
				Player:      player,
				OAuth:       oauth,
				Logger:      logger,
				Output:      output,
				AuthTimeout: time.Second,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.player != player {
				t.Error("expected player to be set")
			}
			if runner.oauth != oauth {
				t.Error("expected oauth to be set")
			}
			if runner.configPath != "custom.toml" {
				t.Errorf("expected config path custom.toml, got %s", runner.configPath)
			}
			if runner.authTimeout != time.Second {
				t.Errorf("expected auth timeout 1s, got %s", runner.authTimeout)
			}
		})

		t.Run("with defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config")
			}
			if runner.logger == nil {
				t.Error("expected default logger")
			}
			if runner.output == nil {
				t.Error("expected default output")
			}
			if runner.openBrowser == nil {
				t.Error("expected default browser opener")
			}
			if runner.configPath != "config.toml" {
				t.Errorf("expected config.toml, got %s", runner.configPath)
			}
			if runner.authTimeout != defaultAuthTimeout {
				t.Errorf("expected %s, got %s", defaultAuthTimeout, runner.authTimeout)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("formats output", func(t *testing.T) {
			r, output := newTestRunner(t, nil)
			if err := r.writePlain("%d devices\n", 2); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if output.String() != "2 devices\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("surfaces write errors", func(t *testing.T) {
			r := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
			if err := r.writePlain("hello"); err == nil {
				t.Error("expected write error")
			}
			if err := r.writeJSON(map[string]string{"a": "b"}, false); err == nil {
				t.Error("expected write error")
			}
		})
	})

	t.Run("playerFor", func(t *testing.T) {
		t.Run("requires a saved token", func(t *testing.T) {
			r, _ := newTestRunner(t, nil)
			r.config.Credentials.Spotify.ClientID = "id"
			r.config.Credentials.Spotify.ClientSecret = "secret"

			if _, err := r.playerFor(context.Background()); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})

		t.Run("requires credentials", func(t *testing.T) {
			r, _ := newTestRunner(t, nil)
			r.config.Credentials.Spotify.AccessToken = "token"

			if _, err := r.playerFor(context.Background()); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("rejects example placeholder credentials", func(t *testing.T) {
			r, _ := newTestRunner(t, nil)
			r.config.Credentials.Spotify.AccessToken = "token"
			if r.config.Credentials.Spotify.ClientID != "your_spotify_client_id" {
				t.Fatalf("expected example client_id in defaults, got %q", r.config.Credentials.Spotify.ClientID)
			}

			if _, err := r.newSpotify(); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("rejects empty credentials", func(t *testing.T) {
			r, _ := newTestRunner(t, nil)
			r.config.Credentials.Spotify.ClientID = ""
			r.config.Credentials.Spotify.ClientSecret = ""
			r.config.Credentials.Spotify.AccessToken = "token"

			if _, err := r.playerFor(context.Background()); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("builds an authenticated client", func(t *testing.T) {
			r, _ := newTestRunner(t, nil)
			r.config.Credentials.Spotify.ClientID = "id"
			r.config.Credentials.Spotify.ClientSecret = "secret"
			r.config.Credentials.Spotify.AccessToken = "token"

			player, err := r.playerFor(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if player == nil || r.spotify == nil {
				t.Error("expected spotify client to be kept for token persistence")
			}
		})
	})
}

func TestAuthCommand(t *testing.T) {
	t.Run("captures the redirect and saves tokens", func(t *testing.T) {
		r, output := newTestRunner(t, nil)
		port := freePort(t)
		r.config.Server.Port = port
		r.config.Credentials.Spotify.RedirectURI = "http://127.0.0.1:" + strconv.Itoa(port) + "/callback"
		r.authTimeout = 5 * time.Second

		expiry := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
		oauth := &fakeOAuth{token: &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer", Expiry: expiry}}
		r.oauth = oauth

		browserErr := make(chan error, 1)
		r.openBrowser = func(authURL string) error {
			u, err := url.Parse(authURL)
			if err != nil {
				return err
			}
			state := u.Query().Get("state")
			go func() {
				resp, err := http.Get(r.config.Credentials.Spotify.RedirectURI + "?code=the-code&state=" + state)
				if err == nil {
					resp.Body.Close()
				}
				browserErr <- err
			}()
			return nil
		}

		if err := run(t, r, "auth"); err != nil {
			t.Fatalf("auth failed: %v", err)
		}
		if err := <-browserErr; err != nil {
			t.Fatalf("redirect request failed: %v", err)
		}

		if oauth.code != "the-code" {
			t.Errorf("expected code the-code, got %q", oauth.code)
		}

		saved, err := shared.LoadConfig(r.configPath)
		if err != nil {
			t.Fatalf("failed to load saved config: %v", err)
		}
		if saved.Credentials.Spotify.AccessToken != "access" || saved.Credentials.Spotify.RefreshToken != "refresh" {
			t.Errorf("tokens not saved: %+v", saved.Credentials.Spotify)
		}
		if !strings.Contains(output.String(), "Authorization successful") {
			t.Errorf("expected success message, got %q", output.String())
		}
	})

	t.Run("rejects a mismatched state", func(t *testing.T) {
		r, _ := newTestRunner(t, nil)
		port := freePort(t)
		r.config.Server.Port = port
		r.authTimeout = 5 * time.Second
		r.oauth = &fakeOAuth{token: &oauth2.Token{AccessToken: "access"}}
		r.openBrowser = func(string) error {
			go func() {
				resp, err := http.Get("http://127.0.0.1:" + strconv.Itoa(port) + "/callback?code=c&state=forged")
				if err == nil {
					resp.Body.Close()
				}
			}()
			return nil
		}

		if err := run(t, r, "auth"); !errors.Is(err, shared.ErrInvalidState) {
			t.Errorf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("times out without a redirect", func(t *testing.T) {
		r, output := newTestRunner(t, nil)
		r.config.Server.Port = freePort(t)
		r.authTimeout = 50 * time.Millisecond
		r.oauth = &fakeOAuth{}
		r.openBrowser = func(string) error { return errors.New("no browser") }

		if err := run(t, r, "auth"); !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
		if !strings.Contains(output.String(), "https://accounts.example/authorize") {
			t.Error("expected the auth URL to be printed when the browser fails")
		}
	})

	t.Run("fails when the port is taken", func(t *testing.T) {
		ln, err := net.Listen("tcp4", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to listen: %v", err)
		}
		defer ln.Close()

		r, _ := newTestRunner(t, nil)
		r.config.Server.Port = ln.Addr().(*net.TCPAddr).Port
		r.oauth = &fakeOAuth{}
		r.openBrowser = func(string) error {
			t.Error("browser should not open when the listener cannot bind")
			return nil
		}

		if err := run(t, r, "auth"); !errors.Is(err, shared.ErrBind) {
			t.Errorf("expected ErrBind, got %v", err)
		}
	})
}

func TestPlaybackCommands(t *testing.T) {
	t.Run("devices list marks the selection", func(t *testing.T) {
		r, output := newTestRunner(t, testPlayer())
		if err := shared.NewDeviceCache(r.config.Playback.CachedDeviceIDPath).Set("dev-2"); err != nil {
			t.Fatalf("failed to seed cache: %v", err)
		}

		if err := run(t, r, "devices", "list"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output.String(), "● 2. Kitchen") {
			t.Errorf("expected cached device to be marked, got %q", output.String())
		}
	})

	t.Run("devices list as JSON", func(t *testing.T) {
		r, output := newTestRunner(t, testPlayer())

		if err := run(t, r, "devices", "list", "--json"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var views []deviceView
		if err := json.Unmarshal(output.Bytes(), &views); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(views) != 2 || !views[0].Selected || views[1].Selected {
			t.Errorf("unexpected devices %+v", views)
		}
	})

	t.Run("devices list without devices", func(t *testing.T) {
		r, _ := newTestRunner(t, &tu.MockPlayer{})
		if err := run(t, r, "devices", "list"); !errors.Is(err, shared.ErrNoUsableDevice) {
			t.Errorf("expected ErrNoUsableDevice, got %v", err)
		}
	})

	t.Run("devices use transfers and caches", func(t *testing.T) {
		player := testPlayer()
		r, _ := newTestRunner(t, player)

		if err := run(t, r, "devices", "use", "--id", "dev-2"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(player.Transfers) != 1 || player.Transfers[0] != "dev-2" {
			t.Errorf("expected transfer to dev-2, got %v", player.Transfers)
		}
		if id, _ := shared.NewDeviceCache(r.config.Playback.CachedDeviceIDPath).Get(); id != "dev-2" {
			t.Errorf("expected dev-2 cached, got %q", id)
		}
	})

	t.Run("status prints the paused position", func(t *testing.T) {
		r, output := newTestRunner(t, testPlayer())

		if err := run(t, r, "status"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output.String(), "Band - Song [1:01 / 3:20]") {
			t.Errorf("unexpected status %q", output.String())
		}
	})

	t.Run("status as JSON", func(t *testing.T) {
		r, output := newTestRunner(t, testPlayer())

		if err := run(t, r, "status", "--json"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var view statusView
		if err := json.Unmarshal(output.Bytes(), &view); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if view.Track != "Song" || view.ProgressMS != 61000 || view.IsPlaying {
			t.Errorf("unexpected status %+v", view)
		}
	})

	t.Run("status surfaces fetch errors", func(t *testing.T) {
		r, _ := newTestRunner(t, &tu.MockPlayer{PlaybackErr: shared.ErrServiceUnavailable})
		if err := run(t, r, "status"); !errors.Is(err, shared.ErrRemoteFetch) {
			t.Errorf("expected ErrRemoteFetch, got %v", err)
		}
	})

	t.Run("play and pause", func(t *testing.T) {
		player := testPlayer()
		r, output := newTestRunner(t, player)

		if err := run(t, r, "play"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := run(t, r, "pause"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if player.Resumes != 1 || player.Pauses != 1 {
			t.Errorf("expected one resume and one pause, got %d and %d", player.Resumes, player.Pauses)
		}
		if !strings.Contains(output.String(), "Playing") || !strings.Contains(output.String(), "Paused") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("devices list as CSV", func(t *testing.T) {
		r, output := newTestRunner(t, testPlayer())

		if err := run(t, r, "devices", "list", "--format", "csv"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(output.String(), "ID,Name,Type,Active,Selected,Volume\n") {
			t.Errorf("expected CSV header, got %q", output.String())
		}
	})

	t.Run("devices list rejects unknown formats", func(t *testing.T) {
		r, _ := newTestRunner(t, testPlayer())
		if err := run(t, r, "devices", "list", "--format", "xml"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
