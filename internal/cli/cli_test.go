package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khIbrahim/popcornon/internal/failure"
	"github.com/khIbrahim/popcornon/internal/model"
)

type run struct {
	out    *bytes.Buffer
	errOut *bytes.Buffer
	err    error
}

// execute runs popcornctl against srv with retries that do not wait.
func execute(t *testing.T, srv *httptest.Server, args ...string) run {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	r := run{out: &bytes.Buffer{}, errOut: &bytes.Buffer{}}
	a := newApp(r.out, r.errOut)
	a.policy.RetryDelay = func(int) time.Duration { return 0 }
	root := newRootCommand(a)
	if srv != nil {
		args = append([]string{"--server", srv.URL}, args...)
	}
	root.SetArgs(args)
	r.err = root.Execute()
	return r
}

func toastLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(line, "✖ ") {
			out = append(out, strings.TrimPrefix(line, "✖ "))
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestOverviewCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/v1/admin/overview":
			writeJSON(w, http.StatusOK, model.Stats{PendingRequests: 12, ActiveCinemas: 48, ArchivedCinemas: 5, TotalPartners: 31})
		case "/v1/admin/activity":
			writeJSON(w, http.StatusOK, map[string]any{"items": []model.Activity{{
				ID: 105, CinemaName: "Cinéma Ibn Zeydoun", City: "Alger", Status: model.StatusPending,
				CreatedAt: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
			}}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	r := execute(t, srv, "--token", "tok-1", "overview")
	require.NoError(t, r.err)
	out := r.out.String()
	assert.Contains(t, out, "Pending requests")
	assert.Contains(t, out, "48")
	assert.Contains(t, out, "Cinéma Ibn Zeydoun")
	assert.Contains(t, out, "2024-03-05")
	assert.Empty(t, toastLines(r.errOut.String()))
}

func TestQueryFailureShowsOneToast(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, http.StatusInternalServerError, failure.Payload{Message: "Could not load the overview", Error: "internal"})
	}))
	defer srv.Close()

	r := execute(t, srv, "overview", "--recent", "0")
	require.ErrorIs(t, r.err, errReported)
	assert.Equal(t, int32(4), hits.Load())
	assert.Equal(t, []string{"Could not load the overview: internal"}, toastLines(r.errOut.String()))
	assert.Empty(t, r.out.String())
}

func TestOverviewFailureDoesNotToastCancelledActivity(t *testing.T) {
	var overviewHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/admin/overview":
			overviewHits.Add(1)
			writeJSON(w, http.StatusInternalServerError, failure.Payload{Message: "Could not load the overview", Error: "internal"})
		case "/v1/admin/activity":
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
				writeJSON(w, http.StatusOK, map[string]any{"items": []model.Activity{}})
			}
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	r := execute(t, srv, "overview", "--recent", "5")
	require.ErrorIs(t, r.err, errReported)
	assert.Equal(t, int32(4), overviewHits.Load())
	assert.Equal(t, []string{"Could not load the overview: internal"}, toastLines(r.errOut.String()))
	assert.NotContains(t, r.errOut.String(), "context canceled")
}

func TestMutationFailureShowsOneToast(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/v1/admin/partner-requests/101/approve", r.URL.Path)
		writeJSON(w, http.StatusConflict, failure.Payload{Message: "This request was already reviewed", Error: "already_decided"})
	}))
	defer srv.Close()

	r := execute(t, srv, "approve", "101")
	require.ErrorIs(t, r.err, errReported)
	assert.Equal(t, int32(1), hits.Load(), "writes are not retried")
	assert.Equal(t, []string{"This request was already reviewed: already_decided"}, toastLines(r.errOut.String()))
}

func TestRejectAndArchive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/admin/partner-requests/103/reject":
			writeJSON(w, http.StatusOK, model.Activity{ID: 103, CinemaName: "CinéMonde", Status: model.StatusRejected})
		case "/v1/admin/cinemas/7/archive":
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	r := execute(t, srv, "reject", "103")
	require.NoError(t, r.err)
	assert.Contains(t, r.out.String(), "Request #103 from CinéMonde is now rejected")

	r = execute(t, srv, "archive", "7")
	require.NoError(t, r.err)
	assert.Contains(t, r.out.String(), "Cinema #7 archived")
}

func TestArgumentErrorsAreNotToasts(t *testing.T) {
	r := execute(t, nil, "approve", "abc")
	require.Error(t, r.err)
	assert.NotErrorIs(t, r.err, errReported)
	assert.Contains(t, r.err.Error(), `invalid id "abc"`)

	r = execute(t, nil, "activity", "--status", "maybe")
	require.Error(t, r.err)
	assert.NotErrorIs(t, r.err, errReported)
	assert.Empty(t, toastLines(r.errOut.String()))
}

func TestCinemasCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Oran", r.URL.Query().Get("city"))
		writeJSON(w, http.StatusOK, map[string]any{"items": []model.Cinema{{ID: 2, Name: "Cinéma Le Colisée", City: "Oran"}}})
	}))
	defer srv.Close()

	r := execute(t, srv, "cinemas", "--city", "Oran")
	require.NoError(t, r.err)
	assert.Contains(t, r.out.String(), "Cinéma Le Colisée")
}

func TestLoginSavesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/auth/login", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{
			"user":    map[string]any{"id": 1, "email": "admin@popcornon.dz", "role": "ADMIN"},
			"access":  map[string]any{"token": "fresh-token", "expires": time.Now().Add(time.Hour)},
			"refresh": map[string]any{"token": "refresh", "expires": time.Now().Add(time.Hour)},
		})
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "popcornctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  url: "+srv.URL+"\n"), 0o600))

	r := execute(t, nil, "--config", path, "login", "-e", "admin@popcornon.dz", "-p", "secret-pass")
	require.NoError(t, r.err)
	assert.Contains(t, r.out.String(), "Signed in as admin@popcornon.dz (ADMIN)")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "fresh-token")
}

func TestLoginFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, failure.Payload{Message: "Wrong email or password", Error: "invalid_credentials"})
	}))
	defer srv.Close()

	r := execute(t, srv, "login", "-e", "admin@popcornon.dz", "-p", "nope", "--save=false")
	require.ErrorIs(t, r.err, errReported)
	assert.Equal(t, []string{"Wrong email or password: invalid_credentials"}, toastLines(r.errOut.String()))
}

func TestLoadConfigDefaultsAndEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := loadConfig(newViper(), "")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.Server.URL)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)

	t.Setenv("POPCORN_SERVER_URL", "https://api.popcornon.dz")
	t.Setenv("POPCORN_LOGGING_FORMAT", "json")
	cfg, err = loadConfig(newViper(), "")
	require.NoError(t, err)
	assert.Equal(t, "https://api.popcornon.dz", cfg.Server.URL)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadConfigRejectsBadFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "popcornctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  format: xml\n"), 0o600))
	_, err := loadConfig(newViper(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid logging format")
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := loadConfig(newViper(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
