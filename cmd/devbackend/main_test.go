package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/go-taskboard/internal/backend"
	"github.com/pribylovaa/go-taskboard/internal/config"
)

func newTestService() *backend.Service {
	return backend.New(config.BackendConfig{
		JWTSecret:       "s",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	}, backend.Options{BcryptCost: bcrypt.MinCost})
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestNewMux_ProbesAndAPI(t *testing.T) {
	t.Parallel()

	var ready atomic.Bool
	mux := newMux(newTestService(), discard(), time.Second, &ready)

	get := func(path string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		return rr
	}

	require.Equal(t, http.StatusOK, get("/livez").Code)
	require.Equal(t, http.StatusServiceUnavailable, get("/healthz").Code)

	ready.Store(true)
	require.Equal(t, http.StatusOK, get("/healthz").Code)

	require.Equal(t, http.StatusOK, get("/metrics").Code)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/auth/local/register",
		strings.NewReader(`{"email":"a@b.co","password":"secret1"}`)))
	require.Equal(t, http.StatusCreated, rr.Code)

	require.Equal(t, http.StatusUnauthorized, get("/users/me").Code)
}

func TestServe_GracefulShutdown(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, ln, newTestService(), time.Second, discard()) }()

	url := "http://" + ln.Addr().String() + "/healthz"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(shutdownTimeout):
		t.Fatal("serve не завершился после отмены контекста")
	}
}
