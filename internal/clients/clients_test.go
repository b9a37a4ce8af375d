package clients

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-taskboard/internal/apierror"
	"github.com/pribylovaa/go-taskboard/internal/backend/backendtest"
	"github.com/pribylovaa/go-taskboard/internal/config"
	"github.com/pribylovaa/go-taskboard/internal/models"
	"github.com/pribylovaa/go-taskboard/internal/tokenstore"
	"github.com/pribylovaa/go-taskboard/internal/transport"
)

var creds = models.Credentials{Email: "dev@example.com", Password: "secret1"}

func newClient(t *testing.T, baseURL string, store tokenstore.Store, opts ...Option) *Client {
	t.Helper()

	c, err := New(config.APIConfig{BaseURL: baseURL, UserAgent: "tb-test", Timeout: 5 * time.Second},
		store, slog.New(slog.NewTextHandler(io.Discard, nil)), opts...)
	require.NoError(t, err)

	return c
}

func TestNew_InvalidBaseURL(t *testing.T) {
	t.Parallel()

	store := tokenstore.NewMemory()
	for _, raw := range []string{"", "localhost:3000/x", "/relative"} {
		_, err := New(config.APIConfig{BaseURL: raw}, store, slog.Default())
		require.Error(t, err, raw)
	}
}

func TestClient_RegisterLoginMe(t *testing.T) {
	t.Parallel()

	srv := backendtest.Start(t, backendtest.Options{})
	store := tokenstore.NewMemory()
	c := newClient(t, srv.URL, store)
	ctx := context.Background()

	pair, err := c.Register(ctx, creds)
	require.NoError(t, err)
	require.True(t, pair.Complete())

	pair, err = c.Login(ctx, creds)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, pair))

	u, err := c.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, creds.Email, u.Email)
	require.NotEmpty(t, u.ID)
}

func TestClient_Me_WithoutTokens_Unauthorized(t *testing.T) {
	t.Parallel()

	srv := backendtest.Start(t, backendtest.Options{})
	c := newClient(t, srv.URL, tokenstore.NewMemory())

	_, err := c.Me(context.Background())
	require.Error(t, err)
	require.True(t, apierror.IsUnauthorized(err))
	require.Contains(t, err.Error(), "clients.Me")
}

func TestClient_Login_StatusTextFromBackend(t *testing.T) {
	t.Parallel()

	srv := backendtest.Start(t, backendtest.Options{})
	c := newClient(t, srv.URL, tokenstore.NewMemory())
	ctx := context.Background()

	_, err := c.Register(ctx, creds)
	require.NoError(t, err)

	_, err = c.Login(ctx, models.Credentials{Email: creds.Email, Password: "wrong"})
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, apierror.StatusCode(err))
	require.Equal(t, apierror.KindPassword, apierror.KindOf(apierror.Classify(err)))

	_, err = c.Login(ctx, models.Credentials{Email: "ghost@example.com", Password: "secret1"})
	require.Equal(t, apierror.KindUser, apierror.KindOf(apierror.Classify(err)))
}

func TestClient_Refresh_SendsRefreshToken(t *testing.T) {
	t.Parallel()

	srv := backendtest.Start(t, backendtest.Options{})
	store := tokenstore.NewMemory()
	c := newClient(t, srv.URL, store)
	ctx := context.Background()

	pair, err := c.Register(ctx, creds)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, pair))

	next, err := c.Refresh(ctx)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, next.RefreshToken)
	require.EqualValues(t, 1, srv.Calls(PathRefresh))

	// Клиент не сохраняет пару сам: в хранилище всё ещё старая, уже отозванная.
	_, err = c.Refresh(ctx)
	require.True(t, apierror.IsUnauthorized(err))
}

func TestClient_Logout(t *testing.T) {
	t.Parallel()

	srv := backendtest.Start(t, backendtest.Options{})
	store := tokenstore.NewMemory()
	c := newClient(t, srv.URL, store)
	ctx := context.Background()

	pair, err := c.Register(ctx, creds)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, pair))

	require.NoError(t, c.Logout(ctx))
	_, err = c.Refresh(ctx)
	require.True(t, apierror.IsUnauthorized(err))
}

func TestClient_BasePathPrefix(t *testing.T) {
	t.Parallel()

	srv := backendtest.Start(t, backendtest.Options{BasePath: "/api"})
	store := tokenstore.NewMemory()
	c := newClient(t, srv.URL+"/api/", store)
	ctx := context.Background()

	pair, err := c.Register(ctx, creds)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, pair))

	_, err = c.Refresh(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, srv.Calls("/api"+PathRefresh))
	require.Equal(t, srv.URL+"/api", c.BaseURL())
}

func TestClient_GetJSON(t *testing.T) {
	t.Parallel()

	srv := backendtest.Start(t, backendtest.Options{})
	store := tokenstore.NewMemory()
	c := newClient(t, srv.URL, store)
	ctx := context.Background()

	pair, err := c.Register(ctx, creds)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, pair))

	_, err = srv.Service.CreateProject(ctx, pair.AccessToken, "Inbox")
	require.NoError(t, err)

	var projects []models.Project
	require.NoError(t, c.GetJSON(ctx, "projects", &projects))
	require.Len(t, projects, 1)
	require.Equal(t, "Inbox", projects[0].Name)

	var created models.Project
	require.NoError(t, c.PostJSON(ctx, "/projects", map[string]string{"name": "Later"}, &created))
	require.Equal(t, "Later", created.Name)

	err = c.PostJSON(ctx, "/projects", map[string]string{"name": " "}, &created)
	require.Equal(t, http.StatusBadRequest, apierror.StatusCode(err))

	err = c.GetJSON(ctx, "/nope", &projects)
	require.Equal(t, http.StatusNotFound, apierror.StatusCode(err))
}

func TestClient_HeadersFromTransportChain(t *testing.T) {
	t.Parallel()

	var seen http.Header
	base := transport.RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		seen = r.Header.Clone()
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{},
			Body:       io.NopCloser(http.NoBody),
			Request:    r,
		}, nil
	})

	store := tokenstore.NewMemoryFrom(map[string]string{
		models.AccessTokenKey:  "acc",
		models.RefreshTokenKey: "ref",
	})
	c := newClient(t, "http://board.test", store, WithBaseTransport(base))

	require.NoError(t, c.GetJSON(context.Background(), "/projects", nil))
	require.Equal(t, "Bearer acc", seen.Get(transport.HeaderAuthorization))
	require.Equal(t, "tb-test", seen.Get(transport.HeaderUserAgent))
	require.NotEmpty(t, seen.Get(transport.HeaderRequestID))
	require.Equal(t, "application/json", seen.Get("Accept"))
}

func TestClient_ContextCanceled(t *testing.T) {
	t.Parallel()

	srv := backendtest.Start(t, backendtest.Options{})
	c := newClient(t, srv.URL, tokenstore.NewMemory())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Me(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, apierror.StatusCode(err))
}
