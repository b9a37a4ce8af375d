package transport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-taskboard/internal/models"
	"github.com/pribylovaa/go-taskboard/internal/tokenstore"
)

// capHandler - тестовый slog.Handler, который:
//   - аккумулирует базовые attrs, приходящие через Logger.With(...);
//   - собирает attrs из последней записи в map[string]any.
type capHandler struct {
	base    []slog.Attr
	lastMsg string
	lastLvl slog.Level
	attrs   map[string]any
	count   int
}

func (h *capHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *capHandler) Handle(_ context.Context, r slog.Record) error {
	out := make(map[string]any, len(h.base)+8)
	for _, a := range h.base {
		out[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value.Any()
		return true
	})
	h.count++
	h.lastMsg = r.Message
	h.lastLvl = r.Level
	h.attrs = out
	return nil
}

func (h *capHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h.base = append(h.base, attrs...)
	return h
}

func (h *capHandler) WithGroup(string) slog.Handler { return h }

// failingStore - хранилище, у которого чтение всегда падает.
type failingStore struct{ tokenstore.Store }

func (failingStore) Get(context.Context) (models.TokenPair, error) {
	return models.TokenPair{}, errors.New("disk on fire")
}

// record - терминальный RoundTripper, запоминающий последний запрос.
func record(seen **http.Request) http.RoundTripper {
	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		*seen = r
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader("{}")),
			Header:     http.Header{},
			Request:    r,
		}, nil
	})
}

func newReq(t *testing.T, path string) *http.Request {
	t.Helper()
	r, err := http.NewRequest(http.MethodGet, "http://backend.local"+path, nil)
	require.NoError(t, err)
	return r
}

func TestChain_Order(t *testing.T) {
	t.Parallel()

	var order []string
	mw := func(name string) Middleware {
		return func(next http.RoundTripper) http.RoundTripper {
			return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
				order = append(order, name+"-begin")
				resp, err := next.RoundTrip(r)
				order = append(order, name+"-end")
				return resp, err
			})
		}
	}

	var seen *http.Request
	rt := Chain(record(&seen), mw("m1"), mw("m2"))
	_, err := rt.RoundTrip(newReq(t, "/x"))
	require.NoError(t, err)

	require.Equal(t, []string{"m1-begin", "m2-begin", "m2-end", "m1-end"}, order)
}

func TestWithAuth_AccessTokenOnOrdinaryRequest(t *testing.T) {
	t.Parallel()

	st := tokenstore.NewMemory()
	require.NoError(t, st.Set(context.Background(), models.TokenPair{AccessToken: "AT", RefreshToken: "RT"}))

	var seen *http.Request
	rt := Chain(record(&seen), WithAuth(st, "/auth/refresh"))

	orig := newReq(t, "/users/me")
	_, err := rt.RoundTrip(orig)
	require.NoError(t, err)

	require.Equal(t, "Bearer AT", seen.Header.Get(HeaderAuthorization))
	require.Empty(t, orig.Header.Get(HeaderAuthorization), "исходный запрос не мутируется")
}

func TestWithAuth_RefreshTokenOnRefreshPath(t *testing.T) {
	t.Parallel()

	st := tokenstore.NewMemory()
	require.NoError(t, st.Set(context.Background(), models.TokenPair{AccessToken: "AT", RefreshToken: "RT"}))

	var seen *http.Request
	rt := Chain(record(&seen), WithAuth(st, "/auth/refresh"))

	_, err := rt.RoundTrip(newReq(t, "/auth/refresh"))
	require.NoError(t, err)
	require.Equal(t, "Bearer RT", seen.Header.Get(HeaderAuthorization))

	// Похожий, но не совпадающий путь - обычный запрос.
	_, err = rt.RoundTrip(newReq(t, "/auth/refresh/extra"))
	require.NoError(t, err)
	require.Equal(t, "Bearer AT", seen.Header.Get(HeaderAuthorization))
}

func TestWithAuth_NoTokens_NoHeaderNoError(t *testing.T) {
	t.Parallel()

	var seen *http.Request
	rt := Chain(record(&seen), WithAuth(tokenstore.NewMemory(), "/auth/refresh"))

	_, err := rt.RoundTrip(newReq(t, "/auth/local/login"))
	require.NoError(t, err)
	require.Empty(t, seen.Header.Get(HeaderAuthorization))
}

func TestWithAuth_PartialPair_NoHeader(t *testing.T) {
	t.Parallel()

	st := tokenstore.NewMemoryFrom(map[string]string{models.AccessTokenKey: "AT"})

	var seen *http.Request
	rt := Chain(record(&seen), WithAuth(st, "/auth/refresh"))

	_, err := rt.RoundTrip(newReq(t, "/users/me"))
	require.NoError(t, err)
	require.Empty(t, seen.Header.Get(HeaderAuthorization))
}

func TestWithAuth_StoreError_ProceedsWithoutHeader(t *testing.T) {
	t.Parallel()

	var seen *http.Request
	rt := Chain(record(&seen), WithAuth(failingStore{}, "/auth/refresh"))

	_, err := rt.RoundTrip(newReq(t, "/users/me"))
	require.NoError(t, err)
	require.Empty(t, seen.Header.Get(HeaderAuthorization))
}

func TestWithAuth_KeepsExplicitHeader(t *testing.T) {
	t.Parallel()

	st := tokenstore.NewMemory()
	require.NoError(t, st.Set(context.Background(), models.TokenPair{AccessToken: "AT", RefreshToken: "RT"}))

	var seen *http.Request
	rt := Chain(record(&seen), WithAuth(st, "/auth/refresh"))

	req := newReq(t, "/users/me")
	req.Header.Set(HeaderAuthorization, "Bearer custom")
	_, err := rt.RoundTrip(req)
	require.NoError(t, err)
	require.Equal(t, "Bearer custom", seen.Header.Get(HeaderAuthorization))
}

func TestWithRequestID_GenerateAndKeep(t *testing.T) {
	t.Parallel()

	var seen *http.Request
	rt := Chain(record(&seen), WithRequestID())

	_, err := rt.RoundTrip(newReq(t, "/x"))
	require.NoError(t, err)
	_, err = uuid.Parse(seen.Header.Get(HeaderRequestID))
	require.NoError(t, err)

	req := newReq(t, "/x")
	req.Header.Set(HeaderRequestID, "given")
	_, err = rt.RoundTrip(req)
	require.NoError(t, err)
	require.Equal(t, "given", seen.Header.Get(HeaderRequestID))
}

func TestWithUserAgent(t *testing.T) {
	t.Parallel()

	var seen *http.Request
	_, err := Chain(record(&seen), WithUserAgent("taskboard-cli")).RoundTrip(newReq(t, "/x"))
	require.NoError(t, err)
	require.Equal(t, "taskboard-cli", seen.Header.Get(HeaderUserAgent))

	req := newReq(t, "/x")
	req.Header.Set(HeaderUserAgent, "original")
	_, err = Chain(record(&seen), WithUserAgent("")).RoundTrip(req)
	require.NoError(t, err)
	require.Equal(t, "original", seen.Header.Get(HeaderUserAgent))
}

func TestWithLogging_WritesRecord(t *testing.T) {
	t.Parallel()

	h := &capHandler{}
	var seen *http.Request
	rt := Chain(record(&seen), WithRequestID(), WithLogging(slog.New(h)))

	req := newReq(t, "/users/me")
	req.Header.Set(HeaderAuthorization, "Bearer secret-token")
	req.Header.Set(HeaderRequestID, "rid-7")
	_, err := rt.RoundTrip(req)
	require.NoError(t, err)

	require.Equal(t, 1, h.count)
	require.Equal(t, "http", h.lastMsg)
	require.Equal(t, slog.LevelInfo, h.lastLvl)
	require.Equal(t, http.MethodGet, h.attrs["method"])
	require.Equal(t, "/users/me", h.attrs["path"])
	require.EqualValues(t, http.StatusOK, h.attrs["status"])
	require.Equal(t, "rid-7", h.attrs["request_id"])

	_, hasDur := h.attrs["dur"].(time.Duration)
	require.True(t, hasDur)

	for _, v := range h.attrs {
		if s, ok := v.(string); ok {
			require.NotContains(t, s, "secret-token")
		}
	}
}

func TestWithLogging_TransportError_Warn(t *testing.T) {
	t.Parallel()

	h := &capHandler{}
	failing := RoundTripperFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})

	_, err := Chain(failing, WithLogging(slog.New(h))).RoundTrip(newReq(t, "/x"))
	require.Error(t, err)
	require.Equal(t, slog.LevelWarn, h.lastLvl)
	require.Equal(t, "connection refused", h.attrs["err"])
}

// Полная цепочка против реального HTTP-сервера.
func TestChain_AgainstHTTPServer(t *testing.T) {
	t.Parallel()

	var gotAuth, gotUA, gotRID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get(HeaderAuthorization)
		gotUA = r.Header.Get(HeaderUserAgent)
		gotRID = r.Header.Get(HeaderRequestID)
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	st := tokenstore.NewMemory()
	require.NoError(t, st.Set(context.Background(), models.TokenPair{AccessToken: "AT", RefreshToken: "RT"}))

	client := &http.Client{Transport: Chain(http.DefaultTransport,
		WithRequestID(),
		WithUserAgent("tb/1"),
		WithAuth(st, "/auth/refresh"),
		WithLogging(slog.New(&capHandler{})),
	)}

	resp, err := client.Get(srv.URL + "/projects")
	require.NoError(t, err)
	_ = resp.Body.Close()

	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "Bearer AT", gotAuth)
	require.Equal(t, "tb/1", gotUA)
	require.NotEmpty(t, gotRID)
}
