// clients - типизированный REST-клиент бэкенда task-board.
//
// Все запросы проходят цепочку transport: request id -> user agent ->
// Bearer из хранилища -> логирование. Ответ не-2xx превращается в
// *apierror.Error; сетевые ошибки оборачиваются с указанием операции.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pribylovaa/go-taskboard/internal/apierror"
	"github.com/pribylovaa/go-taskboard/internal/config"
	"github.com/pribylovaa/go-taskboard/internal/models"
	"github.com/pribylovaa/go-taskboard/internal/tokenstore"
	"github.com/pribylovaa/go-taskboard/internal/transport"
)

// Пути эндпойнтов бэкенда.
const (
	PathRegister = "/auth/local/register"
	PathLogin    = "/auth/local/login"
	PathRefresh  = "/auth/refresh"
	PathLogout   = "/auth/logout"
	PathMe       = "/users/me"
)

// Client - REST-клиент с общими base URL, таймаутом и цепочкой transport.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
}

// Option настраивает Client.
type Option func(*clientOptions)

type clientOptions struct {
	base http.RoundTripper
}

// WithBaseTransport подменяет нижний http.RoundTripper (по умолчанию http.DefaultTransport).
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(o *clientOptions) { o.base = rt }
}

// New собирает клиент по конфигурации API. store используется для
// подстановки Bearer-токенов, log - для записи исходящих запросов.
func New(cfg config.APIConfig, store tokenstore.Store, log *slog.Logger, opts ...Option) (*Client, error) {
	const op = "clients.New"

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%s: empty base url", op)
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%s: parse base url: %w", op, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%s: base url must be absolute: %q", op, cfg.BaseURL)
	}

	o := clientOptions{base: http.DefaultTransport}
	for _, fn := range opts {
		fn(&o)
	}

	// Путь refresh с учётом префикса base URL (например, /api/auth/refresh).
	refreshPath := base.Path + PathRefresh

	// Цепочка: request id -> user agent -> auth -> logging.
	rt := transport.Chain(o.base,
		transport.WithRequestID(),
		transport.WithUserAgent(cfg.UserAgent),
		transport.WithAuth(store, refreshPath),
		transport.WithLogging(log),
	)

	return &Client{
		base:    base,
		http:    &http.Client{Transport: rt},
		timeout: cfg.Timeout,
	}, nil
}

// HTTPClient - *http.Client с той же цепочкой transport, для произвольных запросов.
func (c *Client) HTTPClient() *http.Client { return c.http }

// BaseURL - базовый адрес бэкенда.
func (c *Client) BaseURL() string { return c.base.String() }

// Register - POST /auth/local/register.
func (c *Client) Register(ctx context.Context, creds models.Credentials) (models.TokenPair, error) {
	const op = "clients.Register"

	var pair models.TokenPair
	if err := c.do(ctx, http.MethodPost, PathRegister, creds, &pair); err != nil {
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	return pair, nil
}

// Login - POST /auth/local/login.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (models.TokenPair, error) {
	const op = "clients.Login"

	var pair models.TokenPair
	if err := c.do(ctx, http.MethodPost, PathLogin, creds, &pair); err != nil {
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	return pair, nil
}

// Refresh - POST /auth/refresh; refresh-токен подставляет transport.WithAuth.
func (c *Client) Refresh(ctx context.Context) (models.TokenPair, error) {
	const op = "clients.Refresh"

	var pair models.TokenPair
	if err := c.do(ctx, http.MethodPost, PathRefresh, nil, &pair); err != nil {
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	return pair, nil
}

// Logout - POST /auth/logout.
func (c *Client) Logout(ctx context.Context) error {
	const op = "clients.Logout"

	if err := c.do(ctx, http.MethodPost, PathLogout, nil, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Me - GET /users/me.
func (c *Client) Me(ctx context.Context) (models.User, error) {
	const op = "clients.Me"

	var u models.User
	if err := c.do(ctx, http.MethodGet, PathMe, nil, &u); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

// GetJSON - аутентифицированный GET произвольного пути с разбором JSON в out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	const op = "clients.GetJSON"

	if err := c.do(ctx, http.MethodGet, path, nil, out); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// PostJSON - аутентифицированный POST произвольного пути: in кодируется в JSON, ответ разбирается в out.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	const op = "clients.PostJSON"

	if err := c.do(ctx, http.MethodPost, path, in, out); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// do выполняет запрос. Таймаут навешивается, только если у ctx нет дедлайна.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if c.timeout > 0 {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apierror.FromResponse(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (c *Client) resolve(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	u := *c.base
	rel, err := url.Parse(path)
	if err != nil {
		u.Path += path
		return u.String()
	}

	u.Path += rel.Path
	u.RawQuery = rel.RawQuery

	return u.String()
}
