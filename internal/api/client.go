package api

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/imroc/req/v3"

	"github.com/cpan115/pan115/internal/version"
)

const (
	// DefaultAPIBase is the 115 open platform API endpoint.
	DefaultAPIBase = "https://proapi.115.com"

	// DefaultAuthBase is the 115 passport endpoint used for token refresh.
	DefaultAuthBase = "https://passportapi.115.com"

	HeaderUserAgent     = "User-Agent"
	HeaderAuthorization = "Authorization"
)

var userAgent = fmt.Sprintf("pan115/%s (%s; %s; %s)", version.Version, version.Revision, runtime.GOOS, runtime.GOARCH)

// Client is the authenticated client for the 115 open API.
// All endpoint groups share one underlying req client so auth headers,
// retries and JSON codecs are configured once.
type Client struct {
	http     *req.Client
	authBase string

	mu        sync.Mutex
	token     Token
	onRefresh func(Token)

	Files   *FilesAPI
	Upload  *UploadAPI
	User    *UserAPI
	Recycle *RecycleAPI
}

// Token holds the OAuth token pair issued by the 115 passport service.
type Token struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

type Option func(*Client)

// WithAuthBase overrides the passport endpoint. Used by tests.
func WithAuthBase(url string) Option {
	return func(c *Client) { c.authBase = url }
}

// WithTokenRefreshHook registers a callback invoked with the new token pair
// after a successful refresh, so callers can persist it.
func WithTokenRefreshHook(fn func(Token)) Option {
	return func(c *Client) { c.onRefresh = fn }
}

// New creates a 115 open API client.
func New(baseURL string, token Token, opts ...Option) *Client {
	httpClient := req.C().
		SetBaseURL(baseURL).
		SetCommonRetryCount(3).
		SetCommonRetryFixedInterval(1*time.Second).
		SetUserAgent(userAgent).
		SetTimeout(60 * time.Second).
		SetJsonMarshal(jsonMarshal).
		SetJsonUnmarshal(jsonUnmarshal)

	c := &Client{
		http:     httpClient,
		authBase: DefaultAuthBase,
		token:    token,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Refresh lazily just before the token lapses so long batch
	// operations don't start failing halfway through.
	httpClient.OnBeforeRequest(func(_ *req.Client, r *req.Request) error {
		tok, err := c.currentToken(r.Context())
		if err != nil {
			return err
		}
		if tok.AccessToken != "" {
			r.SetHeader(HeaderAuthorization, "Bearer "+tok.AccessToken)
		}
		return nil
	})

	c.Files = &FilesAPI{client: httpClient}
	c.Upload = &UploadAPI{client: httpClient}
	c.User = &UserAPI{client: httpClient}
	c.Recycle = &RecycleAPI{client: httpClient}

	return c
}

// Close releases idle transport connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// Token returns the current token pair.
func (c *Client) Token() Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) currentToken(ctx context.Context) (Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token.RefreshToken == "" || c.token.ExpiresAt.IsZero() {
		return c.token, nil
	}
	if time.Until(c.token.ExpiresAt) > time.Minute {
		return c.token, nil
	}

	tok, err := refreshToken(ctx, c.authBase, c.token.RefreshToken)
	if err != nil {
		return Token{}, fmt.Errorf("refresh access token: %w", err)
	}

	c.token = tok
	if c.onRefresh != nil {
		c.onRefresh(tok)
	}
	return c.token, nil
}
