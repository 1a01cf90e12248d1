package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/go-github/v81/github"
	"golang.org/x/oauth2"
)

type Client struct {
	Client *github.Client
	HTTP   *http.Client
}

type options struct {
	logger  *slog.Logger
	baseURL string
}

type Option func(*options)

// WithLogger logs one debug line per request and response (including
// latency). Nothing is logged unless the logger has debug enabled.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithBaseURL targets a GitHub Enterprise Server API, e.g.
// https://ghe.example.com/api/v3/.
func WithBaseURL(u string) Option {
	return func(o *options) {
		o.baseURL = u
	}
}

type loggingRoundTripper struct {
	base   http.RoundTripper
	logger *slog.Logger
}

func (t *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	ctx := req.Context()
	t.logger.DebugContext(ctx, "github api request", slog.String("method", req.Method), slog.String("url", req.URL.String()))
	resp, err := t.base.RoundTrip(req)
	dur := time.Since(start).Truncate(time.Millisecond)
	if err != nil {
		t.logger.DebugContext(ctx, "github api error", slog.Duration("elapsed", dur), slog.Any("error", err))
	} else {
		t.logger.DebugContext(ctx, "github api response", slog.Int("status", resp.StatusCode), slog.Duration("elapsed", dur),
			slog.String("rate_remaining", resp.Header.Get("X-RateLimit-Remaining")))
	}
	return resp, err
}

func NewClient(ctx context.Context, token string, opts ...Option) (*Client, error) {
	if ctx == nil {
		return nil, fmt.Errorf("github client: ctx is nil")
	}

	o := &options{}
	for _, apply := range opts {
		if apply != nil {
			apply(o)
		}
	}

	transport := http.DefaultTransport
	if o.logger != nil {
		transport = &loggingRoundTripper{base: transport, logger: o.logger}
	}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		transport = &oauth2.Transport{Source: ts, Base: transport}
	}
	// Always provide an http.Client so request logging works even without a token.
	tc := &http.Client{Transport: transport}

	client := github.NewClient(tc)
	if o.baseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(o.baseURL, o.baseURL)
		if err != nil {
			return nil, fmt.Errorf("github client: invalid base URL: %w", err)
		}
	}

	return &Client{
		Client: client,
		HTTP:   tc,
	}, nil
}
