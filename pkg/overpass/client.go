// Package overpass queries the OpenStreetMap Overpass API for ways near a point.
package overpass

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/roadprox-cli/pkg/geo"
)

// DefaultURL is the public Overpass interpreter endpoint.
const DefaultURL = "https://overpass-api.de/api/interpreter"

const defaultUserAgent = "roadprox-cli/1.0"

// maxErrorBody caps how much of a failed response body is kept on StatusError.
const maxErrorBody = 512

// Client fetches OSM ways around a point.
type Client interface {
	// WaysAround returns every way carrying tag within radiusMeters of p,
	// with full geometry.
	WaysAround(ctx context.Context, p geo.Point, radiusMeters float64, tag string) ([]Way, error)
}

// Option configures the client.
type Option func(*client)

// WithBaseURL overrides the interpreter URL.
func WithBaseURL(u string) Option {
	return func(c *client) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

type client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewClient creates an Overpass Client with the given options.
func NewClient(opts ...Option) Client {
	c := &client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    DefaultURL,
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WaysAround posts an around query and decodes the returned ways.
func (c *client) WaysAround(ctx context.Context, p geo.Point, radiusMeters float64, tag string) ([]Way, error) {
	if err := p.Validate(); err != nil {
		return nil, eris.Wrap(err, "overpass: query point")
	}

	query := AroundQuery(p, radiusMeters, tag)
	form := url.Values{"data": {query}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "overpass: build request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "overpass: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var decoded response
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, eris.Wrap(err, "overpass: parse response")
	}

	if len(decoded.Elements) == 0 && isRuntimeRemark(decoded.Remark) {
		return nil, eris.Wrapf(ErrRuntime, "overpass: %s", decoded.Remark)
	}

	return decoded.ways(), nil
}
