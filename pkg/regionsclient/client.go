// Package regionsclient is a client for the regions listing endpoint that
// validates every response body against the published OpenAPI schemas. It
// is the harness used by the end-to-end suite.
package regionsclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/georegions/regions/api"
	"github.com/georegions/regions/pkg/logger"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvAPIURL     = "REGIONS_API_URL"
	EnvAPITimeout = "REGIONS_API_TIMEOUT"
)

// Defaults.
const (
	DefaultBaseURL = "http://localhost:8080"
	DefaultTimeout = 10 * time.Second
	RegionsPath    = "/1.0/regions"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 1 << 20

// Config configures a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logger.Logger
}

// ConfigFromEnv reads the target and timeout from the environment.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		BaseURL: DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
	if v := os.Getenv(EnvAPIURL); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv(EnvAPITimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", EnvAPITimeout, err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("invalid %s: must be positive", EnvAPITimeout)
		}
		cfg.Timeout = d
	}
	return cfg, nil
}

// Client issues listing requests.
type Client struct {
	endpoint    *url.URL
	http        *http.Client
	log         *logger.Logger
	pageSchema  *openapi3.Schema
	errorSchema *openapi3.Schema
}

// New creates a Client. It fails when the base URL is not absolute or the
// embedded API document does not load.
func New(cfg Config) (*Client, error) {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(base, "/") + RegionsPath)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host are required", base)
	}

	doc, err := api.Load(context.Background())
	if err != nil {
		return nil, err
	}
	pageSchema, err := api.Schema(doc, api.SchemaPage)
	if err != nil {
		return nil, err
	}
	errorSchema, err := api.Schema(doc, api.SchemaError)
	if err != nil {
		return nil, err
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Client{
		endpoint:    u,
		http:        httpClient,
		log:         log,
		pageSchema:  pageSchema,
		errorSchema: errorSchema,
	}, nil
}

// NewFromEnv creates a Client configured from the environment.
func NewFromEnv(log *logger.Logger) (*Client, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	cfg.Logger = log
	return New(cfg)
}

// Endpoint returns the absolute URL of the listing endpoint.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// GetRegions issues GET /1.0/regions with p. Any HTTP status is returned as
// a Response; only transport failures yield an error.
func (c *Client) GetRegions(ctx context.Context, p Params) (*Response, error) {
	u := *c.endpoint
	u.RawQuery = p.Values().Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.log.Debug("request", "method", req.Method, "url", req.URL.String())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", u.String(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.log.Debug("response",
		"status", resp.StatusCode,
		"request_id", resp.Header.Get(HeaderRequestID),
		"body", string(body),
	)

	return &Response{
		StatusCode:  resp.StatusCode,
		Header:      resp.Header,
		Body:        body,
		pageSchema:  c.pageSchema,
		errorSchema: c.errorSchema,
	}, nil
}

// ErrUnexpectedStatus is returned when a body is decoded for the wrong
// status class.
var ErrUnexpectedStatus = errors.New("unexpected status")
