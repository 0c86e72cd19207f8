// Package canvas is a read-only client for the Canvas LMS REST API.
package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pbaille/coursework/internal/domain"
	"github.com/pbaille/coursework/pkg/logger"
	"github.com/pbaille/coursework/pkg/metrics"
)

// Endpoints used by the client.
const (
	coursesEndpoint     = "/courses?enrollment_state=active&per_page=100"
	assignmentsEndpoint = "/courses/%d/assignments?per_page=100&include[]=rubric"
)

// Response bodies above this size are rejected (10MB).
const maxBodySize = 10 * 1024 * 1024

// Client issues authenticated GET requests for one configuration
type Client struct {
	cfg    domain.Configuration
	http   *http.Client
	logger logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport. The default is http.DefaultClient,
// which sets no timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Client bound to cfg
func New(cfg domain.Configuration, opts ...Option) *Client {
	c := &Client{
		cfg:    cfg,
		http:   http.DefaultClient,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the address a request for endpoint is sent to. With a proxy
// prefix configured the upstream URL is percent-encoded and appended to it.
func (c *Client) URL(endpoint string) string {
	upstream := "https://" + c.cfg.Domain + "/api/v1" + endpoint
	if c.cfg.ProxyPrefix == "" {
		return upstream
	}
	return c.cfg.ProxyPrefix + encodeURIComponent(upstream)
}

// Request fetches endpoint and decodes the JSON body into out
func (c *Client) Request(ctx context.Context, endpoint string, out any) error {
	start := time.Now()
	err := c.do(ctx, endpoint, out)

	kind := endpointKind(endpoint)
	metrics.RecordUpstreamRequest(kind, outcome(err), float64(time.Since(start).Milliseconds()))
	if err != nil {
		c.logger.Warn(ctx, "canvas request failed",
			logger.String("endpoint", kind), logger.Error(err))
	} else {
		c.logger.Debug(ctx, "canvas request",
			logger.String("endpoint", kind),
			logger.Int64("duration_ms", time.Since(start).Milliseconds()))
	}
	return err
}

func (c *Client) do(ctx context.Context, endpoint string, out any) error {
	if !c.cfg.Complete() {
		return &ConfigurationError{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(endpoint), nil)
	if err != nil {
		return &RequestError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	// Some proxies refuse requests without it.
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &RequestError{Err: fmt.Errorf("http request: %w", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return &AuthError{}
	case resp.StatusCode == http.StatusForbidden:
		return &ForbiddenError{}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &RequestError{StatusCode: resp.StatusCode, StatusText: statusText(resp)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &RequestError{Err: fmt.Errorf("read response: %w", err)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &RequestError{Err: fmt.Errorf("unmarshal response: %w", err)}
	}
	return nil
}

// Courses lists active course enrollments. Only the first page is read.
func (c *Client) Courses(ctx context.Context) ([]domain.Course, error) {
	var courses []domain.Course
	if err := c.Request(ctx, coursesEndpoint, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// Assignments lists a course's assignments with their rubrics.
func (c *Client) Assignments(ctx context.Context, courseID int64) ([]domain.Assignment, error) {
	var assignments []domain.Assignment
	if err := c.Request(ctx, fmt.Sprintf(assignmentsEndpoint, courseID), &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

// statusText is the reason phrase without the numeric code.
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

func endpointKind(endpoint string) string {
	switch {
	case strings.Contains(endpoint, "/assignments"):
		return "assignments"
	case strings.HasPrefix(endpoint, "/courses"):
		return "courses"
	default:
		return "other"
	}
}

// encodeURIComponent escapes s the way browsers do: everything except
// alphanumerics and -_.!~*'() is percent-encoded.
func encodeURIComponent(s string) string {
	escaped := url.QueryEscape(s)
	return componentReplacer.Replace(escaped)
}

var componentReplacer = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)
