package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/terrawatch/terrawatch/internal/common"
	"github.com/terrawatch/terrawatch/internal/logger"
)

const (
	// DefaultTimeout bounds a single round trip; analyses can take a while
	DefaultTimeout = 5 * time.Minute

	maxErrorBody = 64 * 1024
)

// Client talks to the change detection backend. It never retries: a failed
// call is returned to the caller as is.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	token   string
	log     *logger.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithToken sends the session token as a bearer credential
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a client for the backend at baseURL
func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, newError("new client", ErrTypeRequest, fmt.Errorf("base URL is empty"))
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, newError("new client", ErrTypeRequest, fmt.Errorf("invalid base URL: %w", err))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, newError("new client", ErrTypeRequest, fmt.Errorf("unsupported scheme %q", u.Scheme))
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: DefaultTimeout},
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the backend base URL
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Ping checks that the backend answers on its root path
func (c *Client) Ping(ctx context.Context) (*common.Message, error) {
	var msg common.Message
	if err := c.doJSON(ctx, "ping", http.MethodGet, c.endpoint(), nil, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListRegions fetches the predefined regions
func (c *Client) ListRegions(ctx context.Context) ([]common.Region, error) {
	var regions []common.Region
	if err := c.doJSON(ctx, "list regions", http.MethodGet, c.endpoint("available-regions"), nil, &regions); err != nil {
		return nil, err
	}
	return regions, nil
}

// AddRegion registers a new predefined region
func (c *Client) AddRegion(ctx context.Context, region common.NewRegion) (*common.Message, error) {
	var msg common.Message
	if err := c.doJSON(ctx, "add region", http.MethodPost, c.endpoint("available-regions"), region, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// AnalyzePredefinedRegion compares two years of a predefined region
func (c *Client) AnalyzePredefinedRegion(ctx context.Context, userID string, req common.PredefinedAnalysisRequest) (*common.AnalysisResult, error) {
	if err := requireUser("analyze predefined region", userID); err != nil {
		return nil, err
	}
	var env common.AnalysisEnvelope
	endpoint := c.endpoint("analysis", "predefined_region", userID)
	if err := c.doJSON(ctx, "analyze predefined region", http.MethodPost, endpoint, req, &env); err != nil {
		return nil, err
	}
	return envelopeResult(&env), nil
}

// AnalyzeUploadedRegion uploads an image pair and compares it
func (c *Client) AnalyzeUploadedRegion(ctx context.Context, userID string, req UploadRequest) (*common.AnalysisResult, error) {
	const op = "analyze uploaded region"
	if err := requireUser(op, userID); err != nil {
		return nil, err
	}

	body, contentType := newMultipartBody(req)
	endpoint := c.endpoint("analysis", "user_uploaded_region", userID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, newError(op, ErrTypeRequest, err)
	}
	httpReq.Header.Set("Content-Type", contentType)

	var env common.AnalysisEnvelope
	if err := c.do(op, httpReq, &env); err != nil {
		return nil, err
	}
	return envelopeResult(&env), nil
}

// History fetches the past analyses of a user
func (c *Client) History(ctx context.Context, userID string) ([]common.HistoryRecord, error) {
	if err := requireUser("history", userID); err != nil {
		return nil, err
	}
	var records []common.HistoryRecord
	if err := c.doJSON(ctx, "history", http.MethodGet, c.endpoint("history", userID), nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func envelopeResult(env *common.AnalysisEnvelope) *common.AnalysisResult {
	if env.Analysis == nil {
		return &common.AnalysisResult{}
	}
	return env.Analysis
}

// endpoint joins escaped path segments onto the base URL
func (c *Client) endpoint(segments ...string) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(c.baseURL.String(), "/"))
	if len(segments) == 0 {
		b.WriteString("/")
	}
	for _, s := range segments {
		b.WriteString("/")
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

func requireUser(op, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return newError(op, ErrTypeRequest, errors.New("user id is required"))
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, op, method, endpoint string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return newError(op, ErrTypeEncode, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return newError(op, ErrTypeRequest, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(op, req, out)
}

func (c *Client) do(op string, req *http.Request, out interface{}) error {
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WarnWithFields("%s failed", []logger.Field{logger.RequestID(requestID), logger.Error(err)}, op)
		return newError(op, ErrTypeNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.DebugWithFields("%s %s", []logger.Field{
		logger.Status(resp.StatusCode),
		logger.Duration(time.Since(start)),
		logger.RequestID(requestID),
	}, req.Method, req.URL.Path)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &Error{Op: op, Type: ErrTypeStatus, StatusCode: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(data, &eb) == nil {
			apiErr.Message = eb.message()
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return newError(op, ErrTypeDecode, err)
	}
	return nil
}
