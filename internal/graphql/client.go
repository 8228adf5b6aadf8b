package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jamesprial/ridwell-mcp/internal/config"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultRetries    = 3
	defaultRetryDelay = time.Second
)

// HTTPClient is the request pipeline. It sends each Operation as a single
// JSON POST, classifies errors embedded in the response and, when the server
// reports an expired session, logs in again and retries.
//
// HTTPClient is safe for concurrent use. A refresh triggered by one caller is
// visible to every other caller on its next attempt.
type HTTPClient struct {
	endpoint   string
	doer       HTTPDoer
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	limiter    *rate.Limiter

	session  *Session
	logger   zerolog.Logger
	recorder Recorder
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPDoer makes the client send requests through doer. The client never
// closes a supplied doer; without one, every Execute call builds its own
// *http.Client and releases it before returning.
func WithHTTPDoer(doer HTTPDoer) Option {
	return func(c *HTTPClient) { c.doer = doer }
}

// WithLogger sets the logger used for retry and diagnostic messages.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *HTTPClient) { c.logger = logger }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *HTTPClient) {
		if r != nil {
			c.recorder = r
		}
	}
}

// NewHTTPClient constructs an HTTPClient from the provided RidwellConfig.
// It returns an error if cfg.URL is empty or not an http(s) URL. A zero or
// negative Timeout or Retries selects the default (10 seconds, 3 attempts);
// a negative RetryDelayMS is treated as zero. A positive RateLimit spaces
// out every attempt, logins included; RateBurst below 1 means 1.
func NewHTTPClient(cfg config.RidwellConfig, opts ...Option) (*HTTPClient, error) {
	endpoint, err := normalizeURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	c := &HTTPClient{
		endpoint:   endpoint,
		timeout:    cfg.TimeoutDuration(),
		maxRetries: cfg.Retries,
		retryDelay: cfg.RetryDelay(),
		session:    NewSession(cfg.Email, cfg.Password),
		logger:     zerolog.Nop(),
		recorder:   nopRecorder{},
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.maxRetries <= 0 {
		c.maxRetries = defaultRetries
	}
	if c.retryDelay < 0 {
		c.retryDelay = 0
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(cfg.RateBurst, 1))
	}

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// normalizeURL trims surrounding whitespace and trailing slashes from rawURL
// and checks that it is an absolute http or https URL.
func normalizeURL(rawURL string) (string, error) {
	u := strings.TrimRight(strings.TrimSpace(rawURL), "/")
	if u == "" {
		return "", fmt.Errorf("graphql: URL is required")
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return "", fmt.Errorf("graphql: invalid URL %q: %w", rawURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("graphql: URL %q must use http or https", rawURL)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("graphql: URL %q has no host", rawURL)
	}
	return u + "/", nil
}

// Session returns the credential holder used by this client.
func (c *HTTPClient) Session() *Session {
	return c.session
}

// graphqlRequest is the JSON body shape for a GraphQL HTTP request.
type graphqlRequest struct {
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
	Query         string         `json:"query"`
}

// graphqlResponse is the JSON body shape for a GraphQL HTTP response.
type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// Execute sends op and returns the raw JSON of the response's "data" member.
// The current token, if any, is attached as a bearer credential.
//
// Execute returns:
//   - a *TransportError when the request cannot be sent, the body is not
//     JSON, or the status is not 2xx and the body carries no GraphQL errors
//   - a *RequestError when the body carries errors; its Kind is
//     ErrInvalidCredentials for a wrong password and nil for unknown messages
//   - ErrCredentialsRefreshExhausted when all attempts reported an expired
//     session despite logging in again between them
//
// Only an expired session is retried. A re-authentication that is itself
// told the session expired uses up that attempt and the loop goes on; any
// other error from the re-authentication is returned as it is.
func (c *HTTPClient) Execute(ctx context.Context, op Operation) ([]byte, error) {
	doer, release := c.acquireDoer()
	defer release()

	refreshes := 0
	for refreshes < c.maxRetries {
		data, err := c.attempt(ctx, doer, op, true)
		if err == nil {
			c.logger.Debug().
				Str("operation", op.Name).
				Int("bytes", len(data)).
				Msg("received data")
			return data, nil
		}
		if !errors.Is(err, ErrSessionExpired) {
			c.recorder.RecordFailure(op.Name, errorKind(err))
			return nil, err
		}

		refreshes++
		c.recorder.RecordRefresh(op.Name)
		c.logger.Debug().
			Str("operation", op.Name).
			Int("attempt", refreshes).
			Int("max_attempts", c.maxRetries).
			Msg("token failed; refreshing and trying again")

		if err := c.authenticate(ctx, doer); err != nil {
			if !errors.Is(err, ErrSessionExpired) {
				c.recorder.RecordFailure(op.Name, errorKind(err))
				return nil, err
			}
			c.logger.Debug().
				Str("operation", op.Name).
				Int("attempt", refreshes).
				Msg("login reported an expired session")
		}
		if err := sleepContext(ctx, c.retryDelay); err != nil {
			return nil, err
		}
	}

	c.recorder.RecordFailure(op.Name, errorKind(ErrCredentialsRefreshExhausted))
	return nil, fmt.Errorf("graphql: %s: %w after %d attempts", op.Name, ErrCredentialsRefreshExhausted, c.maxRetries)
}

// attempt performs one HTTP round trip. When withToken is false no
// Authorization header is sent.
func (c *HTTPClient) attempt(ctx context.Context, doer HTTPDoer, op Operation, withToken bool) ([]byte, error) {
	reqBody := graphqlRequest{
		OperationName: op.Name,
		Variables:     op.Variables,
		Query:         op.Query,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("graphql: %s: marshal request: %w", op.Name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("graphql: %s: create request: %w", op.Name, err)
	}
	for key, values := range op.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	requestID := req.Header.Get("X-Request-Id")
	if requestID == "" {
		requestID = uuid.NewString()
		req.Header.Set("X-Request-Id", requestID)
	}
	if withToken {
		// Read the token once per attempt; a concurrent refresh may have
		// replaced it since the previous one.
		if token := c.session.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Operation: op.Name, Err: err}
		}
	}

	c.logger.Trace().
		Str("operation", op.Name).
		Str("request_id", requestID).
		Bool("bearer", req.Header.Get("Authorization") != "").
		Msg("sending request")

	start := time.Now()
	resp, err := doer.Do(req)
	if err != nil {
		c.recorder.RecordAttempt(op.Name, time.Since(start))
		return nil, &TransportError{Operation: op.Name, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	var gqlResp graphqlResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&gqlResp)
	c.recorder.RecordAttempt(op.Name, time.Since(start))
	if decodeErr != nil {
		return nil, &TransportError{
			Operation:  op.Name,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("decode response: %w", decodeErr),
		}
	}

	// HTTP 200 responses can still be errors, and error statuses may carry
	// a GraphQL error body worth classifying.
	if err := dataError(op.Name, gqlResp.Errors); err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{
			Operation:  op.Name,
			StatusCode: resp.StatusCode,
			Err:        errors.New("unexpected HTTP status"),
		}
	}

	return []byte(gqlResp.Data), nil
}

// acquireDoer returns the injected doer, or a fresh client scoped to one
// call together with the function that releases it.
func (c *HTTPClient) acquireDoer() (HTTPDoer, func()) {
	if c.doer != nil {
		return c.doer, func() {}
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &http.Client{Timeout: c.timeout, Transport: transport}, transport.CloseIdleConnections
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
