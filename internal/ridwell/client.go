// Package ridwell is the entry point for talking to the Ridwell API: it logs
// in, keeps the session fresh and hands out the signed-in user's accounts.
package ridwell

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jamesprial/ridwell-mcp/internal/config"
	"github.com/jamesprial/ridwell-mcp/internal/graphql"
	"github.com/jamesprial/ridwell-mcp/internal/pickups"
	"github.com/rs/zerolog"
)

const dashboardURLFormat = "https://www.ridwell.com/users/%s/dashboard"

// ErrNoSession is returned by NewClient when the login response carried no
// token.
var ErrNoSession = errors.New("ridwell: login returned no session token")

// Client is an authenticated Ridwell API client.
type Client struct {
	api      *graphql.HTTPClient
	accounts *pickups.GraphQLAccountManager
	logger   zerolog.Logger
}

type options struct {
	graphql []graphql.Option
	pickups []pickups.ManagerOption
	logger  zerolog.Logger
}

// Option configures a Client.
type Option func(*options)

// WithHTTPDoer sends every request through doer.
func WithHTTPDoer(doer graphql.HTTPDoer) Option {
	return func(o *options) { o.graphql = append(o.graphql, graphql.WithHTTPDoer(doer)) }
}

// WithLogger sets the logger for the client and everything it builds.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithRecorder reports request metrics to r.
func WithRecorder(r graphql.Recorder) Option {
	return func(o *options) { o.graphql = append(o.graphql, graphql.WithRecorder(r)) }
}

// WithClock sets the clock used to decide which pickup events are upcoming.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.pickups = append(o.pickups, pickups.WithClock(now)) }
}

// NewClient builds a client for cfg and logs in before returning, so a
// returned Client always has a user id.
func NewClient(ctx context.Context, cfg config.RidwellConfig, opts ...Option) (*Client, error) {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger.With().Str("component", "ridwell").Logger()
	api, err := graphql.NewHTTPClient(cfg, append([]graphql.Option{graphql.WithLogger(logger)}, o.graphql...)...)
	if err != nil {
		return nil, err
	}
	if err := api.Authenticate(ctx); err != nil {
		return nil, fmt.Errorf("ridwell: login: %w", err)
	}
	if !api.Session().Authenticated() {
		return nil, ErrNoSession
	}

	logger.Info().
		Str("user_id", api.Session().UserID()).
		Time("token_expires_at", api.Session().ExpiresAt()).
		Msg("signed in to Ridwell")

	return &Client{
		api:      api,
		accounts: pickups.NewGraphQLAccountManager(api, append([]pickups.ManagerOption{pickups.WithLogger(logger)}, o.pickups...)...),
		logger:   logger,
	}, nil
}

// UserID returns the id of the signed-in user.
func (c *Client) UserID() string {
	return c.api.Session().UserID()
}

// TokenExpiresAt returns when the current session token expires, or the zero
// time when the token does not say.
func (c *Client) TokenExpiresAt() time.Time {
	return c.api.Session().ExpiresAt()
}

// DashboardURL returns the web dashboard of the signed-in user.
func (c *Client) DashboardURL() string {
	return fmt.Sprintf(dashboardURLFormat, c.UserID())
}

// Accounts returns the signed-in user's accounts keyed by account id.
func (c *Client) Accounts(ctx context.Context) (map[string]*pickups.Account, error) {
	return c.accounts.Accounts(ctx, c.UserID())
}

// Execute sends op through the authenticated pipeline.
func (c *Client) Execute(ctx context.Context, op graphql.Operation) ([]byte, error) {
	return c.api.Execute(ctx, op)
}

var (
	_ graphql.Client        = (*Client)(nil)
	_ pickups.AccountSource = (*Client)(nil)
)
