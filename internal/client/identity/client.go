// Package identity is the client of the credential service. It keeps the
// session tokens, refreshes an expired access token transparently and
// publishes sign-in and sign-out events for the cache engine.
package identity

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophjournal/internal/client/models"
	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/dmitrijs2005/gophjournal/internal/logging"
	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// Full method names served by the credential service.
const (
	MethodSignUp            = "/gophjournal.identity.v1.Identity/SignUp"
	MethodSignIn            = "/gophjournal.identity.v1.Identity/SignIn"
	MethodSignOut           = "/gophjournal.identity.v1.Identity/SignOut"
	MethodSendPasswordReset = "/gophjournal.identity.v1.Identity/SendPasswordReset"
	MethodRefreshToken      = "/gophjournal.identity.v1.Identity/RefreshToken"
)

const eventBuffer = 16

// Claims is the access token payload. Older tokens carry the owner in the
// standard subject instead of UserID.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id,omitempty"`
}

type Option func(*Client)

func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithDialOptions appends grpc dial options, e.g. a custom dialer.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(c *Client) { c.dialOpts = append(c.dialOpts, opts...) }
}

type Client struct {
	endpointURL string
	conn        *grpc.ClientConn
	dialOpts    []grpc.DialOption
	log         logging.Logger

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	owner        string

	events chan models.IdentityEvent
}

// New connects lazily to endpointURL; no network traffic happens until the
// first call.
func New(endpointURL string, opts ...Option) (*Client, error) {
	c := &Client{
		endpointURL: endpointURL,
		log:         logging.Nop(),
		events:      make(chan models.IdentityEvent, eventBuffer),
	}
	for _, opt := range opts {
		opt(c)
	}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, c.dialOpts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Events delivers identity changes. The channel is never closed.
func (c *Client) Events() <-chan models.IdentityEvent {
	return c.events
}

// Owner returns the signed-in owner id or "".
func (c *Client) Owner() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.owner
}

func (c *Client) tokens() (access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, c.refreshToken
}

func (c *Client) setTokens(access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken, c.refreshToken = access, refresh
}

// SignUp creates an account and signs it in. It returns the new owner id.
func (c *Client) SignUp(ctx context.Context, email, password string) (string, error) {
	return c.startSession(ctx, MethodSignUp, map[string]any{
		"email":    email,
		"password": password,
	})
}

// SignIn starts a session and returns the owner id.
func (c *Client) SignIn(ctx context.Context, email, password string) (string, error) {
	return c.startSession(ctx, MethodSignIn, map[string]any{
		"email":    email,
		"password": password,
	})
}

func (c *Client) startSession(ctx context.Context, method string, fields map[string]any) (string, error) {
	reply, err := c.call(ctx, method, fields)
	if err != nil {
		return "", err
	}

	access, refresh, err := tokensFrom(reply)
	if err != nil {
		return "", err
	}
	owner, err := OwnerFromToken(access)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.accessToken, c.refreshToken, c.owner = access, refresh, owner
	c.mu.Unlock()

	c.publish(ctx, models.IdentityEvent{Kind: models.SignedIn, OwnerID: owner})
	return owner, nil
}

// SignOut ends the session. Local state is cleared and SignedOut is
// published even when the server call fails; that failure is returned.
func (c *Client) SignOut(ctx context.Context) error {
	_, refresh := c.tokens()
	if c.Owner() == "" {
		return fmt.Errorf("%w: not signed in", common.ErrUnauthenticated)
	}

	_, err := c.call(ctx, MethodSignOut, map[string]any{"refresh_token": refresh})

	c.mu.Lock()
	c.accessToken, c.refreshToken, c.owner = "", "", ""
	c.mu.Unlock()

	c.publish(ctx, models.IdentityEvent{Kind: models.SignedOut})
	return err
}

func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	_, err := c.call(ctx, MethodSendPasswordReset, map[string]any{"email": email})
	return err
}

func (c *Client) call(ctx context.Context, method string, fields map[string]any) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	reply := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, req, reply); err != nil {
		return nil, mapError(err)
	}
	return reply, nil
}

func (c *Client) publish(ctx context.Context, ev models.IdentityEvent) {
	select {
	case c.events <- ev:
	default:
		c.log.Warn(ctx, "identity event dropped, nobody is listening", "kind", ev.Kind.String())
	}
}

func tokensFrom(reply *structpb.Struct) (access, refresh string, err error) {
	fields := reply.GetFields()
	access = fields["access_token"].GetStringValue()
	refresh = fields["refresh_token"].GetStringValue()
	if access == "" {
		return "", "", fmt.Errorf("%w: reply has no access_token", common.ErrMalformed)
	}
	return access, refresh, nil
}

// OwnerFromToken reads the owner id from an access token. The signature is
// not checked here; the server does that on every call.
func OwnerFromToken(token string) (string, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", common.Wrap(common.ErrInvalidToken, err)
	}
	if claims.UserID != "" {
		return claims.UserID, nil
	}
	if claims.Subject != "" {
		return claims.Subject, nil
	}
	return "", fmt.Errorf("%w: no owner claim", common.ErrInvalidToken)
}
