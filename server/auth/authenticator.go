package auth

import (
	"context"

	"github.com/gear6io/lakeshare/pkg/errors"
	"github.com/rs/zerolog"
)

// Principal is an authenticated recipient identity
type Principal struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"displayName,omitempty"`
	Roles       []string `json:"roles,omitempty"`
}

// RecipientValidator resolves a bearer credential to a principal. It is the
// boundary to the recipient registry: implementations must behave as a pure
// lookup (credential in, principal or nil out) and must not mutate
// recipient state.
type RecipientValidator interface {
	ValidateToken(ctx context.Context, token string) (*Principal, error)
}

// Authenticator authenticates every request independently from its bearer
// credential. No sessions, no refresh, no cookies: the credential itself is
// the long-lived artifact.
type Authenticator struct {
	validator RecipientValidator
	logger    zerolog.Logger
}

// NewAuthenticator creates an authenticator backed by the given validator
func NewAuthenticator(validator RecipientValidator, logger zerolog.Logger) *Authenticator {
	return &Authenticator{
		validator: validator,
		logger:    logger.With().Str("component", "authenticator").Logger(),
	}
}

type principalContextKey struct{}

// WithPrincipal attaches the authenticated principal to the context
func WithPrincipal(ctx context.Context, principal *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, principal)
}

// PrincipalFrom returns the principal attached by WithPrincipal, or nil
// when the request was served without authentication.
func PrincipalFrom(ctx context.Context) *Principal {
	principal, _ := ctx.Value(principalContextKey{}).(*Principal)
	return principal
}

// Authenticate parses the Authorization header and resolves the credential
// to a principal. Malformed headers and unknown credentials are both
// rejected; only the error code distinguishes them.
func (a *Authenticator) Authenticate(ctx context.Context, authorizationHeader string) (*Principal, error) {
	token, err := ParseBearer(authorizationHeader)
	if err != nil {
		return nil, err
	}

	principal, err := a.validator.ValidateToken(ctx, token)
	if err != nil {
		return nil, errors.New(ErrUnauthenticated, "credential validation failed", err)
	}
	if principal == nil {
		a.logger.Debug().Msg("Rejected unknown bearer credential")
		return nil, errors.New(ErrUnauthenticated, "unknown bearer credential", nil)
	}

	return principal, nil
}
