package auth

import (
	"context"
	"fmt"
	"testing"

	lserrors "github.com/gear6io/lakeshare/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticValidator struct {
	tokens map[string]*Principal
	err    error
}

func (v *staticValidator) ValidateToken(ctx context.Context, token string) (*Principal, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.tokens[token], nil
}

func TestAuthenticateKnownCredential(t *testing.T) {
	validator := &staticValidator{tokens: map[string]*Principal{
		"secret-token": {ID: "acme", DisplayName: "Acme Corp", Roles: []string{"reader"}},
	}}
	authn := NewAuthenticator(validator, zerolog.Nop())

	principal, err := authn.Authenticate(context.Background(), "Bearer secret-token")
	require.NoError(t, err)
	assert.Equal(t, "acme", principal.ID)
	assert.Equal(t, []string{"reader"}, principal.Roles)
}

func TestAuthenticateUnknownCredential(t *testing.T) {
	authn := NewAuthenticator(&staticValidator{tokens: map[string]*Principal{}}, zerolog.Nop())

	_, err := authn.Authenticate(context.Background(), "Bearer nope")
	require.Error(t, err)
	assert.Equal(t, ErrUnauthenticated.String(), lserrors.GetCode(err))
}

func TestAuthenticateMalformedHeader(t *testing.T) {
	authn := NewAuthenticator(&staticValidator{}, zerolog.Nop())

	for _, header := range []string{"", "Basic abc", "Bearer a b"} {
		_, err := authn.Authenticate(context.Background(), header)
		require.Error(t, err, "header %q", header)
		assert.Equal(t, ErrMalformedAuthorization.String(), lserrors.GetCode(err))
	}
}

func TestAuthenticateValidatorFailure(t *testing.T) {
	authn := NewAuthenticator(&staticValidator{err: fmt.Errorf("registry down")}, zerolog.Nop())

	_, err := authn.Authenticate(context.Background(), "Bearer abc")
	require.Error(t, err)
	assert.Equal(t, ErrUnauthenticated.String(), lserrors.GetCode(err))
}
