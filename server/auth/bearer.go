package auth

import (
	"strings"

	"github.com/gear6io/lakeshare/pkg/errors"
)

// Package-specific error codes for authentication
var (
	ErrMalformedAuthorization = errors.MustNewCode("auth.malformed_authorization")
	ErrUnauthenticated        = errors.MustNewCode("auth.unauthenticated")
)

// ParseBearer extracts the credential from an Authorization header value.
// The header must be exactly "Bearer <token>": the scheme compares
// case-insensitively, and any other shape (missing header, wrong scheme,
// missing token, extra tokens) is malformed.
func ParseBearer(header string) (string, error) {
	if header == "" {
		return "", errors.New(ErrMalformedAuthorization, "missing authorization header", nil)
	}

	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
		return "", errors.New(ErrMalformedAuthorization, "authorization header must be 'Bearer <token>'", nil)
	}

	return fields[1], nil
}
