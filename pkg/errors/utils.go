package errors

import (
	"fmt"
	"strings"
)

// IsLakeshareError reports whether err is our coded Error type
func IsLakeshareError(err error) bool {
	_, ok := err.(*Error)
	return ok
}

// GetContext extracts context from a coded error, nil otherwise
func GetContext(err error) map[string]string {
	if lsErr, ok := err.(*Error); ok {
		return lsErr.Context
	}
	return nil
}

// GetCode returns the code string of a coded error, "" otherwise
func GetCode(err error) string {
	if lsErr, ok := err.(*Error); ok {
		return lsErr.Code.String()
	}
	return ""
}

// HasCode reports whether err carries exactly the given code
func HasCode(err error, code Code) bool {
	if lsErr, ok := err.(*Error); ok {
		return lsErr.Code.Equals(code)
	}
	return false
}

// AsError converts any error to the internal coded form. Coded errors pass
// through unchanged; everything else is wrapped as common.internal.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	if internalErr, ok := err.(*Error); ok {
		return internalErr
	}
	return New(CommonInternal, err.Error(), err)
}

// FormatError renders a coded error for logging
func FormatError(err error) string {
	lsErr, ok := err.(*Error)
	if !ok {
		return err.Error()
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("Code: %s", lsErr.Code))
	parts = append(parts, fmt.Sprintf("Message: %s", lsErr.Message))

	if len(lsErr.Context) > 0 {
		parts = append(parts, "Context:")
		for k, v := range lsErr.Context {
			parts = append(parts, fmt.Sprintf("  %s: %v", k, v))
		}
	}

	if lsErr.Cause != nil {
		parts = append(parts, fmt.Sprintf("Cause: %v", lsErr.Cause))
	}

	return strings.Join(parts, "\n")
}
