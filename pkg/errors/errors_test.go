package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCodeValidation(t *testing.T) {
	valid := []string{"deltalog.version_unavailable", "auth.unauthenticated", "a.b"}
	for _, s := range valid {
		code, err := NewCode(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, code.String())
		assert.True(t, code.IsValid())
	}

	invalid := []string{"", "nodot", "Upper.case", "two.dots.here", ".leading", "trailing."}
	for _, s := range invalid {
		_, err := NewCode(s)
		assert.Error(t, err, s)
	}
}

func TestCodeParts(t *testing.T) {
	code := MustNewCode("pagination.token_expired")
	assert.Equal(t, "pagination", code.Package())
	assert.Equal(t, "token_expired", code.Name())
	assert.True(t, code.Equals(MustNewCode("pagination.token_expired")))
	assert.False(t, code.Equals(CommonInternal))
}

func TestNewWithCause(t *testing.T) {
	cause := fmt.Errorf("disk on fire")
	err := New(CommonInternal, "replay failed", cause)

	assert.Equal(t, "replay failed: disk on fire", err.Error())
	assert.True(t, stderrors.Is(err, cause))
	assert.NotEmpty(t, err.Stack)
	assert.False(t, err.Timestamp.IsZero())
}

func TestNewWithoutCause(t *testing.T) {
	err := New(CommonNotFound, "table not found", nil)
	assert.Equal(t, "table not found", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestAddContextChaining(t *testing.T) {
	err := New(CommonValidation, "bad request", nil).
		AddContext("table", "events").
		AddContext("version", "42")

	assert.Equal(t, "events", err.Context["table"])
	assert.Equal(t, "42", err.Context["version"])
}

func TestGetCodeAndHasCode(t *testing.T) {
	err := New(CommonUnauthorized, "nope", nil)
	assert.Equal(t, "common.unauthorized", GetCode(err))
	assert.True(t, HasCode(err, CommonUnauthorized))
	assert.False(t, HasCode(err, CommonInternal))

	plain := fmt.Errorf("plain")
	assert.Equal(t, "", GetCode(plain))
	assert.False(t, HasCode(plain, CommonInternal))
}

func TestAsError(t *testing.T) {
	assert.Nil(t, AsError(nil))

	coded := New(CommonConflict, "already there", nil)
	assert.Same(t, coded, AsError(coded))

	wrapped := AsError(fmt.Errorf("boom"))
	require.NotNil(t, wrapped)
	assert.True(t, wrapped.Code.Equals(CommonInternal))
	assert.Equal(t, "boom", wrapped.Message)
}

func TestFormatError(t *testing.T) {
	err := New(CommonInternal, "broken", fmt.Errorf("root")).AddContext("k", "v")
	out := FormatError(err)
	assert.Contains(t, out, "Code: common.internal")
	assert.Contains(t, out, "Message: broken")
	assert.Contains(t, out, "k: v")
	assert.Contains(t, out, "Cause: root")

	assert.Equal(t, "plain", FormatError(fmt.Errorf("plain")))
}
