package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKinds(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Errorf(ErrNotFound, "Table %s not found", "x"))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrTransport))

	e, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, "Table x not found", e.Error())

	_, ok = AsError(errors.New("plain"))
	assert.False(t, ok)
}

func TestErrorMessageIncludesStatus(t *testing.T) {
	e := &Error{Kind: ErrTransport, Message: "boom", StatusCode: 502}
	assert.Equal(t, "boom (status 502)", e.Error())
}
