package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("loading listing: %w", NotFoundf("No listing: %d", 4))

	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, NotFound, kind)
	assert.True(t, Is(err, NotFound))
	assert.False(t, Is(err, BadRequest))
}

func TestKindOfPlainError(t *testing.T) {
	_, ok := KindOf(errors.New("boom"))
	assert.False(t, ok)
	assert.False(t, Is(nil, NotFound))
}

func TestInvalidJoinsMessages(t *testing.T) {
	err := Invalid([]string{"title is required", "price must be a number"})

	assert.Equal(t, BadRequest, err.Kind)
	assert.Equal(t, "title is required; price must be a number", err.Error())
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{NotFound, "not_found"},
		{BadRequest, "bad_request"},
		{Unauthorized, "unauthorized"},
		{Kind(0), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.String())
	}
}
