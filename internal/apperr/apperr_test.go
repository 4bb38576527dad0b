package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOfWrapped(t *testing.T) {
	base := NotFoundf("Post with id %d not found", 7)
	wrapped := fmt.Errorf("loading post: %w", base)

	assert.Equal(t, NotFound, KindOf(wrapped))
	assert.True(t, Is(wrapped, NotFound))
	assert.Equal(t, "Post with id 7 not found", base.Error())
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, Internal, KindOf(errors.New("boom")))
	assert.False(t, Is(nil, Internal))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(Internal, cause, "")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, "disk full", err.Error())
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		InvalidArgument: http.StatusBadRequest,
		Unauthenticated: http.StatusForbidden,
		Forbidden:       http.StatusForbidden,
		NotFound:        http.StatusNotFound,
		TooManyRequests: http.StatusTooManyRequests,
		Internal:        http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(kind), kind.String())
	}
}
