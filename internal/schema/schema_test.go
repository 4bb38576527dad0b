package schema

import (
	"errors"
	"testing"

	"github.com/alphabot-ai/postboard/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := New()
	require.NoError(t, err)
	return v
}

func TestEmbeddedSchemasCompile(t *testing.T) {
	v := newTestValidator(t)
	for _, id := range []string{Signup, Login, UserUpdate, Post, PostUpdate, Comment} {
		assert.True(t, v.HasSchema(id), id)
	}
	assert.False(t, v.HasSchema(base+"refs/email.json"), "refs are not top level")
}

func TestSignup(t *testing.T) {
	v := newTestValidator(t)

	assert.NoError(t, v.Validate([]byte(`{"name":"Ada","email":"ada@example.com","password":"abc123"}`), Signup))

	err := v.Validate([]byte(`{"email":"ada@example.com","password":"abc123"}`), Signup)
	require.Error(t, err)
	assert.Equal(t, apperr.InvalidArgument, apperr.KindOf(err))
	assert.Equal(t, `"name" is required`, err.Error())

	err = v.Validate([]byte(`{"name":"Ada","email":"ada@example.com","password":"a!"}`), Signup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"password"`)

	err = v.Validate([]byte(`{"name":"Ada","email":"not-an-email","password":"abc123"}`), Signup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"email"`)

	err = v.Validate([]byte(`{"name":"Ada","email":"ada@example.com","password":"abc123","role":"admin"}`), Signup)
	require.Error(t, err)
	assert.Equal(t, `"role" is not allowed`, err.Error())
}

func TestLogin(t *testing.T) {
	v := newTestValidator(t)
	assert.NoError(t, v.Validate([]byte(`{"email":"ada@example.com","password":"abc123"}`), Login))
	assert.Error(t, v.Validate([]byte(`{"email":"ada@example.com"}`), Login))
}

func TestPost(t *testing.T) {
	v := newTestValidator(t)
	assert.NoError(t, v.Validate([]byte(`{"title":"T","content":"C","tags":["go"]}`), Post))
	assert.Error(t, v.Validate([]byte(`{"title":"T","content":"C"}`), Post))
	assert.Error(t, v.Validate([]byte(`{"title":"T","content":"C","tags":"go"}`), Post))
	assert.Error(t, v.Validate([]byte(`{"title":"T","content":"C","tags":[]}`), Post))
	assert.Error(t, v.Validate([]byte(`{"title":"T","content":"C","tags":[1]}`), Post))

	assert.NoError(t, v.Validate([]byte(`{"title":"New"}`), PostUpdate))
	assert.NoError(t, v.Validate([]byte(`{}`), PostUpdate))
	assert.Error(t, v.Validate([]byte(`{"author":"someone"}`), PostUpdate))
}

func TestCommentAndUserUpdate(t *testing.T) {
	v := newTestValidator(t)
	assert.NoError(t, v.Validate([]byte(`{"text":"nice"}`), Comment))
	assert.Error(t, v.Validate([]byte(`{"text":""}`), Comment))
	assert.Error(t, v.Validate([]byte(`{}`), Comment))

	assert.NoError(t, v.Validate([]byte(`{"name":"Ada"}`), UserUpdate))
	assert.Error(t, v.Validate([]byte(`{"role":"admin"}`), UserUpdate))
}

func TestMalformedBodies(t *testing.T) {
	v := newTestValidator(t)

	err := v.Validate([]byte(`{"name":`), Signup)
	assert.Equal(t, apperr.InvalidArgument, apperr.KindOf(err))

	err = v.Validate(nil, Signup)
	assert.Equal(t, apperr.InvalidArgument, apperr.KindOf(err))

	err = v.Validate([]byte(`[]`), Signup)
	assert.Equal(t, apperr.InvalidArgument, apperr.KindOf(err))

	assert.Error(t, v.Validate([]byte(`{}`), base+"missing.json"))
}

func TestValidationErrorListsAll(t *testing.T) {
	v := newTestValidator(t)
	err := v.Validate([]byte(`{}`), Signup)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Messages, 3)
	assert.Equal(t, `"email" is required`, err.Error(), "sorted, first wins")
}
