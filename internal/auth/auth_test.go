package auth

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alphabot-ai/postboard/internal/apperr"
	"github.com/alphabot-ai/postboard/internal/model"
	"github.com/alphabot-ai/postboard/internal/store/sqlite"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T, ttl time.Duration) *Service {
	t.Helper()
	name := strings.NewReplacer("/", "_").Replace(t.Name())
	st, err := sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return NewService(st, NewTokenIssuer("test-secret", ttl), Options{
		AdminEmail: "admin@example.com",
		HashCost:   bcrypt.MinCost,
	})
}

func TestSignupAssignsRoles(t *testing.T) {
	svc := newTestService(t, 0)
	ctx := context.Background()

	u, err := svc.Signup(ctx, "Ada", "ada@example.com", "abc123")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, model.RoleUser, u.Role)
	assert.NotEqual(t, "abc123", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("abc123")))

	admin, err := svc.Signup(ctx, "Root", "admin@example.com", "abc123")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.Role)
	assert.Equal(t, int64(2), admin.ID)

	_, err = svc.Signup(ctx, "Again", "ada@example.com", "abc123")
	require.Error(t, err)
	assert.Equal(t, apperr.Internal, apperr.KindOf(err))
}

func TestLogin(t *testing.T) {
	svc := newTestService(t, 0)
	ctx := context.Background()
	u, err := svc.Signup(ctx, "Ada", "ada@example.com", "abc123")
	require.NoError(t, err)

	token, err := svc.Login(ctx, "ada@example.com", "abc123")
	require.NoError(t, err)

	claims, err := svc.Tokens().Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, u.UID, claims.Subject)
	assert.True(t, ExpiresAt(claims).IsZero(), "no exp without ttl")

	_, err = svc.Login(ctx, "ada@example.com", "wrong")
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
	assert.Equal(t, "Invalid credentials", err.Error())

	_, err = svc.Login(ctx, "nobody@example.com", "abc123")
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestTokenExpiration(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, err := issuer.Issue(model.User{UID: "u-1", Email: "ada@example.com"})
	require.NoError(t, err)
	_, err = issuer.Verify(token)
	assert.Error(t, err)

	issuer.now = time.Now
	token, err = issuer.Issue(model.User{UID: "u-1", Email: "ada@example.com"})
	require.NoError(t, err)
	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), ExpiresAt(claims), 5*time.Second)
}

func TestVerifyRejectsTampering(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 0)
	token, err := issuer.Issue(model.User{UID: "u-1", Email: "ada@example.com"})
	require.NoError(t, err)

	_, err = NewTokenIssuer("other-secret", 0).Verify(token)
	assert.Error(t, err, "wrong secret")

	_, err = issuer.Verify(token + "x")
	assert.Error(t, err, "bad signature")

	_, err = issuer.Verify("not-a-token")
	assert.Error(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Email: "ada@example.com"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.Verify(unsigned)
	assert.Error(t, err, "alg none")

	noEmail, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = issuer.Verify(noEmail)
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	cases := map[string]struct {
		token string
		ok    bool
	}{
		"Bearer abc":     {"abc", true},
		"":               {"", false},
		"Bearer":         {"", false},
		"Bearer ":        {"", false},
		"bearer abc":     {"", false},
		"Basic abc":      {"", false},
		"Bearer abc def": {"", false},
	}
	for header, want := range cases {
		token, ok := BearerToken(header)
		assert.Equal(t, want.ok, ok, header)
		assert.Equal(t, want.token, token, header)
	}
}

func TestInspect(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	token, err := issuer.Issue(model.User{UID: "u-1", Email: "ada@example.com"})
	require.NoError(t, err)

	// No secret needed.
	claims, err := Inspect(token)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "u-1", claims.Subject)
	assert.False(t, ExpiresAt(claims).IsZero())

	_, err = Inspect("not-a-token")
	assert.Error(t, err)
}
