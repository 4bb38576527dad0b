// Package auth hashes passwords and issues the signed tokens that identify
// a user on later requests.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alphabot-ai/postboard/internal/apperr"
	"github.com/alphabot-ai/postboard/internal/logger"
	"github.com/alphabot-ai/postboard/internal/model"
	"github.com/alphabot-ai/postboard/internal/store"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = apperr.NotFoundf("Invalid credentials")

type Options struct {
	AdminEmail string
	HashCost   int
}

type Service struct {
	users      store.UserStore
	tokens     *TokenIssuer
	adminEmail string
	hashCost   int
}

func NewService(users store.UserStore, tokens *TokenIssuer, opts Options) *Service {
	cost := opts.HashCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{
		users:      users,
		tokens:     tokens,
		adminEmail: opts.AdminEmail,
		hashCost:   cost,
	}
}

// Tokens exposes the issuer so the access layer can verify what Login signs.
func (s *Service) Tokens() *TokenIssuer {
	return s.tokens
}

// RoleFor returns admin for the bootstrap address and user otherwise.
func (s *Service) RoleFor(email string) model.Role {
	if s.adminEmail != "" && email == s.adminEmail {
		return model.RoleAdmin
	}
	return model.RoleUser
}

// Signup stores a new user with a hashed password.
func (s *Service) Signup(ctx context.Context, name, email, password string) (model.User, error) {
	hash, err := s.HashPassword(password)
	if err != nil {
		return model.User{}, err
	}
	u := model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         s.RoleFor(email),
	}
	if err := s.users.CreateUser(ctx, &u); err != nil {
		return model.User{}, apperr.Wrap(apperr.Internal, err, err.Error())
	}
	logger.FromContext(ctx).WithField("userID", u.ID).Infof("signed up %s as %s", u.Email, u.Role)
	return u, nil
}

// Login checks the password and returns a signed token. Unknown emails and
// wrong passwords are indistinguishable.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", apperr.Wrap(apperr.Internal, err, err.Error())
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(u)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, err, "cannot issue token")
	}
	return token, nil
}

func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, err, fmt.Sprintf("hash password: %v", err))
	}
	return string(hash), nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

// ExpiresAt is the zero time for tokens without an exp claim.
func ExpiresAt(c *Claims) time.Time {
	if c == nil || c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
