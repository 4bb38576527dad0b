package httpapp

import (
	"fmt"
	"net/http"
	"time"

	"github.com/alphabot-ai/postboard/internal/access"
	"github.com/alphabot-ai/postboard/internal/apperr"
	"github.com/alphabot-ai/postboard/internal/logger"
	"github.com/alphabot-ai/postboard/internal/model"

	"github.com/gorilla/mux"
)

// authenticate binds the bearer token's user to the request or stops it
// with 403.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := s.access.Authenticate(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		ctx := access.ContextWithIdentity(r.Context(), u)
		ctx, _ = logger.ContextWithIdentity(ctx, u.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireRole(roles ...model.Role) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, _ := access.IdentityFromContext(r.Context())
			if err := access.RequireRole(u, roles...); err != nil {
				writeError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ownerOrAdmin loads the {id} post and lets the request through only for
// its author or an admin. The post is bound to the context.
func (s *Server) ownerOrAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "post")
		if err != nil {
			writeError(w, r, err)
			return
		}
		u, _ := access.IdentityFromContext(r.Context())
		p, err := s.access.OwnerOrAdmin(r.Context(), u, id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(access.ContextWithPost(r.Context(), p)))
	})
}

// limited throttles h per client IP. A non-positive limit disables it.
func (s *Server) limited(action string, limit int, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if limit > 0 && s.limiter != nil {
			key := fmt.Sprintf("%s:ip:%s", action, s.clientIP(r))
			if ok, retry := s.limiter.Allow(key, limit, time.Minute); !ok {
				writeRateLimit(w, r, retry)
				return
			}
		}
		h(w, r)
	}
}

func identity(r *http.Request) (model.User, error) {
	u, ok := access.IdentityFromContext(r.Context())
	if !ok {
		return model.User{}, apperr.Unauthenticatedf("No token provided")
	}
	return u, nil
}
