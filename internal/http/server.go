package httpapp

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alphabot-ai/postboard/internal/access"
	"github.com/alphabot-ai/postboard/internal/apperr"
	"github.com/alphabot-ai/postboard/internal/auth"
	"github.com/alphabot-ai/postboard/internal/config"
	"github.com/alphabot-ai/postboard/internal/logger"
	"github.com/alphabot-ai/postboard/internal/model"
	"github.com/alphabot-ai/postboard/internal/query"
	"github.com/alphabot-ai/postboard/internal/rate"
	"github.com/alphabot-ai/postboard/internal/schema"
	"github.com/alphabot-ai/postboard/internal/store"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type Server struct {
	store     store.Store
	auth      *auth.Service
	access    *access.Engine
	limiter   rate.Limiter
	validator *schema.Validator
	queries   query.Builder
	cfg       config.Config
	handler   http.Handler
}

func NewServer(st store.Store, authSvc *auth.Service, limiter rate.Limiter, cfg config.Config) (*Server, error) {
	validator, err := schema.New()
	if err != nil {
		return nil, fmt.Errorf("load request schemas: %w", err)
	}
	s := &Server{
		store:     st,
		auth:      authSvc,
		access:    access.NewEngine(authSvc.Tokens(), st, st),
		limiter:   limiter,
		validator: validator,
		queries:   query.NewBuilder(cfg.MaxPageSize),
		cfg:       cfg,
	}
	s.handler = s.middleware(s.routes())
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, apperr.NotFoundf("Route %s not found", r.URL.Path))
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody(http.StatusMethodNotAllowed, "method not allowed"))
	})

	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/signup", s.limited("signup", s.cfg.RateLimits.SignupPerMinute, s.handleSignup)).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.limited("login", s.cfg.RateLimits.LoginPerMinute, s.handleLogin)).Methods(http.MethodPost)

	posts := api.PathPrefix("/posts").Subrouter()
	posts.Use(s.authenticate)
	posts.HandleFunc("", s.handleListPosts).Methods(http.MethodGet)
	posts.HandleFunc("", s.handleCreatePost).Methods(http.MethodPost)
	posts.HandleFunc("/search", s.handleSearchPosts).Methods(http.MethodGet)
	posts.HandleFunc("/{id:[0-9]+}", s.handleGetPost).Methods(http.MethodGet)
	posts.Handle("/{id:[0-9]+}", s.ownerOrAdmin(http.HandlerFunc(s.handleUpdatePost))).Methods(http.MethodPut)
	posts.Handle("/{id:[0-9]+}", s.ownerOrAdmin(http.HandlerFunc(s.handleDeletePost))).Methods(http.MethodDelete)
	posts.HandleFunc("/{id:[0-9]+}/comments", s.handleAddComment).Methods(http.MethodPost)

	users := api.PathPrefix("/users").Subrouter()
	users.Use(s.authenticate)
	users.HandleFunc("", s.handleListUsers).Methods(http.MethodGet)
	users.Handle("", s.requireRole(model.RoleAdmin)(http.HandlerFunc(s.handleCreateUser))).Methods(http.MethodPost)
	users.HandleFunc("/{id:[0-9]+}", s.handleGetUser).Methods(http.MethodGet)
	users.HandleFunc("/{id:[0-9]+}", s.handleUpdateUser).Methods(http.MethodPut)
	users.HandleFunc("/{id:[0-9]+}", s.handleDeleteUser).Methods(http.MethodDelete)

	return router
}

// middleware wraps the router, outermost first: request logger, access
// log, panic recovery, CORS.
func (s *Server) middleware(router http.Handler) http.Handler {
	h := handlers.CORS(
		handlers.AllowedOrigins(s.cfg.Origins()),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type", logger.RequestIDHeader}),
		handlers.ExposedHeaders([]string{logger.RequestIDHeader, "Retry-After"}),
	)(router)
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(logrus.StandardLogger()),
		handlers.PrintRecoveryStack(true),
	)(h)
	h = handlers.CustomLoggingHandler(io.Discard, h, accessLog)
	return logger.Middleware()(h)
}

func accessLog(_ io.Writer, p handlers.LogFormatterParams) {
	logger.FromContext(p.Request.Context()).WithFields(logrus.Fields{
		"method":   p.Request.Method,
		"path":     p.URL.Path,
		"status":   p.StatusCode,
		"size":     p.Size,
		"duration": time.Since(p.TimeStamp).String(),
	}).Info("request")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		writeError(w, r, apperr.Wrap(apperr.Internal, err, "store unreachable"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// clientIP is the peer address. X-Forwarded-For is client controlled and
// only consulted when the server sits behind a trusted proxy.
func (s *Server) clientIP(r *http.Request) string {
	if s.cfg.TrustProxy {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			parts := strings.Split(forwarded, ",")
			return strings.TrimSpace(parts[0])
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// pathID parses the {id} route variable. The route pattern guarantees
// digits, so only overflow fails.
func pathID(r *http.Request, what string) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, apperr.BadRequest("invalid %s id %s", what, raw)
	}
	return id, nil
}

// storeError maps store sentinels onto API errors.
func storeError(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case apperr.KindOf(err) != apperr.Internal:
		return err
	case isNotFound(err):
		return apperr.NotFoundf("%s", notFound)
	default:
		return apperr.Wrap(apperr.Internal, err, err.Error())
	}
}
