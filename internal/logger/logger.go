// Package logger carries a request scoped logrus entry through the context.
package logger

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type contextKeyLoggerType struct{}

var contextKeyLogger = &contextKeyLoggerType{}

const (
	requestIDKey = "requestID"
	identityKey  = "identity"

	// RequestIDHeader is honoured on input and echoed on every response.
	RequestIDHeader = "X-Request-Id"
)

// Init sets the formatter and level for all log statements.
func Init(level logrus.Level) {
	formatter := new(logrus.TextFormatter)
	formatter.TimestampFormat = "2006-01-02 15:04:05"
	formatter.FullTimestamp = true
	logrus.SetFormatter(formatter)
	logrus.SetLevel(level)
}

// Middleware attaches a logger with a request ID to every request.
func Middleware() mux.MiddlewareFunc {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, rlog := ContextWithRequestID(r.Context(), r.Header.Get(RequestIDHeader))
			w.Header().Set(RequestIDHeader, RequestIDFromContext(ctx))
			rlog.Tracef("%s %s", r.Method, r.URL.Path)
			h.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ContextWithLogger returns ctx unchanged if it already has a logger,
// otherwise a child context with a fresh request ID.
func ContextWithLogger(ctx context.Context) (context.Context, *logrus.Entry) {
	return ContextWithRequestID(ctx, "")
}

// ContextWithRequestID is ContextWithLogger with a caller supplied ID.
// An empty id generates one.
func ContextWithRequestID(ctx context.Context, id string) (context.Context, *logrus.Entry) {
	if ctx == nil {
		ctx = context.Background()
	} else if rlog := fromContext(ctx); rlog != nil {
		return ctx, rlog
	}
	if id == "" {
		id = uuid.NewString()
	}
	rlog := logrus.WithField(requestIDKey, id)
	return context.WithValue(ctx, contextKeyLogger, rlog), rlog
}

// ContextWithIdentity adds the authenticated identity to the request logger.
func ContextWithIdentity(ctx context.Context, identity string) (context.Context, *logrus.Entry) {
	ctx, rlog := ContextWithLogger(ctx)
	rlog = rlog.WithField(identityKey, identity)
	return context.WithValue(ctx, contextKeyLogger, rlog), rlog
}

// FromContext never returns nil.
func FromContext(ctx context.Context) *logrus.Entry {
	if rlog := fromContext(ctx); rlog != nil {
		return rlog
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func RequestIDFromContext(ctx context.Context) string {
	rlog := fromContext(ctx)
	if rlog == nil {
		return ""
	}
	id, _ := rlog.Data[requestIDKey].(string)
	return id
}

func fromContext(ctx context.Context) *logrus.Entry {
	if ctx == nil {
		return nil
	}
	rlog, _ := ctx.Value(contextKeyLogger).(*logrus.Entry)
	return rlog
}
