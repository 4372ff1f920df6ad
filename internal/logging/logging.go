package logging

import (
	"context"
	"net/http"

	"github.com/gofrs/uuid"
	log "github.com/sirupsen/logrus"
)

// ContextKey defines the context key type.
type ContextKey string

// ContextIDKey holds the key of the context ID.
const ContextIDKey ContextKey = "ctx_id"

// ContextIDHeader is the response header containing the context ID.
const ContextIDHeader = "X-Context-Id"

// NewContext returns a new context containing a new (random) context ID.
func NewContext(ctx context.Context) (context.Context, uuid.UUID) {
	ctxID, err := uuid.NewV4()
	if err != nil {
		log.WithError(err).Error("logging: new uuid error")
		return ctx, uuid.Nil
	}
	return context.WithValue(ctx, ContextIDKey, ctxID), ctxID
}

// ContextID returns the context ID of the given context or uuid.Nil when
// not set.
func ContextID(ctx context.Context) uuid.UUID {
	ctxID, ok := ctx.Value(ContextIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return ctxID
}

// CtxIDMiddleware adds the ContextIDKey to the request context and returns
// it as response header.
func CtxIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, ctxID := NewContext(r.Context())
		w.Header().Set(ContextIDHeader, ctxID.String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
