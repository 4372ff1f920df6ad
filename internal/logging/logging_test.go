package logging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/require"
)

func TestContextID(t *testing.T) {
	assert := require.New(t)

	assert.Equal(uuid.Nil, ContextID(context.Background()))

	ctx, ctxID := NewContext(context.Background())
	assert.NotEqual(uuid.Nil, ctxID)
	assert.Equal(ctxID, ContextID(ctx))
}

func TestCtxIDMiddleware(t *testing.T) {
	assert := require.New(t)

	var got uuid.UUID
	h := CtxIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ContextID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEqual(uuid.Nil, got)
	assert.Equal(got.String(), rec.Header().Get(ContextIDHeader))
}
