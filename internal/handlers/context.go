package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/earlylookhq/earlylook/internal/auditctx"
	"github.com/earlylookhq/earlylook/internal/middleware"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// actorContext threads the authenticated user into the context so service-side
// audit rows attribute the action without every call site passing an ID.
func actorContext(c *gin.Context) context.Context {
	ctx := requestContext(c)
	if id := currentUserID(c); id != "" {
		ctx = auditctx.WithActor(ctx, auditctx.Actor{UserID: id})
	}
	return ctx
}

func currentUserID(c *gin.Context) string {
	if c == nil {
		return ""
	}
	value, ok := c.Get(middleware.CtxUserIDKey)
	if !ok {
		return ""
	}
	id, _ := value.(string)
	return id
}
