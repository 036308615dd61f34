package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tenonhq/tenon/internal/authz"
	"github.com/tenonhq/tenon/internal/contexts"
)

// WithRequestContext installs a fresh request-local container and a
// request id at the very start of every request, so one request can
// never observe another's state.
func WithRequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := contexts.New(c.Request.Context())

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx = contexts.WithRequestID(ctx, requestID)
		c.Header("X-Request-ID", requestID)

		if traceID := c.GetHeader("X-Trace-ID"); traceID != "" {
			ctx = contexts.WithTraceID(ctx, traceID)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// WithActor resolves the request credential into an actor and installs
// it. Resolution never rejects the request; an unverifiable credential
// just yields the anonymous actor and policy gates decide downstream.
func WithActor(resolver *authz.Resolver) gin.HandlerFunc {
	return WithActorConfig(resolver, nil)
}

func WithActorConfig(resolver *authz.Resolver, config *CredentialConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		credential := ExtractCredential(c.Request, config)
		actor := resolver.Resolve(ctx, credential)

		ctx, err := authz.WithActor(ctx, actor)
		if err != nil {
			// Only reachable when an actor is already installed, which
			// means middleware ordering is broken.
			AbortWithError(c, http.StatusInternalServerError, err)
			return
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
