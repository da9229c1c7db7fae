// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements bearer-token authentication for the protected API
// group. It verifies the signed JWT issued by the OAuth callback and
// publishes the token's user id into the Gin context under "userID", where
// handlers and the rate limiter pick it up.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// TokenVerifier validates a bearer token and returns the user id it
// carries. Implemented by auth.Manager.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// RequireAuth returns a middleware that rejects requests without a valid
// "Authorization: Bearer <token>" header.
//
// Failure responses use the same envelope as handler errors:
//
//	HTTP/1.1 401 Unauthorized
//	{
//	  "request_id": "<uuid>",
//	  "code":       "unauthorized",
//	  "message":    "missing or invalid bearer token"
//	}
//
// No distinction is made between missing, malformed, expired, and forged
// tokens; the client learns only that it must re-authenticate.
func RequireAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			abortUnauthorized(c)
			return
		}

		userID, err := verifier.Verify(token)
		if err != nil {
			abortUnauthorized(c)
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get("X-Request-ID"),
		"code":       "unauthorized",
		"message":    "missing or invalid bearer token",
	})
}
