package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/debtrail/debtrail/internal/auth"
)

const (
	// UserIDKey is the context key for storing the authenticated user ID.
	UserIDKey = "user_id"
	// EmailKey is the context key for storing the authenticated user's email.
	EmailKey = "email"
	// PhoneKey is the context key for storing the authenticated user's phone number.
	PhoneKey = "phone"
)

// GetUserID extracts the user ID from the gin context.
// Returns empty string if not found.
func GetUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// GetEmail extracts the user email from the gin context.
// Returns empty string if not found.
func GetEmail(c *gin.Context) string {
	return c.GetString(EmailKey)
}

// GetPhone extracts the user's phone number from the gin context.
// Returns empty string if not found.
func GetPhone(c *gin.Context) string {
	return c.GetString(PhoneKey)
}

// RequireAuth returns a middleware that validates bearer tokens and requires
// authentication. It extracts the token from the Authorization header,
// validates it, and adds the caller's identity claims to the request context.
func RequireAuth(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": auth.ErrMissingToken.Error()})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": auth.ErrInvalidToken.Error()})
			return
		}

		claims, err := jwtManager.Validate(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": auth.ErrInvalidToken.Error()})
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(EmailKey, claims.Email)
		c.Set(PhoneKey, claims.Phone)
		c.Next()
	}
}

// RequireGatewaySecret returns a middleware that guards webhook endpoints with
// a shared secret carried in the X-Gateway-Secret header. Payment gateways
// don't hold user tokens, so their callbacks authenticate this way instead.
func RequireGatewaySecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader("X-Gateway-Secret")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid gateway secret"})
			return
		}
		c.Next()
	}
}
