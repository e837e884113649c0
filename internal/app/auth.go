package app

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware guards the chat API with either an HMAC-signed JWT or one
// of the static operator tokens.
func AuthMiddleware(staticTokens []string, jwtSecret string) gin.HandlerFunc {
	var tokens [][]byte
	for _, t := range staticTokens {
		if t = strings.TrimSpace(t); t != "" {
			tokens = append(tokens, []byte(t))
		}
	}
	secret := []byte(strings.TrimSpace(jwtSecret))

	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}
		parts := strings.Fields(auth)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		tokenStr := parts[1]

		if len(secret) > 0 {
			tok, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrTokenMalformed
				}
				return secret, nil
			}, jwt.WithLeeway(5*time.Second))
			if err == nil {
				if sub, err := tok.Claims.GetSubject(); err == nil && sub != "" {
					c.Set("operator", sub)
				}
				c.Next()
				return
			}
		}

		for _, t := range tokens {
			if subtle.ConstantTimeCompare([]byte(tokenStr), t) == 1 {
				c.Set("operator", "static")
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
	}
}
