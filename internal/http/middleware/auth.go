package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
)

// SyncClaims is the bearer token payload for the manual trigger endpoint.
type SyncClaims struct {
	Sub string `json:"sub"`
	jwt.RegisteredClaims
}

// CreateSyncToken mints an HS256 token for operators and tests.
func CreateSyncToken(secret, sub string, ttl time.Duration) (string, error) {
	claims := SyncClaims{
		Sub: sub,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func parseSyncToken(secret, tokenStr string) (*SyncClaims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &SyncClaims{}, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	c, ok := t.Claims.(*SyncClaims)
	if !ok || !t.Valid {
		return nil, errors.New("invalid token")
	}
	return c, nil
}

// RequireSyncToken guards the manual trigger endpoint with a signed bearer
// token. An empty secret disables the endpoint entirely.
func RequireSyncToken(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.TrimSpace(secret) == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": "sync trigger disabled: SYNC_TOKEN_SECRET not set",
			})
			return
		}
		header := c.GetHeader("Authorization")
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(tokenStr) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		if _, err := parseSyncToken(secret, strings.TrimSpace(tokenStr)); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Next()
	}
}
