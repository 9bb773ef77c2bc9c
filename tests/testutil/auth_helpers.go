package testutil

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/fildor/atelier-api/middleware"
	"github.com/fildor/atelier-api/services"
	"github.com/gin-gonic/gin"
)

// MockValidatedClaims creates a mock ValidatedClaims for testing
func MockValidatedClaims(subject, issuer, role string) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  issuer,
			Subject: subject,
		},
		CustomClaims: &middleware.CustomClaims{
			Role: role,
		},
	}
}

// SetMockAuthContext sets up a mock authenticated context for testing
func SetMockAuthContext(c *gin.Context, userID, issuer, role string) {
	c.Set("user_id", userID)
	c.Set("access_token", userID)
	c.Set("validated_claims", MockValidatedClaims(userID, issuer, role))
}

// FakeTokenAuth stands in for EnsureValidToken. The bearer token is taken
// as the Auth0 user id, so "Bearer auth0|alice" authenticates auth0|alice.
func FakeTokenAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Invalid or missing authentication token",
				},
			})
			return
		}
		SetMockAuthContext(c, token, "https://test.auth0.com/", "")
		c.Next()
	}
}

// StaticUserInfo answers /userinfo lookups from a fixed map keyed by access token
type StaticUserInfo map[string]*services.Auth0UserInfo

// GetUserInfo implements services.UserInfoProvider
func (s StaticUserInfo) GetUserInfo(ctx context.Context, accessToken string) (*services.Auth0UserInfo, error) {
	info, ok := s[accessToken]
	if !ok {
		return nil, errors.New("unknown access token")
	}
	return info, nil
}
