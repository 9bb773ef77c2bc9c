package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/fildor/atelier-api/config"
	"github.com/fildor/atelier-api/logger"
	"github.com/fildor/atelier-api/models"
	"github.com/fildor/atelier-api/repository"
	"github.com/fildor/atelier-api/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Gin context keys set by the auth middleware
const (
	userIDKey          = "user_id"
	validatedClaimsKey = "validated_claims"
	accessTokenKey     = "access_token"
	actorKey           = "actor"
	userKey            = "user"
)

// CustomClaims contains custom data we want from the token.
type CustomClaims struct {
	Role string `json:"role"`
}

// Validate rejects a role the workshop does not know; an absent role is allowed.
func (c CustomClaims) Validate(ctx context.Context) error {
	if c.Role != "" && !models.IsValidRole(c.Role) {
		return errors.New("unknown role claim")
	}
	return nil
}

// EnsureValidToken is a middleware that will check the validity of our JWT.
func EnsureValidToken(cfg *config.Config) gin.HandlerFunc {
	issuerURL, err := url.Parse("https://" + cfg.Auth0Domain + "/")
	if err != nil {
		logger.Log.Fatal("Failed to parse the issuer url", zap.Error(err))
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{cfg.Auth0Audience},
		validator.WithCustomClaims(
			func() validator.CustomClaims {
				return &CustomClaims{}
			},
		),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		logger.Log.Fatal("Failed to set up the jwt validator", zap.Error(err))
	}

	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Log.Warn("Encountered error while validating JWT", zap.String("path", r.URL.Path), zap.Error(err))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		if _, writeErr := w.Write([]byte(`{"success":false,"error":{"code":"INVALID_TOKEN","message":"Failed to validate JWT."}}`)); writeErr != nil {
			logger.Log.Error("Failed to write error response", zap.Error(writeErr))
		}
	}

	middleware := jwtmiddleware.New(
		jwtValidator.ValidateToken,
		jwtmiddleware.WithErrorHandler(errorHandler),
	)

	return func(c *gin.Context) {
		authenticated := false
		var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			authenticated = true

			// Store the validated claims in Gin context
			token := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)

			c.Set(userIDKey, token.RegisteredClaims.Subject)
			c.Set(validatedClaimsKey, token)

			// The raw token is kept for calls to Auth0's /userinfo endpoint
			if raw, err := jwtmiddleware.AuthHeaderTokenExtractor(r); err == nil && raw != "" {
				c.Set(accessTokenKey, raw)
			}

			c.Request = r
			c.Next()
		}

		// Use the JWT middleware to check the token
		middleware.CheckJWT(handler).ServeHTTP(c.Writer, c.Request)
		if !authenticated {
			// the error handler has already written the 401
			c.Abort()
		}
	}
}

// GetUserID extracts the user ID from the Gin context
func GetUserID(c *gin.Context) (string, error) {
	userID, exists := c.Get(userIDKey)
	if !exists {
		return "", &AuthError{Code: "MISSING_USER_ID", Message: "User ID not found in context"}
	}

	userIDStr, ok := userID.(string)
	if !ok {
		return "", &AuthError{Code: "INVALID_USER_ID", Message: "User ID is not a string"}
	}

	return userIDStr, nil
}

// GetAccessToken extracts the raw bearer token from the Gin context
func GetAccessToken(c *gin.Context) (string, error) {
	token, exists := c.Get(accessTokenKey)
	if !exists {
		return "", &AuthError{Code: "MISSING_TOKEN", Message: "Access token not found in context"}
	}

	tokenStr, ok := token.(string)
	if !ok || tokenStr == "" {
		return "", &AuthError{Code: "INVALID_TOKEN", Message: "Access token is not a string"}
	}

	return tokenStr, nil
}

// GetClaims extracts the validated JWT claims from the Gin context
func GetClaims(c *gin.Context) (*validator.ValidatedClaims, error) {
	claims, exists := c.Get(validatedClaimsKey)
	if !exists {
		return nil, &AuthError{Code: "MISSING_CLAIMS", Message: "Claims not found in context"}
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return nil, &AuthError{Code: "INVALID_CLAIMS", Message: "Claims are not in the expected format"}
	}

	return validatedClaims, nil
}

// GetRoleClaim returns the role carried by the token, or "" when there is none
func GetRoleClaim(c *gin.Context) string {
	claims, err := GetClaims(c)
	if err != nil {
		return ""
	}
	if custom, ok := claims.CustomClaims.(*CustomClaims); ok {
		return custom.Role
	}
	return ""
}

// UserLookup finds the staff profile behind an Auth0 subject
type UserLookup interface {
	GetByAuth0ID(ctx context.Context, auth0ID string) (*models.User, error)
}

// ResolveActor loads the caller's staff profile and stores it as the request actor.
// Roles come from the profile, never from the token.
func ResolveActor(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth0ID, err := GetUserID(c)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
			return
		}

		user, err := users.GetByAuth0ID(c.Request.Context(), auth0ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				abortWithError(c, http.StatusNotFound, "USER_NOT_FOUND", "User profile not found. Please create a profile first.")
				return
			}
			logger.Log.Error("Failed to load user profile", zap.String("auth0_id", auth0ID), zap.Error(err))
			abortWithError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load user profile")
			return
		}

		c.Set(userKey, user)
		c.Set(actorKey, services.ActorFromUser(user))
		c.Next()
	}
}

// GetActor returns the actor stored by ResolveActor
func GetActor(c *gin.Context) (services.Actor, error) {
	value, exists := c.Get(actorKey)
	if !exists {
		return services.Actor{}, &AuthError{Code: "MISSING_ACTOR", Message: "Actor not found in context"}
	}

	actor, ok := value.(services.Actor)
	if !ok {
		return services.Actor{}, &AuthError{Code: "INVALID_ACTOR", Message: "Actor is not in the expected format"}
	}

	return actor, nil
}

// GetUser returns the staff profile stored by ResolveActor
func GetUser(c *gin.Context) (*models.User, error) {
	value, exists := c.Get(userKey)
	if !exists {
		return nil, &AuthError{Code: "MISSING_USER", Message: "User not found in context"}
	}

	user, ok := value.(*models.User)
	if !ok {
		return nil, &AuthError{Code: "INVALID_USER", Message: "User is not in the expected format"}
	}

	return user, nil
}

// RequirePrivileged only lets administrators through
func RequirePrivileged() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := GetActor(c)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
			return
		}

		if !actor.IsPrivileged() {
			abortWithError(c, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions to access this resource")
			return
		}

		c.Next()
	}
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
