package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/fildor/atelier-api/models"
	"github.com/fildor/atelier-api/repository"
	"github.com/fildor/atelier-api/services"
	"github.com/fildor/atelier-api/tests/testdb"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCustomClaims_Validate(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		wantErr bool
	}{
		{name: "admin role", role: "admin"},
		{name: "couturier role", role: "couturier"},
		{name: "no role claim", role: ""},
		{name: "unknown role", role: "customer", wantErr: true},
		{name: "role is case sensitive", role: "Admin", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CustomClaims{Role: tt.role}.Validate(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		setupFunc func(*gin.Context)
		wantID    string
		wantErr   bool
	}{
		{
			name: "successfully extracts user ID",
			setupFunc: func(c *gin.Context) {
				c.Set("user_id", "auth0|123456")
			},
			wantID:  "auth0|123456",
			wantErr: false,
		},
		{
			name: "user ID not found in context",
			setupFunc: func(c *gin.Context) {
				// Don't set user_id
			},
			wantID:  "",
			wantErr: true,
		},
		{
			name: "user ID is not a string",
			setupFunc: func(c *gin.Context) {
				c.Set("user_id", 12345) // Set as int instead of string
			},
			wantID:  "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			tt.setupFunc(c)

			gotID, err := GetUserID(c)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, gotID)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantID, gotID)
			}
		})
	}
}

func TestGetClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		setupFunc func(*gin.Context)
		wantErr   bool
	}{
		{
			name: "successfully extracts claims",
			setupFunc: func(c *gin.Context) {
				claims := &validator.ValidatedClaims{
					RegisteredClaims: validator.RegisteredClaims{
						Issuer:  "https://test.auth0.com/",
						Subject: "auth0|123456",
					},
					CustomClaims: &CustomClaims{
						Role: "manager",
					},
				}
				c.Set("validated_claims", claims)
			},
			wantErr: false,
		},
		{
			name: "claims not found in context",
			setupFunc: func(c *gin.Context) {
				// Don't set validated_claims
			},
			wantErr: true,
		},
		{
			name: "claims are not the expected type",
			setupFunc: func(c *gin.Context) {
				c.Set("validated_claims", "invalid")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			tt.setupFunc(c)

			claims, err := GetClaims(c)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, claims)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, claims)
			}
		})
	}
}

func TestGetAccessToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		setupFunc func(*gin.Context)
		wantToken string
		wantErr   bool
	}{
		{
			name:      "successfully extracts token",
			setupFunc: func(c *gin.Context) { c.Set("access_token", "raw.jwt.token") },
			wantToken: "raw.jwt.token",
		},
		{
			name:      "token not found in context",
			setupFunc: func(c *gin.Context) {},
			wantErr:   true,
		},
		{
			name:      "empty token",
			setupFunc: func(c *gin.Context) { c.Set("access_token", "") },
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			tt.setupFunc(c)

			token, err := GetAccessToken(c)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, token)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantToken, token)
			}
		})
	}
}

func TestGetRoleClaim(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	assert.Empty(t, GetRoleClaim(c))

	c.Set("validated_claims", &validator.ValidatedClaims{CustomClaims: &CustomClaims{Role: "admin"}})
	assert.Equal(t, "admin", GetRoleClaim(c))
}

func TestResolveActor(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db := testdb.New(t)
	users := repository.NewUserRepository(db, zap.NewNop())
	admin := testdb.SeedUser(t, db, "auth0|admin", models.RoleAdmin)

	tests := []struct {
		name           string
		auth0ID        string
		wantStatusCode int
		wantAborted    bool
		wantRole       string
	}{
		{
			name:           "known user",
			auth0ID:        admin.Auth0ID,
			wantStatusCode: http.StatusOK,
			wantRole:       models.RoleAdmin,
		},
		{
			name:           "unknown user",
			auth0ID:        "auth0|stranger",
			wantStatusCode: http.StatusNotFound,
			wantAborted:    true,
		},
		{
			name:           "no user id in context",
			wantStatusCode: http.StatusUnauthorized,
			wantAborted:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.auth0ID != "" {
				c.Set("user_id", tt.auth0ID)
			}

			ResolveActor(users)(c)

			assert.Equal(t, tt.wantAborted, c.IsAborted())
			if tt.wantAborted {
				assert.Equal(t, tt.wantStatusCode, w.Code)
				return
			}

			actor, err := GetActor(c)
			require.NoError(t, err)
			assert.Equal(t, admin.ID, actor.ID)
			assert.Equal(t, tt.wantRole, actor.Role)

			user, err := GetUser(c)
			require.NoError(t, err)
			assert.Equal(t, admin.Email, user.Email)
		})
	}
}

func TestRequirePrivileged(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		setupFunc      func(*gin.Context)
		wantStatusCode int
		wantAborted    bool
	}{
		{
			name:        "super admin",
			setupFunc:   func(c *gin.Context) { c.Set("actor", services.Actor{ID: 1, Role: models.RoleSuperAdmin}) },
			wantAborted: false,
		},
		{
			name:        "admin",
			setupFunc:   func(c *gin.Context) { c.Set("actor", services.Actor{ID: 2, Role: models.RoleAdmin}) },
			wantAborted: false,
		},
		{
			name:           "manager",
			setupFunc:      func(c *gin.Context) { c.Set("actor", services.Actor{ID: 3, Role: models.RoleManager}) },
			wantStatusCode: http.StatusForbidden,
			wantAborted:    true,
		},
		{
			name:           "couturier",
			setupFunc:      func(c *gin.Context) { c.Set("actor", services.Actor{ID: 4, Role: models.RoleCouturier}) },
			wantStatusCode: http.StatusForbidden,
			wantAborted:    true,
		},
		{
			name:           "actor not in context",
			setupFunc:      func(c *gin.Context) {},
			wantStatusCode: http.StatusUnauthorized,
			wantAborted:    true,
		},
		{
			name:           "actor has the wrong type",
			setupFunc:      func(c *gin.Context) { c.Set("actor", "admin") },
			wantStatusCode: http.StatusUnauthorized,
			wantAborted:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

			tt.setupFunc(c)

			handler := RequirePrivileged()
			handler(c)

			if tt.wantAborted {
				assert.True(t, c.IsAborted())
				assert.Equal(t, tt.wantStatusCode, w.Code)
			} else {
				assert.False(t, c.IsAborted())
			}
		})
	}
}

func TestAuthError(t *testing.T) {
	err := &AuthError{
		Code:    "TEST_ERROR",
		Message: "This is a test error",
	}

	assert.Equal(t, "This is a test error", err.Error())
}
