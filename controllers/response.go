package controllers

import (
	"errors"
	"net/http"

	"github.com/fildor/atelier-api/middleware"
	"github.com/fildor/atelier-api/services"
	"github.com/fildor/atelier-api/utils"
	"github.com/gin-gonic/gin"
)

// errorStatus maps service error kinds to HTTP statuses and envelope codes
var errorStatus = []struct {
	kind   error
	status int
	code   string
}{
	{services.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{services.ErrInvalidStatus, http.StatusBadRequest, "INVALID_STATUS"},
	{services.ErrValidationFailed, http.StatusBadRequest, "VALIDATION_ERROR"},
	{services.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{services.ErrDraftNotFound, http.StatusNotFound, "DRAFT_NOT_FOUND"},
	{services.ErrInvalidStep, http.StatusConflict, "INVALID_STEP"},
	{services.ErrUploadFailed, http.StatusBadGateway, "UPLOAD_FAILED"},
	{services.ErrStoreUnavailable, http.StatusServiceUnavailable, "DATABASE_ERROR"},
}

func respondSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondFailure(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondError writes the envelope for a service error. Unclassified errors are 500s.
func respondError(c *gin.Context, err error, fallback string) {
	_ = c.Error(err)

	var uploadErr *utils.FileUploadError
	if errors.As(err, &uploadErr) {
		respondFailure(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
		return
	}

	for _, e := range errorStatus {
		if errors.Is(err, e.kind) {
			respondFailure(c, e.status, e.code, services.UserMessage(err, fallback))
			return
		}
	}
	respondFailure(c, http.StatusInternalServerError, "INTERNAL_ERROR", fallback)
}

// requireActor returns the request actor or writes a 401
func requireActor(c *gin.Context) (services.Actor, bool) {
	actor, err := middleware.GetActor(c)
	if err != nil {
		respondFailure(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return services.Actor{}, false
	}
	return actor, true
}

// listQuery is the search and late-only filter shared by order listings
type listQuery struct {
	Q    string `form:"q"`
	Late bool   `form:"late"`
}

func bindListOptions(c *gin.Context) (services.ListOptions, bool) {
	var query listQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondFailure(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters")
		return services.ListOptions{}, false
	}
	return services.ListOptions{Query: query.Q, LateOnly: query.Late}, true
}
