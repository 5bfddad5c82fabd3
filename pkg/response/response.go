package response

import (
	"errors"
	"net/http"

	"anoa.com/unitech/pkg/apperror"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	userIDStr, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	str, ok := userIDStr.(string)
	if !ok {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	userID, err := uuid.Parse(str)
	if err != nil {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	return userID, nil
}

// ParamUUID parses a uuid path parameter.
func ParamUUID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperror.Invalid(name, "must be a valid uuid")
	}
	return id, nil
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)
	body := gin.H{
		"error": err.Error(),
		"code":  apperror.Kind(err),
	}

	var validationErr *apperror.ValidationError
	if errors.As(err, &validationErr) {
		body["fields"] = validationErr.Fields
	}

	var partialErr *apperror.PartialFailureError
	if errors.As(err, &partialErr) {
		body["user_id"] = partialErr.UserID
	}

	if code >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		if partialErr == nil {
			body["error"] = apperror.ErrInternal.Error()
		}
	}

	c.AbortWithStatusJSON(code, body)
}
