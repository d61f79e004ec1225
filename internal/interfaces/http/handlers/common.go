// Package handlers implements the gin handlers of the session API.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/molview/internal/interfaces/http/middleware"
	"github.com/turtacn/molview/pkg/errors"
	"github.com/turtacn/molview/pkg/types/common"
)

// writeJSON wraps data in the standard success envelope.
func writeJSON[T any](c *gin.Context, statusCode int, data T) {
	c.JSON(statusCode, common.APIResponse[T]{
		Success:   true,
		Data:      data,
		RequestID: middleware.GetRequestID(c),
		Timestamp: common.NewTimestamp(),
	})
}

// writeAppError maps err to its HTTP status. Server-side failures are masked.
func writeAppError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)
	msg := err.Error()
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		msg = errors.DefaultMessageForCode(code)
		if code == errors.CodeUnknown {
			code = errors.ErrCodeInternal
			msg = "internal server error"
		}
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, common.APIResponse[any]{
		Error:     &common.ErrorDetail{Code: code.String(), Message: msg},
		RequestID: middleware.GetRequestID(c),
		Timestamp: common.NewTimestamp(),
	})
}

// sessionID reads and validates the :id path parameter.
func sessionID(c *gin.Context) (common.ID, bool) {
	id := common.ID(c.Param("id"))
	if err := id.Validate(); err != nil {
		writeAppError(c, errors.New(errors.ErrCodeSessionNotFound, "session not found").WithDetail(string(id)))
		return "", false
	}
	return id, true
}

//Personal.AI order the ending
