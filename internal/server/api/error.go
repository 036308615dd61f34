package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tenonhq/tenon/internal/authz"
	"github.com/tenonhq/tenon/internal/objects"
	"github.com/tenonhq/tenon/internal/server/biz"
	"github.com/tenonhq/tenon/internal/tenancy"
)

// JSONError returns a JSON error response and adds the error to gin context for access logging.
func JSONError(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.JSON(status, objects.ErrorResponse{
		Error: objects.Error{
			Type:    http.StatusText(status),
			Message: err.Error(),
		},
	})
}

// JSONDomainError maps a service error onto an HTTP status. Authorization
// failures come back as a generic 403 and scope violations as 404, so a
// caller can never distinguish "exists elsewhere" from "does not exist".
func JSONDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, authz.ErrForbidden):
		JSONError(c, http.StatusForbidden, errors.New("access denied"))
	case errors.Is(err, tenancy.ErrNotFound),
		errors.Is(err, biz.ErrQuotaNotFound),
		errors.Is(err, biz.ErrPlanNotFound),
		errors.Is(err, biz.ErrMembershipNotFound):
		JSONError(c, http.StatusNotFound, errors.New("not found"))
	case errors.Is(err, biz.ErrQuotaExceeded):
		JSONError(c, http.StatusTooManyRequests, err)
	default:
		JSONError(c, http.StatusInternalServerError, errors.New("internal server error"))
	}
}
