package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/tenonhq/tenon/internal/log"
)

var errInternal = errors.New("internal server error")

// Recovery converts panics into a 500 response instead of killing the
// process.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error(c.Request.Context(), "panic recovered",
					log.Any("panic", r),
					log.String("path", c.Request.URL.Path),
					log.String("stack", string(debug.Stack())),
				)
				AbortWithError(c, http.StatusInternalServerError, errInternal)
			}
		}()

		c.Next()
	}
}
