package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tripzi/tripzi-backend/internal/callable"
	"github.com/tripzi/tripzi-backend/internal/core"
)

// RecoveryMiddleware turns a handler panic into an INTERNAL callable error.
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		panic("RecoveryMiddleware requires a non-nil zap.Logger instance")
	}
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("Panic recovered",
					zap.Any("error", rec),
					zap.String("stacktrace", string(debug.Stack())),
					zap.String("request_id", RequestID(c)),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
				)
				if !c.Writer.Written() {
					callable.WriteError(c, core.ErrInternal(fmt.Errorf("panic: %v", rec)))
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}
