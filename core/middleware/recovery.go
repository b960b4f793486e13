package middleware

import (
	"fmt"
	"runtime"

	"go.uber.org/zap"

	"github.com/miladsoleymani/eventbus/core"
)

// Recovery returns middleware that recovers from panics in handlers,
// logs the stack trace, and returns the panic as an error.
func Recovery(logger *zap.Logger) core.MiddlewareFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next core.HandlerFunc) core.HandlerFunc {
		return func(c core.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					buf := make([]byte, 4096)
					n := runtime.Stack(buf, false)
					logger.Error("panic recovered",
						zap.String("topic", c.Topic()),
						zap.Any("panic", r),
						zap.ByteString("stack", buf[:n]))
					err = fmt.Errorf("eventbus: panic recovered: %v", r)
				}
			}()
			return next(c)
		}
	}
}
