package http

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/atendesk/atendesk/internal/observability"
	apperrors "github.com/atendesk/atendesk/pkg/util"
)

// RegisterMiddlewares attaches the global middleware chain: request deadline,
// error-to-envelope translation with panic recovery, then request logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
	app.Use(observability.RequestLogger(logger, metrics))
}

// requestTimeoutMiddleware bounds each request. Handlers must propagate
// c.UserContext() into services for the deadline to take effect.
func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				writeErrorEnvelope(c, logger, metrics, err)
				err = nil
			}
		}()
		return c.Next()
	}
}

// writeErrorEnvelope translates any error into the JSON error envelope. A
// request that ran out of its deadline reports 504 rather than a generic 500.
func writeErrorEnvelope(c *fiber.Ctx, logger *zap.Logger, metrics *observability.Metrics, err error) {
	var domainErr *apperrors.DomainError
	if errors.Is(err, context.DeadlineExceeded) {
		domainErr = &apperrors.DomainError{
			Code:       apperrors.CodeTransportFailed,
			Message:    "request deadline exceeded",
			HTTPStatus: fiber.StatusGatewayTimeout,
		}
	} else {
		domainErr = apperrors.ToDomainError(err)
	}

	if metrics != nil {
		metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
	}
	if domainErr.HTTPStatus >= 500 {
		logger.Error("request failed", zap.Error(err))
	}

	envelope := fiber.Map{
		"code":    domainErr.Code,
		"message": domainErr.Message,
	}
	if len(domainErr.Details) > 0 {
		envelope["details"] = domainErr.Details
	}
	c.Status(domainErr.HTTPStatus)
	_ = c.JSON(fiber.Map{"error": envelope})
}
