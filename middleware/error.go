package middleware

import (
	stderrors "errors"
	"fmt"

	"github.com/aisgo/ais-edu/errors"
	"github.com/aisgo/ais-edu/logger"
	"github.com/aisgo/ais-edu/response"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// NewErrorHandler 统一错误出口：所有未处理错误都以响应信封返回
// fiber 自身的错误（路由不存在、请求体过大等）保留其状态码，未匹配路由的消息为 "Cannot <METHOD> <path>"
func NewErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return func(c fiber.Ctx, err error) error {
		if err == nil {
			return nil
		}

		var fe *fiber.Error
		if stderrors.As(err, &fe) {
			if fe.Code == fiber.StatusNotFound {
				return response.Message(c, fe.Code, fmt.Sprintf("Cannot %s %s", c.Method(), c.Path()))
			}
			return response.Message(c, fe.Code, fe.Message)
		}

		status, _ := errors.HTTPStatus(err)
		if status >= fiber.StatusInternalServerError {
			log.WithContext(c.Context()).Error("unhandled error",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}
		return response.Error(c, err)
	}
}
