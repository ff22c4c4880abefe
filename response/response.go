package response

import (
	"net/http"

	"github.com/aisgo/ais-edu/errors"

	"github.com/gofiber/fiber/v3"
)

/* ========================================================================
 * Response - 统一响应处理
 * ========================================================================
 * 职责: 构造信封并写出 HTTP 响应
 * 特性:
 *   - 与 errors 包集成，BizError 自动映射状态码
 *   - 5xx 只返回通用消息，不泄露内部细节
 * ======================================================================== */

// OK 200，带数据
func OK(data any) Reply {
	return Reply{Status: http.StatusOK, Body: Envelope{Success: true, Data: data}}
}

// OKWithMsg 200，带消息与可选数据
func OKWithMsg(msg string, data any) Reply {
	return Reply{Status: http.StatusOK, Body: Envelope{Success: true, Message: msg, Data: data}}
}

// Created 201
func Created(msg string, data any) Reply {
	return Reply{Status: http.StatusCreated, Body: Envelope{Success: true, Message: msg, Data: data}}
}

// List 200，count 为匹配总数
func List(page *Page) Reply {
	total := page.TotalDocs
	return Reply{Status: http.StatusOK, Body: Envelope{Success: true, Data: page, Count: &total}}
}

// Fail 由错误构造失败结果
func Fail(err error) Reply {
	status, msg := errors.HTTPStatus(err)
	return Reply{Status: status, Body: Envelope{Success: false, Message: msg}}
}

/* ========================================================================
 * Fiber 输出
 * ======================================================================== */

// Send 写出操作结果
func Send(c fiber.Ctx, r Reply) error {
	status := r.Status
	if status > http.StatusNetworkAuthenticationRequired || status < http.StatusContinue {
		status = http.StatusInternalServerError
	}
	return c.Status(status).JSON(r.Body)
}

// Error 写出错误
func Error(c fiber.Ctx, err error) error {
	return Send(c, Fail(err))
}

// Message 写出仅含消息的响应
func Message(c fiber.Ctx, status int, msg string) error {
	return Send(c, Reply{Status: status, Body: Envelope{Success: status < http.StatusBadRequest, Message: msg}})
}

// NotFound 404
func NotFound(c fiber.Ctx, msg string) error {
	return Message(c, http.StatusNotFound, msg)
}

// Unauthorized 401
func Unauthorized(c fiber.Ctx, msg string) error {
	return Message(c, http.StatusUnauthorized, msg)
}

// ServiceUnavailable 503
func ServiceUnavailable(c fiber.Ctx, msg string) error {
	return Message(c, http.StatusServiceUnavailable, msg)
}
