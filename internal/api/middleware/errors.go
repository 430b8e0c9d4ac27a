package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"pantry-chef/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ErrorHandler 將 handler 以 c.Error 回報的錯誤轉成統一的 JSON 錯誤響應
func ErrorHandler(debug bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		last := c.Errors.Last()
		status, body := ErrorStatus(last.Err, debug)
		if last.IsType(gin.ErrorTypeBind) && status == http.StatusInternalServerError {
			status = http.StatusBadRequest
			body = common.ErrorResponse{
				Error: common.ErrInvalidRequest.Message,
				Code:  common.ErrCodeInvalidRequest,
			}
			if debug {
				body.Details = last.Err.Error()
			}
		}
		c.JSON(status, body)
	}
}

// ErrorStatus 依錯誤類型決定 HTTP 狀態碼與響應內容
func ErrorStatus(err error, debug bool) (int, common.ErrorResponse) {
	var ce *common.CustomError
	var fieldErrs validator.ValidationErrors

	switch {
	case errors.As(err, &ce):
		body := common.ErrorResponse{Error: ce.Message, Code: ce.Code}
		if debug && ce.Err != nil {
			body.Details = ce.Err.Error()
		}
		return ce.Status, body
	case common.IsValidationError(err):
		return http.StatusBadRequest, common.ErrorResponse{
			Error: err.Error(),
			Code:  common.ErrCodeInvalidRequest,
		}
	case errors.As(err, &fieldErrs):
		return http.StatusBadRequest, common.ErrorResponse{
			Error:   common.ErrInvalidRequest.Message,
			Code:    common.ErrCodeInvalidRequest,
			Details: describeFieldErrors(fieldErrs),
		}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, common.ErrorResponse{
			Error: common.ErrGatewayTimeout.Message,
			Code:  common.ErrCodeGatewayTimeout,
		}
	}

	body := common.ErrorResponse{
		Error: common.ErrInternalError.Message,
		Code:  common.ErrCodeInternalError,
	}
	if debug {
		body.Details = err.Error()
	}
	return http.StatusInternalServerError, body
}

func describeFieldErrors(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		parts = append(parts, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
