package common

import (
	"errors"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Error   string `json:"error"`             // 錯誤信息
	Code    string `json:"code"`              // 錯誤代碼
	Details string `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
}

// ErrorKind 呼叫端該如何處理錯誤
type ErrorKind int

const (
	// KindFatal 當次請求失敗
	KindFatal ErrorKind = iota
	// KindRetryable 可重試（限流、暫時性上游錯誤）
	KindRetryable
	// KindUseDefault 改用預設值繼續
	KindUseDefault
)

func (k ErrorKind) String() string {
	switch k {
	case KindRetryable:
		return "retryable"
	case KindUseDefault:
		return "use-default"
	default:
		return "fatal"
	}
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string    // 錯誤代碼
	Message string    // 錯誤信息
	Err     error     // 原始錯誤
	Status  int       // HTTP 狀態碼
	Kind    ErrorKind // 處理方式
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap 支援 errors.Is / errors.As
func (e *CustomError) Unwrap() error {
	return e.Err
}

// Is 以錯誤代碼比對，讓 Wrap 過的錯誤仍能與預定義錯誤相等
func (e *CustomError) Is(target error) bool {
	t, ok := target.(*CustomError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// WithKind 設定錯誤處理方式
func (e *CustomError) WithKind(kind ErrorKind) *CustomError {
	e.Kind = kind
	return e
}

// Wrap 以預定義錯誤為模板包裝底層錯誤
func Wrap(base *CustomError, err error) *CustomError {
	return &CustomError{
		Code:    base.Code,
		Message: base.Message,
		Status:  base.Status,
		Kind:    base.Kind,
		Err:     err,
	}
}

// Wrapf 以預定義錯誤為模板並覆寫訊息
func Wrapf(base *CustomError, message string, err error) *CustomError {
	e := Wrap(base, err)
	e.Message = message
	return e
}

// KindOf 取得錯誤的處理方式，非 CustomError 視為 fatal
func KindOf(err error) ErrorKind {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindFatal
}

// IsRetryable 是否可重試
func IsRetryable(err error) bool {
	return err != nil && KindOf(err) == KindRetryable
}

// IsUseDefault 是否應改用預設值
func IsUseDefault(err error) bool {
	return err != nil && KindOf(err) == KindUseDefault
}

// ValidationError 表示驗證錯誤
type ValidationError struct {
	message string
}

// Error 實現 error 介面
func (e *ValidationError) Error() string {
	return e.message
}

// NewValidationError 創建新的驗證錯誤
func NewValidationError(message string) error {
	return &ValidationError{
		message: message,
	}
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeRequestTimeout  = "REQUEST_TIMEOUT"   // 408
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"     // 504
)

// 預定義錯誤
var (
	// 客戶端錯誤
	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "Invalid request format", http.StatusBadRequest, nil)
	ErrNotFound        = NewError(ErrCodeNotFound, "Resource not found", http.StatusNotFound, nil)
	ErrRequestTimeout  = NewError(ErrCodeRequestTimeout, "Request timeout", http.StatusRequestTimeout, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "Too many requests", http.StatusTooManyRequests, nil)
	ErrNoIngredients   = NewError("NO_INGREDIENTS", "No ingredients provided", http.StatusBadRequest, nil)

	// 服務器錯誤
	ErrInternalError      = NewError(ErrCodeInternalError, "Internal server error", http.StatusInternalServerError, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "Service temporarily unavailable", http.StatusServiceUnavailable, nil)
	ErrGatewayTimeout     = NewError(ErrCodeGatewayTimeout, "Gateway timeout", http.StatusGatewayTimeout, nil)

	// 業務錯誤
	ErrNoRecipes            = NewError("NO_RECIPES", "No recipes found from API", http.StatusNotFound, nil)
	ErrUpstreamUnavailable  = NewError("UPSTREAM_ERROR", "Recipe API error", http.StatusBadGateway, nil).WithKind(KindRetryable)
	ErrUpstreamQuota        = NewError("UPSTREAM_QUOTA", "Recipe API quota exhausted", http.StatusServiceUnavailable, nil)
	ErrUpstreamUnauthorized = NewError("UPSTREAM_UNAUTHORIZED", "Recipe API key rejected", http.StatusBadGateway, nil)
	ErrLLMUnavailable       = NewError("LLM_UNAVAILABLE", "LLM service unavailable", http.StatusServiceUnavailable, nil).WithKind(KindUseDefault)
	ErrLLMRateLimited       = NewError("LLM_RATE_LIMITED", "LLM rate limit reached", http.StatusTooManyRequests, nil).WithKind(KindRetryable)
	ErrLLMMalformed         = NewError("LLM_MALFORMED", "LLM returned malformed output", http.StatusBadGateway, nil).WithKind(KindUseDefault)
	ErrLLMFailed            = NewError("LLM_ERROR", "LLM request failed", http.StatusBadGateway, nil).WithKind(KindUseDefault)
	ErrConfig               = NewError("CONFIG_ERROR", "Invalid configuration", http.StatusInternalServerError, nil)

	// 快取錯誤
	ErrCacheMiss     = NewError("CACHE_MISS", "Cache miss", http.StatusNotFound, nil).WithKind(KindUseDefault)
	ErrCacheDisabled = NewError("CACHE_DISABLED", "Cache disabled", http.StatusServiceUnavailable, nil).WithKind(KindUseDefault)
	ErrCacheFull     = NewError("CACHE_FULL", "Cache is full", http.StatusServiceUnavailable, nil)
)
