// Package errors 提供统一的错误码与应用错误定义
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码
const (
	// 通用错误 (1xxx)
	CodeSuccess            ErrorCode = "0"
	CodeUnknown            ErrorCode = "1000"
	CodeInvalidParam       ErrorCode = "1001"
	CodeUnauthorized       ErrorCode = "1002"
	CodeTooManyRequests    ErrorCode = "1006"
	CodeInternalError      ErrorCode = "1007"
	CodeServiceUnavailable ErrorCode = "1008"

	// Webhook 错误 (2xxx)
	CodeInvalidSignature ErrorCode = "2001"
	CodeUnsupportedEvent ErrorCode = "2002"
	CodeReplyFailed      ErrorCode = "2003"
	CodeContentFetch     ErrorCode = "2004"

	// 索引错误 (3xxx)
	CodeCorpusEmpty       ErrorCode = "3001"
	CodeIndexNotFound     ErrorCode = "3002"
	CodeIndexCorrupted    ErrorCode = "3003"
	CodeIndexMismatch     ErrorCode = "3004"
	CodeDimensionMismatch ErrorCode = "3005"

	// 业务错误 (4xxx)
	CodeGenerationFailed    ErrorCode = "4001"
	CodeRetrievalFailed     ErrorCode = "4003"
	CodeLLMCallFailed       ErrorCode = "4005"
	CodeEmbeddingFailed     ErrorCode = "4006"
	CodeTranscriptionFailed ErrorCode = "4007"

	// 外部服务错误 (5xxx)
	CodeCacheError       ErrorCode = "5002"
	CodeVectorDBError    ErrorCode = "5003"
	CodeStorageError     ErrorCode = "5004"
	CodeLLMProviderError ErrorCode = "5005"
)

// AppError 应用错误
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	HTTPStatus int       `json:"-"`
	Err        error     `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较，便于 errors.Is 匹配预定义错误
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetail 返回带详细信息的副本，不修改预定义错误
func (e *AppError) WithDetail(detail string) *AppError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// WithError 返回带底层错误的副本
func (e *AppError) WithError(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// New 创建新的应用错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Err:        err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case CodeSuccess:
		return http.StatusOK
	case CodeInvalidParam, CodeInvalidSignature, CodeUnsupportedEvent:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeIndexNotFound:
		return http.StatusNotFound
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	case CodeLLMProviderError, CodeContentFetch, CodeReplyFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// 预定义错误
var (
	ErrInvalidParam       = New(CodeInvalidParam, "invalid parameter")
	ErrTooManyRequests    = New(CodeTooManyRequests, "too many requests")
	ErrInternalError      = New(CodeInternalError, "internal server error")
	ErrServiceUnavailable = New(CodeServiceUnavailable, "service unavailable")

	ErrInvalidSignature = New(CodeInvalidSignature, "invalid webhook signature")

	ErrCorpusEmpty       = New(CodeCorpusEmpty, "no chunk survived embedding")
	ErrIndexNotFound     = New(CodeIndexNotFound, "index artifact not found")
	ErrIndexCorrupted    = New(CodeIndexCorrupted, "index artifact corrupted")
	ErrIndexMismatch     = New(CodeIndexMismatch, "index was built with a different embedding model")
	ErrDimensionMismatch = New(CodeDimensionMismatch, "embedding dimension mismatch")

	ErrRetrievalFailed     = New(CodeRetrievalFailed, "retrieval failed")
	ErrLLMCallFailed       = New(CodeLLMCallFailed, "LLM call failed")
	ErrEmbeddingFailed     = New(CodeEmbeddingFailed, "embedding failed")
	ErrTranscriptionFailed = New(CodeTranscriptionFailed, "audio transcription failed")
)

// IsAppError 检查错误链中是否包含 AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError 将错误转换为 AppError
func AsAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, CodeUnknown, "unknown error")
}
