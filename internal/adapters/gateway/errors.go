package gateway

import (
	"errors"
	"fmt"
	"time"
)

const (
	CodeNotConnected = "NOT_CONNECTED"
	CodeTimeout      = "TIMEOUT"
	CodeUnknown      = "UNKNOWN"
)

// RPCError is the rejection of one request.
type RPCError struct {
	Code       string
	Message    string
	Method     string
	Retryable  bool
	RetryAfter time.Duration
}

func (e *RPCError) Error() string {
	if e.Method == "" {
		return fmt.Sprintf("gateway %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("gateway %s %s: %s", e.Method, e.Code, e.Message)
}

// IsCode reports whether err wraps an *RPCError with the given code.
func IsCode(err error, code string) bool {
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		return false
	}
	return rpcErr.Code == code
}

func errorFromShape(method string, shape *ErrorShape) *RPCError {
	if shape == nil {
		return &RPCError{Code: CodeUnknown, Message: "request failed", Method: method}
	}

	code := shape.Code
	if code == "" {
		code = CodeUnknown
	}

	return &RPCError{
		Code:       code,
		Message:    shape.Message,
		Method:     method,
		Retryable:  shape.Retryable,
		RetryAfter: time.Duration(shape.RetryAfterMs) * time.Millisecond,
	}
}
