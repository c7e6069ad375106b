// Package mcp exposes the standards catalogue over the Model Context
// Protocol: five tools on a stdio JSON-RPC transport.
package mcp

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/Version1/uk-gov-tech-standards-mcp/internal/errors"
)

// JSON-RPC error codes used by the tool handlers. The -320xx range is
// reserved for server-defined errors.
const (
	ErrCodeStandardNotFound = -32001
	ErrCodeStoreUnavailable = -32002
	ErrCodeTimeout          = -32003

	ErrCodeInvalidParams = -32602
	ErrCodeInternalError = -32603
)

// ProtocolError is a JSON-RPC level error with code and message.
type ProtocolError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// NewInvalidParamsError builds a -32602 error for a bad tool input.
func NewInvalidParamsError(message string) *ProtocolError {
	return &ProtocolError{Code: ErrCodeInvalidParams, Message: message}
}

// MapError translates internal errors into protocol errors, so clients
// see stable codes instead of Go error strings.
func MapError(err error) *ProtocolError {
	if err == nil {
		return nil
	}

	var protoErr *ProtocolError
	if errors.As(err, &protoErr) {
		return protoErr
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &ProtocolError{Code: ErrCodeTimeout, Message: "request timed out"}
	case errors.Is(err, context.Canceled):
		return &ProtocolError{Code: ErrCodeTimeout, Message: "request was canceled"}
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case apperrors.ErrCodeNotFound:
			return &ProtocolError{Code: ErrCodeStandardNotFound, Message: appErr.Message}
		case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeInvalidDocument:
			return &ProtocolError{Code: ErrCodeInvalidParams, Message: appErr.Message}
		case apperrors.ErrCodeStoreLocked, apperrors.ErrCodeStoreDamaged:
			return &ProtocolError{Code: ErrCodeStoreUnavailable, Message: appErr.Message}
		case apperrors.ErrCodeNetworkTimeout:
			return &ProtocolError{Code: ErrCodeTimeout, Message: appErr.Message}
		default:
			return &ProtocolError{Code: ErrCodeInternalError, Message: appErr.Message}
		}
	}

	return &ProtocolError{Code: ErrCodeInternalError, Message: "internal error"}
}
