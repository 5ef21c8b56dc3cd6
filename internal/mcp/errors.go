// Package mcp exposes the pdfsearch control operations as Model Context
// Protocol tools and resources.
package mcp

import (
	"context"
	"errors"
	"fmt"

	amerrors "github.com/mklauzo/pdf-search/internal/errors"
)

// Custom MCP error codes.
const (
	// ErrCodeIndexUnavailable indicates the index cannot be read.
	ErrCodeIndexUnavailable = -32001

	// ErrCodeRenderFailed indicates a page could not be rendered.
	ErrCodeRenderFailed = -32002

	// ErrCodeTimeout indicates the request timed out or was canceled.
	ErrCodeTimeout = -32003

	// ErrCodeFileNotFound indicates a file does not exist in the scope.
	ErrCodeFileNotFound = -32004

	// ErrCodeBadFile indicates a file is not a readable PDF.
	ErrCodeBadFile = -32005

	// Standard JSON-RPC error codes.
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// MCPError is an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}

	var appErr *amerrors.AppError
	if errors.As(err, &appErr) {
		return mapAppError(appErr)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
	}
}

// NewInvalidParamsError creates an error for invalid parameters.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

func mapAppError(ae *amerrors.AppError) *MCPError {
	message := ae.Message
	if ae.Suggestion != "" {
		message = fmt.Sprintf("%s %s", ae.Message, ae.Suggestion)
	}

	switch ae.Code {
	case amerrors.ErrCodeInvalidInput, amerrors.ErrCodeInvalidPath,
		amerrors.ErrCodeScopeInvalid, amerrors.ErrCodeInvalidQuery,
		amerrors.ErrCodeQueryEmpty, amerrors.ErrCodeInvalidPage:
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	case amerrors.ErrCodeFileNotFound:
		return &MCPError{Code: ErrCodeFileNotFound, Message: message}
	case amerrors.ErrCodeFileCorrupt, amerrors.ErrCodeExtractionFailed:
		return &MCPError{Code: ErrCodeBadFile, Message: message}
	case amerrors.ErrCodeRenderFailed:
		return &MCPError{Code: ErrCodeRenderFailed, Message: message}
	case amerrors.ErrCodeCorruptIndex, amerrors.ErrCodeStoreBusy,
		amerrors.ErrCodeStoreFailed, amerrors.ErrCodeSearchFailed:
		return &MCPError{Code: ErrCodeIndexUnavailable, Message: message}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	}
}
