package mcp

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	amerrors "github.com/mklauzo/pdf-search/internal/errors"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"invalid page", amerrors.ValidationError("page must be at least 1", nil), ErrCodeInvalidParams},
		{"path escape", amerrors.New(amerrors.ErrCodeInvalidPath, "invalid file path", nil), ErrCodeInvalidParams},
		{"scope", amerrors.ScopeError("outside base", nil), ErrCodeInvalidParams},
		{"missing file", amerrors.NotFoundError("file not found", nil), ErrCodeFileNotFound},
		{"corrupt pdf", amerrors.CorruptFileError("cannot read PDF", nil), ErrCodeBadFile},
		{"render", amerrors.RenderError("cannot render page 1", nil), ErrCodeRenderFailed},
		{"store", amerrors.StoreError("insert failed", nil), ErrCodeIndexUnavailable},
		{"wrapped app error", fmt.Errorf("outer: %w", amerrors.NotFoundError("x", nil)), ErrCodeFileNotFound},
		{"deadline", context.DeadlineExceeded, ErrCodeTimeout},
		{"canceled", context.Canceled, ErrCodeTimeout},
		{"unknown", errors.New("boom"), ErrCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.NotEmpty(t, got.Message)
		})
	}
}

func TestMapError_Nil(t *testing.T) {
	assert.Nil(t, MapError(nil))
}

func TestMapError_PassesMCPErrorThrough(t *testing.T) {
	in := NewInvalidParamsError("query is required")

	assert.Same(t, in, MapError(in))
}

func TestMapError_IncludesSuggestion(t *testing.T) {
	err := amerrors.ScopeError("outside base", nil).WithSuggestion("Pick a directory under the base.")

	got := MapError(err)

	assert.Equal(t, "outside base Pick a directory under the base.", got.Message)
}

func TestMCPError_Error(t *testing.T) {
	err := &MCPError{Code: ErrCodeInvalidParams, Message: "bad"}
	assert.Equal(t, "MCP error -32602: bad", err.Error())
}
