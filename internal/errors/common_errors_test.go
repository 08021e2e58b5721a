package errors

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "with cause",
			err:  NewStorageError("failed to write history", io.ErrShortWrite),
			want: "[STORAGE] failed to write history: short write",
		},
		{
			name: "without cause",
			err:  NewNotFoundError("catalog"),
			want: "[NOT_FOUND] catalog not found",
		},
		{
			name: "parsing",
			err:  NewParsingError("corrupt ledger", errors.New("unexpected EOF")),
			want: "[PARSING] corrupt ledger: unexpected EOF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	err := NewStorageError("failed to save", io.ErrUnexpectedEOF)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))

	var appErr *AppError
	wrapped := errors.Join(errors.New("outer"), err)
	assert.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, ErrTypeStorage, appErr.Type)
}

func TestAppError_WithContext(t *testing.T) {
	err := NewConfigError("bad port", nil).WithContext("port", 0)
	assert.Equal(t, 0, err.Context["port"])

	bare := &AppError{Type: ErrTypeConfig}
	bare.WithContext("key", "value")
	assert.Equal(t, "value", bare.Context["key"])
}

func TestIsType(t *testing.T) {
	assert.True(t, IsType(NewStorageError("x", nil), ErrTypeStorage))
	assert.False(t, IsType(NewStorageError("x", nil), ErrTypeParsing))
	assert.False(t, IsType(errors.New("plain"), ErrTypeStorage))
	assert.True(t, IsType(NewPermissionError("denied"), ErrTypePermission))
	assert.True(t, IsType(NewAppValidationError("bad"), ErrTypeValidation))
	assert.True(t, IsType(NewNetworkError("down", nil), ErrTypeNetwork))
}
