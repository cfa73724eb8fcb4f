package backends

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	t.Parallel()

	err := NewError(ErrorCodeCollectionDoesNotExist, errors.New("no such table"))
	wrapped := fmt.Errorf("query: %w", err)

	assert.Equal(t, "ErrorCodeCollectionDoesNotExist: no such table", err.Error())
	assert.Equal(t, ErrorCodeCollectionDoesNotExist, err.Code())
	assert.True(t, ErrorCodeIs(wrapped, ErrorCodeCollectionDoesNotExist))
	assert.True(t, ErrorCodeIs(wrapped, ErrorCodeInsertDuplicateID, ErrorCodeCollectionDoesNotExist))
	assert.False(t, ErrorCodeIs(wrapped, ErrorCodeCollectionAlreadyExists))
	assert.False(t, ErrorCodeIs(errors.New("other"), ErrorCodeCollectionDoesNotExist))
	assert.False(t, ErrorCodeIs(nil, ErrorCodeCollectionDoesNotExist))

	assert.Equal(t, "ErrorCodeDocumentNotFound", NewError(ErrorCodeDocumentNotFound, nil).Error())
	assert.Equal(t, "ErrorCode(42)", ErrorCode(42).String())

	assert.Panics(t, func() { NewError(0, nil) })
}

func TestCheckError(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() { checkError(nil) })
	assert.NotPanics(t, func() { checkError(errors.New("network")) })
	assert.NotPanics(t, func() {
		checkError(NewError(ErrorCodeInsertDuplicateID, nil), ErrorCodeInsertDuplicateID)
	})
	assert.Panics(t, func() {
		checkError(NewError(ErrorCodeCollectionDoesNotExist, nil), ErrorCodeInsertDuplicateID)
	})
}
