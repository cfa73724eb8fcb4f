package metadata

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsOperationError(t *testing.T) {
	t.Parallel()

	for name, err := range map[string]error{
		"nil":     nil,
		"regular": errors.New("some error"),
		"joined":  errors.Join(errors.New("table not found"), errors.New("key exists")),
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.False(t, IsOperationErrorTableNotFound(err))
			assert.False(t, IsOperationErrorConflictExistingKey(err))
		})
	}
}

func TestIssueCodes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2003, tableNotFoundCode)
	assert.Equal(t, 2012, conflictExistingKeyCode)
}
