package validate_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jorenham/compatbuild/pkg/validate"
)

func TestError(t *testing.T) {
	t.Parallel()
	inner := errors.New("exit status 1")
	err := &validate.Error{
		Project: "numpy_typing_compat-1.25.20260827",
		Step:    "runtime self-check",
		Err:     inner,
	}
	assert.Contains(t, err.Error(), "numpy_typing_compat-1.25.20260827")
	assert.Contains(t, err.Error(), "runtime self-check")
	require.ErrorIs(t, err, inner)
}
