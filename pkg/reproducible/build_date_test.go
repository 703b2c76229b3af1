package reproducible_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jorenham/compatbuild/pkg/reproducible"
)

func TestBuildNumber(t *testing.T) {
	t.Parallel()
	d := reproducible.Date()
	n := reproducible.BuildNumber()
	assert.Equal(t, d.Year()*10_000+int(d.Month())*100+d.Day(), n)
	assert.Equal(t, n, reproducible.BuildNumber(), "the build date is latched for the whole run")
}

func TestEnv(t *testing.T) {
	t.Parallel()
	assert.Contains(t, reproducible.Env(),
		fmt.Sprintf("SOURCE_DATE_EPOCH=%d", reproducible.Date().Unix()))
}
