package version_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jorenham/compatbuild/pkg/version"
)

func TestString(t *testing.T) {
	t.Parallel()
	testcases := map[string]version.Version{
		"1.22":   version.New(1, 22),
		"2.0":    version.New(2, 0),
		"2.0rc1": {Major: 2, Minor: 0, Pre: "rc1"},
		"0.0":    version.New(0, 0),
	}
	for exp, ver := range testcases {
		assert.Equal(t, exp, ver.String())
	}
}

func TestParse(t *testing.T) {
	t.Parallel()
	t.Run("round-trip", func(t *testing.T) {
		t.Parallel()
		for _, str := range []string{"1.22", "2.0", "2.0rc1", "3.14b2", "0.0"} {
			parsed, err := version.Parse(str)
			require.NoError(t, err)
			assert.Equal(t, str, parsed.String())
		}
	})
	t.Run("invalid", func(t *testing.T) {
		t.Parallel()
		for _, str := range []string{"", "1", "1.2.3", "v1.2", "1.-2", "rc1", "1.2 "} {
			_, err := version.Parse(str)
			assert.Error(t, err, "input %q", str)
		}
	})
}

func TestCmpIgnoresPre(t *testing.T) {
	t.Parallel()

	assert.True(t, version.New(1, 25).Less(version.New(2, 0)))
	assert.True(t, version.New(1, 9).Less(version.New(1, 25)))
	assert.True(t, version.New(2, 0).GE(version.New(2, 0)))
	assert.False(t, version.New(1, 25).GE(version.New(2, 0)))

	// The pre-release tag is display-only.
	pre := version.Version{Major: 2, Minor: 0, Pre: "rc1"}
	assert.Equal(t, 0, pre.Cmp(version.New(2, 0)))
	assert.True(t, pre.GE(version.New(2, 0)))
}

func TestStable(t *testing.T) {
	t.Parallel()
	pre := version.Version{Major: 2, Minor: 0, Pre: "rc1"}
	assert.Equal(t, version.New(2, 0), pre.Stable())
	assert.Equal(t, "rc1", pre.Pre, "Stable must not mutate the receiver")
}

func TestRange(t *testing.T) {
	t.Parallel()

	bounded := version.NewRange(version.New(1, 25), version.New(2, 0))
	assert.False(t, bounded.Unbounded())
	assert.False(t, bounded.Contains(version.New(1, 24)))
	assert.True(t, bounded.Contains(version.New(1, 25)))
	assert.True(t, bounded.Contains(version.New(1, 26)))
	assert.False(t, bounded.Contains(version.New(2, 0)), "half-open: stop is excluded")
	assert.Equal(t, ">=1.25,<2.0", bounded.String())

	unbounded := version.NewRange(version.New(2, 4), version.New(2, 4))
	assert.True(t, unbounded.Unbounded())
	assert.True(t, unbounded.Contains(version.New(99, 0)))
	assert.False(t, unbounded.Contains(version.New(2, 3)))
	assert.Equal(t, ">=2.4", unbounded.String())
}

func TestJSON(t *testing.T) {
	t.Parallel()

	ver := version.Version{Major: 2, Minor: 0, Pre: "rc1"}
	verJSON, err := json.Marshal(ver)
	require.NoError(t, err)
	assert.Equal(t, `"2.0rc1"`, string(verJSON))

	var parsed version.Version
	require.NoError(t, json.Unmarshal(verJSON, &parsed))
	assert.Equal(t, ver, parsed)

	r := version.NewRange(version.New(1, 22), version.New(1, 25))
	rangeJSON, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `["1.22","1.25"]`, string(rangeJSON))

	var parsedRange version.Range
	require.NoError(t, json.Unmarshal(rangeJSON, &parsedRange))
	assert.Equal(t, r, parsedRange)
}
