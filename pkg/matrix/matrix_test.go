package matrix_test

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jorenham/compatbuild/pkg/matrix"
	"github.com/jorenham/compatbuild/pkg/reproducible"
	"github.com/jorenham/compatbuild/pkg/testutil"
	"github.com/jorenham/compatbuild/pkg/version"
)

func row(np0, np1, py0, py1 version.Version) matrix.Project {
	return matrix.Project{
		NumpyRange:  version.NewRange(np0, np1),
		PythonRange: version.NewRange(py0, py1),
	}
}

func v(major, minor int) version.Version { return version.New(major, minor) }

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()
	m := matrix.Default()
	require.Greater(t, m.Len(), 1)

	projects := m.Projects()
	for i, p := range projects[:len(projects)-1] {
		next := projects[i+1]
		assert.Equal(t, p.NumpyRange.Stop, next.NumpyRange.Start,
			"brackets %d and %d must be contiguous", i, i+1)
		assert.True(t, p.NumpyRange.Start.Less(next.NumpyRange.Start),
			"floors must be strictly increasing")
	}
	assert.True(t, projects[len(projects)-1].NumpyRange.Unbounded(),
		"the final bracket is the unbounded current-numpy row")
}

func TestNewRejectsBrokenMatrices(t *testing.T) {
	t.Parallel()
	testcases := map[string][]matrix.Project{
		"empty": {},
		"gap": {
			row(v(1, 22), v(1, 25), v(3, 8), v(3, 12)),
			row(v(2, 0), v(2, 1), v(3, 9), v(3, 13)),
		},
		"overlap": {
			row(v(1, 22), v(2, 0), v(3, 8), v(3, 12)),
			row(v(1, 25), v(2, 1), v(3, 9), v(3, 13)),
		},
		"descending-row": {
			row(v(2, 1), v(2, 0), v(3, 9), v(3, 13)),
		},
		"unbounded-not-last": {
			row(v(2, 0), v(2, 0), v(3, 9), v(3, 13)),
			row(v(2, 0), v(2, 1), v(3, 9), v(3, 13)),
		},
		"descending-python": {
			row(v(1, 22), v(1, 25), v(3, 12), v(3, 8)),
		},
	}
	for name, rows := range testcases {
		rows := rows
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := matrix.New(rows...)
			require.Error(t, err)
			var confErr *matrix.ConfigurationError
			assert.ErrorAs(t, err, &confErr)
		})
	}
}

func TestOrderingProperty(t *testing.T) {
	t.Parallel()
	rows := matrix.Default().Projects()

	// Only the declared ordering of the rows is a valid matrix; every
	// other permutation must be rejected at construction time.
	testutil.QuickCheck(t, func(seed int64) bool {
		perm := rand.New(rand.NewSource(seed)).Perm(len(rows))
		identity := true
		shuffled := make([]matrix.Project, len(rows))
		for i, j := range perm {
			if i != j {
				identity = false
			}
			shuffled[i] = rows[j]
		}
		_, err := matrix.New(shuffled...)
		return (err == nil) == identity
	}, testutil.QuickConfig{MaxCount: 200})
}

func TestLadder(t *testing.T) {
	t.Parallel()
	m := matrix.Default()
	projects := m.Projects()

	for i, p := range projects {
		ladder := m.Ladder(p)
		require.Len(t, ladder, m.Len())
		byName := make(map[string]bool, len(ladder))
		for _, c := range ladder {
			byName[c.Name] = c.GE
		}

		// Reflexive: every package is at least its own floor.
		assert.True(t, byName[p.ConstName()], "%s must carry its own constant as true", p)

		for j, q := range projects {
			got := byName[q.ConstName()]
			want := j <= i // floors are strictly increasing in matrix order
			assert.Equal(t, want, got, "%s >= %s", p.ConstName(), q.ConstName())
		}
	}
}

func TestLadderIsAntisymmetric(t *testing.T) {
	t.Parallel()
	m := matrix.Default()
	projects := m.Projects()

	for i, p := range projects {
		for j, q := range projects {
			if i == j {
				continue
			}
			pLadder := m.Ladder(p)
			qLadder := m.Ladder(q)
			pOverQ := constValue(t, pLadder, q.ConstName())
			qOverP := constValue(t, qLadder, p.ConstName())
			assert.NotEqual(t, pOverQ, qOverP,
				"distinct floors: exactly one of %s>=%s and %s>=%s", p, q, q, p)
		}
	}
}

func constValue(t *testing.T, ladder []matrix.Constant, name string) bool {
	t.Helper()
	for _, c := range ladder {
		if c.Name == name {
			return c.GE
		}
	}
	t.Fatalf("ladder has no constant %q", name)
	return false
}

func TestPreReleaseFloorsCompareStabilized(t *testing.T) {
	t.Parallel()
	rc := version.Version{Major: 2, Minor: 0, Pre: "rc1"}
	m, err := matrix.New(
		row(v(1, 25), rc, v(3, 9), v(3, 13)),
		row(rc, v(2, 1), v(3, 9), v(3, 13)),
	)
	require.NoError(t, err, "contiguity compares stabilized versions")

	p := m.Projects()[1]
	assert.Equal(t, "NUMPY_GE_2_0", p.ConstName(), "the tag never leaks in to constant names")

	ladder := m.Ladder(p)
	assert.True(t, constValue(t, ladder, "NUMPY_GE_1_25"))
	assert.True(t, constValue(t, ladder, "NUMPY_GE_2_0"))
}

func TestDerivedNames(t *testing.T) {
	t.Parallel()
	p := row(v(1, 25), v(2, 0), v(3, 9), v(3, 13))
	build := reproducible.BuildNumber()

	assert.Equal(t, fmt.Sprintf("1.25.%d", build), p.Version())
	assert.Equal(t, fmt.Sprintf("numpy_typing_compat-1.25.%d", build), p.DistName())
	assert.Equal(t, p.DistName()+"-py3-none-any.whl", p.WheelName())
	assert.Equal(t, p.DistName()+".tar.gz", p.SdistName())

	sdist, wheel := p.ArtifactPaths("/out/dist")
	assert.Equal(t, filepath.Join("/out/dist", p.SdistName()), sdist)
	assert.Equal(t, filepath.Join("/out/dist", p.WheelName()), wheel)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("ok", func(t *testing.T) {
		t.Parallel()
		filename := filepath.Join(t.TempDir(), "matrix.yaml")
		require.NoError(t, os.WriteFile(filename, []byte(""+
			"- numpy: [\"1.25\", \"2.0\"]\n"+
			"  python: [\"3.9\", \"3.13\"]\n"+
			"- numpy: [\"2.0\", \"2.0\"]\n"+
			"  python: [\"3.9\", \"3.13\"]\n"), 0o666))
		m, err := matrix.Load(filename)
		require.NoError(t, err)
		require.Equal(t, 2, m.Len())
		assert.True(t, m.Projects()[1].NumpyRange.Unbounded())
	})

	t.Run("unknown-field", func(t *testing.T) {
		t.Parallel()
		filename := filepath.Join(t.TempDir(), "matrix.yaml")
		require.NoError(t, os.WriteFile(filename, []byte(""+
			"- numpy: [\"1.25\", \"2.0\"]\n"+
			"  python: [\"3.9\", \"3.13\"]\n"+
			"  pypy: [\"7.3\", \"7.4\"]\n"), 0o666))
		_, err := matrix.Load(filename)
		require.Error(t, err)
	})

	t.Run("invalid-matrix", func(t *testing.T) {
		t.Parallel()
		filename := filepath.Join(t.TempDir(), "matrix.yaml")
		require.NoError(t, os.WriteFile(filename, []byte(""+
			"- numpy: [\"2.0\", \"1.25\"]\n"+
			"  python: [\"3.9\", \"3.13\"]\n"), 0o666))
		_, err := matrix.Load(filename)
		var confErr *matrix.ConfigurationError
		require.ErrorAs(t, err, &confErr)
	})
}
