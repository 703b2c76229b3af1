// Package matrix defines the build matrix: the ordered set of
// numpy-version brackets that the numpy_typing_compat package family is
// built for, and everything that is derived from a bracket (version
// strings, distribution names, artifact filenames, the ladder of
// NUMPY_GE_* constants).
package matrix

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/datawire/dlib/derror"
	"sigs.k8s.io/yaml"

	"github.com/jorenham/compatbuild/pkg/reproducible"
	"github.com/jorenham/compatbuild/pkg/version"
)

const (
	// Name is the distribution name of the package family.
	Name = "numpy_typing_compat"
	// Repo is the upstream repository URL, stamped into manifests.
	Repo = "https://github.com/jorenham/numpy-typing-compat"
)

// Project is one row of the build matrix: a numpy compatibility bracket
// plus the python versions that bracket supports.
type Project struct {
	NumpyRange  version.Range `json:"numpy"`
	PythonRange version.Range `json:"python"`
}

// Version is the build identifier: the bracket's numpy floor plus the
// date-derived build number, e.g. "1.25.20260827".
func (p Project) Version() string {
	return fmt.Sprintf("%s.%d", p.NumpyRange.Start, reproducible.BuildNumber())
}

// DistName is the full distribution name, e.g.
// "numpy_typing_compat-1.25.20260827".
func (p Project) DistName() string {
	return fmt.Sprintf("%s-%s", Name, p.Version())
}

// ConstName is the generated-module constant that names this bracket's
// floor, e.g. "NUMPY_GE_1_25".  Pre-release tags on the floor are
// stripped; the ladder always compares stabilized versions.
func (p Project) ConstName() string {
	floor := p.NumpyRange.Start.Stable()
	return "NUMPY_GE_" + strings.ReplaceAll(floor.String(), ".", "_")
}

// WheelName is the expected binary-distribution filename.
func (p Project) WheelName() string {
	return p.DistName() + "-py3-none-any.whl"
}

// SdistName is the expected source-archive filename.
func (p Project) SdistName() string {
	return p.DistName() + ".tar.gz"
}

// ArtifactPaths returns the two paths that a successful build of this
// project must produce under distDir.
func (p Project) ArtifactPaths(distDir string) (sdistPath, wheelPath string) {
	return filepath.Join(distDir, p.SdistName()), filepath.Join(distDir, p.WheelName())
}

func (p Project) String() string {
	return p.DistName()
}

// Constant is one rung of the compatibility ladder.
type Constant struct {
	Name string
	GE   bool
}

// Matrix is the validated, ordered list of Projects.  It is immutable
// after construction; pass it by value.
type Matrix struct {
	projects []Project
}

// ConfigurationError reports an invalid matrix.  It is fatal at startup and
// never recoverable.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid build matrix: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// New validates the rows and returns a Matrix.  The numpy brackets must be
// strictly increasing by floor, contiguous, and non-overlapping; only the
// final row may be unbounded (Start == Stop).
func New(projects ...Project) (Matrix, error) {
	var errs derror.MultiError
	if len(projects) == 0 {
		errs = append(errs, fmt.Errorf("matrix has no rows"))
	}
	for i, p := range projects {
		np, py := p.NumpyRange, p.PythonRange
		for _, v := range []version.Version{np.Start, np.Stop, py.Start, py.Stop} {
			if v.Major < 0 || v.Minor < 0 {
				errs = append(errs, fmt.Errorf("row %d: negative version component: %s", i, v))
			}
		}
		if np.Unbounded() {
			if i != len(projects)-1 {
				errs = append(errs, fmt.Errorf(
					"row %d (%s): unbounded numpy range is only allowed on the final row", i, np))
			}
		} else if !np.Start.Stable().Less(np.Stop.Stable()) {
			errs = append(errs, fmt.Errorf("row %d: numpy range is not ascending: %s", i, np))
		}
		if !py.Start.Stable().Less(py.Stop.Stable()) {
			errs = append(errs, fmt.Errorf("row %d: python range is not ascending: %s", i, py))
		}
		if i == 0 {
			continue
		}
		prev := projects[i-1].NumpyRange
		if !prev.Start.Stable().Less(np.Start.Stable()) {
			errs = append(errs, fmt.Errorf(
				"row %d: numpy floors out of order: %s is not above %s", i, np.Start, prev.Start))
		}
		if prev.Stop.Stable() != np.Start.Stable() {
			errs = append(errs, fmt.Errorf(
				"row %d: numpy brackets are not contiguous: previous stops at %s, next starts at %s",
				i, prev.Stop, np.Start))
		}
	}
	if len(errs) > 0 {
		return Matrix{}, &ConfigurationError{Err: errs}
	}
	return Matrix{projects: append([]Project(nil), projects...)}, nil
}

// Load reads a matrix from a YAML file.  Unknown fields are an error.
func Load(filename string) (Matrix, error) {
	yamlBytes, err := os.ReadFile(filename)
	if err != nil {
		return Matrix{}, err
	}
	var projects []Project
	if err := yaml.Unmarshal(yamlBytes, &projects, yaml.DisallowUnknownFields); err != nil {
		return Matrix{}, &ConfigurationError{Err: fmt.Errorf("%s: %w", filename, err)}
	}
	m, err := New(projects...)
	if err != nil {
		return Matrix{}, fmt.Errorf("%s: %w", filename, err)
	}
	return m, nil
}

// Projects returns the rows in declared order.  The returned slice is a
// copy; mutating it does not affect the Matrix.
func (m Matrix) Projects() []Project {
	return append([]Project(nil), m.projects...)
}

func (m Matrix) Len() int { return len(m.projects) }

// Ladder returns, in matrix order, one constant per known bracket stating
// whether p's numpy floor is at or above that bracket's floor.  Every
// generated package carries the full ladder, not just its own rung, so
// that user code can branch on any bracket regardless of which package is
// installed.
func (m Matrix) Ladder(p Project) []Constant {
	ladder := make([]Constant, 0, len(m.projects))
	floor := p.NumpyRange.Start.Stable()
	for _, q := range m.projects {
		ladder = append(ladder, Constant{
			Name: q.ConstName(),
			GE:   floor.GE(q.NumpyRange.Start.Stable()),
		})
	}
	return ladder
}

// Default is the matrix that ships with the tool, mirroring the published
// numpy-typing-compat family.  The final row is the unbounded "current
// numpy" bracket.
func Default() Matrix {
	row := func(np0, np1, py0, py1 version.Version) Project {
		return Project{
			NumpyRange:  version.NewRange(np0, np1),
			PythonRange: version.NewRange(py0, py1),
		}
	}
	v := version.New
	m, err := New(
		row(v(1, 22), v(1, 25), v(3, 8), v(3, 12)),
		row(v(1, 25), v(2, 0), v(3, 9), v(3, 13)),
		row(v(2, 0), v(2, 1), v(3, 9), v(3, 13)),
		row(v(2, 1), v(2, 2), v(3, 10), v(3, 14)),
		row(v(2, 2), v(2, 3), v(3, 10), v(3, 14)),
		row(v(2, 3), v(2, 4), v(3, 11), v(3, 14)),
		row(v(2, 4), v(2, 4), v(3, 11), v(3, 14)),
	)
	if err != nil {
		panic(err)
	}
	return m
}
