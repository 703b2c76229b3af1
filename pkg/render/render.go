// Package render generates the on-disk source tree for one project of the
// build matrix: a pyproject.toml manifest, the generated
// numpy_typing_compat module, and its py.typed marker.
//
// Rendering is byte-deterministic: the same project and build date always
// produce identical output.  The incremental-publish step depends on that.
package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/datawire/dlib/dlog"

	"github.com/jorenham/compatbuild/pkg/matrix"
	"github.com/jorenham/compatbuild/pkg/reproducible"
	"github.com/jorenham/compatbuild/pkg/version"
)

//go:embed templates/pyproject.toml.tmpl templates/__init__.py.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS,
	"templates/pyproject.toml.tmpl",
	"templates/__init__.py.tmpl"))

// Context is everything the templates may reference for one project.
type Context struct {
	Name    string
	Repo    string
	Version string
	Build   int

	NpStart     version.Version
	NpStop      version.Version
	NpUnbounded bool
	PyStart     version.Version
	PyStop      version.Version

	// Ladder holds one NUMPY_GE_* constant per bracket in the whole
	// matrix, in matrix order.
	Ladder []matrix.Constant
}

// NewContext assembles the template context for project p of matrix m.
func NewContext(m matrix.Matrix, p matrix.Project) Context {
	return Context{
		Name:        matrix.Name,
		Repo:        matrix.Repo,
		Version:     p.Version(),
		Build:       reproducible.BuildNumber(),
		NpStart:     p.NumpyRange.Start,
		NpStop:      p.NumpyRange.Stop,
		NpUnbounded: p.NumpyRange.Unbounded(),
		PyStart:     p.PythonRange.Start,
		PyStop:      p.PythonRange.Stop,
		Ladder:      m.Ladder(p),
	}
}

// Manifest renders pyproject.toml for project p.
func Manifest(m matrix.Matrix, p matrix.Project) ([]byte, error) {
	return render("pyproject.toml.tmpl", NewContext(m, p))
}

// Module renders the generated __init__.py for project p.
func Module(m matrix.Matrix, p matrix.Project) ([]byte, error) {
	return render("__init__.py.tmpl", NewContext(m, p))
}

func render(name string, data Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// CreateProject writes the full source tree for project p under
// projectsDir and returns the project directory.  LICENSE and README.md
// are copied from rootDir when present; everything else is rendered.
// Re-running for the same project overwrites in place with identical
// bytes.
func CreateProject(
	ctx context.Context,
	m matrix.Matrix,
	p matrix.Project,
	rootDir, projectsDir string,
) (string, error) {
	projectDir := filepath.Join(projectsDir, p.DistName())
	moduleDir := filepath.Join(projectDir, "src", matrix.Name)
	if err := os.MkdirAll(moduleDir, 0o777); err != nil {
		return "", err
	}
	dlog.Debugf(ctx, "generating %s", projectDir)

	for _, fname := range []string{"LICENSE", "README.md"} {
		src := filepath.Join(rootDir, fname)
		content, err := os.ReadFile(src)
		if err != nil {
			if os.IsNotExist(err) {
				dlog.Debugf(ctx, "no %s to copy in to %s", fname, p.DistName())
				continue
			}
			return "", err
		}
		if err := os.WriteFile(filepath.Join(projectDir, fname), content, 0o666); err != nil {
			return "", err
		}
	}

	manifest, err := Manifest(m, p)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(projectDir, "pyproject.toml"), manifest, 0o666); err != nil {
		return "", err
	}

	module, err := Module(m, p)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(moduleDir, "__init__.py"), module, 0o666); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(moduleDir, "py.typed"), nil, 0o666); err != nil {
		return "", err
	}

	return projectDir, nil
}
