// Package validate checks a freshly built wheel end-to-end: install it in
// to a throwaway virtualenv pinned to the project's python floor, confirm
// the generated module's runtime range predicate holds, and confirm the
// installed package passes a static-typing check.
package validate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/datawire/dlib/dexec"
	"github.com/datawire/dlib/dlog"

	"github.com/jorenham/compatbuild/pkg/matrix"
)

// Error is a validation failure.  It is fatal for the run; a project that
// fails validation is never silently skipped.
type Error struct {
	Project string
	Step    string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("validation of %s failed at step %q: %v", e.Project, e.Step, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Validator runs the per-wheel validation steps.  The zero value uses `uv`
// from $PATH.
type Validator struct {
	UV     string
	Silent bool
}

func (v Validator) uv() string {
	if v.UV == "" {
		return "uv"
	}
	return v.UV
}

// Validate installs wheelPath in to an ephemeral venv and runs the runtime
// and static-typing self-checks.  The venv is removed on every exit path.
func (v Validator) Validate(ctx context.Context, p matrix.Project, wheelPath string) (err error) {
	maybeSetErr := func(_err error) {
		if _err != nil && err == nil {
			err = _err
		}
	}

	venvDir, err := os.MkdirTemp("", "compatbuild-venv.")
	if err != nil {
		return err
	}
	defer func() {
		maybeSetErr(os.RemoveAll(venvDir))
	}()

	pyFloor := p.PythonRange.Start.String()
	python := filepath.Join(venvDir, "bin", "python")
	dlog.Infof(ctx, "validating %s under python %s", filepath.Base(wheelPath), pyFloor)

	run := func(step string, name string, args ...string) error {
		cmd := dexec.CommandContext(ctx, name, args...)
		cmd.DisableLogging = v.Silent
		if err := cmd.Run(); err != nil {
			return &Error{Project: p.String(), Step: step, Err: err}
		}
		return nil
	}

	// 1. Throwaway environment pinned to the project's python floor.
	if err := run("create venv", v.uv(), "venv", "--python="+pyFloor, venvDir); err != nil {
		return err
	}

	// 2. Install the wheel; dependency resolution pulls in a numpy that
	// satisfies the declared bracket.  mypy rides along for step 4.
	if err := run("install wheel", v.uv(), "pip", "install", "--python="+python,
		wheelPath, "mypy"); err != nil {
		return err
	}

	// 3. Runtime self-check: the generated predicate must report that the
	// installed numpy falls in the declared bracket.
	selfCheck := fmt.Sprintf("import %[1]s; assert %[1]s.numpy_version_ok()", matrix.Name)
	if err := run("runtime self-check", python, "-c", selfCheck); err != nil {
		return err
	}

	// 4. Static-typing completeness: the installed package must typecheck
	// strictly, constants and predicate included.
	typeCheck := fmt.Sprintf("import %[1]s\nladder: bool = %[1]s.%[2]s\nok: bool = %[1]s.numpy_version_ok()\n",
		matrix.Name, p.ConstName())
	if err := run("static-typing check", python, "-m", "mypy", "--strict", "-c", typeCheck); err != nil {
		return err
	}

	return nil
}
