// Package pipeline runs the whole matrix: for each project, in declared
// order, generate the source tree, build it, validate the wheel, and
// decide whether the artifacts are worth publishing.
//
// Execution is strictly sequential; one project's cycle never overlaps the
// next.  Any fault aborts the entire run, because a partially built matrix
// with missing brackets is worse than a failed run.
package pipeline

import (
	"context"
	"os"

	"github.com/datawire/dlib/dlog"

	"github.com/jorenham/compatbuild/pkg/build"
	"github.com/jorenham/compatbuild/pkg/index"
	"github.com/jorenham/compatbuild/pkg/matrix"
	"github.com/jorenham/compatbuild/pkg/publish"
	"github.com/jorenham/compatbuild/pkg/render"
	"github.com/jorenham/compatbuild/pkg/validate"
)

// ProjectBuilder builds one project's source tree in to its two artifacts.
type ProjectBuilder interface {
	Build(ctx context.Context, p matrix.Project, projectDir string) (build.Result, error)
}

// WheelValidator checks one built wheel end-to-end.
type WheelValidator interface {
	Validate(ctx context.Context, p matrix.Project, wheelPath string) error
}

type Options struct {
	Matrix matrix.Matrix

	// RootDir is where LICENSE and README.md are copied from.
	RootDir string
	// ProjectsDir receives the generated source trees.
	ProjectsDir string
	// OutDir receives the built artifacts.
	OutDir string

	// Keep retains the generated project directories after the run.
	Keep bool
	// SkipIndex skips the remote novelty check; every artifact is KEEP
	// and no network call is made.
	SkipIndex bool
	// Silent suppresses relaying subprocess output to the log.
	Silent bool

	Index index.Client

	// Builder and Validator default to the real uv-backed
	// implementations when nil.
	Builder   ProjectBuilder
	Validator WheelValidator
}

// Summary is what a successful run produced.
type Summary struct {
	// Decisions holds every per-artifact verdict, in matrix order,
	// sdist before wheel within a project.
	Decisions []publish.Decision
}

// ToPublish returns the paths classified KEEP.
func (s *Summary) ToPublish() []string {
	var paths []string
	for _, d := range s.Decisions {
		if d.Action == publish.Keep {
			paths = append(paths, d.Path)
		}
	}
	return paths
}

// Run executes the full matrix.  Generated project directories are removed
// on every exit path unless opts.Keep is set; build outputs under
// opts.OutDir are left for the caller.
func Run(ctx context.Context, opts Options) (_ *Summary, err error) {
	maybeSetErr := func(_err error) {
		if _err != nil && err == nil {
			err = _err
		}
	}

	builder := opts.Builder
	if builder == nil {
		builder = build.Builder{OutDir: opts.OutDir, Silent: opts.Silent}
	}
	validator := opts.Validator
	if validator == nil {
		validator = validate.Validator{Silent: opts.Silent}
	}

	if !opts.Keep {
		defer func() {
			maybeSetErr(os.RemoveAll(opts.ProjectsDir))
		}()
	}

	// The previously-published-hash table is fetched exactly once, up
	// front; it is read-only for the rest of the run.
	history := publish.SkipHistory()
	if opts.SkipIndex {
		dlog.Infof(ctx, "skipping the %s novelty check; keeping everything", matrix.Name)
	} else {
		history, err = publish.FetchHistory(ctx, opts.Index)
		if err != nil {
			return nil, err
		}
	}

	summary := &Summary{}
	for _, p := range opts.Matrix.Projects() {
		dlog.Infof(ctx, "processing %s", p)

		projectDir, err := render.CreateProject(ctx, opts.Matrix, p, opts.RootDir, opts.ProjectsDir)
		if err != nil {
			return nil, err
		}

		result, err := builder.Build(ctx, p, projectDir)
		if err != nil {
			return nil, err
		}

		if err := validator.Validate(ctx, p, result.Wheel); err != nil {
			return nil, err
		}

		decisions, err := history.Decide(ctx, p, result)
		if err != nil {
			return nil, err
		}
		summary.Decisions = append(summary.Decisions, decisions...)

		if !opts.Keep {
			if err := os.RemoveAll(projectDir); err != nil {
				return nil, err
			}
		}
	}
	return summary, nil
}
