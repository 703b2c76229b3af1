// Package build invokes the external package-build tool for one project at
// a time and verifies what it produced.
//
// The contract with the tool is narrow: exit code zero, and a
// "Successfully built <absolute-path>" line on stderr for each of the two
// artifacts (one sdist, one wheel).  Anything else is a fatal failure;
// there are no retries.
package build

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/datawire/dlib/dexec"
	"github.com/datawire/dlib/dlog"

	"github.com/jorenham/compatbuild/pkg/matrix"
	"github.com/jorenham/compatbuild/pkg/reproducible"
)

// Result holds the two artifacts of a successful build, classified by
// kind.
type Result struct {
	Sdist string
	Wheel string
}

// ToolError is a build-tool failure: a non-zero exit, or a zero exit that
// violated the output contract.  Notes carries the tool's captured stderr,
// line by line, for diagnosis.
type ToolError struct {
	Msg   string
	Notes []string
}

func (e *ToolError) Error() string {
	if len(e.Notes) == 0 {
		return e.Msg
	}
	return e.Msg + "\n\t" + strings.Join(e.Notes, "\n\t")
}

// IntegrityError is a path that the tool reported as built but that does
// not exist as a regular file on disk.
type IntegrityError struct {
	Reported string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("build tool reported artifact that does not exist on disk: %q", e.Reported)
}

var successMarker = regexp.MustCompile(`Successfully built (/[\w\-./]+)`)

// Builder runs the build tool.  The zero value builds with `uv build` in
// to "./dist".
type Builder struct {
	// Tool is the argv prefix of the build tool.  The project directory
	// and output directory are appended as --directory= and --out-dir=.
	Tool []string
	// OutDir is where artifacts land.
	OutDir string
	// Silent suppresses relaying of subprocess output to the log;
	// output is still captured and attached to errors.
	Silent bool
}

func (b Builder) tool() []string {
	if len(b.Tool) == 0 {
		return []string{"uv", "build"}
	}
	return b.Tool
}

func (b Builder) outDir() string {
	if b.OutDir == "" {
		return "dist"
	}
	return b.OutDir
}

// Build runs the tool once, synchronously and without a timeout, for the
// given project, and returns the two artifact paths it produced.  The
// project source tree must already exist at projectDir.
func (b Builder) Build(ctx context.Context, p matrix.Project, projectDir string) (Result, error) {
	outDir, err := filepath.Abs(b.outDir())
	if err != nil {
		return Result{}, err
	}
	if err := os.MkdirAll(outDir, 0o777); err != nil {
		return Result{}, err
	}

	tool := b.tool()
	args := append(append([]string(nil), tool[1:]...),
		"--directory="+projectDir,
		"--out-dir="+outDir)
	cmd := dexec.CommandContext(ctx, tool[0], args...)
	cmd.DisableLogging = b.Silent
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Env = append(os.Environ(), reproducible.Env()...)

	if err := cmd.Run(); err != nil {
		return Result{}, &ToolError{
			Msg:   fmt.Sprintf("%s: %s: %v", p, strings.Join(append(tool, args...), " "), err),
			Notes: stderrLines(stderr.String()),
		}
	}

	// Discover what the tool says it built.
	var paths []string
	for _, match := range successMarker.FindAllStringSubmatch(stderr.String(), -1) {
		paths = append(paths, match[1])
	}
	if len(paths) == 0 {
		return Result{}, &ToolError{
			Msg:   fmt.Sprintf("%s: build tool exited 0 but reported no built files", p),
			Notes: stderrLines(stderr.String()),
		}
	}
	if len(paths) != 2 {
		return Result{}, &ToolError{
			Msg: fmt.Sprintf("%s: expected exactly 2 built artifacts (sdist+wheel), tool reported %d: %q",
				p, len(paths), paths),
			Notes: stderrLines(stderr.String()),
		}
	}
	for _, path := range paths {
		fi, err := os.Stat(path)
		if err != nil || !fi.Mode().IsRegular() {
			return Result{}, &IntegrityError{Reported: path}
		}
	}

	// Classify by extension, not by the order the markers appeared in.
	wheelPath, sdistPath := paths[0], paths[1]
	if filepath.Ext(wheelPath) != ".whl" {
		wheelPath, sdistPath = sdistPath, wheelPath
	}
	if filepath.Ext(wheelPath) != ".whl" || filepath.Ext(sdistPath) == ".whl" {
		return Result{}, &ToolError{
			Msg: fmt.Sprintf("%s: built artifacts are not one sdist and one wheel: %q", p, paths),
		}
	}

	expectedSdist, expectedWheel := p.ArtifactPaths(outDir)
	if wheelPath != expectedWheel {
		return Result{}, &ToolError{
			Msg: fmt.Sprintf("%s: wheel path mismatch: expected %q, tool built %q",
				p, expectedWheel, wheelPath),
		}
	}
	if sdistPath != expectedSdist {
		return Result{}, &ToolError{
			Msg: fmt.Sprintf("%s: sdist path mismatch: expected %q, tool built %q",
				p, expectedSdist, sdistPath),
		}
	}

	dlog.Infof(ctx, "built %s and %s", filepath.Base(sdistPath), filepath.Base(wheelPath))
	return Result{Sdist: sdistPath, Wheel: wheelPath}, nil
}

func stderrLines(stderr string) []string {
	var lines []string
	for _, line := range strings.Split(strings.TrimRight(stderr, "\n"), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
