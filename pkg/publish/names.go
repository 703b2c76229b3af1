package publish

import (
	"regexp"
	"strconv"

	"github.com/jorenham/compatbuild/pkg/matrix"
	"github.com/jorenham/compatbuild/pkg/version"
)

// Kind is an artifact kind.
type Kind string

const (
	KindSdist Kind = "sdist"
	KindWheel Kind = "wheel"
)

// ParsedName is a published filename decomposed in to the bracket floor
// and build number that produced it.
type ParsedName struct {
	Bracket version.Version
	Build   int
	Kind    Kind
}

// The two filename grammars of the package family.  Anything that does
// not match one of these exactly is not ours and is ignored.
var (
	wheelNameRE = regexp.MustCompile(
		`^` + matrix.Name + `-(?P<major>[0-9]+)\.(?P<minor>[0-9]+)\.(?P<build>[0-9]+)-py3-none-any\.whl$`)
	sdistNameRE = regexp.MustCompile(
		`^` + matrix.Name + `-(?P<major>[0-9]+)\.(?P<minor>[0-9]+)\.(?P<build>[0-9]+)\.tar\.gz$`)
)

// ParseFilename parses filename against the two grammars.  ok is false
// when the filename belongs to neither; that is an expected outcome, not
// an error.
func ParseFilename(filename string) (parsed ParsedName, ok bool) {
	for kind, re := range map[Kind]*regexp.Regexp{
		KindWheel: wheelNameRE,
		KindSdist: sdistNameRE,
	} {
		match := re.FindStringSubmatch(filename)
		if match == nil {
			continue
		}
		major, _ := strconv.Atoi(match[re.SubexpIndex("major")])
		minor, _ := strconv.Atoi(match[re.SubexpIndex("minor")])
		build, _ := strconv.Atoi(match[re.SubexpIndex("build")])
		return ParsedName{
			Bracket: version.New(major, minor),
			Build:   build,
			Kind:    kind,
		}, true
	}
	return ParsedName{}, false
}
