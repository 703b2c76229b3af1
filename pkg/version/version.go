// Package version implements the two-segment version scheme used by the
// numpy_typing_compat package family.
//
// This is deliberately not full PEP 440: a version is a `major.minor` pair
// with an optional pre-release tag.  The tag shows up in display strings and
// manifests, but never participates in ordering.
package version

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
)

type Version struct {
	Major int
	Minor int

	// Pre is a pre-release tag ("rc1", "b2", ...).  It is display-only;
	// comparison operates on (Major, Minor) alone.
	Pre string
}

func New(major, minor int) Version {
	return Version{Major: major, Minor: minor}
}

// String returns the canonical "{major}.{minor}{pre}" form used in package
// names and manifests.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d%s", v.Major, v.Minor, v.Pre)
}

// Stable returns the same version with the pre-release tag stripped.
func (v Version) Stable() Version {
	v.Pre = ""
	return v
}

// Cmp compares on (Major, Minor) only; pre-release tags are ignored.
func (v Version) Cmp(other Version) int {
	switch {
	case v.Major != other.Major:
		if v.Major < other.Major {
			return -1
		}
		return 1
	case v.Minor != other.Minor:
		if v.Minor < other.Minor {
			return -1
		}
		return 1
	default:
		return 0
	}
}

func (v Version) Less(other Version) bool { return v.Cmp(other) < 0 }

func (v Version) GE(other Version) bool { return v.Cmp(other) >= 0 }

var versionRE = regexp.MustCompile(`^([0-9]+)\.([0-9]+)([a-z][a-z0-9]*)?$`)

// Parse parses the canonical "{major}.{minor}{pre}" form.
func Parse(str string) (Version, error) {
	match := versionRE.FindStringSubmatch(str)
	if match == nil {
		return Version{}, fmt.Errorf("version: invalid version string: %q", str)
	}
	major, err := strconv.Atoi(match[1])
	if err != nil {
		return Version{}, fmt.Errorf("version: %q: %w", str, err)
	}
	minor, err := strconv.Atoi(match[2])
	if err != nil {
		return Version{}, fmt.Errorf("version: %q: %w", str, err)
	}
	return Version{Major: major, Minor: minor, Pre: match[3]}, nil
}

// MarshalJSON/UnmarshalJSON round-trip the canonical string form, so that
// versions in YAML matrix files read as "1.22" rather than a mapping.
// (sigs.k8s.io/yaml funnels YAML through JSON.)

func (v Version) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

func (v *Version) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := Parse(str)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
