// Package reproducible pins the build date so that back-to-back builds of
// the same version string can be byte-identical.
//
// https://reproducible-builds.org/docs/source-date-epoch/
package reproducible

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

var (
	dateOnce sync.Once
	date     time.Time
)

// Date returns the date of this build: SOURCE_DATE_EPOCH if set, otherwise
// the current time.  The value is latched on first use, so one run sees one
// date even across midnight.
func Date() time.Time {
	dateOnce.Do(func() {
		secs, err := strconv.ParseInt(os.Getenv("SOURCE_DATE_EPOCH"), 10, 64)
		if err == nil {
			date = time.Unix(secs, 0).UTC()
		} else {
			date = time.Now().UTC()
		}
	})
	return date
}

// BuildNumber returns the date-derived build number, YYYYMMDD.  One build
// per calendar day; successive builds on the same day share a version
// string, which is what lets the publish step detect non-determinism.
func BuildNumber() int {
	d := Date()
	return d.Year()*10_000 + int(d.Month())*100 + d.Day()
}

// Env returns environment entries to pass to build subprocesses so that
// they clamp their own timestamps to the same date.
func Env() []string {
	return []string{
		fmt.Sprintf("SOURCE_DATE_EPOCH=%d", Date().Unix()),
		"PYTHONHASHSEED=0",
	}
}
