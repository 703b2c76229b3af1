package version

import (
	"encoding/json"
	"fmt"
)

// Range is a half-open version range [Start, Stop).
//
// As a special case, Start == Stop encodes "Start or anything newer"; it is
// how the terminal "current numpy" row of the build matrix says it has no
// upper bound.
type Range struct {
	Start Version
	Stop  Version
}

func NewRange(start, stop Version) Range {
	return Range{Start: start, Stop: stop}
}

// Unbounded reports whether the range has no upper bound.
func (r Range) Unbounded() bool {
	return r.Start == r.Stop
}

// Contains reports whether v falls in [Start, Stop), comparing stabilized
// versions.
func (r Range) Contains(v Version) bool {
	v = v.Stable()
	if v.Less(r.Start.Stable()) {
		return false
	}
	return r.Unbounded() || v.Less(r.Stop.Stable())
}

func (r Range) String() string {
	if r.Unbounded() {
		return fmt.Sprintf(">=%s", r.Start)
	}
	return fmt.Sprintf(">=%s,<%s", r.Start, r.Stop)
}

func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]Version{r.Start, r.Stop})
}

func (r *Range) UnmarshalJSON(data []byte) error {
	var pair [2]Version
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	r.Start, r.Stop = pair[0], pair[1]
	return nil
}
