package testutil

import (
	"bytes"
	"testing"
	"unicode/utf8"

	"github.com/davecgh/go-spew/spew"
	"github.com/pmezard/go-difflib/difflib"
)

//nolint:gochecknoglobals // Would be 'const'.
var spewConfig = spew.ConfigState{
	Indent:                  "  ",
	DisableMethods:          true,
	DisableCapacities:       true,
	DisablePointerAddresses: true,
	SortKeys:                true,
}

// AssertEqualContent compares two file contents and, on mismatch, fails the
// test with a unified diff.  Non-text content is diffed as a spew dump.
func AssertEqualContent(t *testing.T, what string, exp, act []byte) bool {
	t.Helper()
	if bytes.Equal(exp, act) {
		return true
	}
	expStr, actStr := string(exp), string(act)
	if !utf8.ValidString(expStr) || !utf8.ValidString(actStr) {
		expStr = spewConfig.Sdump(exp)
		actStr = spewConfig.Sdump(act)
	}
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expStr),
		B:        difflib.SplitLines(actStr),
		FromFile: "Expected",
		ToFile:   "Actual",
		Context:  2,
	})
	t.Errorf("%s diff:\n%s", what, diff)
	return false
}
