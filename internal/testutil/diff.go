package testutil

import (
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// AssertEqualText fails the test with a readable line diff when got differs
// from want.
func AssertEqualText(t *testing.T, want, got string) {
	t.Helper()
	if want == got {
		return
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(want, got, false)
	t.Errorf("text mismatch (want vs got):\n%s", dmp.DiffPrettyText(diffs))
}
