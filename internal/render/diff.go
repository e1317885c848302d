package render

import (
	"github.com/pmezard/go-difflib/difflib"
)

// Diff returns a unified diff of two rendered outputs. Identical inputs
// produce an empty string.
func Diff(fromName, toName, from, to string) (string, error) {
	if from == to {
		return "", nil
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(from),
		B:        difflib.SplitLines(to),
		FromFile: fromName,
		ToFile:   toName,
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(diff)
}
