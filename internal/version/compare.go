package version

import (
	"strconv"
	"strings"
)

// Result is the outcome of comparing two version strings.
type Result int

const (
	Less Result = iota - 1
	Equal
	Greater
)

// Compare compares two dot-delimited version strings component by component.
// The shorter version is padded with zero components, and any component that
// does not parse as an integer counts as 0. It never fails: garbage input
// simply compares as a run of zeros.
func Compare(a, b string) Result {
	aParts := strings.Split(a, ".")
	bParts := strings.Split(b, ".")

	n := len(aParts)
	if len(bParts) > n {
		n = len(bParts)
	}

	for i := 0; i < n; i++ {
		av := componentValue(aParts, i)
		bv := componentValue(bParts, i)

		if av < bv {
			return Less
		}
		if av > bv {
			return Greater
		}
	}

	return Equal
}

// componentValue returns the numeric value of component i, or 0 when the
// component is missing or not numeric.
func componentValue(parts []string, i int) int {
	if i >= len(parts) {
		return 0
	}

	v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
	if err != nil {
		return 0
	}
	return v
}

// HasUpdate reports whether latest is strictly newer than installed. Callers
// only evaluate this for mods that are actually installed.
func HasUpdate(installed, latest string) bool {
	if installed == "" || latest == "" {
		return false
	}
	return Compare(installed, latest) == Less
}
