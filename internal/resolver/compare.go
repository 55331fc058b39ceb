package resolver

import "strings"

// compareVersionStrings implements dpkg's version comparison algorithm:
// split into epoch, upstream version, and Debian revision, then compare
// each component the way dpkg does, where digit runs compare numerically
// and everything else compares by a modified ASCII order that sorts "~"
// below everything, including the empty string.
//
// This is hand-rolled against the published dpkg test corpus rather than
// routed through a semver library: Debian version strings are not semver
// (arbitrary alphanumeric components, a "~" pre-release marker, optional
// epoch) and a semver comparator would silently misorder them.
func compareVersionStrings(a, b string) int {
	aEpoch, aRest := splitEpoch(a)
	bEpoch, bRest := splitEpoch(b)
	if c := compareEpoch(aEpoch, bEpoch); c != 0 {
		return c
	}

	aUpstream, aRevision := splitRevision(aRest)
	bUpstream, bRevision := splitRevision(bRest)

	if c := compareComponent(aUpstream, bUpstream); c != 0 {
		return c
	}
	return compareComponent(aRevision, bRevision)
}

func splitEpoch(v string) (epoch, rest string) {
	if i := strings.IndexByte(v, ':'); i >= 0 {
		return v[:i], v[i+1:]
	}
	return "", v
}

func compareEpoch(a, b string) int {
	if a == "" {
		a = "0"
	}
	if b == "" {
		b = "0"
	}
	return compareNumeric(a, b)
}

func splitRevision(v string) (upstream, revision string) {
	if i := strings.LastIndexByte(v, '-'); i >= 0 {
		return v[:i], v[i+1:]
	}
	return v, ""
}

func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// order gives the dpkg ordering of a single character within the
// non-digit runs: "~" sorts lowest (even below nothing), then letters sort
// before everything else, then all other characters by ASCII order. This
// mirrors dpkg's `order()` helper exactly.
func order(c byte) int {
	switch {
	case c == '~':
		return -1
	case c == 0:
		return 0
	case isDigit(c):
		return 0
	case isAlpha(c):
		return int(c)
	default:
		return int(c) + 256
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

// compareComponent compares upstream-version-like strings: alternating
// non-digit and digit runs, non-digit runs compared character-by-character
// via order(), digit runs compared numerically.
func compareComponent(a, b string) int {
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		// compare non-digit runs
		for i < len(a) && !isDigit(a[i]) || j < len(b) && !isDigit(b[j]) {
			var ca, cb int
			if i < len(a) && !isDigit(a[i]) {
				ca = order(a[i])
			} else {
				ca = order(0)
			}
			if j < len(b) && !isDigit(b[j]) {
				cb = order(b[j])
			} else {
				cb = order(0)
			}
			if ca != cb {
				return sign(ca - cb)
			}
			if i < len(a) && !isDigit(a[i]) {
				i++
			}
			if j < len(b) && !isDigit(b[j]) {
				j++
			}
		}

		// compare digit runs numerically
		startA := i
		for i < len(a) && isDigit(a[i]) {
			i++
		}
		startB := j
		for j < len(b) && isDigit(b[j]) {
			j++
		}
		if c := compareNumeric(a[startA:i], b[startB:j]); c != 0 {
			return c
		}
	}
	return 0
}

func sign(x int) int {
	switch {
	case x < 0:
		return -1
	case x > 0:
		return 1
	default:
		return 0
	}
}
