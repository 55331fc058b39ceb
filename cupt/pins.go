package cupt

import (
	"github.com/cvalka4/cupt/internal/prefs"
	"github.com/cvalka4/cupt/internal/resolver"
)

// ApplyPinPreferences resolves pins against every version currently known
// to u and records the result as a per-version pin, so a "Pin: version
// ..." stanza in an apt-preferences-style file can prefer one version of a
// package over a sibling rather than pinning the whole package uniformly.
// Call before Universe.Freeze, since pin score feeds the version-ordering
// Freeze computes.
func ApplyPinPreferences(u *resolver.Universe, pins []prefs.Pin) {
	for _, name := range u.PackageNames() {
		for _, v := range u.GetVersions(name) {
			score := prefs.ResolvePin(pins, name, v.VersionStr)
			if score != 0 {
				u.SetVersionPin(name, v.VersionStr, score)
			}
		}
	}
}
