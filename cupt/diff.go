package cupt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/cvalka4/cupt/internal/resolver"
)

// RenderDiff produces a human-readable, line-oriented diff between the
// universe's installed state and offer, in the same spirit as
// internal/test's string-diff helper: one "name: diff" line per package
// whose version changes (unchanged packages are omitted), where diff is the
// diff-match-patch library's inline rendering of the installed version
// string against the offered one.
func RenderDiff(u *resolver.Universe, offer *Offer) string {
	names := make([]string, 0, len(offer.Entries))
	for name := range offer.Entries {
		names = append(names, name)
	}
	sort.Strings(names)

	dmp := diffmatchpatch.New()
	var b strings.Builder
	for _, name := range names {
		entry := offer.Entries[name]
		before := describeVersion(u.GetInstalledVersion(name))
		after := describeVersion(entry.Version)
		if before == after {
			continue
		}
		diffs := dmp.DiffMain(before, after, false)
		fmt.Fprintf(&b, "%s: %s\n", name, dmp.DiffPrettyText(diffs))
	}
	return b.String()
}

func describeVersion(v *resolver.Version) string {
	if v == nil {
		return "<not installed>"
	}
	return v.VersionStr
}
