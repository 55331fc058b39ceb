package resolver

import (
	"sort"

	radix "github.com/armon/go-radix"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Universe is the package universe: every known version of every known
// package, indexed for the two queries the rest of the engine actually
// issues — "give me package X" and "give me every version that satisfies
// this relation expression" — plus the set of versions currently installed.
//
// A Universe is built once per resolve and treated as read-only afterward,
// with one exception under internal/resolver: ApplyUserRequests adds the
// synthetic request package and marks it installed.
type Universe struct {
	byName     *radix.Tree // package name -> []*Version, sorted best-first
	installed  map[string]*Version
	pins       map[pinKey]int // (package, version) -> pin score delta, from prefs
	providedBy map[string][]*Version
	wants      map[string]Want // package name -> dpkg "want" selection state

	satisfyCache *lru.Cache[string, []*Version]
}

// pinKey identifies the scope a pin score applies to: an exact version, or
// (when versionStr is empty) every version of the package that has no more
// specific pin of its own — the release-level default spec.md's "Pin
// score" combines with per-version rules before user pinning is applied.
type pinKey struct {
	packageName string
	versionStr  string
}

// NewUniverse builds an empty universe. Callers add versions with Add and
// must call Freeze before handing the Universe to a resolve call.
func NewUniverse() *Universe {
	cache, err := lru.New[string, []*Version](4096)
	if err != nil {
		// only returns an error for a non-positive size, which is a
		// programmer error, not a runtime condition.
		panic("resolver: lru.New: " + err.Error())
	}
	return &Universe{
		byName:       radix.New(),
		installed:    make(map[string]*Version),
		pins:         make(map[pinKey]int),
		providedBy:   make(map[string][]*Version),
		wants:        make(map[string]Want),
		satisfyCache: cache,
	}
}

// Add registers a version under its package name. Versions for a package
// may be added in any order; GetVersions returns them pin-sorted.
func (u *Universe) Add(v *Version) {
	existing, _ := u.byName.Get(v.PackageName)
	var list []*Version
	if existing != nil {
		list = existing.([]*Version)
	}
	list = append(list, v)
	u.byName.Insert(v.PackageName, list)
}

// MarkInstalled records v as the currently-installed version of its
// package. At most one version per package may be installed.
func (u *Universe) MarkInstalled(v *Version) {
	u.installed[v.PackageName] = v
}

// SetPin sets the release-level default pin score delta for every version
// of packageName that has no more specific per-version pin of its own.
func (u *Universe) SetPin(packageName string, delta int) {
	u.pins[pinKey{packageName: packageName}] = delta
}

// SetVersionPin sets a pin score delta that applies only to one exact
// version of packageName, overriding SetPin's release-level default for
// that version — the mechanism that lets an apt-preferences "Pin: version
// ..." stanza (internal/prefs's Selector field, resolved per-candidate by
// the caller) actually distinguish between versions of the same package,
// rather than every version sharing one package-wide score.
func (u *Universe) SetVersionPin(packageName, versionStr string, delta int) {
	u.pins[pinKey{packageName: packageName, versionStr: versionStr}] = delta
}

// pinFor returns v's effective pin score: its exact per-version pin if one
// was set, otherwise the package's release-level default, otherwise 0.
func (u *Universe) pinFor(v *Version) int {
	if v == nil {
		return 0
	}
	if score, ok := u.pins[pinKey{packageName: v.PackageName, versionStr: v.VersionStr}]; ok {
		return score
	}
	return u.pins[pinKey{packageName: v.PackageName}]
}

// Freeze sorts every package's version list best-first (pin score
// descending, then version descending as a stable tie-break) so GetVersions
// and candidate generation never need to re-sort. Call once after all
// Add/MarkInstalled calls complete.
func (u *Universe) Freeze() {
	u.byName.Walk(func(name string, v interface{}) bool {
		list := v.([]*Version)
		sort.SliceStable(list, func(i, j int) bool {
			pi, pj := u.pinFor(list[i]), u.pinFor(list[j])
			if pi != pj {
				return pi > pj
			}
			return compareVersionStrings(list[i].VersionStr, list[j].VersionStr) > 0
		})
		u.byName.Insert(name, list)

		for _, ver := range list {
			for _, p := range ver.Provides {
				u.providedBy[p] = append(u.providedBy[p], ver)
			}
		}
		return false
	})
}

// GetVersions returns every known version of packageName, best-first, or
// nil if the package is unknown.
func (u *Universe) GetVersions(packageName string) []*Version {
	v, ok := u.byName.Get(packageName)
	if !ok {
		return nil
	}
	return v.([]*Version)
}

// GetInstalledVersion returns the installed version of packageName, or nil
// if the package is not installed.
func (u *Universe) GetInstalledVersion(packageName string) *Version {
	return u.installed[packageName]
}

// ProvidersOf returns every real package version that Provides the given
// (virtual) name, so callers resolving a relation's target can tell a
// concrete package name from a virtual one and find the real package
// backing it.
func (u *Universe) ProvidersOf(name string) []*Version {
	return u.providedBy[name]
}

// SetWant records the dpkg "want" selection state for packageName. A
// package whose want is WantHold is implicitly sticked into the initial
// solution (spec.md §4.5.3's "strict user requests" translation, extended
// per SPEC_FULL.md §13 "Held packages") unless an explicit user request
// targets it directly.
func (u *Universe) SetWant(packageName string, w Want) {
	u.wants[packageName] = w
}

// GetWant returns the recorded want for packageName, defaulting to
// WantInstall for an installed package with no explicit want recorded and
// WantUnknown for one that isn't installed at all.
func (u *Universe) GetWant(packageName string) Want {
	if w, ok := u.wants[packageName]; ok {
		return w
	}
	if u.installed[packageName] != nil {
		return WantInstall
	}
	return WantUnknown
}

// PackageNames returns every package name known to the universe, in sorted
// order. Used by NewInitialSolution to give every package an entry.
func (u *Universe) PackageNames() []string {
	var names []string
	u.byName.Walk(func(name string, _ interface{}) bool {
		names = append(names, name)
		return false
	})
	sort.Strings(names)
	return names
}

// GetSatisfyingVersions returns every version across the whole universe
// that satisfies re, across every alternative. Results are memoized by the
// expression's string form since the same expression is evaluated
// repeatedly during candidate generation.
func (u *Universe) GetSatisfyingVersions(re RelationExpression) []*Version {
	key := re.String()
	if cached, ok := u.satisfyCache.Get(key); ok {
		return cached
	}

	var out []*Version
	seen := make(map[*Version]bool)
	for _, rel := range re.Alternatives {
		for _, v := range u.getSatisfyingRelation(rel) {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	u.satisfyCache.Add(key, out)
	return out
}

func (u *Universe) getSatisfyingRelation(rel Relation) []*Version {
	var out []*Version
	for _, v := range u.GetVersions(rel.PackageName) {
		if rel.Op == OpNone || rel.Op.satisfiesOrder(compareVersionStrings(v.VersionStr, rel.Version)) {
			out = append(out, v)
		}
	}
	// virtual packages: a versioned relation can never be satisfied by a
	// Provides, since provided names carry no version of their own.
	if rel.Op == OpNone {
		out = append(out, u.providedBy[rel.PackageName]...)
	}
	return out
}
