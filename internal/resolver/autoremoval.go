package resolver

// AutoRemovalPolicy decides whether a version is even eligible to be
// auto-removed, before the reachability scan ever runs: essential
// packages are never eligible, a package that was already installed
// before the resolve (rather than pulled in during it) is never eligible
// unless cupt::resolver::auto-remove is on and it is marked automatic in
// the automaticallyInstalled map, and apt::neverautoremove globs veto
// specific packages outright.
type AutoRemovalPolicy struct {
	canAutoRemove       bool
	neverAutoRemove     NeverAutoRemoveMatcher
	automaticallyInstalled map[string]bool
}

// NeverAutoRemoveMatcher is satisfied by internal/prefs's glob-based
// matcher; declared here rather than imported so the resolver's decision
// logic depends only on the capability it needs, not on prefs's glob
// compilation machinery.
type NeverAutoRemoveMatcher interface {
	Matches(packageName string) bool
}

func NewAutoRemovalPolicy(canAutoRemove bool, neverAutoRemove NeverAutoRemoveMatcher, automaticallyInstalled map[string]bool) *AutoRemovalPolicy {
	return &AutoRemovalPolicy{
		canAutoRemove:          canAutoRemove,
		neverAutoRemove:        neverAutoRemove,
		automaticallyInstalled: automaticallyInstalled,
	}
}

// IsAllowed reports whether v may be auto-removed given wasInstalledBefore
// (whether the package was installed at the start of the resolve, as
// opposed to only having been pulled in during this resolve).
func (p *AutoRemovalPolicy) IsAllowed(v *Version, wasInstalledBefore bool) bool {
	if v == nil {
		return false
	}
	if v.Essential {
		return false
	}
	canAutoRemoveThisPackage := p.canAutoRemove && p.automaticallyInstalled[v.PackageName]
	if wasInstalledBefore && !canAutoRemoveThisPackage {
		return false
	}
	if p.neverAutoRemove != nil && p.neverAutoRemove.Matches(v.PackageName) {
		return false
	}
	return true
}

// AutoRemovalPass implements spec.md §4.5.2's procedure: starting from
// every package an explicit user request (or a non-eligible, "can't touch
// this" installed package) keeps alive, walk the dependency graph forward
// and mark every other currently-selected package unreachable as
// eligible for removal; then actually remove the ones the policy allows.
//
// It operates directly on a finished Solution via the SolutionStorage, and
// returns the package names it removed (for Offer/AutoRemovalReason
// reporting).
func AutoRemovalPass(ss *SolutionStorage, s *Solution, policy *AutoRemovalPolicy, sticked map[string]bool, wasInstalledBefore map[string]bool) []string {
	roots := map[string]bool{}
	for name := range sticked {
		roots[name] = true
	}
	for _, name := range s.packageNames() {
		pe, ok := ss.GetPackageEntry(s, name)
		if !ok || pe.Element == nil || pe.Element.Version == nil {
			continue
		}
		if !policy.IsAllowed(pe.Element.Version, wasInstalledBefore[name]) {
			roots[name] = true
		}
	}

	reachable := map[string]bool{}
	var stack []string
	for name := range roots {
		if !reachable[name] {
			reachable[name] = true
			stack = append(stack, name)
		}
	}
	for len(stack) > 0 {
		name := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		pe, ok := ss.GetPackageEntry(s, name)
		if !ok || pe.Element == nil || pe.Element.Version == nil {
			continue
		}
		for kind := PreDepends; kind <= Depends; kind++ {
			for _, re := range ss.graph.RelationElementsFor(pe.Element.Version, kind) {
				for _, succ := range ss.graph.Successors(re) {
					ve := succ.(*VersionElement)
					if ve.Version == nil {
						continue
					}
					if !reachable[ve.PackageName] {
						reachable[ve.PackageName] = true
						stack = append(stack, ve.PackageName)
					}
				}
			}
		}
	}

	var removed []string
	for _, name := range s.packageNames() {
		if reachable[name] {
			continue
		}
		pe, ok := ss.GetPackageEntry(s, name)
		if !ok || pe.Element == nil || pe.Element.Version == nil {
			continue
		}
		if !policy.IsAllowed(pe.Element.Version, wasInstalledBefore[name]) {
			continue
		}
		newPE := pe.clone()
		newPE.Element = ss.graph.EmptyElement(name)
		newPE.Autoremoved = true
		newPE.IntroducedBy = IntroducedBy{}
		ss.SetPackageEntry(s, name, newPE)
		removed = append(removed, name)
	}
	return removed
}
