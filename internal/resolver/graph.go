package resolver

// Graph lazily builds and interns the dependency graph elements derived
// from a Universe: version elements (one per known version of a package,
// plus one empty sentinel per package), and relation elements (one per
// RelationExpression instance attached to an installed-candidate version).
// Edges are never materialized eagerly as an adjacency list; instead
// Successors/Predecessors/Conflicting compute them on demand from the
// Universe and the SyncMode configuration, matching the native resolver's
// "dependency graph is a view, not a stored structure" design.
type Graph struct {
	universe *Universe
	sync     SyncMode

	// keepRecommends/keepSuggests mirror cupt::resolver::keep-{recommends,
	// suggests}: whether those two soft relation kinds get unfolded into
	// the graph at all. PreDepends/Depends/Conflicts/Breaks are always on.
	keepRecommends bool
	keepSuggests   bool

	versionElements  map[string]*VersionElement
	emptyElements    map[string]*VersionElement
	relationElements map[string]*RelationElement
	syncElements     map[string]*SyncElement

	// dependents maps a package name to the set of packages whose versions
	// carry a relation expression that could be satisfied by some version
	// of that package name, built lazily the first time it's queried for a
	// package — mirrors SolutionStorage::__add_package_dependencies's
	// on-demand indexing instead of indexing the whole universe upfront.
	dependents map[string]map[string]bool

	// predecessors maps a VersionElement's ID to every RelationElement
	// whose expression it matches (for an anti-relation, the versions it
	// forbids), built incrementally as RelationElements are interned.
	predecessors map[string][]*RelationElement
}

// NewGraph builds a graph with both soft relation kinds (Recommends,
// Suggests) enabled, the native resolver's own default for
// keep-recommends; most callers that don't care about the distinction
// (tests exercising unrelated behavior, internal fixtures) want this.
// A caller that needs to honor a parsed keep-recommends/keep-suggests
// configuration should use NewGraphWithPolicy instead.
func NewGraph(u *Universe, sync SyncMode) *Graph {
	return NewGraphWithPolicy(u, sync, true, true)
}

func NewGraphWithPolicy(u *Universe, sync SyncMode, keepRecommends, keepSuggests bool) *Graph {
	return &Graph{
		universe:         u,
		sync:             sync,
		keepRecommends:   keepRecommends,
		keepSuggests:     keepSuggests,
		versionElements:  make(map[string]*VersionElement),
		emptyElements:    make(map[string]*VersionElement),
		relationElements: make(map[string]*RelationElement),
		syncElements:     make(map[string]*SyncElement),
		dependents:       make(map[string]map[string]bool),
		predecessors:     make(map[string][]*RelationElement),
	}
}

// ConstraintKinds returns every RelationKind this graph actually unfolds
// into relation elements: the always-on positive/anti kinds, plus
// Recommends/Suggests if this graph's keep-recommends/keep-suggests policy
// enables them.
func (g *Graph) ConstraintKinds() []RelationKind {
	kinds := append([]RelationKind{}, alwaysConstrainingKinds()...)
	if g.keepRecommends {
		kinds = append(kinds, Recommends)
	}
	if g.keepSuggests {
		kinds = append(kinds, Suggests)
	}
	return kinds
}

// VersionElementFor interns and returns the VersionElement for v.
func (g *Graph) VersionElementFor(v *Version) *VersionElement {
	key := "v:" + v.PackageName + ":" + v.VersionStr
	if e, ok := g.versionElements[key]; ok {
		return e
	}
	e := &VersionElement{PackageName: v.PackageName, Version: v}
	g.versionElements[key] = e
	return e
}

// EmptyElement interns and returns the "not installed" sentinel element for
// packageName.
func (g *Graph) EmptyElement(packageName string) *VersionElement {
	if e, ok := g.emptyElements[packageName]; ok {
		return e
	}
	e := &VersionElement{PackageName: packageName, Version: nil}
	g.emptyElements[packageName] = e
	return e
}

// RelationElementFor interns and returns the RelationElement for the given
// (owner, kind, index-within-kind) triple.
func (g *Graph) RelationElementFor(owner *Version, kind RelationKind, idx int) *RelationElement {
	line := owner.RelationLine(kind)
	if idx >= len(line) {
		panic("resolver: internal invariant violation: relation index out of range")
	}
	expr := line[idx]
	key := owner.PackageName + ":" + owner.VersionStr + ":" + kind.String() + ":" + expr.String()
	if e, ok := g.relationElements[key]; ok {
		return e
	}
	e := &RelationElement{
		Owner:       owner,
		Kind:        kind,
		Expression:  expr,
		Unsatisfied: unsatisfiedPriorityFor(kind),
	}
	g.relationElements[key] = e

	for _, v := range g.universe.GetSatisfyingVersions(expr) {
		ve := g.VersionElementFor(v)
		g.predecessors[ve.ID()] = append(g.predecessors[ve.ID()], e)
	}
	return e
}

// Predecessors returns every interned RelationElement whose expression ve
// matches: a positive relation ve satisfies, or an anti-relation that
// forbids ve.
func (g *Graph) Predecessors(ve *VersionElement) []*RelationElement {
	return g.predecessors[ve.ID()]
}

func unsatisfiedPriorityFor(kind RelationKind) UnsatisfiedPriority {
	switch kind {
	case Recommends:
		return UnsatisfiedRecommends
	case Suggests:
		return UnsatisfiedSuggests
	default:
		return UnsatisfiedNone
	}
}

// SyncElementFor interns and returns the synchronize element for a version
// that participates in source-level synchronization, or nil if sync mode
// is off or the version carries no source information.
func (g *Graph) SyncElementFor(v *Version) *SyncElement {
	if g.sync == SyncNone || v.SourceName == "" {
		return nil
	}
	key := v.PackageName + ":" + v.SourceName + ":" + v.SourceVer
	if e, ok := g.syncElements[key]; ok {
		return e
	}
	e := &SyncElement{
		PackageName: v.PackageName,
		SourceName:  v.SourceName,
		SourceVer:   v.SourceVer,
		Hard:        g.sync == SyncHard,
	}
	g.syncElements[key] = e
	return e
}

// RelationElementsFor returns every RelationElement attached to v for the
// given kind.
func (g *Graph) RelationElementsFor(v *Version, kind RelationKind) []*RelationElement {
	line := v.RelationLine(kind)
	out := make([]*RelationElement, len(line))
	for i := range line {
		out[i] = g.RelationElementFor(v, kind, i)
	}
	return out
}

// Successors returns the version elements whose presence in a solution
// satisfies e, per spec.md §4.2: for a positive relation, the versions that
// match it; for an anti-relation (Conflicts/Breaks), the versions of each
// named conflicting package that do *not* match it, plus that package's
// empty ("not installed") sentinel — i.e. the safe states, not the
// forbidden ones.
func (g *Graph) Successors(e *RelationElement) []Element {
	if e.Kind.IsAnti() {
		return g.antiSuccessors(e.Expression)
	}
	versions := g.universe.GetSatisfyingVersions(e.Expression)
	out := make([]Element, 0, len(versions))
	for _, v := range versions {
		out = append(out, g.VersionElementFor(v))
	}
	return out
}

// antiSuccessors computes the non-conflicting version elements for an
// anti-relation expression: for every package name named by one of its
// alternatives, every version of that package that does not itself satisfy
// the alternative, plus the package's empty sentinel.
func (g *Graph) antiSuccessors(expr RelationExpression) []Element {
	seen := make(map[string]bool)
	var out []Element
	for _, alt := range expr.Alternatives {
		if seen[alt.PackageName] {
			continue
		}
		seen[alt.PackageName] = true
		out = append(out, g.EmptyElement(alt.PackageName))
		for _, v := range g.universe.GetVersions(alt.PackageName) {
			if matchesRelation(v, alt) {
				continue
			}
			out = append(out, g.VersionElementFor(v))
		}
	}
	return out
}

// matchesRelation reports whether v itself satisfies the single relation
// alt (ignoring provides, which never satisfy a Conflicts/Breaks target:
// those only ever name a real package).
func matchesRelation(v *Version, alt Relation) bool {
	if v.PackageName != alt.PackageName {
		return false
	}
	return alt.Op == OpNone || alt.Op.satisfiesOrder(compareVersionStrings(v.VersionStr, alt.Version))
}

// SiblingVersions returns every other known VersionElement (including the
// empty sentinel) for the same package as ve, used to detect conflicts
// within a single package (only one version of a package may be installed
// at once).
func (g *Graph) SiblingVersions(ve *VersionElement) []*VersionElement {
	var out []*VersionElement
	out = append(out, g.EmptyElement(ve.PackageName))
	for _, v := range g.universe.GetVersions(ve.PackageName) {
		out = append(out, g.VersionElementFor(v))
	}
	return out
}

// addDependents registers that packageName's versions are now reachable in
// the solution and indexes which other packages' relation expressions could
// be satisfied by it, mirroring the native resolver's lazy
// __add_package_dependencies/addVersionDependencies.
func (g *Graph) addDependents(packageName string) {
	if _, done := g.dependents[packageName]; done {
		return
	}
	g.dependents[packageName] = make(map[string]bool)

	for _, candidateName := range g.universe.PackageNames() {
		for _, v := range g.universe.GetVersions(candidateName) {
			for _, kind := range g.ConstraintKinds() {
				for _, expr := range v.RelationLine(kind) {
					for _, alt := range expr.Alternatives {
						if alt.PackageName == packageName && candidateName != packageName {
							g.dependents[packageName][candidateName] = true
						}
					}
				}
			}
		}
	}
}

// Dependents returns the set of package names whose versions carry a
// relation expression that packageName's versions could satisfy.
func (g *Graph) Dependents(packageName string) []string {
	g.addDependents(packageName)
	out := make([]string, 0, len(g.dependents[packageName]))
	for name := range g.dependents[packageName] {
		out = append(out, name)
	}
	return out
}
