package resolver

// SolutionStorage owns the dependency graph and mints Solution nodes for
// the search engine: the initial solution built from the installed system,
// and every subsequent clone produced while exploring candidate fixes.
type SolutionStorage struct {
	graph      *Graph
	nextID     int
}

func NewSolutionStorage(graph *Graph) *SolutionStorage {
	return &SolutionStorage{graph: graph}
}

// NewInitialSolution builds solution #0 from the universe's installed
// versions. Installed packages seed the search as ordinary, non-sticked
// entries — the search is free to replace or remove them to fix a broken
// successor, biased only by the Score Manager's removal, upgrade and
// downgrade terms (the score model has no separate bonus for keeping the
// installed version) — except a package whose dpkg "want" is WantHold, which is
// implicitly sticked per SPEC_FULL.md §13 ("Held packages"), mirroring the
// strict user requests of §4.5.3 without the caller having to name it.
func (ss *SolutionStorage) NewInitialSolution(u *Universe) *Solution {
	s := &Solution{
		ID:                  ss.nextID,
		added:               newPackageEntryMap(),
		rejectedConflictors: make(map[string]map[string]bool),
	}
	ss.nextID++

	for _, name := range u.PackageNames() {
		v := u.GetInstalledVersion(name)
		var ve *VersionElement
		if v != nil {
			ve = ss.graph.VersionElementFor(v)
		} else {
			ve = ss.graph.EmptyElement(name)
		}
		s.added.entries[name] = &PackageEntry{
			Element: ve,
			Sticked: u.GetWant(name) == WantHold,
		}
		s.InsertedElements = append(s.InsertedElements, ve)
	}
	return s
}

// CloneSolution forks a new Solution from parent. The clone shares parent's
// score/level as a starting point for the caller to adjust and must be
// Prepare()'d before any entry lookup or mutation.
func (ss *SolutionStorage) CloneSolution(parent *Solution) *Solution {
	child := &Solution{
		ID:     ss.nextID,
		Level:  parent.Level,
		Score:  parent.Score,
		parent: parent,
	}
	ss.nextID++
	return child
}

// GetPackageEntry returns the current entry for packageName in s, or false
// if the package has never been touched in this branch of the search
// (which only happens for a package the graph has not indexed yet — every
// installed package always has an entry from NewInitialSolution onward).
func (ss *SolutionStorage) GetPackageEntry(s *Solution, packageName string) (*PackageEntry, bool) {
	return s.getPackageEntry(packageName)
}

// SetPackageEntry installs pe as packageName's entry in s and records the
// introduction in s's insertion history. It also lazily indexes
// packageName's dependents in the graph, since a package that was not
// previously part of the solution may now introduce relation elements that
// other already-resolved packages could have satisfied.
func (ss *SolutionStorage) SetPackageEntry(s *Solution, packageName string, pe *PackageEntry) {
	ss.graph.addDependents(packageName)
	s.setPackageEntry(packageName, pe)
	if pe.Element != nil {
		s.InsertedElements = append(s.InsertedElements, pe.Element)
	}
}

// GetElements returns the current VersionElement choice for every package
// the solution has an opinion about.
func (ss *SolutionStorage) GetElements(s *Solution) []*VersionElement {
	names := s.packageNames()
	out := make([]*VersionElement, 0, len(names))
	for _, name := range names {
		pe, _ := s.getPackageEntry(name)
		out = append(out, pe.Element)
	}
	return out
}

// GetBrokenPairs returns every (packageEntry, brokenElement) pair currently
// left unsatisfied in s, grouped by package in no fixed package order and,
// within a package, in the order its broken successors were recorded. The
// engine's getBrokenPair compares every pair on its own criteria.
func (ss *SolutionStorage) GetBrokenPairs(s *Solution) []BrokenPair {
	var out []BrokenPair
	for _, name := range s.packageNames() {
		pe, _ := s.getPackageEntry(name)
		for _, bs := range pe.BrokenSuccessors {
			out = append(out, BrokenPair{PackageName: name, Entry: pe, Broken: bs.Element})
		}
	}
	return out
}

// BrokenPair names a package whose current choice leaves one of its
// successors (a RelationElement or SyncElement) unsatisfied.
type BrokenPair struct {
	PackageName string
	Entry       *PackageEntry
	Broken      Element
}

// VerifyElement reports whether e (a RelationElement or SyncElement) is
// currently satisfied in s: for a positive relation, at least one of its
// successor version elements must be selected; for an anti-relation
// (Conflicts/Breaks), whose successors are the non-conflicting elements,
// likewise one of them must be selected.
func (ss *SolutionStorage) VerifyElement(s *Solution, e Element) bool {
	switch el := e.(type) {
	case *RelationElement:
		// Successors is already polarity-aware (graph.go): for a positive
		// relation it's the matching versions, for an anti-relation it's the
		// non-conflicting ones. Either way, satisfaction is "one of them is
		// currently selected."
		for _, succ := range ss.graph.Successors(el) {
			if ss.elementSelected(s, succ.(*VersionElement)) {
				return true
			}
		}
		return false
	case *SyncElement:
		installed, ok := ss.GetPackageEntry(s, el.PackageName)
		if !ok || installed.Element == nil || installed.Element.Version == nil {
			return !el.Hard
		}
		return installed.Element.Version.SourceName == el.SourceName &&
			installed.Element.Version.SourceVer == el.SourceVer
	default:
		return true
	}
}

// elementSelected reports whether ve is the version currently chosen for
// its package in s.
func (ss *SolutionStorage) elementSelected(s *Solution, ve *VersionElement) bool {
	pe, ok := ss.GetPackageEntry(s, ve.PackageName)
	if !ok {
		return ve.Version == nil // an untouched package is implicitly "not installed"
	}
	return pe.Element == ve
}

// SimulateSetPackageEntry reports whether ve could be installed into its
// package's slot while trying to fix brokenElementID: the slot's current
// occupant (the "displacee", nil if the package has never been touched) is
// returned either way, and ok is false either when that occupant is sticked
// to something other than ve (not modifiable) or when ve has already been
// tried and abandoned for this broken element on this branch
// (rejectedConflictors, §3/§4.4). Callers use the displacee as the action's
// OldElement regardless of whether it's the same as ve, so score
// calculation sees the real prior state rather than treating every fix as
// a fresh install.
func (ss *SolutionStorage) SimulateSetPackageEntry(s *Solution, brokenElementID string, ve *VersionElement) (ok bool, displacee Element) {
	existing, has := ss.GetPackageEntry(s, ve.PackageName)
	if s.isRejected(brokenElementID, ve.ID()) {
		if has {
			return false, existing.Element
		}
		return false, nil
	}
	if !has {
		return true, nil
	}
	if existing.Element == ve {
		return true, existing.Element
	}
	if existing.Sticked {
		return false, existing.Element
	}
	return true, existing.Element
}
