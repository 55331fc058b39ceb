package resolver

// UserRequestKind is one of the five strict request forms spec.md §4.5.3
// exposes to callers: install/remove a specific package outright, or
// demand/forbid that some relation expression end up satisfied, or
// upgrade a package by sticking it at its best candidate version.
type UserRequestKind uint8

const (
	RequestInstall UserRequestKind = iota
	RequestRemove
	RequestSatisfy
	RequestUnsatisfy
	RequestUpgrade
)

// UserRequest is one strict request to seed into the initial solution
// before the search starts. PackageName is used by Install/Remove/Upgrade;
// Relation is used by Satisfy/Unsatisfy.
type UserRequest struct {
	Kind        UserRequestKind
	PackageName string
	Relation    RelationExpression
}

// dummyRequestPackageName is the single synthetic package spec.md §4.5.3
// interns to carry every bare relation-expression request (Satisfy and
// Unsatisfy don't name a package, so they need somewhere to live): its one
// version aggregates every Satisfy expression of the batch into Depends and
// every Unsatisfy expression into Breaks, which turns the whole batch of
// bare-expression requests into a single, regular dependency problem the
// engine's broken-pair search already knows how to handle.
const dummyRequestPackageName = "cupt-dummy-request"

// ApplyUserRequests seeds requests into the initial solution as sticked
// package entries. Install/Remove/Upgrade stick the named package directly;
// Satisfy/Unsatisfy instead accumulate into the one dummy request package,
// interned into the universe and graph once all of them have been
// collected, and that dummy package is itself sticked into the initial
// solution.
func ApplyUserRequests(ss *SolutionStorage, s *Solution, u *Universe, g *Graph, requests []UserRequest) error {
	var satisfy, unsatisfy []RelationExpression

	for _, req := range requests {
		switch req.Kind {
		case RequestInstall:
			versions := u.GetVersions(req.PackageName)
			if len(versions) == 0 {
				return &NoCandidateError{Expression: RelationExpression{Alternatives: []Relation{{PackageName: req.PackageName}}}}
			}
			ve := g.VersionElementFor(versions[0])
			stickPackage(ss, s, req.PackageName, ve)

		case RequestRemove:
			ve := g.EmptyElement(req.PackageName)
			stickPackage(ss, s, req.PackageName, ve)

		case RequestUpgrade:
			versions := u.GetVersions(req.PackageName)
			if len(versions) == 0 {
				return &NoCandidateError{Expression: RelationExpression{Alternatives: []Relation{{PackageName: req.PackageName}}}}
			}
			ve := g.VersionElementFor(versions[0])
			pe, has := ss.GetPackageEntry(s, req.PackageName)
			if has {
				clone := pe.clone()
				clone.Element = ve
				clone.Sticked = true
				clone.IntroducedBy = IntroducedBy{}
				ss.SetPackageEntry(s, req.PackageName, clone)
			} else {
				stickPackage(ss, s, req.PackageName, ve)
			}

		case RequestSatisfy:
			satisfy = append(satisfy, req.Relation)

		case RequestUnsatisfy:
			unsatisfy = append(unsatisfy, req.Relation)

		default:
			return &ConfigError{Option: "user-request", Reason: "unknown request kind"}
		}
	}

	if len(satisfy) > 0 || len(unsatisfy) > 0 {
		dummy := buildDummyRequestVersion(dummyRequestPackageName, satisfy, unsatisfy)
		u.Add(dummy)
		u.MarkInstalled(dummy)
		ve := g.VersionElementFor(dummy)
		stickPackage(ss, s, dummyRequestPackageName, ve)
	}

	return nil
}

// buildDummyRequestVersion creates the synthetic, never-provided-by-anything
// package version that carries every Satisfy expression as a Depends
// clause and every Unsatisfy expression as a Breaks clause.
func buildDummyRequestVersion(name string, satisfy, unsatisfy []RelationExpression) *Version {
	b := NewVersionBuilder(name, "all", "1")
	for _, expr := range satisfy {
		b.Relation(Depends, expr.Alternatives...)
	}
	for _, expr := range unsatisfy {
		b.Relation(Breaks, expr.Alternatives...)
	}
	return b.Build()
}

func stickPackage(ss *SolutionStorage, s *Solution, packageName string, ve *VersionElement) {
	pe, has := ss.GetPackageEntry(s, packageName)
	var newPE *PackageEntry
	if has {
		newPE = pe.clone()
	} else {
		newPE = &PackageEntry{}
	}
	newPE.Element = ve
	newPE.Sticked = true
	newPE.Autoremoved = false
	newPE.IntroducedBy = IntroducedBy{}
	ss.SetPackageEntry(s, packageName, newPE)
}
