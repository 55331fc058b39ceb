package resolver

import "fmt"

// Element is any node in the dependency graph: a version, a relation, or
// the empty sentinel element representing "package not installed". Element
// values have stable identity within a single resolve — the graph builder
// interns them, so two calls that describe the same (package, version) or
// (package, relation) pair return the identical *VersionElement /
// *RelationElement pointer, which lets the solution store key off pointer
// identity instead of a string comparison.
type Element interface {
	// ID is a stable, comparable string uniquely identifying this element
	// within one resolve. It is used as the map key inside the solution
	// store; nothing about its format is meaningful outside this package.
	ID() string
	String() string
}

// VersionElement represents either a concrete installable Version, or the
// special "not installed" state for a package (Version == nil).
type VersionElement struct {
	PackageName string
	Version     *Version // nil means "package not installed"
}

func (e *VersionElement) ID() string {
	if e.Version == nil {
		return "v:" + e.PackageName + ":<none>"
	}
	return "v:" + e.PackageName + ":" + e.Version.VersionStr
}

func (e *VersionElement) String() string {
	if e.Version == nil {
		return fmt.Sprintf("%s: not installed", e.PackageName)
	}
	return fmt.Sprintf("%s %s", e.PackageName, e.Version.VersionStr)
}

func (e *VersionElement) isEmpty() bool { return e.Version == nil }

// RelationElement represents a single RelationExpression attached to a
// particular version, for a particular RelationKind. Satisfying it means
// some version (or an Anti-relation's absence of a version) is present in
// the solution.
type RelationElement struct {
	Owner      *Version
	Kind       RelationKind
	Expression RelationExpression
	// Unsatisfied classifies how serious leaving this element broken is;
	// UnsatisfiedNone means the solution is invalid while it's broken.
	Unsatisfied UnsatisfiedPriority
}

func (e *RelationElement) ID() string {
	return fmt.Sprintf("r:%s:%s:%d:%s", e.Owner.PackageName, e.Owner.VersionStr, e.Kind, e.Expression.String())
}

func (e *RelationElement) String() string {
	return fmt.Sprintf("%s %s: %s", e.Owner.String(), e.Kind, e.Expression.String())
}

// getPriority mirrors the native resolver's per-vertex priority used for
// broken-pair tie-breaking: Conflicts/Breaks outrank PreDepends, which
// outranks Depends, Recommends, Suggests, in that order.
func (e *RelationElement) getPriority() int {
	return e.Kind.typePriority()
}

// SyncElement represents a synchronize-source-versions constraint between
// two binary packages that share a source package and source version.
type SyncElement struct {
	PackageName string
	SourceName  string
	SourceVer   string
	Hard        bool
}

func (e *SyncElement) ID() string {
	return fmt.Sprintf("s:%s:%s:%s", e.PackageName, e.SourceName, e.SourceVer)
}

func (e *SyncElement) String() string {
	return fmt.Sprintf("%s synchronized with source %s %s", e.PackageName, e.SourceName, e.SourceVer)
}

func (e *SyncElement) getPriority() int {
	if e.Hard {
		return 5
	}
	return 2
}
