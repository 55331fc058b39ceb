package resolver

import "fmt"

// Reason explains why a particular version ended up chosen (or rejected)
// in the final solution. Every PackageEntry.IntroducedBy ultimately
// resolves to one of these, surfaced to the caller so an interactive
// frontend can show "X was installed because Y depends on it" style
// explanations.
type Reason interface {
	String() string
}

// UserReason marks a version that was chosen because the caller explicitly
// asked for it via a user request (spec.md §4.5.3).
type UserReason struct {
	Request string
}

func (r *UserReason) String() string {
	return fmt.Sprintf("requested: %s", r.Request)
}

// AutoRemovalReason marks a version removed by the auto-removal procedure
// (spec.md §4.5.2) because nothing in the final solution depends on it
// anymore and it was never explicitly requested.
type AutoRemovalReason struct {
	PackageName string
}

func (r *AutoRemovalReason) String() string {
	return fmt.Sprintf("no longer required: %s", r.PackageName)
}

// RelationExpressionReason marks a version chosen to satisfy a specific
// RelationElement owned by another version.
type RelationExpressionReason struct {
	Element *RelationElement
}

func (r *RelationExpressionReason) String() string {
	return fmt.Sprintf("%s %s: %s", r.Element.Owner, r.Element.Kind, r.Element.Expression)
}

// SynchronizationReason marks a version chosen to keep a package in
// lockstep with the source package/version of another, already-chosen
// binary package.
type SynchronizationReason struct {
	Element *SyncElement
}

func (r *SynchronizationReason) String() string {
	return fmt.Sprintf("synchronized with source %s %s", r.Element.SourceName, r.Element.SourceVer)
}

// SuggestedPackage is one entry of an Offer's suggestion list: a package
// named by a Recommends or Suggests relation that was left unsatisfied but that the
// caller might want to install manually.
type SuggestedPackage struct {
	PackageName string
	Reason      Reason
}

// Offer is the final output of a successful resolve: the chosen version
// (or removal) for every touched package, plus the softer suggestions and
// unresolved soft-relation problems (spec.md §6's suggestedPackages /
// unresolvedProblems) the solution left on the table rather than failing
// outright over.
type Offer struct {
	Entries            map[string]*OfferEntry
	Suggestions        []SuggestedPackage
	UnresolvedProblems []Reason
}

// OfferEntry describes one package's outcome in an Offer.
type OfferEntry struct {
	PackageName string
	Version     *Version // nil if the package ends up not installed
	Reason      Reason
	Autoremoved bool
}
