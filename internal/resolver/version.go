package resolver

import (
	"fmt"

	digest "github.com/opencontainers/go-digest"
)

// File describes a single file belonging to a version, identified by its
// content digest rather than a path, since the core never touches the
// filesystem itself.
type File struct {
	Digest digest.Digest
	Size   int64
}

// Relation is a single atomic dependency clause: a package name, optional
// architecture qualifier, and an optional version constraint.
type Relation struct {
	PackageName string
	Op          Op
	Version     string
	ArchSuffix  string
}

func (r Relation) String() string {
	s := r.PackageName
	if r.ArchSuffix != "" {
		s += ":" + r.ArchSuffix
	}
	if r.Op != OpNone {
		s += fmt.Sprintf(" (%s %s)", r.Op, r.Version)
	}
	return s
}

// RelationExpression is a set of Relations joined by "|" (OR) semantics; any
// one of them being satisfiable satisfies the whole expression.
type RelationExpression struct {
	Alternatives []Relation
}

func (re RelationExpression) String() string {
	s := ""
	for i, r := range re.Alternatives {
		if i > 0 {
			s += " | "
		}
		s += r.String()
	}
	return s
}

// RelationLine is an ordered list of RelationExpressions for one
// RelationKind on one version, joined by "," (AND) semantics.
type RelationLine []RelationExpression

// Version is an immutable, fully-built package version as consumed by the
// resolver. It is produced by a VersionBuilder and never mutated afterward;
// every field that downstream code reads is a plain value or a slice that
// is treated as read-only.
type Version struct {
	PackageName string
	Arch        string
	VersionStr  string
	SourceName  string
	SourceVer   string
	Priority    Priority
	Essential   bool
	Files       []File

	Relations [8]RelationLine // indexed by RelationKind

	Provides []string
}

// RelationLine returns the RelationLine for the given kind, which is nil
// when the version has no relations of that kind.
func (v *Version) RelationLine(kind RelationKind) RelationLine {
	return v.Relations[kind]
}

func (v *Version) String() string {
	return fmt.Sprintf("%s %s", v.PackageName, v.VersionStr)
}

// sameSourceAs reports whether two versions were built from the same source
// package and source version, the precondition for synchronize-source
// elements.
func (v *Version) sameSourceAs(other *Version) bool {
	return v.SourceName != "" && v.SourceName == other.SourceName && v.SourceVer == other.SourceVer
}

// VersionBuilder accumulates fields for a Version across a two-phase
// construction: a mutable builder phase driven by whatever collaborator
// parses the on-disk index records, followed by a single Build call that
// freezes the result. The core package never performs the first phase
// itself (that is explicitly out of scope), but it owns this type because
// every test and every in-process synthetic universe needs a concrete,
// non-parsing way to construct one.
type VersionBuilder struct {
	v Version
}

func NewVersionBuilder(packageName, arch, versionStr string) *VersionBuilder {
	b := &VersionBuilder{}
	b.v.PackageName = packageName
	b.v.Arch = arch
	b.v.VersionStr = versionStr
	return b
}

func (b *VersionBuilder) Source(name, ver string) *VersionBuilder {
	b.v.SourceName, b.v.SourceVer = name, ver
	return b
}

func (b *VersionBuilder) Priority(p Priority) *VersionBuilder {
	b.v.Priority = p
	return b
}

func (b *VersionBuilder) Essential(e bool) *VersionBuilder {
	b.v.Essential = e
	return b
}

func (b *VersionBuilder) Provides(names ...string) *VersionBuilder {
	b.v.Provides = append(b.v.Provides, names...)
	return b
}

func (b *VersionBuilder) File(f File) *VersionBuilder {
	b.v.Files = append(b.v.Files, f)
	return b
}

func (b *VersionBuilder) Relation(kind RelationKind, alternatives ...Relation) *VersionBuilder {
	b.v.Relations[kind] = append(b.v.Relations[kind], RelationExpression{Alternatives: alternatives})
	return b
}

// Build freezes the accumulated fields into an immutable Version. The
// builder must not be reused afterward.
func (b *VersionBuilder) Build() *Version {
	v := b.v
	return &v
}
