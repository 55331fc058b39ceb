// Package resolver implements the dependency resolver and action planner
// core: the dependency graph, the score manager, the persistent solution
// store, the best-first search engine, and the action planner that turns an
// accepted solution into an ordered sequence of unpack/configure/remove
// groups.
package resolver

// Priority is a version's declared installation priority.
type Priority uint8

const (
	PriorityRequired Priority = iota
	PriorityImportant
	PriorityStandard
	PriorityOptional
	PriorityExtra
)

func (p Priority) String() string {
	switch p {
	case PriorityRequired:
		return "required"
	case PriorityImportant:
		return "important"
	case PriorityStandard:
		return "standard"
	case PriorityOptional:
		return "optional"
	case PriorityExtra:
		return "extra"
	default:
		return "unknown"
	}
}

// RelationKind identifies which of the eight binary relation kinds a
// RelationLine belongs to.
type RelationKind uint8

const (
	PreDepends RelationKind = iota
	Depends
	Recommends
	Suggests
	Enhances
	Conflicts
	Breaks
	Replaces
)

func (k RelationKind) String() string {
	switch k {
	case PreDepends:
		return "Pre-Depends"
	case Depends:
		return "Depends"
	case Recommends:
		return "Recommends"
	case Suggests:
		return "Suggests"
	case Enhances:
		return "Enhances"
	case Conflicts:
		return "Conflicts"
	case Breaks:
		return "Breaks"
	case Replaces:
		return "Replaces"
	default:
		return "unknown"
	}
}

// IsPositive reports whether satisfying this kind means installing
// something, as opposed to avoiding co-installation.
func (k RelationKind) IsPositive() bool {
	switch k {
	case PreDepends, Depends, Recommends, Suggests:
		return true
	default:
		return false
	}
}

// IsAnti reports whether this kind forbids co-installation.
func (k RelationKind) IsAnti() bool {
	return k == Conflicts || k == Breaks
}

// alwaysConstrainingKinds lists the RelationKinds that always constrain a
// solution regardless of config: PreDepends/Depends (positive) and
// Conflicts/Breaks (anti). Recommends/Suggests join this set only when
// cupt::resolver::keep-{recommends,suggests} enables them (see
// Graph.ConstraintKinds) — unfolding them unconditionally would make every
// resolve pay for soft relations a caller asked to ignore entirely, per
// spec.md §3's "relation kinds enabled by config" note. Enhances is purely
// informational and Replaces carries ordering semantics only (§4.6), so
// neither ever belongs in this set.
func alwaysConstrainingKinds() []RelationKind {
	return []RelationKind{PreDepends, Depends, Conflicts, Breaks}
}

// typePriority orders relation kinds (and the synthetic synchronization
// relation) by how strongly a broken instance of them should be preferred
// for repair over others, matching the native resolver's vertex priorities:
// Conflicts/Breaks outrank PreDepends, which outranks Depends, which
// outranks Recommends, which outranks Suggests.
func (k RelationKind) typePriority() int {
	switch k {
	case Conflicts, Breaks:
		return 5
	case PreDepends:
		return 4
	case Depends:
		return 3
	case Recommends:
		return 2
	case Suggests:
		return 1
	default:
		return 0
	}
}

// UnsatisfiedPriority classifies how serious it is to leave a relation
// element broken in a finished solution.
type UnsatisfiedPriority uint8

const (
	// UnsatisfiedNone means the relation must be satisfied; a solution
	// that leaves it broken is invalid.
	UnsatisfiedNone UnsatisfiedPriority = iota
	UnsatisfiedRecommends
	UnsatisfiedSuggests
	UnsatisfiedSync
)

// SyncMode controls how aggressively binary versions originating from the
// same source package are kept in lockstep.
type SyncMode uint8

const (
	SyncNone SyncMode = iota
	SyncSoft
	SyncHard
)

func ParseSyncMode(s string) (SyncMode, bool) {
	switch s {
	case "none", "":
		return SyncNone, true
	case "soft":
		return SyncSoft, true
	case "hard":
		return SyncHard, true
	default:
		return SyncNone, false
	}
}

// InstalledState mirrors dpkg's per-package status field.
type InstalledState uint8

const (
	StateNotInstalled InstalledState = iota
	StateUnpacked
	StateHalfConfigured
	StateHalfInstalled
	StateConfigFiles
	StateInstalled
	StateTriggersAwaited
	StateTriggersPending
)

// Want mirrors dpkg's per-package "want" field (the selection state).
type Want uint8

const (
	WantUnknown Want = iota
	WantInstall
	WantHold
	WantDeinstall
	WantPurge
)

// Op is a version-comparison operator used inside a Relation.
type Op uint8

const (
	OpNone Op = iota
	OpLessLess
	OpLessEqual
	OpEqual
	OpGreaterEqual
	OpGreaterGreater
)

func (o Op) String() string {
	switch o {
	case OpLessLess:
		return "<<"
	case OpLessEqual:
		return "<="
	case OpEqual:
		return "="
	case OpGreaterEqual:
		return ">="
	case OpGreaterGreater:
		return ">>"
	default:
		return ""
	}
}

// ParseOp parses one of the six Debian relation operators, or OpNone for
// the empty string.
func ParseOp(s string) (Op, error) {
	switch s {
	case "":
		return OpNone, nil
	case "<<":
		return OpLessLess, nil
	case "<=":
		return OpLessEqual, nil
	case "=":
		return OpEqual, nil
	case ">=":
		return OpGreaterEqual, nil
	case ">>":
		return OpGreaterGreater, nil
	default:
		return OpNone, &ConfigError{Option: "relation operator", Reason: "unrecognized operator " + s}
	}
}

// satisfiesOrder reports whether cmp (the result of compareVersionStrings,
// negative/zero/positive) satisfies this operator.
func (o Op) satisfiesOrder(cmp int) bool {
	switch o {
	case OpLessLess:
		return cmp < 0
	case OpLessEqual:
		return cmp <= 0
	case OpEqual:
		return cmp == 0
	case OpGreaterEqual:
		return cmp >= 0
	case OpGreaterGreater:
		return cmp > 0
	default:
		return true
	}
}
