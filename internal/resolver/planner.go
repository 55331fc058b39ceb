package resolver

// InnerAction is one of the three primitive operations dpkg actually
// performs against a package, which the Action Planner schedules
// separately so it can interleave unpacking one package with configuring
// another when their dependencies allow it.
type InnerAction uint8

const (
	ActionRemove InnerAction = iota
	ActionUnpack
	ActionConfigure
)

func (a InnerAction) String() string {
	switch a {
	case ActionRemove:
		return "remove"
	case ActionUnpack:
		return "unpack"
	case ActionConfigure:
		return "configure"
	default:
		return "unknown"
	}
}

// EdgeStrength ranks how free the planner is to reorder or defer an edge
// between two action nodes when breaking a cycle. Higher-strength edges
// are tried last when looking for something to break, since breaking them
// produces a less correct installation order.
type EdgeStrength uint8

const (
	EdgePriority EdgeStrength = iota
	EdgeFromVirtual
	EdgeSoft
	EdgeHard
	// EdgeFundamental edges are never broken (Unpack must always precede
	// its own package's Configure, and a PreDepends always forces
	// Configure-before-Unpack across packages, which dpkg enforces at the
	// tool level regardless of what the planner emits). A cycle made only
	// of them, such as mutual PreDepends, is reported as a
	// FatalPlanningError.
	EdgeFundamental
)

// ActionNode is one (package, InnerAction) step the planner schedules.
type ActionNode struct {
	PackageName string
	Action      InnerAction
	Version     *Version // nil for Remove
}

func (n *ActionNode) id() string {
	return n.PackageName + ":" + n.Action.String()
}

// Plan is the ordered output of the Action Planner: a sequence of groups,
// where every node within a group may be executed in any order (or
// concurrently) but every group must complete before the next one starts.
// A Fundamental edge always places its two endpoints in different,
// correctly-ordered groups; dpkg itself is the one that actually
// serializes unpack/configure for a single package, so within this
// package's own pair the planner still emits two separate, ordered nodes.
type Plan struct {
	Groups [][]*ActionNode
}

// BuildPlan turns a finished Offer into an ordered Plan, deriving the
// necessary ActionNodes and edges from the Offer's entries and the
// dependency relations of each resulting version.
func BuildPlan(offer *Offer, u *Universe, g *Graph) (*Plan, error) {
	ag := newActionGraph()

	for name, entry := range offer.Entries {
		installed := u.GetInstalledVersion(name)
		switch {
		case entry.Version == nil && installed != nil:
			ag.addNode(&ActionNode{PackageName: name, Action: ActionRemove})
		case entry.Version != nil && (installed == nil || installed.VersionStr != entry.Version.VersionStr):
			unpack := &ActionNode{PackageName: name, Action: ActionUnpack, Version: entry.Version}
			configure := &ActionNode{PackageName: name, Action: ActionConfigure, Version: entry.Version}
			ag.addNode(unpack)
			ag.addNode(configure)
			ag.addEdge(unpack, configure, EdgeFundamental)
		}
	}

	for name, entry := range offer.Entries {
		if entry.Version == nil {
			continue
		}
		configure := ag.node(name, ActionConfigure)
		unpack := ag.node(name, ActionUnpack)
		if configure == nil && unpack == nil {
			continue // version unchanged, nothing to schedule
		}

		addDependencyEdges(ag, offer, u, entry.Version, PreDepends, EdgeFundamental, unpack)
		addDependencyEdges(ag, offer, u, entry.Version, Depends, EdgeHard, configureOrUnpack(configure, unpack))
		addDependencyEdges(ag, offer, u, entry.Version, Recommends, EdgeSoft, configureOrUnpack(configure, unpack))
		addDependencyEdges(ag, offer, u, entry.Version, Suggests, EdgeSoft, configureOrUnpack(configure, unpack))
	}

	// Replaces/Conflicts: a removed package must be fully removed before any
	// package it conflicts with, or that replaces its files, gets unpacked.
	for name, entry := range offer.Entries {
		if entry.Version == nil {
			continue
		}
		for _, kind := range []RelationKind{Conflicts, Replaces} {
			for _, rel := range entry.Version.RelationLine(kind) {
				for _, alt := range rel.Alternatives {
					if removeNode := ag.node(alt.PackageName, ActionRemove); removeNode != nil {
						if unpack := ag.node(name, ActionUnpack); unpack != nil {
							ag.addEdge(removeNode, unpack, EdgeHard)
						}
					}
				}
			}
		}
	}

	addPriorityHintEdges(ag, offer)

	return ag.topoSortGroups()
}

// addPriorityHintEdges adds the weakest tier of ordering edge, a nudge
// rather than a correctness requirement: between any two packages being
// unpacked whose declared dpkg Priority differs, the higher-priority one
// is hinted to unpack first. Grounded on the original resolver's
// PriorityModifier inner-action vertex (packages.cpp), which biases the
// same toposort toward higher-priority packages without ever forcing it.
func addPriorityHintEdges(ag *actionGraph, offer *Offer) {
	var unpacks []*ActionNode
	for name, entry := range offer.Entries {
		if entry.Version == nil {
			continue
		}
		if n := ag.node(name, ActionUnpack); n != nil {
			unpacks = append(unpacks, n)
		}
	}
	for _, a := range unpacks {
		for _, b := range unpacks {
			if a == b || a.Version.Priority == b.Version.Priority {
				continue
			}
			if a.Version.Priority < b.Version.Priority {
				ag.addEdge(a, b, EdgePriority)
			}
		}
	}
}

func configureOrUnpack(configure, unpack *ActionNode) *ActionNode {
	if configure != nil {
		return configure
	}
	return unpack
}

// addDependencyEdges adds, for every relation of kind on v, an edge from
// the chosen satisfying package's Configure node (no edge if that
// package's version didn't change, since it then has no node) to dependent, at the given
// strength. An alternative named by a virtual (Provides-only) name has no
// entry of its own in the offer, so it is resolved through the universe's
// provides index to the real package actually backing it; because a
// virtual name can be backed by more than one provider and the resolver
// doesn't commit to "the" provider the way it commits to a real package,
// that edge is always downgraded to EdgeFromVirtual regardless of the
// relation kind it came from.
func addDependencyEdges(ag *actionGraph, offer *Offer, u *Universe, v *Version, kind RelationKind, strength EdgeStrength, dependent *ActionNode) {
	if dependent == nil {
		return
	}
	for _, expr := range v.RelationLine(kind) {
		for _, alt := range expr.Alternatives {
			if entry, ok := offer.Entries[alt.PackageName]; ok && entry.Version != nil {
				addProviderEdge(ag, alt.PackageName, dependent, strength)
				continue
			}
			for _, provided := range u.ProvidersOf(alt.PackageName) {
				if entry, ok := offer.Entries[provided.PackageName]; ok && entry.Version == provided {
					addProviderEdge(ag, provided.PackageName, dependent, EdgeFromVirtual)
				}
			}
		}
	}
}

func addProviderEdge(ag *actionGraph, providerPackage string, dependent *ActionNode, strength EdgeStrength) {
	provider := ag.node(providerPackage, ActionConfigure)
	if provider == nil {
		provider = ag.node(providerPackage, ActionUnpack)
	}
	if provider != nil && provider != dependent {
		ag.addEdge(provider, dependent, strength)
	}
}
