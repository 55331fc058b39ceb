package resolver

import (
	"sort"
)

type actionEdge struct {
	to       *ActionNode
	strength EdgeStrength
}

// actionGraph is the Action Planner's working graph: one node per
// (package, InnerAction) and a set of directed "must happen before" edges
// between them, each tagged with how free the planner is to break it when
// resolving a cycle.
type actionGraph struct {
	nodes map[string]*ActionNode
	order []*ActionNode // insertion order, for deterministic output
	edges map[string][]actionEdge
}

func newActionGraph() *actionGraph {
	return &actionGraph{
		nodes: make(map[string]*ActionNode),
		edges: make(map[string][]actionEdge),
	}
}

func (ag *actionGraph) addNode(n *ActionNode) {
	id := n.id()
	if _, ok := ag.nodes[id]; ok {
		return
	}
	ag.nodes[id] = n
	ag.order = append(ag.order, n)
}

func (ag *actionGraph) node(packageName string, action InnerAction) *ActionNode {
	return ag.nodes[(&ActionNode{PackageName: packageName, Action: action}).id()]
}

func (ag *actionGraph) addEdge(from, to *ActionNode, strength EdgeStrength) {
	if from == nil || to == nil || from == to {
		return
	}
	fromID := from.id()
	for _, e := range ag.edges[fromID] {
		if e.to == to {
			return
		}
	}
	ag.edges[fromID] = append(ag.edges[fromID], actionEdge{to: to, strength: strength})
}

// topoSortGroups orders every node into execution groups: group i must
// fully complete before group i+1 starts, but nodes sharing a group carry
// no ordering relation to one another. Cycles are broken by discarding the
// weakest edge left among the not-yet-scheduled nodes and re-running —
// unless every such edge is EdgeFundamental, which construction is supposed to
// guarantee never happens (§4.6); when it does anyway (e.g. mutual
// PreDepends between two packages being installed together), there is
// nothing left that is safe to break, and topoSortGroups reports a
// FatalPlanningError instead of silently picking one to discard.
func (ag *actionGraph) topoSortGroups() (*Plan, error) {
	remaining := make(map[string]*ActionNode, len(ag.nodes))
	for id, n := range ag.nodes {
		remaining[id] = n
	}
	edges := make(map[string][]actionEdge, len(ag.edges))
	for id, es := range ag.edges {
		edges[id] = append([]actionEdge(nil), es...)
	}

	var groups [][]*ActionNode
	for len(remaining) > 0 {
		indegree := make(map[string]int, len(remaining))
		for id := range remaining {
			indegree[id] = 0
		}
		for from, es := range edges {
			if _, ok := remaining[from]; !ok {
				continue
			}
			for _, e := range es {
				if _, ok := remaining[e.to.id()]; ok {
					indegree[e.to.id()]++
				}
			}
		}

		var ready []*ActionNode
		for id, n := range remaining {
			if indegree[id] == 0 {
				ready = append(ready, n)
			}
		}

		if len(ready) == 0 {
			// Every remaining node has at least one incoming edge: we're in a
			// cycle. Break the weakest edge still present among remaining
			// nodes and retry this round.
			broke, fatal := breakWeakestEdge(remaining, edges)
			if fatal {
				ids := make([]string, 0, len(remaining))
				for id := range remaining {
					ids = append(ids, id)
				}
				sort.Strings(ids)
				return nil, &FatalPlanningError{Nodes: ids}
			}
			if !broke {
				// Nothing left to break (shouldn't happen given construction)
				// but guarantee forward progress rather than looping forever.
				for id, n := range remaining {
					ready = append(ready, n)
					delete(remaining, id)
				}
				break
			}
			continue
		}

		sort.Slice(ready, func(i, j int) bool { return ready[i].id() < ready[j].id() })
		groups = append(groups, ready)
		for _, n := range ready {
			delete(remaining, n.id())
		}
	}

	return &Plan{Groups: groups}, nil
}

// breakWeakestEdge finds the lowest-strength edge between two nodes both
// still in remaining and deletes it. broke is true if it found and removed
// one; fatal is true if the weakest edge it found was EdgeFundamental,
// meaning the cycle cannot be broken without producing an incorrect
// install order — the caller must fail rather than discard it.
func breakWeakestEdge(remaining map[string]*ActionNode, edges map[string][]actionEdge) (broke bool, fatal bool) {
	var weakestFrom string
	var weakestIdx = -1
	weakestStrength := EdgeFundamental + 1

	for from, es := range edges {
		if _, ok := remaining[from]; !ok {
			continue
		}
		for i, e := range es {
			if _, ok := remaining[e.to.id()]; !ok {
				continue
			}
			if e.strength < weakestStrength {
				weakestStrength = e.strength
				weakestFrom = from
				weakestIdx = i
			}
		}
	}

	if weakestIdx < 0 {
		return false, false
	}
	if weakestStrength == EdgeFundamental {
		return false, true
	}
	es := edges[weakestFrom]
	edges[weakestFrom] = append(es[:weakestIdx], es[weakestIdx+1:]...)
	return true, false
}
