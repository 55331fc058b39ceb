package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopoSortGroupsOrdersDependencyBeforeDependent(t *testing.T) {
	ag := newActionGraph()
	a := &ActionNode{PackageName: "a", Action: ActionUnpack}
	b := &ActionNode{PackageName: "b", Action: ActionUnpack}
	ag.addNode(a)
	ag.addNode(b)
	ag.addEdge(a, b, EdgeHard)

	plan, err := ag.topoSortGroups()
	require.NoError(t, err)
	require.Len(t, plan.Groups, 2)
	assert.Equal(t, []*ActionNode{a}, plan.Groups[0])
	assert.Equal(t, []*ActionNode{b}, plan.Groups[1])
}

func TestTopoSortGroupsKeepsUnrelatedNodesTogether(t *testing.T) {
	ag := newActionGraph()
	a := &ActionNode{PackageName: "a", Action: ActionUnpack}
	b := &ActionNode{PackageName: "b", Action: ActionUnpack}
	ag.addNode(a)
	ag.addNode(b)

	plan, err := ag.topoSortGroups()
	require.NoError(t, err)
	require.Len(t, plan.Groups, 1)
	assert.ElementsMatch(t, []*ActionNode{a, b}, plan.Groups[0])
}

func TestTopoSortGroupsBreaksWeakestEdgeOnCycle(t *testing.T) {
	ag := newActionGraph()
	a := &ActionNode{PackageName: "a", Action: ActionUnpack}
	b := &ActionNode{PackageName: "b", Action: ActionUnpack}
	ag.addNode(a)
	ag.addNode(b)
	ag.addEdge(a, b, EdgeSoft)
	ag.addEdge(b, a, EdgeHard)

	plan, err := ag.topoSortGroups()
	require.NoError(t, err)
	require.Len(t, plan.Groups, 2)
	assert.Equal(t, []*ActionNode{b}, plan.Groups[0], "the Soft edge should be discarded, leaving b before a")
	assert.Equal(t, []*ActionNode{a}, plan.Groups[1])
}

func TestTopoSortGroupsNeverBreaksFundamentalOverSoft(t *testing.T) {
	ag := newActionGraph()
	unpack := &ActionNode{PackageName: "a", Action: ActionUnpack}
	configure := &ActionNode{PackageName: "a", Action: ActionConfigure}
	other := &ActionNode{PackageName: "b", Action: ActionUnpack}
	ag.addNode(unpack)
	ag.addNode(configure)
	ag.addNode(other)

	ag.addEdge(unpack, configure, EdgeFundamental)
	ag.addEdge(configure, other, EdgeSoft)
	ag.addEdge(other, unpack, EdgeSoft)

	plan, err := ag.topoSortGroups()
	require.NoError(t, err)
	flat := append(append([]*ActionNode{}, plan.Groups[0]...))
	for _, g := range plan.Groups[1:] {
		flat = append(flat, g...)
	}
	assert.Contains(t, flat, unpack)
	assert.Contains(t, flat, configure)
	assert.Contains(t, flat, other)

	unpackGroup, configureGroup := -1, -1
	for i, g := range plan.Groups {
		for _, n := range g {
			if n == unpack {
				unpackGroup = i
			}
			if n == configure {
				configureGroup = i
			}
		}
	}
	assert.Less(t, unpackGroup, configureGroup, "Fundamental edge must survive cycle-breaking")
}

func TestTopoSortGroupsFailsFatallyOnAllFundamentalCycle(t *testing.T) {
	ag := newActionGraph()
	aUnpack := &ActionNode{PackageName: "a", Action: ActionUnpack}
	aConfigure := &ActionNode{PackageName: "a", Action: ActionConfigure}
	bUnpack := &ActionNode{PackageName: "b", Action: ActionUnpack}
	bConfigure := &ActionNode{PackageName: "b", Action: ActionConfigure}
	ag.addNode(aUnpack)
	ag.addNode(aConfigure)
	ag.addNode(bUnpack)
	ag.addNode(bConfigure)

	ag.addEdge(aUnpack, aConfigure, EdgeFundamental)
	ag.addEdge(bUnpack, bConfigure, EdgeFundamental)
	ag.addEdge(bConfigure, aUnpack, EdgeFundamental)
	ag.addEdge(aConfigure, bUnpack, EdgeFundamental)

	plan, err := ag.topoSortGroups()
	require.Nil(t, plan)
	require.Error(t, err)
	var fatal *FatalPlanningError
	require.ErrorAs(t, err, &fatal)
}

func TestAddEdgeIgnoresSelfLoopAndDuplicates(t *testing.T) {
	ag := newActionGraph()
	a := &ActionNode{PackageName: "a", Action: ActionUnpack}
	ag.addNode(a)
	ag.addEdge(a, a, EdgeHard)
	assert.Empty(t, ag.edges[a.id()])

	b := &ActionNode{PackageName: "b", Action: ActionUnpack}
	ag.addNode(b)
	ag.addEdge(a, b, EdgeSoft)
	ag.addEdge(a, b, EdgeHard)
	require.Len(t, ag.edges[a.id()], 1, "a second edge to the same target should be ignored, not upgraded")
	assert.Equal(t, EdgeSoft, ag.edges[a.id()][0].strength)
}
