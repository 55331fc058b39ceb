package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngineOptions(trackReasons bool) EngineOptions {
	return EngineOptions{
		ChooserType:      "fair",
		MaxSolutionCount: 512,
		TrackReasons:     trackReasons,
		Score:            DefaultScoreManagerConfig(),
	}
}

func acceptFirst(*Offer) bool { return true }

// TestEngineSimpleInstall is spec.md §8 scenario 1: installing a package
// with a single Depends pulls in the one version that satisfies it, with a
// recorded reason.
func TestEngineSimpleInstall(t *testing.T) {
	u := NewUniverse()
	a1 := NewVersionBuilder("A", "amd64", "1").Priority(PriorityOptional).
		Relation(Depends, Relation{PackageName: "B"}).Build()
	b1 := NewVersionBuilder("B", "amd64", "1").Priority(PriorityOptional).Build()
	u.Add(a1)
	u.Add(b1)
	u.Freeze()

	g := NewGraph(u, SyncNone)
	engine, err := NewEngine(u, g, testEngineOptions(true), nil)
	require.NoError(t, err)
	engine.SetUserRequests([]UserRequest{{Kind: RequestInstall, PackageName: "A"}})

	offer, err := engine.Resolve(context.Background(), acceptFirst)
	require.NoError(t, err)
	require.NotNil(t, offer)

	aEntry := offer.Entries["A"]
	require.NotNil(t, aEntry)
	require.NotNil(t, aEntry.Version)
	assert.Equal(t, "1", aEntry.Version.VersionStr)
	userReason, ok := aEntry.Reason.(*UserReason)
	require.True(t, ok, "A was sticked by an explicit install request, and should carry a UserReason")
	assert.Equal(t, "A", userReason.Request)

	bEntry := offer.Entries["B"]
	require.NotNil(t, bEntry)
	require.NotNil(t, bEntry.Version)
	assert.Equal(t, "1", bEntry.Version.VersionStr)

	reason, ok := bEntry.Reason.(*RelationExpressionReason)
	require.True(t, ok, "B's entry should carry the relation that pulled it in")
	assert.Equal(t, "A", reason.Element.Owner.PackageName)
	assert.Equal(t, Depends, reason.Element.Kind)
	assert.Contains(t, reason.Element.Expression.String(), "B")
}

// TestEngineConflictViaAlternative is spec.md §8 scenario 2: installing A
// (which Depends on C|B) while B (which Conflicts with A) is installed
// forces B out and pulls in the other alternative, C.
func TestEngineConflictViaAlternative(t *testing.T) {
	u := NewUniverse()
	a1 := NewVersionBuilder("A", "amd64", "1").Priority(PriorityOptional).
		Relation(Depends, Relation{PackageName: "C"}, Relation{PackageName: "B"}).Build()
	b1 := NewVersionBuilder("B", "amd64", "1").Priority(PriorityOptional).
		Relation(Conflicts, Relation{PackageName: "A"}).Build()
	c1 := NewVersionBuilder("C", "amd64", "1").Priority(PriorityOptional).Build()
	u.Add(a1)
	u.Add(b1)
	u.Add(c1)
	u.MarkInstalled(b1)
	u.Freeze()

	g := NewGraph(u, SyncNone)
	engine, err := NewEngine(u, g, testEngineOptions(true), nil)
	require.NoError(t, err)
	engine.SetUserRequests([]UserRequest{{Kind: RequestInstall, PackageName: "A"}})

	offer, err := engine.Resolve(context.Background(), acceptFirst)
	require.NoError(t, err)
	require.NotNil(t, offer)

	aEntry := offer.Entries["A"]
	require.NotNil(t, aEntry)
	require.NotNil(t, aEntry.Version)
	assert.Equal(t, "1", aEntry.Version.VersionStr)

	bEntry := offer.Entries["B"]
	require.NotNil(t, bEntry)
	assert.Nil(t, bEntry.Version, "B must be removed, it conflicts with the requested A")

	cEntry := offer.Entries["C"]
	require.NotNil(t, cEntry)
	require.NotNil(t, cEntry.Version)
	assert.Equal(t, "1", cEntry.Version.VersionStr)
}

// TestEngineDowngradeForcedByBreaks is spec.md §8 scenario 3: L_2's Breaks
// on U(<2) is satisfiable either by removing/downgrading L or by upgrading
// U to a version it doesn't break; upgrading U must win.
func TestEngineDowngradeForcedByBreaks(t *testing.T) {
	u := NewUniverse()
	l1 := NewVersionBuilder("L", "amd64", "1").Priority(PriorityOptional).Build()
	l2 := NewVersionBuilder("L", "amd64", "2").Priority(PriorityOptional).
		Relation(Breaks, Relation{PackageName: "U", Op: OpLessLess, Version: "2"}).Build()
	u1 := NewVersionBuilder("U", "amd64", "1").Priority(PriorityOptional).Build()
	u2 := NewVersionBuilder("U", "amd64", "2").Priority(PriorityOptional).Build()
	u.Add(l1)
	u.Add(l2)
	u.Add(u1)
	u.Add(u2)
	u.MarkInstalled(l2)
	u.MarkInstalled(u1)
	u.Freeze()

	g := NewGraph(u, SyncNone)
	engine, err := NewEngine(u, g, testEngineOptions(true), nil)
	require.NoError(t, err)

	offer, err := engine.Resolve(context.Background(), acceptFirst)
	require.NoError(t, err)
	require.NotNil(t, offer)

	lEntry := offer.Entries["L"]
	require.NotNil(t, lEntry)
	require.NotNil(t, lEntry.Version)
	assert.Equal(t, "2", lEntry.Version.VersionStr, "L must stay at L_2, not downgrade to L_1")

	uEntry := offer.Entries["U"]
	require.NotNil(t, uEntry)
	require.NotNil(t, uEntry.Version)
	assert.Equal(t, "2", uEntry.Version.VersionStr, "U must be upgraded to U_2 to stop breaking L_2")
}

// TestEngineAutoRemoval is spec.md §8 scenario 4: installing A_2 (which no
// longer Depends on LibX) leaves the auto-installed LibX unreachable, and
// auto-removal takes it out.
func TestEngineAutoRemoval(t *testing.T) {
	u := NewUniverse()
	a1 := NewVersionBuilder("A", "amd64", "1").Priority(PriorityOptional).
		Relation(Depends, Relation{PackageName: "LibX"}).Build()
	a2 := NewVersionBuilder("A", "amd64", "2").Priority(PriorityOptional).Build()
	libX1 := NewVersionBuilder("LibX", "amd64", "1").Priority(PriorityOptional).Build()
	u.Add(a1)
	u.Add(a2)
	u.Add(libX1)
	u.MarkInstalled(a1)
	u.MarkInstalled(libX1)
	u.Freeze()

	g := NewGraph(u, SyncNone)
	opts := testEngineOptions(true)
	opts.AutoRemove = true
	engine, err := NewEngine(u, g, opts, nil)
	require.NoError(t, err)
	engine.SetUserRequests([]UserRequest{{Kind: RequestInstall, PackageName: "A"}})
	policy := NewAutoRemovalPolicy(true, nil, map[string]bool{"LibX": true})
	engine.SetAutoRemovalPolicy(policy)

	offer, err := engine.Resolve(context.Background(), acceptFirst)
	require.NoError(t, err)
	require.NotNil(t, offer)

	aEntry := offer.Entries["A"]
	require.NotNil(t, aEntry)
	require.NotNil(t, aEntry.Version)
	assert.Equal(t, "2", aEntry.Version.VersionStr)

	libEntry := offer.Entries["LibX"]
	require.NotNil(t, libEntry)
	assert.Nil(t, libEntry.Version, "LibX is no longer reachable from anything sticked")
	assert.True(t, libEntry.Autoremoved)
	_, ok := libEntry.Reason.(*AutoRemovalReason)
	assert.True(t, ok, "LibX's removal must carry an AutoRemovalReason")
}

// TestEngineRecommendsRespectedButDegradable is spec.md §8 scenario 5: a
// Recommends whose only candidate is itself unsatisfiable must not fail the
// whole resolve — it is reported as an unresolved problem instead.
func TestEngineRecommendsRespectedButDegradable(t *testing.T) {
	u := NewUniverse()
	a1 := NewVersionBuilder("A", "amd64", "1").Priority(PriorityOptional).
		Relation(Recommends, Relation{PackageName: "R"}).Build()
	r1 := NewVersionBuilder("R", "amd64", "1").Priority(PriorityOptional).
		Relation(Depends, Relation{PackageName: "impossible"}).Build()
	u.Add(a1)
	u.Add(r1)
	u.Freeze()

	g := NewGraphWithPolicy(u, SyncNone, true, true)
	engine, err := NewEngine(u, g, testEngineOptions(true), nil)
	require.NoError(t, err)
	engine.SetUserRequests([]UserRequest{{Kind: RequestInstall, PackageName: "A"}})

	offer, err := engine.Resolve(context.Background(), acceptFirst)
	require.NoError(t, err)
	require.NotNil(t, offer)

	aEntry := offer.Entries["A"]
	require.NotNil(t, aEntry)
	require.NotNil(t, aEntry.Version)
	assert.Equal(t, "1", aEntry.Version.VersionStr)

	rEntry := offer.Entries["R"]
	require.NotNil(t, rEntry)
	assert.Nil(t, rEntry.Version, "R can never be satisfied, so it must stay uninstalled rather than fail the resolve")

	require.NotEmpty(t, offer.UnresolvedProblems)
	found := false
	for _, problem := range offer.UnresolvedProblems {
		if rer, ok := problem.(*RelationExpressionReason); ok && rer.Element.Kind == Recommends {
			found = true
		}
	}
	assert.True(t, found, "unresolvedProblems must name the broken Recommends, not just fail silently")
}

// TestEngineUnresolvableRequest is spec.md §8 scenario 6: A Depends on B,
// and B Conflicts with A — no solution exists, and Resolve must report the
// dead end via a fail-tree rather than returning an offer.
func TestEngineUnresolvableRequest(t *testing.T) {
	u := NewUniverse()
	a1 := NewVersionBuilder("A", "amd64", "1").Priority(PriorityOptional).
		Relation(Depends, Relation{PackageName: "B"}).Build()
	b1 := NewVersionBuilder("B", "amd64", "1").Priority(PriorityOptional).
		Relation(Conflicts, Relation{PackageName: "A"}).Build()
	u.Add(a1)
	u.Add(b1)
	u.Freeze()

	g := NewGraph(u, SyncNone)
	engine, err := NewEngine(u, g, testEngineOptions(true), nil)
	require.NoError(t, err)
	engine.SetUserRequests([]UserRequest{{Kind: RequestInstall, PackageName: "A"}})

	offer, err := engine.Resolve(context.Background(), acceptFirst)
	require.Nil(t, offer)
	require.Error(t, err)

	var unresolvable *UnresolvableError
	require.ErrorAs(t, err, &unresolvable)
	joined := ""
	for _, line := range unresolvable.Chain {
		joined += line + "\n"
	}
	assert.Contains(t, joined, "Depends: B")
	assert.Contains(t, joined, "Conflicts: A")
}

// TestEngineIdempotentOnAlreadyConsistentSystem covers spec.md §8's
// round-trip property: resolving an already-consistent system with no
// requests changes nothing and suggests nothing.
func TestEngineIdempotentOnAlreadyConsistentSystem(t *testing.T) {
	u := NewUniverse()
	a1 := NewVersionBuilder("A", "amd64", "1").Priority(PriorityOptional).
		Relation(Depends, Relation{PackageName: "B"}).Build()
	b1 := NewVersionBuilder("B", "amd64", "1").Priority(PriorityOptional).Build()
	u.Add(a1)
	u.Add(b1)
	u.MarkInstalled(a1)
	u.MarkInstalled(b1)
	u.Freeze()

	g := NewGraph(u, SyncNone)
	engine, err := NewEngine(u, g, testEngineOptions(true), nil)
	require.NoError(t, err)

	offer, err := engine.Resolve(context.Background(), acceptFirst)
	require.NoError(t, err)
	require.NotNil(t, offer)

	assert.Equal(t, "1", offer.Entries["A"].Version.VersionStr)
	assert.Equal(t, "1", offer.Entries["B"].Version.VersionStr)
	assert.Empty(t, offer.Suggestions)
	assert.Empty(t, offer.UnresolvedProblems)
}
