package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFixture() (*Universe, *Graph, *SolutionStorage, *Solution) {
	u := NewUniverse()
	u.Freeze()
	g := NewGraph(u, SyncNone)
	ss := NewSolutionStorage(g)
	s := ss.NewInitialSolution(u)
	return u, g, ss, s
}

func TestApplyUserRequestsInstallSticksBestVersion(t *testing.T) {
	u, g, ss, s := newTestFixture()
	old := NewVersionBuilder("foo", "amd64", "1.0").Priority(PriorityOptional).Build()
	better := NewVersionBuilder("foo", "amd64", "2.0").Priority(PriorityOptional).Build()
	u.Add(old)
	u.Add(better)
	u.Freeze()

	err := ApplyUserRequests(ss, s, u, g, []UserRequest{{Kind: RequestInstall, PackageName: "foo"}})
	require.NoError(t, err)

	pe, ok := ss.GetPackageEntry(s, "foo")
	require.True(t, ok)
	assert.True(t, pe.Sticked)
	assert.Equal(t, "2.0", pe.Element.Version.VersionStr)
}

func TestApplyUserRequestsInstallUnknownPackageFails(t *testing.T) {
	u, g, ss, s := newTestFixture()
	err := ApplyUserRequests(ss, s, u, g, []UserRequest{{Kind: RequestInstall, PackageName: "nonexistent"}})
	require.Error(t, err)
	var nce *NoCandidateError
	assert.ErrorAs(t, err, &nce)
}

func TestApplyUserRequestsRemoveSticksEmptyElement(t *testing.T) {
	u, g, ss, s := newTestFixture()
	v := NewVersionBuilder("foo", "amd64", "1.0").Priority(PriorityOptional).Build()
	u.Add(v)
	u.MarkInstalled(v)
	u.Freeze()
	s = ss.NewInitialSolution(u)

	err := ApplyUserRequests(ss, s, u, g, []UserRequest{{Kind: RequestRemove, PackageName: "foo"}})
	require.NoError(t, err)

	pe, ok := ss.GetPackageEntry(s, "foo")
	require.True(t, ok)
	assert.True(t, pe.Sticked)
	assert.Nil(t, pe.Element.Version)
}

func TestApplyUserRequestsUpgradePreservesNoExistingEntry(t *testing.T) {
	u, g, ss, s := newTestFixture()
	v := NewVersionBuilder("foo", "amd64", "2.0").Priority(PriorityOptional).Build()
	u.Add(v)
	u.Freeze()

	err := ApplyUserRequests(ss, s, u, g, []UserRequest{{Kind: RequestUpgrade, PackageName: "foo"}})
	require.NoError(t, err)

	pe, ok := ss.GetPackageEntry(s, "foo")
	require.True(t, ok)
	assert.True(t, pe.Sticked)
	assert.Equal(t, "2.0", pe.Element.Version.VersionStr)
}

func TestApplyUserRequestsUpgradeClonesExistingEntry(t *testing.T) {
	u, g, ss, s := newTestFixture()
	old := NewVersionBuilder("foo", "amd64", "1.0").Priority(PriorityOptional).Build()
	newer := NewVersionBuilder("foo", "amd64", "2.0").Priority(PriorityOptional).Build()
	u.Add(old)
	u.Add(newer)
	u.MarkInstalled(old)
	u.Freeze()
	s = ss.NewInitialSolution(u)

	before, ok := ss.GetPackageEntry(s, "foo")
	require.True(t, ok)
	assert.False(t, before.Sticked, "an installed, non-held package starts out free for the search to replace")
	assert.Equal(t, "1.0", before.Element.Version.VersionStr)

	err := ApplyUserRequests(ss, s, u, g, []UserRequest{{Kind: RequestUpgrade, PackageName: "foo"}})
	require.NoError(t, err)

	after, ok := ss.GetPackageEntry(s, "foo")
	require.True(t, ok)
	assert.True(t, after.Sticked)
	assert.Equal(t, "2.0", after.Element.Version.VersionStr)
	assert.True(t, after.IntroducedBy.Empty())
}

func TestApplyUserRequestsSatisfyInternsDummyPackage(t *testing.T) {
	u, g, ss, s := newTestFixture()
	target := NewVersionBuilder("libbar", "amd64", "1.0").Priority(PriorityOptional).Build()
	u.Add(target)
	u.Freeze()

	req := UserRequest{
		Kind:     RequestSatisfy,
		Relation: RelationExpression{Alternatives: []Relation{{PackageName: "libbar"}}},
	}
	err := ApplyUserRequests(ss, s, u, g, []UserRequest{req})
	require.NoError(t, err)

	pe, ok := ss.GetPackageEntry(s, dummyRequestPackageName)
	require.True(t, ok)
	assert.True(t, pe.Sticked)
	require.NotNil(t, pe.Element.Version)
	assert.Len(t, pe.Element.Version.RelationLine(Depends), 1)
	assert.Empty(t, pe.Element.Version.RelationLine(Breaks))

	installed := u.GetInstalledVersion(dummyRequestPackageName)
	require.NotNil(t, installed)
}

func TestApplyUserRequestsUnsatisfyUsesBreaks(t *testing.T) {
	u, g, ss, s := newTestFixture()
	target := NewVersionBuilder("libbar", "amd64", "1.0").Priority(PriorityOptional).Build()
	u.Add(target)
	u.Freeze()

	req := UserRequest{
		Kind:     RequestUnsatisfy,
		Relation: RelationExpression{Alternatives: []Relation{{PackageName: "libbar"}}},
	}
	err := ApplyUserRequests(ss, s, u, g, []UserRequest{req})
	require.NoError(t, err)

	pe, ok := ss.GetPackageEntry(s, dummyRequestPackageName)
	require.True(t, ok)
	assert.Empty(t, pe.Element.Version.RelationLine(Depends))
	assert.Len(t, pe.Element.Version.RelationLine(Breaks), 1)
}

func TestApplyUserRequestsAggregatesMultipleSatisfyAndUnsatisfyIntoOneDummyPackage(t *testing.T) {
	u, g, ss, s := newTestFixture()
	u.Add(NewVersionBuilder("libbar", "amd64", "1.0").Priority(PriorityOptional).Build())
	u.Add(NewVersionBuilder("libbaz", "amd64", "1.0").Priority(PriorityOptional).Build())
	u.Freeze()

	requests := []UserRequest{
		{Kind: RequestSatisfy, Relation: RelationExpression{Alternatives: []Relation{{PackageName: "libbar"}}}},
		{Kind: RequestSatisfy, Relation: RelationExpression{Alternatives: []Relation{{PackageName: "libbaz"}}}},
		{Kind: RequestUnsatisfy, Relation: RelationExpression{Alternatives: []Relation{{PackageName: "libbar", Op: OpGreaterEqual, Version: "2.0"}}}},
	}
	err := ApplyUserRequests(ss, s, u, g, requests)
	require.NoError(t, err)

	pe, ok := ss.GetPackageEntry(s, dummyRequestPackageName)
	require.True(t, ok)
	assert.True(t, pe.Sticked)
	assert.Len(t, pe.Element.Version.RelationLine(Depends), 2, "every Satisfy expression must become its own Depends clause on the one dummy package")
	assert.Len(t, pe.Element.Version.RelationLine(Breaks), 1, "every Unsatisfy expression must become its own Breaks clause on the same dummy package")
}
