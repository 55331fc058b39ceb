package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreezeOrdersByPinDescendingThenVersionDescending(t *testing.T) {
	u := NewUniverse()
	low := NewVersionBuilder("foo", "amd64", "2.0").Build()
	high := NewVersionBuilder("foo", "amd64", "1.0").Build()
	mid := NewVersionBuilder("foo", "amd64", "1.5").Build()
	u.Add(low)
	u.Add(high)
	u.Add(mid)

	u.SetVersionPin("foo", "1.0", 1000)
	u.Freeze()

	versions := u.GetVersions("foo")
	require.Len(t, versions, 3)
	assert.Equal(t, "1.0", versions[0].VersionStr, "the pinned version must sort first even though it is not the newest")
	assert.Equal(t, "2.0", versions[1].VersionStr, "unpinned versions still tie-break by version descending")
	assert.Equal(t, "1.5", versions[2].VersionStr)
}

func TestFreezeTieBreaksByVersionWhenPinsAreEqual(t *testing.T) {
	u := NewUniverse()
	a := NewVersionBuilder("foo", "amd64", "1.0").Build()
	b := NewVersionBuilder("foo", "amd64", "2.0").Build()
	u.Add(a)
	u.Add(b)
	u.Freeze()

	versions := u.GetVersions("foo")
	require.Len(t, versions, 2)
	assert.Equal(t, "2.0", versions[0].VersionStr)
	assert.Equal(t, "1.0", versions[1].VersionStr)
}

func TestSetVersionPinOverridesPackageDefaultForOneVersion(t *testing.T) {
	u := NewUniverse()
	old := NewVersionBuilder("foo", "amd64", "1.0").Build()
	newer := NewVersionBuilder("foo", "amd64", "2.0").Build()
	u.Add(old)
	u.Add(newer)

	u.SetPin("foo", 500)               // release-level default for every version
	u.SetVersionPin("foo", "1.0", -1) // pin-down exactly one version

	assert.Equal(t, -1, u.pinFor(old))
	assert.Equal(t, 500, u.pinFor(newer))
}
