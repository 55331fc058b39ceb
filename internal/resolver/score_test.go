package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVersion(name, ver string, priority Priority, essential bool) *Version {
	return NewVersionBuilder(name, "amd64", ver).Priority(priority).Essential(essential).Build()
}

func TestScoreManagerNewInstall(t *testing.T) {
	u := NewUniverse()
	u.Freeze()
	m := NewScoreManager(DefaultScoreManagerConfig())

	v := newTestVersion("foo", "1.0", PriorityStandard, false)

	newChange := m.GetVersionScoreChange(nil, v, u)
	require.NotNil(t, newChange)
	assert.Equal(t, priorityWeight[PriorityStandard], newChange.subscores[subScoreNew])
	assert.Positive(t, m.Value(newChange))
}

func TestScoreManagerRemoval(t *testing.T) {
	u := NewUniverse()
	u.Freeze()
	m := NewScoreManager(DefaultScoreManagerConfig())

	v := newTestVersion("foo", "1.0", PriorityStandard, false)

	removalChange := m.GetVersionScoreChange(v, nil, u)
	assert.Equal(t, priorityWeight[PriorityStandard], removalChange.subscores[subScoreRemoval])
	assert.Negative(t, m.Value(removalChange), "removing an installed package must cost the search, not reward it")
}

func TestScoreManagerEssentialRemovalScaledByFive(t *testing.T) {
	u := NewUniverse()
	u.Freeze()
	m := NewScoreManager(DefaultScoreManagerConfig())

	essential := newTestVersion("libc6", "1.0", PriorityRequired, true)
	ordinary := newTestVersion("foo", "1.0", PriorityRequired, false)

	essentialRemoval := m.GetVersionScoreChange(essential, nil, u)
	ordinaryRemoval := m.GetVersionScoreChange(ordinary, nil, u)

	assert.Equal(t, 5*ordinaryRemoval.subscores[subScoreRemoval], essentialRemoval.subscores[subScoreRemoval])
	assert.Equal(t, 5*m.Value(ordinaryRemoval), m.Value(essentialRemoval))
}

func TestScoreManagerUpgradeVersusDowngrade(t *testing.T) {
	u := NewUniverse()
	u.Freeze()
	m := NewScoreManager(DefaultScoreManagerConfig())

	lower := newTestVersion("foo", "1.0", PriorityOptional, false)
	higher := newTestVersion("foo", "2.0", PriorityStandard, false)

	upgrade := m.GetVersionScoreChange(lower, higher, u)
	assert.NotZero(t, upgrade.subscores[subScoreUpgrade])
	assert.Zero(t, upgrade.subscores[subScoreDowngrade])

	downgrade := m.GetVersionScoreChange(higher, lower, u)
	assert.NotZero(t, downgrade.subscores[subScoreDowngrade])
	assert.Zero(t, downgrade.subscores[subScoreUpgrade])
}

func TestScoreManagerPinAffectsWeight(t *testing.T) {
	u := NewUniverse()
	u.SetPin("foo", 1000)
	u.Freeze()
	m := NewScoreManager(DefaultScoreManagerConfig())

	v := newTestVersion("foo", "1.0", PriorityStandard, false)
	pinned := m.GetVersionScoreChange(nil, v, u)

	unpinned := NewScoreManager(DefaultScoreManagerConfig())
	plainUniverse := NewUniverse()
	plainUniverse.Freeze()
	noPin := unpinned.GetVersionScoreChange(nil, v, plainUniverse)

	assert.Greater(t, pinned.subscores[subScoreNew], noPin.subscores[subScoreNew])
}

func TestScoreChangeStringOmitsZeroTerms(t *testing.T) {
	sc := &ScoreChange{}
	sc.setFailedSuggests()
	assert.Equal(t, "1fs", sc.String())
}

func TestScoreChangeStringJoinsMultipleTerms(t *testing.T) {
	sc := &ScoreChange{}
	sc.setFailedRecommends()
	sc.setFailedSuggests()
	assert.Equal(t, "1fr/1fs", sc.String())
}

func TestUnsatisfiedScoreChangesNonZero(t *testing.T) {
	m := NewScoreManager(DefaultScoreManagerConfig())
	assert.Negative(t, m.Value(m.GetUnsatisfiedRecommendsScoreChange()))
	assert.Negative(t, m.Value(m.GetUnsatisfiedSuggestsScoreChange()))
	assert.Negative(t, m.Value(m.GetUnsatisfiedSynchronizationScoreChange()))
}
