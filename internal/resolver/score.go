package resolver

import "fmt"

// subScore identifies one term of a ScoreChange.
type subScore int

const (
	subScoreNew subScore = iota
	subScoreRemoval
	subScoreUpgrade
	subScoreDowngrade
	subScoreQualityAdjustment
	subScorePositionPenalty
	subScoreFailedRecommends
	subScoreFailedSuggests
	subScoreFailedSync
	subScoreCount
)

// priorityWeight assigns concrete, ordered integer weights to the priority
// classes named in spec.md §3, so the Score Manager's priority-class term
// is a reproducible, testable number rather than just "some ordering".
var priorityWeight = map[Priority]int{
	PriorityRequired:  50,
	PriorityImportant: 40,
	PriorityStandard:  30,
	PriorityOptional:  20,
	PriorityExtra:     10,
}

// ScoreChange is a delta to a Solution's overall score, broken into named
// subscores so the contribution of each kind of decision (installing a new
// package, upgrading, leaving a Recommends unsatisfied, ...) can be
// reported separately for diagnostics.
type ScoreChange struct {
	subscores [subScoreCount]int
}

func (sc *ScoreChange) setPosition(position int) {
	sc.subscores[subScorePositionPenalty] = -position
}

// setFailedRecommends/Suggests/Sync record the magnitude of leaving that
// kind of soft successor broken as a positive cost; the configured
// multiplier (negative by default, see DefaultScoreManagerConfig) is what
// turns it into an actual penalty in Value, so the stored magnitude here
// must not itself carry a sign.
func (sc *ScoreChange) setFailedRecommends() {
	sc.subscores[subScoreFailedRecommends] = 1
}

func (sc *ScoreChange) setFailedSuggests() {
	sc.subscores[subScoreFailedSuggests] = 1
}

func (sc *ScoreChange) setFailedSync() {
	sc.subscores[subScoreFailedSync] = 1
}

// String renders the non-zero subscores as "value<suffix>" terms joined by
// "/", matching the native resolver's compact score-change notation used in
// trace logging.
func (sc *ScoreChange) String() string {
	suffix := [subScoreCount]string{"a", "r", "u", "d", "q", "pp", "fr", "fs", "fy"}
	s := ""
	for i, v := range sc.subscores {
		if v == 0 {
			continue
		}
		if s != "" {
			s += "/"
		}
		s += fmt.Sprintf("%d%s", v, suffix[i])
	}
	return s
}

// ScoreManager computes ScoreChange values for the decisions the resolver
// makes (installing/removing/upgrading/downgrading a version, leaving a
// soft relation unsatisfied) and collapses a ScoreChange into the single
// integer the search engine orders solutions by.
//
// Every multiplier is config-driven (cupt::resolver::tune-score::*), so two
// resolves against the same universe with different tuning can prefer
// different trade-offs without any code change.
type ScoreManager struct {
	multipliers [subScoreCount]int
	qualityBar  int
}

// ScoreManagerConfig carries the cupt::resolver::tune-score::* values plus
// the quality bar, as parsed by internal/config.
type ScoreManagerConfig struct {
	New                int
	Removal            int
	Upgrade            int
	Downgrade          int
	QualityAdjustment  int
	PositionPenalty    int
	FailedRecommends   int
	FailedSuggests     int
	FailedSync         int
	QualityBar         int
}

func NewScoreManager(cfg ScoreManagerConfig) *ScoreManager {
	m := &ScoreManager{qualityBar: cfg.QualityBar}
	m.multipliers[subScoreNew] = cfg.New
	m.multipliers[subScoreRemoval] = cfg.Removal
	m.multipliers[subScoreUpgrade] = cfg.Upgrade
	m.multipliers[subScoreDowngrade] = cfg.Downgrade
	m.multipliers[subScoreQualityAdjustment] = cfg.QualityAdjustment
	m.multipliers[subScorePositionPenalty] = cfg.PositionPenalty
	m.multipliers[subScoreFailedRecommends] = cfg.FailedRecommends
	m.multipliers[subScoreFailedSuggests] = cfg.FailedSuggests
	m.multipliers[subScoreFailedSync] = cfg.FailedSync
	return m
}

// DefaultScoreManagerConfig returns the values the native resolver ships as
// defaults.
func DefaultScoreManagerConfig() ScoreManagerConfig {
	return ScoreManagerConfig{
		New: 60, Removal: -200, Upgrade: 40, Downgrade: -60,
		QualityAdjustment: -1, PositionPenalty: 1,
		FailedRecommends: -100, FailedSuggests: -1, FailedSync: -100,
		QualityBar: 0,
	}
}

func (m *ScoreManager) getVersionWeight(v *Version, u *Universe) int {
	if v == nil {
		return 0
	}
	base := priorityWeight[v.Priority]
	return base + u.pinFor(v)
}

// GetVersionScoreChange computes the ScoreChange for replacing original
// with supposed (either may be nil, meaning "not installed").
func (m *ScoreManager) GetVersionScoreChange(original, supposed *Version, u *Universe) *ScoreChange {
	supposedWeight := m.getVersionWeight(supposed, u)
	originalWeight := m.getVersionWeight(original, u)
	value := supposedWeight - originalWeight

	sc := &ScoreChange{}
	switch {
	case original == nil:
		sc.subscores[subScoreNew] = value
	case supposed == nil:
		// loss is the weight given up by removing original, stored as a
		// positive magnitude: the configured (negative) Removal multiplier is
		// what turns it into a penalty in Value, so it must not carry its own
		// sign or the two negatives would cancel into a reward for removing.
		loss := -value
		if loss > 0 && original.Essential {
			loss *= 5
		}
		sc.subscores[subScoreRemoval] = loss
	default:
		if compareVersionStrings(original.VersionStr, supposed.VersionStr) < 0 {
			sc.subscores[subScoreUpgrade] = value
		} else {
			// Same reasoning as Removal above: store the weight given up by
			// downgrading as a positive magnitude, not the raw (typically
			// negative) delta.
			sc.subscores[subScoreDowngrade] = -value
		}
	}
	sc.subscores[subScoreQualityAdjustment] -= m.qualityBar
	return sc
}

func (m *ScoreManager) GetUnsatisfiedRecommendsScoreChange() *ScoreChange {
	sc := &ScoreChange{}
	sc.setFailedRecommends()
	return sc
}

func (m *ScoreManager) GetUnsatisfiedSuggestsScoreChange() *ScoreChange {
	sc := &ScoreChange{}
	sc.setFailedSuggests()
	return sc
}

func (m *ScoreManager) GetUnsatisfiedSynchronizationScoreChange() *ScoreChange {
	sc := &ScoreChange{}
	sc.setFailedSync()
	return sc
}

// Value collapses sc into the single integer the engine orders solutions
// by. The New/Removal/Upgrade/Downgrade terms are divided by ten after
// multiplier application, matching the native resolver's scaling so those
// four terms don't dwarf the unit-weighted penalty terms.
func (m *ScoreManager) Value(sc *ScoreChange) int {
	total := 0
	for i, v := range sc.subscores {
		sub := v * m.multipliers[i]
		if subScore(i) <= subScoreDowngrade {
			sub /= 10
		}
		total += sub
	}
	return total
}

func (m *ScoreManager) ChangeString(sc *ScoreChange) string {
	return fmt.Sprintf("%s=%d", sc.String(), m.Value(sc))
}
