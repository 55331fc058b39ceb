package cupt

import (
	"github.com/cvalka4/cupt/internal/resolver"
)

// Plan re-exports the resolver's action plan type.
type Plan = resolver.Plan

// BuildPlan derives the ordered install/remove/configure plan for offer
// against the session's universe.
func (s *Session) BuildPlan(offer *Offer) (*Plan, error) {
	graph := resolver.NewGraphWithPolicy(s.Universe, s.Config.SyncMode, s.Config.KeepRecommends, s.Config.KeepSuggests)
	return resolver.BuildPlan(offer, s.Universe, graph)
}
