package resolver

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"
)

// Action is a single proposed change to a solution: replace OldElement
// (which may be nil, meaning "nothing currently occupies this slot") with
// NewElement. Profit is filled in by calculateProfits once the action's
// score contribution is known, and is what the engine sorts candidate
// actions by before forking the search tree.
type Action struct {
	OldElement            Element
	NewElement            Element
	IntroducedBy          IntroducedBy
	BrokenElementPriority int
	Profit                *ScoreChange
}

// EngineOptions carries the cupt::resolver::* tuning the engine needs at
// run time, parsed by internal/config.
type EngineOptions struct {
	ChooserType      string
	MaxSolutionCount int
	TrackReasons     bool
	Debugging        bool
	Score            ScoreManagerConfig
	AutoRemove       bool
}

// Engine drives the best-first backtracking search described in spec.md
// §4.5: it repeatedly picks the highest-priority broken successor of the
// currently-selected solution, generates every candidate fix, scores each
// one, and either applies the single unambiguous fix in place or forks the
// search tree once per candidate.
type Engine struct {
	universe *Universe
	graph    *Graph
	store    *SolutionStorage
	score    *ScoreManager
	opts     EngineOptions
	chooser  Chooser
	log      *logrus.Entry

	failTree         *FailTree
	anySolutionFound bool

	autoRemoval        *AutoRemovalPolicy
	wasInstalledBefore map[string]bool

	requests []UserRequest
}

// SetUserRequests records the strict requests (spec.md §4.5.3) to seed into
// the initial solution the next time Resolve runs.
func (e *Engine) SetUserRequests(requests []UserRequest) {
	e.requests = requests
}

// SetAutoRemovalPolicy wires in the policy the engine consults, right
// before proposing each finished solution, to clean up packages that were
// only ever pulled in as dependencies and are no longer needed by
// anything reachable from a sticked package (explicitly requested, held,
// or changed by the search) or from a package the policy does not allow
// to be removed.
func (e *Engine) SetAutoRemovalPolicy(p *AutoRemovalPolicy) {
	e.autoRemoval = p
}

func NewEngine(u *Universe, g *Graph, opts EngineOptions, log *logrus.Entry) (*Engine, error) {
	chooser, err := ParseChooser(opts.ChooserType)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Engine{
		universe: u,
		graph:    g,
		store:    NewSolutionStorage(g),
		score:    NewScoreManager(opts.Score),
		opts:     opts,
		chooser:  chooser,
		log:      log,
		failTree: NewFailTree(),
	}, nil
}

// Accept is called once per candidate finished solution; returning true
// ends the search and makes that solution the result, false asks the
// engine to keep searching for a better one, and Abandon (via ctx
// cancellation) stops the search with no result.
type Accept func(*Offer) bool

// Resolve runs the search to completion, accepting the first solution
// Accept approves. It returns UnresolvableError if no finished solution is
// ever found, and SolutionCapExceededError if the queue runs empty after
// Accept declined every finished solution it was offered.
func (e *Engine) Resolve(ctx context.Context, accept Accept) (*Offer, error) {
	e.log.Debug("started resolving")

	initial := e.store.NewInitialSolution(e.universe)
	initial.added.forkedCount = 0
	if len(e.requests) > 0 {
		if err := ApplyUserRequests(e.store, initial, e.universe, e.graph, e.requests); err != nil {
			return nil, err
		}
	}
	e.initialValidatePass(initial)

	queue := NewSolutionQueue()
	queue.Insert(initial)

	e.wasInstalledBefore = make(map[string]bool)
	for _, name := range e.universe.PackageNames() {
		if e.universe.GetInstalledVersion(name) != nil {
			e.wasInstalledBefore[name] = true
		}
	}

	failCounts := make(map[string]int)
	dropped := false
	explored := 0

	for queue.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current, _ := e.chooser(queue)
		queue.Remove(current)

		if current.parent != nil {
			current.Prepare()
			e.postApplyAction(current)
		}

		var possibleActions []*Action
		resolved := false

		for {
			pair, ok := e.getBrokenPair(current, failCounts)
			if !ok {
				// No broken pair remains, whether or not this pass ever had
				// one to begin with: a chain of single-action fixes can
				// converge to a clean solution within this very loop, and
				// that must be recognized here, not conflated with the
				// "still broken, needs a fork" exit below.
				resolved = true
				break
			}

			possibleActions = e.generatePossibleActions(current, pair)
			introducedBy := IntroducedBy{VersionElement: pair.Entry.Element, BrokenElement: pair.Broken}

			if len(possibleActions) == 0 && !e.anySolutionFound {
				e.failTree.AddFailedSolution(e.store, current, introducedBy)
			} else {
				for _, a := range possibleActions {
					a.IntroducedBy = introducedBy
					a.BrokenElementPriority = pair.Entry.brokenPriority(pair.Broken)
				}
			}

			failCounts[pair.Broken.ID()]++

			if len(possibleActions) == 1 {
				e.calculateProfits(current, possibleActions)
				e.preApplyAction(current, current, possibleActions[0])
				e.postApplyAction(current)
				possibleActions = nil
				continue
			}
			break
		}

		if resolved {
			if !current.Finished {
				current.Finished = true
			}
			if !e.anySolutionFound {
				e.anySolutionFound = true
				e.failTree.Clear()
			}

			if !current.softPenaltiesApplied {
				current.softPenaltiesApplied = true
				e.applySoftPenalties(current)
			}

			explored++
			queue.Insert(current)
			best, _ := queue.Best()
			if best != current {
				continue
			}
			queue.Remove(current)

			if e.opts.AutoRemove && e.autoRemoval != nil {
				sticked := make(map[string]bool)
				for _, name := range current.packageNames() {
					pe, _ := current.getPackageEntry(name)
					if pe.Sticked {
						sticked[name] = true
					}
				}
				AutoRemovalPass(e.store, current, e.autoRemoval, sticked, e.wasInstalledBefore)
			}

			e.finalVerifySolution(current)

			offer := e.buildOffer(current)
			if accept(offer) {
				return offer, nil
			}
			continue
		}

		if len(possibleActions) > 0 {
			e.calculateProfits(current, possibleActions)
			e.preApplyActionsToSolutionTree(queue, current, possibleActions)
		} else {
			e.log.WithField("solution", current.ID).Debug("no solutions")
		}

		if len(possibleActions) > 0 {
			for queue.Len() > e.opts.MaxSolutionCount {
				worst := e.worst(queue)
				queue.Remove(worst)
				if !dropped {
					dropped = true
					e.log.Warn("some solutions were dropped, consider increasing cupt::resolver::max-solution-count")
				}
			}
		}
	}

	if !e.anySolutionFound {
		return nil, &UnresolvableError{Chain: splitLines(e.failTree.String())}
	}
	return nil, &SolutionCapExceededError{Explored: explored, Cap: e.opts.MaxSolutionCount}
}

func splitLines(s string) []string {
	var out []string
	cur := ""
	for _, r := range s {
		if r == '\n' {
			if cur != "" {
				out = append(out, cur)
			}
			cur = ""
			continue
		}
		cur += string(r)
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out
}

func (e *Engine) worst(q *SolutionQueue) *Solution {
	if q.Len() == 0 {
		return nil
	}
	return q.items[0]
}

// brokenPriority looks up the validate-depth priority recorded for a given
// broken successor, defaulting to zero for one the entry has no record of
// (the initial validate pass, or a successor introduced since the last
// validate).
func (pe *PackageEntry) brokenPriority(broken Element) int {
	for _, bs := range pe.BrokenSuccessors {
		if bs.Element == broken {
			return bs.Priority
		}
	}
	return 0
}

// getBrokenPair picks the broken successor the engine should try to fix
// next: highest element-kind priority first, then the highest recorded
// validate-depth priority of the broken successor itself, then highest
// fail count (packages that keep failing get escalated), then
// lexicographically largest package name as a deterministic final
// tie-break.
func (e *Engine) getBrokenPair(s *Solution, failCounts map[string]int) (BrokenPair, bool) {
	all := e.store.GetBrokenPairs(s)
	var pairs []BrokenPair
	for _, p := range all {
		if unsatisfiedPriorityOf(p.Broken) == UnsatisfiedNone {
			pairs = append(pairs, p)
		}
	}
	if len(pairs) == 0 {
		return BrokenPair{}, false
	}
	best := pairs[0]
	bestPriority := elementTypePriority(best.Broken)
	bestBrokenPriority := best.Entry.brokenPriority(best.Broken)
	bestFail := failCounts[best.Broken.ID()]
	for _, p := range pairs[1:] {
		pPriority := elementTypePriority(p.Broken)
		pBrokenPriority := p.Entry.brokenPriority(p.Broken)
		pFail := failCounts[p.Broken.ID()]
		switch {
		case pPriority != bestPriority:
			if pPriority > bestPriority {
				best, bestPriority, bestBrokenPriority, bestFail = p, pPriority, pBrokenPriority, pFail
			}
		case pBrokenPriority != bestBrokenPriority:
			if pBrokenPriority > bestBrokenPriority {
				best, bestPriority, bestBrokenPriority, bestFail = p, pPriority, pBrokenPriority, pFail
			}
		case pFail != bestFail:
			if pFail > bestFail {
				best, bestPriority, bestBrokenPriority, bestFail = p, pPriority, pBrokenPriority, pFail
			}
		case p.PackageName > best.PackageName:
			best, bestPriority, bestBrokenPriority, bestFail = p, pPriority, pBrokenPriority, pFail
		}
	}
	return best, true
}

func unsatisfiedPriorityOf(e Element) UnsatisfiedPriority {
	switch el := e.(type) {
	case *RelationElement:
		return el.Unsatisfied
	case *SyncElement:
		// per the synchronize-source-versions Open Question decision, a
		// sync element is always a soft (best-effort) constraint — "hard"
		// only raises its fix-priority relative to other soft successors,
		// it never blocks a solution from finishing.
		_ = el
		return UnsatisfiedSync
	default:
		return UnsatisfiedNone
	}
}

func elementTypePriority(e Element) int {
	switch el := e.(type) {
	case *RelationElement:
		return el.getPriority()
	case *SyncElement:
		return el.getPriority()
	default:
		return 0
	}
}

// generatePossibleActions builds every candidate fix for pair: installing
// a version that satisfies the broken relation, or swapping the offending
// package's own currently-chosen version for a sibling that would stop
// owning the broken relation in the first place.
func (e *Engine) generatePossibleActions(s *Solution, pair BrokenPair) []*Action {
	var actions []*Action
	actions = append(actions, e.addActionsToFixDependency(s, pair.Broken)...)
	if pair.Entry.Element != nil {
		actions = append(actions, e.addActionsToModifyPackageEntry(s, pair.Entry.Element, pair.Broken)...)
	}
	return actions
}

func (e *Engine) addActionsToFixDependency(s *Solution, broken Element) []*Action {
	re, ok := broken.(*RelationElement)
	if !ok {
		return nil
	}
	var actions []*Action
	for _, succ := range e.graph.Successors(re) {
		ve := succ.(*VersionElement)
		ok, conflict := e.store.SimulateSetPackageEntry(s, re.ID(), ve)
		if ok {
			actions = append(actions, &Action{OldElement: conflict, NewElement: ve})
		}
	}
	return actions
}

func (e *Engine) addActionsToModifyPackageEntry(s *Solution, ve *VersionElement, broken Element) []*Action {
	pe, has := e.store.GetPackageEntry(s, ve.PackageName)
	if has && pe.Sticked {
		return nil
	}
	var actions []*Action
	for _, sibling := range e.graph.SiblingVersions(ve) {
		if sibling == ve {
			continue
		}
		if s.isRejected(broken.ID(), sibling.ID()) {
			continue
		}
		if e.makesSenseToModifyPackage(s, sibling, broken) {
			actions = append(actions, &Action{OldElement: ve, NewElement: sibling})
		}
	}
	return actions
}

// makesSenseToModifyPackage mirrors the native resolver's heuristic for
// deciding whether switching to candidate is worth trying: candidate must
// not have the very same problem (its own successors must not include the
// broken element at equal or higher priority), and it must open up
// genuinely wider satisfaction options than the relation that's already
// broken, or trying it again would just recreate the same dead end.
func (e *Engine) makesSenseToModifyPackage(s *Solution, candidate *VersionElement, broken Element) bool {
	brokenPriority := elementTypePriority(broken)
	if candidate.Version == nil {
		return true
	}

	for _, kind := range e.graph.ConstraintKinds() {
		for _, re := range e.graph.RelationElementsFor(candidate.Version, kind) {
			if re.getPriority() < brokenPriority {
				continue
			}
			if Element(re) == broken {
				return false
			}
		}
	}

	brokenRE, isRelation := broken.(*RelationElement)
	if !isRelation {
		return true
	}
	brokenSuccessors := e.graph.Successors(brokenRE)

	for _, kind := range e.graph.ConstraintKinds() {
		for _, re := range e.graph.RelationElementsFor(candidate.Version, kind) {
			if re.getPriority() < brokenPriority {
				continue
			}
			wider := false
			for _, succ := range e.graph.Successors(re) {
				found := false
				for _, bs := range brokenSuccessors {
					if bs == succ {
						found = true
						break
					}
				}
				if !found {
					wider = true
					break
				}
			}
			if !wider {
				return false
			}
		}
	}
	return true
}

func (e *Engine) calculateProfits(s *Solution, actions []*Action) {
	getVersion := func(el Element) *Version {
		if ve, ok := el.(*VersionElement); ok {
			return ve.Version
		}
		return nil
	}
	for i, a := range actions {
		switch ve := a.NewElement.(type) {
		case *VersionElement:
			_ = ve
			a.Profit = e.score.GetVersionScoreChange(getVersion(a.OldElement), getVersion(a.NewElement), e.universe)
		default:
			a.Profit = &ScoreChange{}
		}
		a.Profit.setPosition(i)
	}
}

// calculateUnsatisfiedProfit returns the fixed penalty ScoreChange for
// leaving a soft relation broken rather than choosing any successor,
// selected by the broken element's declared UnsatisfiedPriority.
func (e *Engine) calculateUnsatisfiedProfit(priority UnsatisfiedPriority) *ScoreChange {
	switch priority {
	case UnsatisfiedRecommends:
		return e.score.GetUnsatisfiedRecommendsScoreChange()
	case UnsatisfiedSuggests:
		return e.score.GetUnsatisfiedSuggestsScoreChange()
	case UnsatisfiedSync:
		return e.score.GetUnsatisfiedSynchronizationScoreChange()
	default:
		return &ScoreChange{}
	}
}

func (e *Engine) preApplyAction(original, s *Solution, action *Action) {
	if original.Finished {
		panic("resolver: internal invariant violation: cannot modify an already finished solution")
	}
	s.Level++
	s.Score += e.score.Value(action.Profit)
	s.PendingAction = action
}

func (e *Engine) preApplyActionsToSolutionTree(queue *SolutionQueue, current *Solution, actions []*Action) {
	sort.SliceStable(actions, func(i, j int) bool {
		return e.score.Value(actions[j].Profit) < e.score.Value(actions[i].Profit)
	})
	for _, a := range actions {
		clone := e.store.CloneSolution(current)
		e.preApplyAction(current, clone, a)
		queue.Insert(clone)
	}
}

func (e *Engine) postApplyAction(s *Solution) {
	action, ok := s.PendingAction.(*Action)
	if !ok || action == nil {
		panic("resolver: internal invariant violation: __post_apply_action: no action to apply")
	}

	packageName := elementPackageName(action.NewElement)
	pe := &PackageEntry{
		Element:      action.NewElement.(*VersionElement),
		Sticked:      true,
		IntroducedBy: action.IntroducedBy,
	}
	e.store.SetPackageEntry(s, packageName, pe)

	// The branch has just moved this broken element's slot away from
	// OldElement in favor of NewElement: per §3/§4.4, OldElement is now a
	// rejected conflictor for this broken element on this branch, so the
	// search never proposes moving back to it while chasing the same
	// dependency (Testable Property #3, rejection monotonicity).
	if action.OldElement != nil && action.OldElement != action.NewElement && action.IntroducedBy.BrokenElement != nil {
		s.reject(action.IntroducedBy.BrokenElement.ID(), action.OldElement.ID())
	}

	e.validateChangedPackage(s, action.OldElement, action.NewElement, action.BrokenElementPriority+1)

	s.PendingAction = nil
}

func elementPackageName(el Element) string {
	switch v := el.(type) {
	case *VersionElement:
		return v.PackageName
	default:
		panic("resolver: internal invariant violation: elementPackageName on non-version element")
	}
}

// validateElement recomputes el's broken successors at the given
// priority and records them on its package entry.
func (e *Engine) validateElement(s *Solution, el Element, priority int) {
	ve, ok := el.(*VersionElement)
	if !ok || ve.Version == nil {
		return
	}
	var broken []BrokenSuccessor
	for _, kind := range e.graph.ConstraintKinds() {
		for _, re := range e.graph.RelationElementsFor(ve.Version, kind) {
			if !e.store.VerifyElement(s, re) {
				broken = append(broken, BrokenSuccessor{Element: re, Priority: priority})
			}
		}
	}
	if sync := e.graph.SyncElementFor(ve.Version); sync != nil {
		if !e.store.VerifyElement(s, sync) {
			broken = append(broken, BrokenSuccessor{Element: sync, Priority: priority})
		}
	}
	if len(broken) > 0 {
		pe, has := e.store.GetPackageEntry(s, ve.PackageName)
		if !has {
			return
		}
		newPE := pe.clone()
		newPE.BrokenSuccessors = broken
		e.store.SetPackageEntry(s, ve.PackageName, newPE)
	}
}

func (e *Engine) initialValidatePass(s *Solution) {
	for _, ve := range e.store.GetElements(s) {
		e.validateElement(s, ve, 0)
	}
}

func (e *Engine) finalVerifySolution(s *Solution) {
	for _, ve := range e.store.GetElements(s) {
		if ve.Version == nil {
			continue
		}
		for _, kind := range e.graph.ConstraintKinds() {
			for _, re := range e.graph.RelationElementsFor(ve.Version, kind) {
				if re.Unsatisfied == UnsatisfiedNone && !e.store.VerifyElement(s, re) {
					panic("resolver: internal invariant violation: final solution check failed for " + re.String())
				}
			}
		}
	}
}

// validateChangedPackage re-validates the element that was just installed,
// and propagates broken/fixed status to anything that depended on the
// element that got replaced: a relation element is a predecessor of every
// version it matches regardless of polarity, so replacing oldEl with newEl
// can just as easily satisfy a predecessor (removing the conflicting
// version) as break one (losing a provider) — each predecessor of either
// element must be re-checked against its live verification, not assumed.
func (e *Engine) validateChangedPackage(s *Solution, oldEl, newEl Element, priority int) {
	e.validateElement(s, newEl, priority)

	if oldVe, ok := oldEl.(*VersionElement); ok && oldVe != nil {
		e.revalidatePredecessors(s, oldVe, priority)
	}
	if newVe, ok := newEl.(*VersionElement); ok {
		e.revalidatePredecessors(s, newVe, priority)
	}
}

func (e *Engine) revalidatePredecessors(s *Solution, ve *VersionElement, priority int) {
	for _, re := range e.graph.Predecessors(ve) {
		if e.store.VerifyElement(s, re) {
			e.unmarkBroken(s, re)
		} else {
			e.markBroken(s, re, priority)
		}
	}
}

func (e *Engine) markBroken(s *Solution, re *RelationElement, priority int) {
	pe, has := e.store.GetPackageEntry(s, re.Owner.PackageName)
	if !has {
		return
	}
	for _, bs := range pe.BrokenSuccessors {
		if bs.Element == re {
			return
		}
	}
	newPE := pe.clone()
	newPE.BrokenSuccessors = append(newPE.BrokenSuccessors, BrokenSuccessor{Element: re, Priority: priority})
	e.store.SetPackageEntry(s, re.Owner.PackageName, newPE)
}

func (e *Engine) unmarkBroken(s *Solution, re *RelationElement) {
	pe, has := e.store.GetPackageEntry(s, re.Owner.PackageName)
	if !has {
		return
	}
	var kept []BrokenSuccessor
	changed := false
	for _, bs := range pe.BrokenSuccessors {
		if bs.Element == re {
			changed = true
			continue
		}
		kept = append(kept, bs)
	}
	if changed {
		newPE := pe.clone()
		newPE.BrokenSuccessors = kept
		e.store.SetPackageEntry(s, re.Owner.PackageName, newPE)
	}
}

// applySoftPenalties folds the fixed score penalty for every remaining
// Recommends/Suggests/Sync broken successor into s.Score exactly once,
// since the search loop never tries to fix these (see getBrokenPair) —
// they only cost score, they never block a solution from finishing.
func (e *Engine) applySoftPenalties(s *Solution) {
	for _, name := range s.packageNames() {
		pe, _ := s.getPackageEntry(name)
		for _, bs := range pe.BrokenSuccessors {
			priority := unsatisfiedPriorityOf(bs.Element)
			if priority == UnsatisfiedNone {
				continue
			}
			s.Score += e.score.Value(e.calculateUnsatisfiedProfit(priority))
		}
	}
}

func (e *Engine) buildOffer(s *Solution) *Offer {
	offer := &Offer{Entries: make(map[string]*OfferEntry)}
	for _, name := range s.packageNames() {
		pe, _ := s.getPackageEntry(name)
		entry := &OfferEntry{PackageName: name, Autoremoved: pe.Autoremoved}
		if pe.Element != nil {
			entry.Version = pe.Element.Version
		}
		if e.opts.TrackReasons {
			if !pe.IntroducedBy.Empty() {
				if re, ok := pe.IntroducedBy.BrokenElement.(*RelationElement); ok {
					entry.Reason = &RelationExpressionReason{Element: re}
				} else if sy, ok := pe.IntroducedBy.BrokenElement.(*SyncElement); ok {
					entry.Reason = &SynchronizationReason{Element: sy}
				}
			}
			if entry.Reason == nil && pe.Sticked {
				entry.Reason = &UserReason{Request: name}
			}
		}
		if pe.Autoremoved {
			entry.Reason = &AutoRemovalReason{PackageName: name}
		}
		offer.Entries[name] = entry

		for _, bs := range pe.BrokenSuccessors {
			priority := unsatisfiedPriorityOf(bs.Element)
			if priority == UnsatisfiedNone {
				continue
			}
			switch el := bs.Element.(type) {
			case *RelationElement:
				reason := &RelationExpressionReason{Element: el}
				offer.UnresolvedProblems = append(offer.UnresolvedProblems, reason)
				if priority == UnsatisfiedRecommends || priority == UnsatisfiedSuggests {
					for _, alt := range el.Expression.Alternatives {
						offer.Suggestions = append(offer.Suggestions, SuggestedPackage{PackageName: alt.PackageName, Reason: reason})
					}
				}
			case *SyncElement:
				offer.UnresolvedProblems = append(offer.UnresolvedProblems, &SynchronizationReason{Element: el})
			}
		}
	}
	return offer
}
