package resolver

import "strings"

// decision is one step of a reconstructed failure chain: the element that
// was inserted to try to fix some broken predecessor, at what search depth.
type decision struct {
	introducedBy IntroducedBy
	level        int
	inserted     Element
}

// failItem is one complete failure chain plus the full sequence of
// elements the solution that produced it had inserted, used to detect
// whether two failure chains actually diverged on a meaningful decision or
// are redundant restatements of the same root cause.
type failItem struct {
	decisions []decision
	inserted  []Element
}

// FailTree accumulates the decision chains of every dead-end branch the
// search engine abandons, so a totally unresolvable request can report
// something more useful than "no solution exists" — it reports the
// smallest set of choices that, if undone, might let the search succeed.
//
// Only "dominant" chains are kept: a chain is dominant at its divergence
// point from another if undoing the other chain's diverging decision would
// not have avoided this chain's failure too. A chain that is dominated by
// another adds no information and is dropped.
type FailTree struct {
	items []failItem
}

func NewFailTree() *FailTree {
	return &FailTree{}
}

// AddFailedSolution reconstructs and records the decision chain that led to
// lastIntroducedBy's package entry, walking backward through the solution's
// introducedBy links and, for any element the solution still leaves
// unsatisfied, through the conflicting elements blocking its successors.
func (t *FailTree) AddFailedSolution(ss *SolutionStorage, s *Solution, lastIntroducedBy IntroducedBy) {
	item := failItem{
		decisions: getDecisionChain(ss, s, lastIntroducedBy),
		inserted:  append([]Element(nil), s.InsertedElements...),
	}

	var kept []failItem
	added := true
	for _, existing := range t.items {
		offset := diverseOffset(existing.inserted, item.inserted)
		existingDominant := isDominant(existing, offset)
		if existingDominant {
			added = false
			kept = append(kept, existing)
			continue
		}
		if isDominant(item, offset) {
			continue // existing is dominated by the new item, drop it
		}
		kept = append(kept, existing)
	}
	t.items = kept
	if added {
		t.items = append(t.items, item)
	}
}

func getDecisionChain(ss *SolutionStorage, s *Solution, last IntroducedBy) []decision {
	var result []decision
	type queued struct {
		ib       IntroducedBy
		level    int
		inserted Element
	}
	var stack []queued
	push := func(ib IntroducedBy, level int, inserted Element) {
		if !ib.Empty() {
			stack = append(stack, queued{ib, level, inserted})
		}
	}
	push(last, 0, nil)

	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		result = append(result, decision{item.ib, item.level, item.inserted})

		ib := item.ib
		if ve, ok := ib.VersionElement.(*VersionElement); ok {
			if pe, has := ss.GetPackageEntry(s, ve.PackageName); has {
				push(pe.IntroducedBy, item.level+1, ib.VersionElement)
			}
		}

		if !ss.VerifyElement(s, ib.BrokenElement) {
			if re, ok := ib.BrokenElement.(*RelationElement); ok {
				processed := make(map[Element]bool)
				for _, succ := range ss.graph.Successors(re) {
					ve := succ.(*VersionElement)
					if ok, conflict := ss.SimulateSetPackageEntry(s, re.ID(), ve); !ok && conflict != nil {
						if !processed[conflict] {
							processed[conflict] = true
							if cpe, has := ss.GetPackageEntry(s, conflict.(*VersionElement).PackageName); has {
								push(cpe.IntroducedBy, item.level+1, conflict)
							}
						}
					}
				}
			}
		}
	}
	return result
}

func diverseOffset(left, right []Element) int {
	offset := 0
	for offset < len(left) && offset < len(right) && left[offset] == right[offset] {
		offset++
	}
	return offset
}

// isDominant reports whether the element at which item diverged from its
// sibling is absent from item's own recorded decision chain — meaning the
// divergence itself did not cause item's failure, so item's failure is a
// genuinely independent finding worth keeping.
func isDominant(item failItem, offset int) bool {
	if offset >= len(item.inserted) {
		return true
	}
	diverged := item.inserted[offset]
	for _, d := range item.decisions {
		if d.inserted == diverged {
			return false
		}
	}
	return true
}

func (t *FailTree) String() string {
	var parts []string
	for _, item := range t.items {
		parts = append(parts, decisionsToString(item.decisions))
	}
	return strings.Join(parts, "\n")
}

func decisionsToString(decisions []decision) string {
	var b strings.Builder
	for _, d := range decisions {
		b.WriteString(strings.Repeat("  ", d.level))
		b.WriteString(d.introducedBy.BrokenElement.String())
		b.WriteString(" -> ")
		if d.inserted == nil {
			b.WriteString("no solutions")
		} else {
			b.WriteString(d.inserted.String())
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (t *FailTree) Clear() {
	t.items = nil
}
