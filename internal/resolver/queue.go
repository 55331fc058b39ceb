package resolver

import "sort"

// Chooser picks which pending Solution the engine should expand next.
type Chooser func(*SolutionQueue) (*Solution, bool)

// ParseChooser maps the cupt::resolver::type config value to a Chooser.
func ParseChooser(resolverType string) (Chooser, error) {
	switch resolverType {
	case "fair":
		return FairChooser, nil
	case "full":
		return FullChooser, nil
	default:
		return nil, &ConfigError{Option: "cupt::resolver::type", Reason: "must be \"fair\" or \"full\", got " + resolverType}
	}
}

// SolutionQueue holds every pending Solution the search has generated but
// not yet accepted or rejected, kept sorted by (score ascending, id
// descending) so the best not-yet-explored candidate always sits at the
// end — the Go equivalent of the native resolver's ordered-set container.
type SolutionQueue struct {
	items []*Solution
}

func NewSolutionQueue() *SolutionQueue {
	return &SolutionQueue{}
}

func (q *SolutionQueue) Len() int { return len(q.items) }

func less(a, b *Solution) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.ID > b.ID
}

// Insert adds s to the queue, keeping it sorted.
func (q *SolutionQueue) Insert(s *Solution) {
	i := sort.Search(len(q.items), func(i int) bool { return !less(q.items[i], s) })
	q.items = append(q.items, nil)
	copy(q.items[i+1:], q.items[i:])
	q.items[i] = s
}

// Remove deletes s from the queue by identity.
func (q *SolutionQueue) Remove(s *Solution) {
	for i, it := range q.items {
		if it == s {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return
		}
	}
}

// Best returns the highest-scoring pending solution without removing it.
func (q *SolutionQueue) Best() (*Solution, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	return q.items[len(q.items)-1], true
}

// FairChooser always expands the highest-scoring pending solution, giving a
// greedy best-first search.
func FairChooser(q *SolutionQueue) (*Solution, bool) {
	return q.Best()
}

// FullChooser defers to breadth: it expands the first not-yet-finished
// solution in score order, only falling back to FairChooser once every
// pending solution has been marked finished (i.e. the whole reachable
// solution tree has been built and it's time to pick the winner).
func FullChooser(q *SolutionQueue) (*Solution, bool) {
	for _, s := range q.items {
		if !s.Finished {
			return s, true
		}
	}
	return FairChooser(q)
}
