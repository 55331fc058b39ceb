package resolver

import (
	"bytes"
	"fmt"
	"strings"
)

// severity classifies a SolveError the way the native resolver's bitflag
// errorLevel did: some failures are worth surfacing even on a successful
// resolve (a Suggests that couldn't be kept), others mean the whole resolve
// failed.
type severity uint8

const (
	severityWarning severity = 1 << iota
	severityUnresolvable
)

// SolveError is anything the resolve loop can fail with that is not an
// internal invariant violation (those panic instead, per spec.md §7).
type SolveError interface {
	error
	Severity() severity
}

// UnresolvableError means the search exhausted every candidate solution
// without finding one that satisfies every UnsatisfiedNone relation; Chain
// is the sequence of decisions that led to the deepest failure reached,
// used for the diagnostic report built by failtree.go.
type UnresolvableError struct {
	Chain []string
}

func (e *UnresolvableError) Error() string {
	if len(e.Chain) == 0 {
		return "unable to resolve dependencies: no candidate solution satisfies every required relation"
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "unable to resolve dependencies:\n")
	for _, line := range e.Chain {
		fmt.Fprintf(&buf, "  %s\n", line)
	}
	return buf.String()
}

func (e *UnresolvableError) Severity() severity { return severityUnresolvable }

// NoCandidateError means a relation expression has no satisfying version
// anywhere in the universe, so no amount of backtracking can ever fix it.
type NoCandidateError struct {
	Expression RelationExpression
	Owner      *Version
}

func (e *NoCandidateError) Error() string {
	return fmt.Sprintf("%s requires %s, which has no available candidate", e.Owner, e.Expression)
}

func (e *NoCandidateError) Severity() severity { return severityUnresolvable }

// SolutionCapExceededError is returned when the search queue runs empty
// after at least one finished solution was offered and Accept declined
// every one. Explored counts the finished solutions queued; Cap is the
// configured cupt::resolver::max-solution-count. Going over that cap during
// the search is not an error: the engine drops the worst queued solution
// and logs a warning.
type SolutionCapExceededError struct {
	Explored int
	Cap      int
}

func (e *SolutionCapExceededError) Error() string {
	return fmt.Sprintf("explored %d candidate solutions (limit %d) without finding an acceptable one", e.Explored, e.Cap)
}

func (e *SolutionCapExceededError) Severity() severity { return severityUnresolvable }

// StrictRequestError means a user request made with the "strict" flag
// (spec.md §4.5.3) could not be honored without leaving some other
// explicit user request unsatisfied, and strict mode forbids silently
// trading one off against the other.
type StrictRequestError struct {
	Request string
	Reason  string
}

func (e *StrictRequestError) Error() string {
	return fmt.Sprintf("strict request %q could not be satisfied: %s", e.Request, e.Reason)
}

func (e *StrictRequestError) Severity() severity { return severityUnresolvable }

// ConfigError wraps a malformed or out-of-range resolver configuration
// option; it is a recoverable error returned to the caller, not a panic,
// because bad config is an input mistake rather than an internal
// invariant violation.
type ConfigError struct {
	Option string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid value for %s: %s", e.Option, e.Reason)
}

func (e *ConfigError) Severity() severity { return severityUnresolvable }

// FatalPlanningError means the Action Planner found a cycle made up
// entirely of EdgeFundamental edges — a cycle the action graph's
// construction guarantees should never happen (§4.6) — so there is nothing
// left the planner is free to break without emitting an incorrect install
// order. Nodes lists the (package, action) ids still unordered when the
// cycle was detected.
type FatalPlanningError struct {
	Nodes []string
}

func (e *FatalPlanningError) Error() string {
	return fmt.Sprintf("fatal planning error: cycle in fundamental action edges among %s", strings.Join(e.Nodes, ", "))
}

func (e *FatalPlanningError) Severity() severity { return severityUnresolvable }

// MalformedRecordWarning is the one-shot diagnostic spec.md §7 calls for
// when a version's relation line could not be fully parsed by the
// collaborator that built it; the resolver degrades by treating the
// unparseable expression as automatically unsatisfied rather than failing
// the whole resolve.
type MalformedRecordWarning struct {
	PackageName string
	Detail      string
}

func (e *MalformedRecordWarning) Error() string {
	return fmt.Sprintf("malformed relation record for %s: %s", e.PackageName, e.Detail)
}

func (e *MalformedRecordWarning) Severity() severity { return severityWarning }
