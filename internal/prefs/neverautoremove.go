// Package prefs parses pin preferences and the apt::neverautoremove glob
// list that the resolver consults when classifying a package as eligible
// for automatic removal.
package prefs

import (
	"github.com/bmatcuk/doublestar"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

// NeverAutoRemoveMatcher decides whether a package name is exempt from
// auto-removal, per the apt::neverautoremove configuration option.
type NeverAutoRemoveMatcher interface {
	Matches(packageName string) bool
}

// globMatcher keeps apt::neverautoremove's glob strings (validated once at
// construction) and matches them with doublestar on a cache miss, caching
// per-name match results, since the resolver's auto-removal pass re-checks
// the same package names across many candidate solutions within one
// resolve.
type globMatcher struct {
	patterns []string
	cache    *lru.Cache[string, bool]
}

// NewNeverAutoRemoveMatcher validates every pattern in patterns up front
// (doublestar.Match returns an error for a malformed glob) so a bad
// configuration value is reported once, at construction, rather than
// silently failing every match call later.
func NewNeverAutoRemoveMatcher(patterns []string) (NeverAutoRemoveMatcher, error) {
	for _, p := range patterns {
		if _, err := doublestar.Match(p, "probe"); err != nil {
			return nil, errors.Wrapf(err, "invalid apt::neverautoremove pattern %q", p)
		}
	}
	cache, err := lru.New[string, bool](2048)
	if err != nil {
		panic("prefs: lru.New: " + err.Error())
	}
	return &globMatcher{patterns: patterns, cache: cache}, nil
}

func (m *globMatcher) Matches(packageName string) bool {
	if cached, ok := m.cache.Get(packageName); ok {
		return cached
	}
	result := false
	for _, p := range m.patterns {
		if ok, _ := doublestar.Match(p, packageName); ok {
			result = true
			break
		}
	}
	m.cache.Add(packageName, result)
	return result
}
