// Package cupt is the public facade over internal/resolver: it wires a
// Universe, a Graph, a configured Engine and an AutoRemovalPolicy together
// into the single call a caller actually wants — "given this request,
// what's the plan" — the same way golang-dep's root package wires gps's
// solver underneath a small surface for cmd/dep.
package cupt

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/cvalka4/cupt/internal/config"
	"github.com/cvalka4/cupt/internal/prefs"
	"github.com/cvalka4/cupt/internal/resolver"
)

// Offer re-exports the resolver's result type so callers never need to
// import internal/resolver directly.
type Offer = resolver.Offer

// OfferEntry re-exports the resolver's per-package offer entry.
type OfferEntry = resolver.OfferEntry

// Request re-exports the strict-request type accepted by Resolve.
type Request = resolver.UserRequest

const (
	Install   = resolver.RequestInstall
	Remove    = resolver.RequestRemove
	Satisfy   = resolver.RequestSatisfy
	Unsatisfy = resolver.RequestUnsatisfy
	Upgrade   = resolver.RequestUpgrade
)

// Session holds everything a single resolve needs: the package universe
// built by the caller (from whatever index format it reads), the parsed
// configuration, and a derived graph/engine built lazily on first Resolve.
type Session struct {
	Universe *resolver.Universe
	Config   *config.Config
	Log      *logrus.Entry

	neverAutoRemove prefs.NeverAutoRemoveMatcher
}

// NewSession builds a Session from an already-populated, Frozen universe
// and a parsed Config.
func NewSession(u *resolver.Universe, cfg *config.Config, log *logrus.Entry) (*Session, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &Session{Universe: u, Config: cfg, Log: log}
	if len(cfg.NeverAutoRemove) > 0 {
		m, err := prefs.NewNeverAutoRemoveMatcher(cfg.NeverAutoRemove)
		if err != nil {
			return nil, err
		}
		s.neverAutoRemove = m
	}
	return s, nil
}

// Resolve runs the search for the given requests, accepting the first
// finished solution (the default, non-interactive policy; a caller that
// wants to review alternatives before committing should call
// NewEngine/Resolve directly with its own Accept callback).
func (s *Session) Resolve(ctx context.Context, requests []Request) (*Offer, error) {
	graph := resolver.NewGraphWithPolicy(s.Universe, s.Config.SyncMode, s.Config.KeepRecommends, s.Config.KeepSuggests)

	engine, err := resolver.NewEngine(s.Universe, graph, s.Config.Engine, s.Log)
	if err != nil {
		return nil, err
	}
	engine.SetUserRequests(requests)

	if s.Config.AutoRemove {
		automatic := make(map[string]bool) // no Auto-Installed markers are loaded, so this stays empty: previously installed packages are never eligible, only packages this resolve newly brings in
		policy := resolver.NewAutoRemovalPolicy(s.Config.AutoRemove, s.neverAutoRemove, automatic)
		engine.SetAutoRemovalPolicy(policy)
	}

	return engine.Resolve(ctx, func(*Offer) bool { return true })
}

// ResolveBest runs the search and lets accept review (and potentially
// reject) each finished candidate solution before the search commits to
// it, for callers that want an interactive "accept this solution? y/n/q"
// loop the way cupt's own CLI works.
func (s *Session) ResolveBest(ctx context.Context, requests []Request, accept func(*Offer) bool) (*Offer, error) {
	graph := resolver.NewGraphWithPolicy(s.Universe, s.Config.SyncMode, s.Config.KeepRecommends, s.Config.KeepSuggests)
	engine, err := resolver.NewEngine(s.Universe, graph, s.Config.Engine, s.Log)
	if err != nil {
		return nil, err
	}
	engine.SetUserRequests(requests)
	return engine.Resolve(ctx, accept)
}
