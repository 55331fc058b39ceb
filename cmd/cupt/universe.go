package main

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/cvalka4/cupt/cupt"
	"github.com/cvalka4/cupt/internal/prefs"
	"github.com/cvalka4/cupt/internal/resolver"
)

// universeSnapshot is a minimal JSON rendering of a package universe, used
// by the CLI to load test/demo universes. This is deliberately not an
// apt/dpkg archive format reader — real index parsing stays a collaborator
// concern per spec, out of scope here — just a convenient way to feed a
// pre-built universe into the resolver from the command line.
type universeSnapshot struct {
	Packages  []snapshotVersion `json:"packages"`
	Installed []string          `json:"installed"` // "name=version"
	Pins      map[string]int    `json:"pins"`
}

type snapshotVersion struct {
	Package    string              `json:"package"`
	Version    string              `json:"version"`
	Priority   string              `json:"priority"`
	Essential  bool                `json:"essential"`
	Provides   []string            `json:"provides"`
	Depends    []string            `json:"depends"`
	PreDepends []string            `json:"pre-depends"`
	Recommends []string            `json:"recommends"`
	Suggests   []string            `json:"suggests"`
	Conflicts  []string            `json:"conflicts"`
	Breaks     []string            `json:"breaks"`
	Replaces   []string            `json:"replaces"`
}

func loadUniverse(path string) (*resolver.Universe, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening index snapshot %s", path)
	}
	defer f.Close()

	var snap universeSnapshot
	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return nil, errors.Wrapf(err, "decoding index snapshot %s", path)
	}

	u := resolver.NewUniverse()
	for _, sv := range snap.Packages {
		b := resolver.NewVersionBuilder(sv.Package, "amd64", sv.Version)
		b.Priority(parsePriority(sv.Priority)).Essential(sv.Essential).Provides(sv.Provides...)
		addRelations(b, resolver.PreDepends, sv.PreDepends)
		addRelations(b, resolver.Depends, sv.Depends)
		addRelations(b, resolver.Recommends, sv.Recommends)
		addRelations(b, resolver.Suggests, sv.Suggests)
		addRelations(b, resolver.Conflicts, sv.Conflicts)
		addRelations(b, resolver.Breaks, sv.Breaks)
		addRelations(b, resolver.Replaces, sv.Replaces)
		u.Add(b.Build())
	}
	for name, delta := range snap.Pins {
		u.SetPin(name, delta)
	}
	if cfg.PinFile != "" {
		pinPrefs, err := loadPinPreferences(cfg.PinFile)
		if err != nil {
			return nil, err
		}
		cupt.ApplyPinPreferences(u, pinPrefs)
	}
	for _, spec := range snap.Installed {
		name, version := splitNameVersion(spec)
		for _, v := range u.GetVersions(name) {
			if v.VersionStr == version {
				u.MarkInstalled(v)
				break
			}
		}
	}
	u.Freeze()
	return u, nil
}

func loadPinPreferences(path string) ([]prefs.Pin, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening pin preferences %s", path)
	}
	defer f.Close()
	return prefs.ParsePinPreferences(f)
}

// addRelations parses "name", "name (>= 1.0)" style clauses, one
// RelationExpression per string (no "|" alternative syntax in this demo
// format — a real index parser would need it, but that parsing concern is
// out of scope here). A clause that does not parse is skipped with a
// warning.
func addRelations(b *resolver.VersionBuilder, kind resolver.RelationKind, clauses []string) {
	for _, c := range clauses {
		expr, err := parseRelationExpression(c)
		if err != nil {
			log.WithError(err).Warnf("skipping malformed %s clause %q", kind, c)
			continue
		}
		b.Relation(kind, expr.Alternatives...)
	}
}

func splitNameVersion(spec string) (name, version string) {
	for i := 0; i < len(spec); i++ {
		if spec[i] == '=' {
			return spec[:i], spec[i+1:]
		}
	}
	return spec, ""
}

func parsePriority(s string) resolver.Priority {
	switch s {
	case "required":
		return resolver.PriorityRequired
	case "important":
		return resolver.PriorityImportant
	case "optional":
		return resolver.PriorityOptional
	case "extra":
		return resolver.PriorityExtra
	default:
		return resolver.PriorityStandard
	}
}
