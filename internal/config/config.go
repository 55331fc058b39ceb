// Package config parses the cupt::resolver::* and apt::* TOML options that
// configure a resolve, following the same TomlTree query-mapping style as
// golang-dep's manifest TOML loading.
package config

import (
	"io"

	"github.com/pelletier/go-toml"
	tomlquery "github.com/pelletier/go-toml/query"
	"github.com/pkg/errors"

	"github.com/cvalka4/cupt/internal/resolver"
)

// Config is the fully parsed, validated set of options a resolve needs,
// split into the resolver engine's own tuning and the auto-removal policy
// inputs that sit one layer above it.
type Config struct {
	Engine           resolver.EngineOptions
	AutoRemove       bool
	NeverAutoRemove  []string
	PinPreferences   string // path to an apt-preferences-style file, empty if unset
	SyncMode         resolver.SyncMode
	KeepRecommends   bool
	KeepSuggests     bool
}

// tomlMapper accumulates the first error encountered across a sequence of
// reads so call sites don't need to check after every single field.
type tomlMapper struct {
	tree  *toml.Tree
	Error error
}

// Parse reads a TOML document from r and maps its cupt::resolver::* /
// apt::* keys onto a Config, defaulting anything absent to the native
// resolver's own documented defaults.
func Parse(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading configuration")
	}
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return nil, errors.Wrap(err, "parsing configuration TOML")
	}

	m := &tomlMapper{tree: tree}
	cfg := &Config{
		Engine: resolver.EngineOptions{
			ChooserType:      readString(m, "cupt.resolver.type", "fair"),
			MaxSolutionCount: readInt(m, "cupt.resolver.max-solution-count", 512),
			TrackReasons:     readBool(m, "cupt.resolver.track-reasons", false),
			Debugging:        readBool(m, "cupt.resolver.debugging", false),
			AutoRemove:       readBool(m, "cupt.resolver.auto-remove", false),
			Score: resolver.ScoreManagerConfig{
				New:                readInt(m, "cupt.resolver.tune-score.new", 60),
				Removal:            readInt(m, "cupt.resolver.tune-score.removal", -200),
				Upgrade:            readInt(m, "cupt.resolver.tune-score.upgrade", 40),
				Downgrade:          readInt(m, "cupt.resolver.tune-score.downgrade", -60),
				QualityAdjustment:  readInt(m, "cupt.resolver.tune-score.quality-adjustment", -1),
				PositionPenalty:    readInt(m, "cupt.resolver.tune-score.position-penalty", 1),
				FailedRecommends:   readInt(m, "cupt.resolver.tune-score.failed-recommends", -100),
				FailedSuggests:     readInt(m, "cupt.resolver.tune-score.failed-suggests", -1),
				FailedSync:         readInt(m, "cupt.resolver.tune-score.failed-sync", -100),
				QualityBar:         readInt(m, "cupt.resolver.tune-score.quality-bar", 0),
			},
		},
		AutoRemove:      readBool(m, "cupt.resolver.auto-remove", false),
		NeverAutoRemove: readStringList(m, "apt.neverautoremove"),
		PinPreferences:  readString(m, "cupt.cache.pin-preferences-path", ""),
		KeepRecommends:  readBool(m, "cupt.resolver.keep-recommends", true),
		KeepSuggests:    readBool(m, "cupt.resolver.keep-suggests", false),
	}
	cfg.SyncMode, m.Error = readSyncMode(m, "cupt.resolver.synchronize-source-versions", m.Error)

	if m.Error != nil {
		return nil, m.Error
	}
	return cfg, nil
}

func query(m *tomlMapper, path string) []interface{} {
	if m.Error != nil {
		return nil
	}
	q, err := tomlquery.CompileAndExecute("$."+path, m.tree)
	if err != nil {
		m.Error = errors.Wrapf(err, "querying %s", path)
		return nil
	}
	return q.Values()
}

func readString(m *tomlMapper, path, def string) string {
	values := query(m, path)
	if m.Error != nil || len(values) == 0 {
		return def
	}
	s, ok := values[0].(string)
	if !ok {
		m.Error = errors.Errorf("%s must be a string, got %T", path, values[0])
		return def
	}
	return s
}

func readInt(m *tomlMapper, path string, def int) int {
	values := query(m, path)
	if m.Error != nil || len(values) == 0 {
		return def
	}
	switch v := values[0].(type) {
	case int64:
		return int(v)
	case int:
		return v
	default:
		m.Error = errors.Errorf("%s must be an integer, got %T", path, values[0])
		return def
	}
}

func readBool(m *tomlMapper, path string, def bool) bool {
	values := query(m, path)
	if m.Error != nil || len(values) == 0 {
		return def
	}
	b, ok := values[0].(bool)
	if !ok {
		m.Error = errors.Errorf("%s must be a boolean, got %T", path, values[0])
		return def
	}
	return b
}

func readStringList(m *tomlMapper, path string) []string {
	values := query(m, path)
	if m.Error != nil || len(values) == 0 {
		return nil
	}
	list, ok := values[0].([]interface{})
	if !ok {
		m.Error = errors.Errorf("%s must be a list of strings, got %T", path, values[0])
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		s, ok := v.(string)
		if !ok {
			m.Error = errors.Errorf("%s entries must be strings, got %T", path, v)
			return nil
		}
		out = append(out, s)
	}
	return out
}

func readSyncMode(m *tomlMapper, path string, prevErr error) (resolver.SyncMode, error) {
	if prevErr != nil {
		return resolver.SyncNone, prevErr
	}
	s := readString(m, path, "none")
	mode, ok := resolver.ParseSyncMode(s)
	if !ok {
		return resolver.SyncNone, errors.Errorf("parsing %s: invalid sync mode %q", path, s)
	}
	return mode, m.Error
}
