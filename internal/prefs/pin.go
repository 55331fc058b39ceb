package prefs

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar"
	"github.com/pkg/errors"
)

// Pin is one stanza of a pin preferences file: a package-name glob, a
// version/release selector, and the pin score to apply when the selector
// matches.
type Pin struct {
	PackageGlob string
	Selector    string
	Priority    int
}

// ParsePinPreferences parses the apt-preferences-style stanza format: each
// stanza is a blank-line-separated block of "Key: Value" lines, with
// Package, Pin, and Pin-Priority keys. This is intentionally hand-rolled
// against bufio.Scanner rather than routed through a library: the stanza
// format is RFC 822-like but distinct from TOML/YAML/JSON, and nothing in
// the retrieval corpus carries a parser for it.
func ParsePinPreferences(r io.Reader) ([]Pin, error) {
	var pins []Pin
	var cur map[string]string

	flush := func() error {
		if cur == nil {
			return nil
		}
		pkg, pin := cur["Package"], cur["Pin"]
		if pkg == "" || pin == "" {
			return errors.New("pin preferences stanza missing Package or Pin")
		}
		priorityStr := cur["Pin-Priority"]
		priority, err := strconv.Atoi(strings.TrimSpace(priorityStr))
		if err != nil {
			return errors.Wrapf(err, "invalid Pin-Priority %q", priorityStr)
		}
		pins = append(pins, Pin{PackageGlob: pkg, Selector: pin, Priority: priority})
		cur = nil
		return nil
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		idx := strings.Index(line, ":")
		if idx < 0 {
			return nil, errors.Errorf("malformed pin preferences line: %q", line)
		}
		if cur == nil {
			cur = make(map[string]string)
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		cur[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading pin preferences")
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return pins, nil
}

// ResolvePin returns the score to add for one candidate version
// (packageName, versionStr) given its parsed pins, by matching PackageGlob
// against packageName and Selector against versionStr, taking the last
// (most specific intent, apt convention: later stanzas override earlier
// ones) match's priority. Returns 0 if nothing matches.
func ResolvePin(pins []Pin, packageName, versionStr string) int {
	score := 0
	for _, p := range pins {
		if !globMatch(p.PackageGlob, packageName) {
			continue
		}
		if !selectorMatches(p.Selector, versionStr) {
			continue
		}
		score = p.Priority
	}
	return score
}

const versionSelectorPrefix = "version "

// selectorMatches reports whether a stanza's Pin field applies to
// versionStr. A "version <glob>" selector differentiates between versions
// of the same package; any other selector (release/origin/archive
// selectors this parser doesn't further decompose) is a release-level pin
// that applies to every version alike, since this model carries no
// per-version release metadata to match such a selector against.
func selectorMatches(selector, versionStr string) bool {
	if strings.HasPrefix(selector, versionSelectorPrefix) {
		pattern := strings.TrimSpace(strings.TrimPrefix(selector, versionSelectorPrefix))
		return globMatch(pattern, versionStr)
	}
	return true
}

func globMatch(pattern, name string) bool {
	ok, _ := doublestar.Match(pattern, name)
	return ok
}
