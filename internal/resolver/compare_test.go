package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareVersionStrings(t *testing.T) {
	for _, tc := range []struct {
		name string
		a, b string
		want int
	}{
		{"equal", "1.0.0", "1.0.0", 0},
		{"simple upgrade", "1.0.0", "2.0.0", -1},
		{"simple downgrade", "2.0.0", "1.0.0", 1},
		{"tilde sorts below empty", "1.0~rc1", "1.0", -1},
		{"tilde below tilde", "1.0~~", "1.0~", -1},
		{"epoch dominates", "1:1.0", "2.0", 1},
		{"revision breaks tie", "1.0-1", "1.0-2", -1},
		{"numeric run not lexical", "1.9", "1.10", -1},
		{"leading zero stripped", "1.00", "1.0", 0},
		{"alpha before digit run", "1.0a", "1.0", 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := sign(compareVersionStrings(tc.a, tc.b))
			assert.Equal(t, tc.want, got, "compareVersionStrings(%q, %q)", tc.a, tc.b)
		})
	}
}

func TestCompareVersionStringsAntisymmetric(t *testing.T) {
	pairs := [][2]string{
		{"1.2.3", "1.2.4"},
		{"2:1.0", "1:9.0"},
		{"1.0~beta1", "1.0~beta2"},
		{"1.0", "1.0"},
	}
	for _, p := range pairs {
		fwd := sign(compareVersionStrings(p[0], p[1]))
		back := sign(compareVersionStrings(p[1], p[0]))
		assert.Equal(t, -fwd, back, "comparison of %q vs %q is not antisymmetric", p[0], p[1])
	}
}
