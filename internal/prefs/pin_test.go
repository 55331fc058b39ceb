package prefs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePinPreferencesParsesStanzas(t *testing.T) {
	doc := `Package: firefox*
Pin: release a=experimental
Pin-Priority: -10

Package: vim
Pin: version 2:8.*
Pin-Priority: 700
`
	pins, err := ParsePinPreferences(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, pins, 2)
	assert.Equal(t, Pin{PackageGlob: "firefox*", Selector: "release a=experimental", Priority: -10}, pins[0])
	assert.Equal(t, Pin{PackageGlob: "vim", Selector: "version 2:8.*", Priority: 700}, pins[1])
}

func TestParsePinPreferencesRejectsIncompleteStanza(t *testing.T) {
	_, err := ParsePinPreferences(strings.NewReader("Package: vim\n"))
	assert.Error(t, err)
}

func TestResolvePinVersionSelectorDistinguishesVersions(t *testing.T) {
	pins := []Pin{{PackageGlob: "vim", Selector: "version 8.*", Priority: 700}}
	assert.Equal(t, 700, ResolvePin(pins, "vim", "8.2"))
	assert.Equal(t, 0, ResolvePin(pins, "vim", "9.0"))
}

func TestResolvePinReleaseSelectorAppliesToEveryVersion(t *testing.T) {
	pins := []Pin{{PackageGlob: "firefox*", Selector: "release a=experimental", Priority: -10}}
	assert.Equal(t, -10, ResolvePin(pins, "firefox-esr", "1.0"))
	assert.Equal(t, -10, ResolvePin(pins, "firefox-esr", "2.0"))
}

func TestResolvePinLaterStanzaOverridesEarlier(t *testing.T) {
	pins := []Pin{
		{PackageGlob: "vim", Selector: "version *", Priority: 100},
		{PackageGlob: "vim", Selector: "version 8.*", Priority: 700},
	}
	assert.Equal(t, 700, ResolvePin(pins, "vim", "8.2"))
	assert.Equal(t, 100, ResolvePin(pins, "vim", "7.4"))
}
