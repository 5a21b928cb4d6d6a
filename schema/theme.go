package schema

import "strings"

// DefaultTheme is the theme used when neither the document nor the config picks one.
const DefaultTheme ThemeName = ThemeLight

const (
	// ThemeLight is the light surface theme.
	ThemeLight ThemeName = "light"
	// ThemeDark is the dark surface theme.
	ThemeDark ThemeName = "dark"
)

var themeNames = []ThemeName{
	ThemeLight,
	ThemeDark,
}

// AvailableThemes returns the supported theme names.
func AvailableThemes() []ThemeName {
	out := make([]ThemeName, len(themeNames))
	copy(out, themeNames)
	return out
}

// NormalizeThemeName returns a canonical theme name if supported.
func NormalizeThemeName(name string) (ThemeName, bool) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	switch normalized {
	case "light", "day", "default":
		return ThemeLight, true
	case "dark", "night":
		return ThemeDark, true
	default:
		return "", false
	}
}
