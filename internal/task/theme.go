package task

type Theme string

const (
	ThemeLight  Theme = "Light"
	ThemeDark   Theme = "Dark"
	ThemeSystem Theme = "System"
)

// Next cycles Light -> Dark -> System -> Light. Unknown values restart at Light.
func (t Theme) Next() Theme {
	switch t {
	case ThemeLight:
		return ThemeDark
	case ThemeDark:
		return ThemeSystem
	default:
		return ThemeLight
	}
}

// ParseTheme maps a stored value to a theme, defaulting to System.
func ParseTheme(v string) Theme {
	switch Theme(v) {
	case ThemeLight, ThemeDark:
		return Theme(v)
	default:
		return ThemeSystem
	}
}
