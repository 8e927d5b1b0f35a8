package genre

import (
	"strings"
	"unicode"
)

// ClassName converts a game title into a CamelCase Dart class name prefix,
// e.g. "space blaster 3000!" -> "SpaceBlaster3000".
func ClassName(title string) string {
	var cleaned strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			cleaned.WriteRune(r)
		} else {
			cleaned.WriteRune(' ')
		}
	}
	words := strings.Fields(cleaned.String())
	if len(words) == 0 {
		return "MyGame"
	}
	var b strings.Builder
	for _, w := range words {
		runes := []rune(w)
		b.WriteRune(unicode.ToUpper(runes[0]))
		b.WriteString(string(runes[1:]))
	}
	return b.String()
}

// escapeDartString escapes a value for interpolation into a single-quoted
// Dart string literal.
func escapeDartString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	s = strings.ReplaceAll(s, "$", `\$`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}

// PackageName converts a title into a lowercase underscore identifier for
// pubspec and Android package names, e.g. "Space Blaster!" -> "space_blaster".
func PackageName(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	name := strings.Trim(b.String(), "_")
	for strings.Contains(name, "__") {
		name = strings.ReplaceAll(name, "__", "_")
	}
	if name == "" {
		return "my_game"
	}
	return name
}
