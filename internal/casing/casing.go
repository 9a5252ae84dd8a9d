// Package casing checks that object keys follow a configured naming
// convention, both in API responses and in the schema documenting them.
package casing

import (
	"fmt"
	"strings"
	"unicode"
)

type Style string

const (
	Camel  Style = "camelCase"
	Snake  Style = "snake_case"
	Pascal Style = "PascalCase"
	Kebab  Style = "kebab-case"
)

func Styles() []Style {
	return []Style{Camel, Snake, Pascal, Kebab}
}

// CaseError reports a key that does not follow the configured style.
type CaseError struct {
	Key      string
	Style    Style
	Expected string
}

func (e CaseError) Error() string {
	return fmt.Sprintf(
		"The key `%s` is not properly %s. Expected `%s`.",
		e.Key, verb(e.Style), e.Expected,
	)
}

func verb(style Style) string {
	switch style {
	case Camel:
		return "camelCased"
	case Snake:
		return "snake_cased"
	case Pascal:
		return "PascalCased"
	default:
		return "kebab-cased"
	}
}

// Checker returns the per-key check for a style.
func Checker(style Style) (func(string) error, error) {
	var convert func(string) string
	switch style {
	case Camel:
		convert = toCamel
	case Snake:
		convert = toSnake
	case Pascal:
		convert = toPascal
	case Kebab:
		convert = toKebab
	default:
		return nil, fmt.Errorf("unsupported case style %q", style)
	}
	return func(key string) error {
		// additionalProperties objects surface a synthetic empty key
		if key == "" {
			return nil
		}
		if expected := convert(key); expected != key {
			return CaseError{Key: key, Style: style, Expected: expected}
		}
		return nil
	}, nil
}

// words splits a key into lower-cased words on separators and case boundaries.
func words(s string) []string {
	var ws []string
	var current []rune
	flush := func() {
		if len(current) > 0 {
			ws = append(ws, strings.ToLower(string(current)))
			current = nil
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == ' ':
			flush()
		case unicode.IsUpper(r):
			if i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])) {
				flush()
			} else if i > 0 && i+1 < len(runes) &&
				unicode.IsUpper(runes[i-1]) && unicode.IsLower(runes[i+1]) {
				// end of an acronym run: HTTPServer -> http, server
				flush()
			}
			current = append(current, r)
		default:
			current = append(current, r)
		}
	}
	flush()
	return ws
}

func toSnake(s string) string {
	return strings.Join(words(s), "_")
}

func toKebab(s string) string {
	return strings.Join(words(s), "-")
}

func toCamel(s string) string {
	ws := words(s)
	for i := 1; i < len(ws); i++ {
		ws[i] = title(ws[i])
	}
	return strings.Join(ws, "")
}

func toPascal(s string) string {
	ws := words(s)
	for i := range ws {
		ws[i] = title(ws[i])
	}
	return strings.Join(ws, "")
}

func title(w string) string {
	if w == "" {
		return w
	}
	return strings.ToUpper(w[:1]) + w[1:]
}
