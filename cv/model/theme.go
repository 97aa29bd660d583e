package model

import (
	"errors"
	"regexp"
	"strings"
)

// DefaultThemeColor is applied when a document has no usable accent color.
const DefaultThemeColor = "#2563eb"

// ThemePresets are the swatches offered next to the color picker.
var ThemePresets = map[string]string{
	"blue":    "#2563eb",
	"emerald": "#059669",
	"rose":    "#e11d48",
	"amber":   "#d97706",
	"violet":  "#7c3aed",
	"slate":   "#334155",
}

// ErrInvalidColor is returned for values that are neither a preset nor a hex color.
var ErrInvalidColor = errors.New("invalid theme color")

var hexColorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// IsHexColor reports whether value is #rgb or #rrggbb.
func IsHexColor(value string) bool {
	return hexColorPattern.MatchString(value)
}

// ResolveThemeColor maps a preset name or a hex value to the color stored on the document.
func ResolveThemeColor(input string) (string, error) {
	value := strings.TrimSpace(input)
	if preset, ok := ThemePresets[strings.ToLower(value)]; ok {
		return preset, nil
	}
	if hex, ok := NormalizeHex(value); ok {
		return hex, nil
	}
	return "", ErrInvalidColor
}

// NormalizeHex lowercases a hex color and expands the #rgb shorthand to #rrggbb.
func NormalizeHex(value string) (string, bool) {
	if !IsHexColor(value) {
		return "", false
	}
	value = strings.ToLower(value)
	if len(value) == 4 {
		value = string([]byte{'#', value[1], value[1], value[2], value[2], value[3], value[3]})
	}
	return value, true
}
