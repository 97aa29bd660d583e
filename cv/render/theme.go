package render

import (
	"strings"

	"portal-web/cv/model"
)

// ThemeColor returns the normalized accent color, or the default when raw is not a hex color.
func ThemeColor(raw string) string {
	if hex, ok := model.NormalizeHex(strings.TrimSpace(raw)); ok {
		return hex
	}
	return model.DefaultThemeColor
}

// HeadingStyle colors heading text and its rule with the theme color.
func HeadingStyle(color string) string {
	return "color: " + color + "; border-bottom: 2px solid " + color + ";"
}

// ChipStyle uses the raw theme color for text and a tinted background.
func ChipStyle(color string) string {
	return "color: " + color + "; background-color: " + color + ChipAlphaSuffix + ";"
}

// ResolvePhotoURL returns a URL usable in an img tag. Data, blob and absolute URLs pass
// through unchanged, protocol-relative ones included; stored relative paths are prefixed with the asset base URL.
func ResolvePhotoURL(assetBaseURL, photo string) string {
	photo = strings.TrimSpace(photo)
	if photo == "" {
		return ""
	}
	lower := strings.ToLower(photo)
	for _, prefix := range []string{"data:", "blob:", "http://", "https://", "//"} {
		if strings.HasPrefix(lower, prefix) {
			return photo
		}
	}
	base := strings.TrimRight(assetBaseURL, "/")
	if base == "" {
		return photo
	}
	return base + "/" + strings.TrimLeft(photo, "/")
}
