package utils

import "regexp"

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// IsHexColor reports whether s is a six digit hex color such as #409EFF.
func IsHexColor(s string) bool {
	return hexColorPattern.MatchString(s)
}
