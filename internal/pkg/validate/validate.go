package validate

import (
	"strings"
	"unicode/utf8"
)

func Required(value string) bool {
	return strings.TrimSpace(value) != ""
}

func MaxLen(value string, n int) bool {
	return utf8.RuneCountInString(value) <= n
}

// OptionalString trims value and returns nil when it is blank.
func OptionalString(value string) *string {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil
	}
	return &v
}
