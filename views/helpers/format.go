package helpers

import (
	"strings"
	"unicode"
	"unicode/utf8"

	twmerge "github.com/Oudwins/tailwind-merge-go"
)

// Classes merges Tailwind class lists, later classes winning conflicts
// (e.g. Classes("px-2 py-1", "p-3") -> "p-3")
func Classes(classes ...string) string {
	return twmerge.Merge(classes...)
}

// Initial returns the upper-cased first letter of an email, or "?" when empty
func Initial(email string) string {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(email))
	if r == utf8.RuneError {
		return "?"
	}
	return string(unicode.ToUpper(r))
}
