package kvstore

import "unicode"

// KeyValid returns true if the key can be stored by every persister: it must be non-empty,
// must not be "." or "..", and must not contain path separators, NUL or other control characters.
func KeyValid(key string) bool {
	if key == "" || key == "." || key == ".." {
		return false
	}
	invalidRunes := []rune{'/', '\\', 0}

	for _, r := range key {
		if unicode.IsControl(r) || containsRune(invalidRunes, r) {
			return false
		}
	}
	return true
}

func containsRune(runes []rune, r rune) bool {
	for _, r2 := range runes {
		if r2 == r {
			return true
		}
	}
	return false
}
