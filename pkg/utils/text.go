package utils

import "unicode/utf8"

// FirstRunes returns the first n runes of s and whether s was longer.
func FirstRunes(s string, n int) (string, bool) {
	if utf8.RuneCountInString(s) <= n {
		return s, false
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos], true
		}
		i++
	}
	return s, false
}

// LastRunes returns the last n runes of s, dropping any partial rune at the
// cut.
func LastRunes(s string, n int) string {
	count := utf8.RuneCountInString(s)
	if count <= n {
		// A byte slice may start mid-rune.
		for len(s) > 0 {
			r, size := utf8.DecodeRuneInString(s)
			if r != utf8.RuneError || size != 1 {
				break
			}
			s = s[size:]
		}
		return s
	}
	skip := count - n
	for pos := range s {
		if skip == 0 {
			return s[pos:]
		}
		skip--
	}
	return ""
}
