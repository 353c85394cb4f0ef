package analyzer

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// WindowRadius is how many characters either side of a mention are examined
// for context depth.
const WindowRadius = 140

// indexFold returns the byte span of the first case-insensitive occurrence of
// target in text, or -1, -1.
func indexFold(text, target string) (int, int) {
	if target == "" {
		return -1, -1
	}
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(target))
	if err != nil {
		return -1, -1
	}
	loc := re.FindStringIndex(text)
	if loc == nil {
		return -1, -1
	}
	return loc[0], loc[1]
}

// containsFold reports whether target occurs in text ignoring case.
func containsFold(text, target string) bool {
	start, _ := indexFold(text, target)
	return start >= 0
}

// Window returns the first mention of target together with up to radius
// characters on each side. It returns "" when target does not occur.
func Window(text, target string, radius int) string {
	start, end := indexFold(text, target)
	if start < 0 {
		return ""
	}
	return text[backRunes(text, start, radius):forwardRunes(text, end, radius)]
}

// backRunes steps n runes left of byte offset i.
func backRunes(s string, i, n int) int {
	for ; n > 0 && i > 0; n-- {
		_, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
	}
	return i
}

// forwardRunes steps n runes right of byte offset i.
func forwardRunes(s string, i, n int) int {
	for ; n > 0 && i < len(s); n-- {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return i
}

// distinct trims names and drops blanks and repeats, keeping first-seen order.
func distinct(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
