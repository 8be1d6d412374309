package sport

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var possessive = regexp.MustCompile(`(\pL)['’]s\b`)

// Fold lowercases s, strips diacritics and drops possessive 's.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return possessive.ReplaceAllString(cases.Fold().String(stripped), "$1")
}

// Tokens splits folded text into runs of letters and digits.
func Tokens(s string) []string {
	return strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Matches reports whether any of the texts claims the slot: a keyword
// matches and no exclude phrase appears in that same text.
func (s Slot) Matches(texts ...string) bool {
	for _, text := range texts {
		tokens := Tokens(text)
		if len(tokens) == 0 {
			continue
		}
		if containsPhrase(tokens, s.Exclude, false) {
			continue
		}
		if containsPhrase(tokens, s.Keywords, true) {
			return true
		}
	}
	return false
}

// Classify returns the index of the first slot that matches the texts, or
// -1 when none does.
func Classify(slots []Slot, texts ...string) int {
	for i, s := range slots {
		if s.Matches(texts...) {
			return i
		}
	}
	return -1
}

// ContainsAny reports whether any phrase appears in text as whole tokens.
func ContainsAny(text string, phrases []string) bool {
	return containsPhrase(Tokens(text), phrases, false)
}

// containsPhrase looks for a contiguous token run of any phrase. With
// strict set, a run directly followed by a number is rejected, so the
// keyword "qualifying" does not claim "qualifying 2".
func containsPhrase(tokens []string, phrases []string, strict bool) bool {
	for _, phrase := range phrases {
		want := Tokens(phrase)
		if len(want) == 0 || len(want) > len(tokens) {
			continue
		}
		for i := 0; i+len(want) <= len(tokens); i++ {
			if !equalRun(tokens[i:i+len(want)], want) {
				continue
			}
			if next := i + len(want); strict && next < len(tokens) && isNumber(tokens[next]) {
				continue
			}
			return true
		}
	}
	return false
}

func equalRun(a, b []string) bool {
	for i := range b {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func isNumber(token string) bool {
	for _, r := range token {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return token != ""
}
