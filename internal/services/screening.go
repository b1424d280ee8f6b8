package services

import (
	"strings"
	"unicode"
)

// selfHarmPhrases are matched against normalised text, so they are stored
// normalised too.
var selfHarmPhrases = normalizeAll([]string{
	"suicide",
	"suicidal",
	"kill myself",
	"end my life",
	"take my life",
	"end it all",
	"self harm",
	"cut myself",
	"hurt myself",
	"harm myself",
	"want to die",
	"wish i was dead",
	"not worth living",
	"better off dead",
	"unalive",
})

var leetReplacer = strings.NewReplacer(
	"@", "a", "4", "a", "3", "e", "1", "i",
	"0", "o", "$", "s", "5", "s", "7", "t",
)

// normalizeForScreening lowercases s, undoes common character swaps, turns
// everything that is not a letter into a single space and collapses
// repeated letters ("diiie" -> "die").
func normalizeForScreening(s string) string {
	s = leetReplacer.Replace(strings.ToLower(s))

	var b strings.Builder
	var last rune
	space := true
	for _, r := range s {
		if !unicode.IsLetter(r) {
			if !space {
				b.WriteByte(' ')
				space = true
			}
			last = 0
			continue
		}
		if r == last {
			continue
		}
		b.WriteRune(r)
		last = r
		space = false
	}
	return strings.TrimSpace(b.String())
}

func normalizeAll(phrases []string) []string {
	out := make([]string, len(phrases))
	for i, p := range phrases {
		out[i] = normalizeForScreening(p)
	}
	return out
}

// ScreenForSelfHarm returns the self-harm phrases found in text. Single
// words only match whole words, so "suicidesquad" does not match.
func ScreenForSelfHarm(text string) []string {
	norm := normalizeForScreening(text)
	if norm == "" {
		return nil
	}
	padded := " " + norm + " "

	var matched []string
	for _, phrase := range selfHarmPhrases {
		if strings.Contains(padded, " "+phrase+" ") {
			matched = append(matched, phrase)
		}
	}
	return matched
}
