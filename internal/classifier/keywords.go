// Package classifier decides whether feedback text reads as negative.
package classifier

import "strings"

// Keywords are matched as case-insensitive substrings, not whole words, so a
// short entry can also hit inside an unrelated longer word.
var (
	englishNegativeKeywords = []string{
		"dirty", "filthy", "broken", "cold", "rude", "terrible", "awful",
		"horrible", "worst", "disgusting", "unacceptable", "noisy", "noise",
		"smell", "stink", "stain", "leak", "mold", "cockroach", "bedbug",
		"slow", "poor", "bad", "disappointed", "disappointing", "complaint",
		"uncomfortable", "unfriendly", "overcharged", "refund", "never again",
		"not working", "doesn't work", "didn't work",
	}

	spanishNegativeKeywords = []string{
		"sucio", "sucia", "roto", "rota", "frío", "fría", "grosero", "grosera",
		"terrible", "horrible", "pésimo", "pésima", "asqueroso", "asquerosa",
		"inaceptable", "ruido", "ruidoso", "mal olor", "mancha", "fuga", "moho",
		"cucaracha", "lento", "lenta", "malo", "mala", "decepcionado",
		"decepcionante", "queja", "incómodo", "incómoda", "cobro de más",
		"reembolso", "no funciona",
	}
)

var negativeKeywords = buildKeywordSet(englishNegativeKeywords, spanishNegativeKeywords)

func buildKeywordSet(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, kw := range list {
			kw = strings.ToLower(kw)
			if _, ok := seen[kw]; ok {
				continue
			}
			seen[kw] = struct{}{}
			out = append(out, kw)
		}
	}
	return out
}

// IsNegative reports whether text contains any negative keyword.
// Empty text is never negative.
func IsNegative(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range negativeKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// AnyNegative reports whether any of texts is negative
func AnyNegative(texts ...string) bool {
	for _, t := range texts {
		if IsNegative(t) {
			return true
		}
	}
	return false
}

// MatchedKeywords returns every keyword found in text, in list order
func MatchedKeywords(text string) []string {
	lower := strings.ToLower(text)
	var hits []string
	for _, kw := range negativeKeywords {
		if strings.Contains(lower, kw) {
			hits = append(hits, kw)
		}
	}
	return hits
}

// Keywords returns a copy of the full keyword list
func Keywords() []string {
	return append([]string(nil), negativeKeywords...)
}
