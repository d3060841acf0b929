package ocr

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldMatcher matches a model read against station names after aggressive
// normalization: diacritics stripped, case folded, punctuation and spacing
// dropped, and the "station" / "underground station" suffixes removed.
// "KINGS CROSS ST. PANCRAS" and "King's Cross St Pancras Underground Station"
// both normalize to the same key.
type FoldMatcher struct{}

// stripMarks removes combining marks after NFKD decomposition, so "é" → "e".
var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var suffixes = []string{
	"underground station",
	"rail station",
	"dlr station",
	"station",
}

// Normalize reduces a station name or model read to a comparison key.
func Normalize(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}
	folded = cases.Fold().String(folded)

	for _, suffix := range suffixes {
		folded = strings.TrimSuffix(strings.TrimSpace(folded), suffix)
	}

	var b strings.Builder
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (FoldMatcher) Match(read string, candidates []string) bool {
	key := Normalize(read)
	if key == "" {
		return false
	}

	for _, candidate := range candidates {
		ck := Normalize(candidate)
		if ck == "" {
			continue
		}
		// Roundel photos often crop part of the name; accept a containment
		// either way rather than requiring an exact read.
		if key == ck || strings.Contains(key, ck) || strings.Contains(ck, key) {
			return true
		}
	}
	return false
}
