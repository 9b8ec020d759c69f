package flame

import (
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
)

// fuzzyThreshold is the minimum similarity for a label to be rewritten.
const fuzzyThreshold = 0.80

// vocabulary holds canonical label words. Multi-word labels are split so that
// tokens can be compared one by one.
var vocabulary = []string{
	"STR", "DEX", "INT", "LUK", "WA", "MA",
	"All", "Stats", "MaxHP", "MaxMP", "DEF", "SPEED",
	"Attack", "Increase", "CP", "Currently", "Remaining",
}

// substringFixes are confusions that never occur in canonical text.
var substringFixes = strings.NewReplacer(
	"5TAT", "STAT",
	"5TR", "STR",
	"Increa5e", "Increase",
	"lncrease", "Increase",
	"Inorease", "Increase",
	"Incnease", "Increase",
)

// labelFixes replace a whole label that is too short for fuzzy matching.
var labelFixes = map[string]string{
	"STF": "STR",
	"5TF": "STR",
	"DEV": "DEX",
	"lNT": "INT",
	"1NT": "INT",
	"LUX": "LUK",
}

// signFixes are leading glyph pairs that stand for a plain plus sign.
var signFixes = []string{"l+", "I+", "|+"}

// Normalizer rewrites raw recognizer output into text the Parser can match.
// The zero value is ready to use.
type Normalizer struct {
	// Vocabulary overrides the canonical label words when non-empty.
	Vocabulary []string
	// Threshold overrides the fuzzy similarity threshold when > 0.
	Threshold float64
}

// Normalize applies the default Normalizer.
func Normalize(text string) string { return Normalizer{}.Normalize(text) }

// Normalize fixes known glyph confusions and snaps near-miss labels to the vocabulary.
// Canonical text is returned unchanged.
func (n Normalizer) Normalize(text string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = strings.Join(strings.Fields(text), " ")
		}
	}()
	vocab := n.Vocabulary
	if len(vocab) == 0 {
		vocab = vocabulary
	}
	threshold := n.Threshold
	if threshold <= 0 {
		threshold = fuzzyThreshold
	}
	tokens := strings.Fields(substringFixes.Replace(text))
	for i, tok := range tokens {
		tok = fixSign(tok)
		tok = fixNumericRuns(tok)
		tok = fixLabel(tok, vocab, threshold)
		tokens[i] = tok
	}
	return strings.Join(tokens, " ")
}

func fixSign(tok string) string {
	for _, p := range signFixes {
		if strings.HasPrefix(tok, p) && len(tok) > len(p) && isDigit(rune(tok[len(p)])) {
			return "+" + tok[len(p):]
		}
	}
	return tok
}

// ambiguousDigits maps letter glyphs that the recognizer confuses with digits.
var ambiguousDigits = map[rune]rune{'l': '1', 'I': '1', '|': '1', 'O': '0', 'o': '0'}

// fixNumericRuns rewrites runs of digits and digit look-alikes to digits.
// A run qualifies when it is not glued to a preceding letter, is not followed
// by a letter, and either contains a real digit or follows a sign.
func fixNumericRuns(tok string) string {
	rs := []rune(tok)
	changed := false
	for i := 0; i < len(rs); {
		if !isDigit(rs[i]) && !isAmbiguous(rs[i]) {
			i++
			continue
		}
		j := i
		hasDigit := false
		for j < len(rs) && (isDigit(rs[j]) || isAmbiguous(rs[j])) {
			if isDigit(rs[j]) {
				hasDigit = true
			}
			j++
		}
		prevLetter := i > 0 && unicode.IsLetter(rs[i-1])
		nextLetter := j < len(rs) && unicode.IsLetter(rs[j])
		signed := i > 0 && (rs[i-1] == '+' || rs[i-1] == '-')
		if !prevLetter && !nextLetter && (hasDigit || signed) {
			for k := i; k < j; k++ {
				if d, ok := ambiguousDigits[rs[k]]; ok {
					rs[k] = d
					changed = true
				}
			}
		}
		i = j
	}
	if !changed {
		return tok
	}
	return string(rs)
}

// fixLabel corrects the leading alphabetic part of a token that looks like a label.
// The fix table is also consulted with the leading alphanumeric run so that
// labels misread with a digit, such as 1NT, are found.
func fixLabel(tok string, vocab []string, threshold float64) string {
	if !hasUpper(tok) {
		return tok
	}
	end := 0
	for end < len(tok) && isLetterByte(tok[end]) {
		end++
	}
	alnum := end
	for alnum < len(tok) && (isLetterByte(tok[alnum]) || isDigit(rune(tok[alnum]))) {
		alnum++
	}
	if fixed, ok := labelFixes[tok[:alnum]]; ok {
		return fixed + tok[alnum:]
	}
	label, rest := tok[:end], tok[end:]
	if fixed, ok := labelFixes[label]; ok {
		return fixed + rest
	}
	if label == "" || !hasUpper(label) {
		return tok
	}
	best, score := "", 0.0
	for _, word := range vocab {
		if word == label {
			return tok
		}
		if s := levenshtein.Similarity(label, word, nil); s > score {
			best, score = word, s
		}
	}
	if score > threshold {
		return best + rest
	}
	return tok
}

func hasUpper(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isAmbiguous(r rune) bool {
	_, ok := ambiguousDigits[r]
	return ok
}

func isLetterByte(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') }
