package flame

import (
	"regexp"
	"strconv"
	"strings"
)

// sep matches the optional separator between a label and its value.
const sep = `\s*[+:]?\s*\+?\s*`

// allStatsLabel enumerates known recognitions of "All Stats".
const allStatsLabel = `(?i:All|A11|A1l|Al1|AlI|A1I|AIl|AII)\s*(?i:Stats?)`

// statPattern matches label in any case. The label must start on a word
// boundary and sep admits no letters, so MA never matches inside Max or Magic.
func statPattern(label string) *regexp.Regexp {
	return regexp.MustCompile(`\b(?i:` + label + `)` + sep + `(\d+)`)
}

// statPatterns holds the pattern family for each stat, tried in order.
var statPatterns = map[Stat][]*regexp.Regexp{
	StatSTR:   {statPattern(`STR`)},
	StatDEX:   {statPattern(`DEX`)},
	StatINT:   {statPattern(`INT`)},
	StatLUK:   {statPattern(`LUK`)},
	StatWA:    {statPattern(`WA`), statPattern(`Attack\s*Power`)},
	StatMA:    {statPattern(`MA`), statPattern(`Magic\s*Attack`)},
	StatMaxHP: {statPattern(`MaxHP`), statPattern(`Max\s*HP`)},
	StatMaxMP: {statPattern(`MaxMP`), statPattern(`Max\s*MP`)},
	StatDEF:   {statPattern(`DEF`), statPattern(`Defense`)},
	StatSPEED: {statPattern(`SPEED`)},
	StatAllPercent: {
		regexp.MustCompile(allStatsLabel + sep + `(\d+)\s*%`),
		regexp.MustCompile(allStatsLabel + sep + `(\d+)`),
	},
}

// signedPattern matches a label followed by an optionally signed integer.
func signedPattern(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?i:` + label + `)\s*:?\s*([+-]?\s*\d+)`)
}

var (
	attackPattern = signedPattern(`Attack\s*Increase`)
	cpPattern     = signedPattern(`CP\s*Increase`)
	ownedPattern  = signedPattern(`Currently\s*owned`)
	remainPattern = signedPattern(`Remaining`)
)

// Parse extracts stats from normalized text, falling back to the original
// recognizer text per field when the normalized text has no match.
// It never fails: unreadable input yields an empty result.
func Parse(normalized, original string) ParsedStats {
	p := ParsedStats{
		Stats:        make(map[Stat]int),
		RawText:      normalized,
		OriginalText: original,
	}
	sources := []string{normalized}
	if original != "" && original != normalized {
		sources = append(sources, original)
	}
	for _, stat := range allStats {
		if v, ok := firstInt(statPatterns[stat], sources); ok {
			p.Stats[stat] = v
		}
	}
	p.AttackIncrease = optionalInt(attackPattern, sources)
	p.CPIncrease = optionalInt(cpPattern, sources)
	p.CurrentlyOwned = optionalInt(ownedPattern, sources)
	p.Remaining = optionalInt(remainPattern, sources)
	return p
}

// ParseText normalizes raw recognizer output and parses it.
func ParseText(raw string) ParsedStats { return Parse(Normalize(raw), raw) }

// firstInt returns the first convertible capture over sources then patterns.
// Captures that fail integer conversion are skipped.
func firstInt(patterns []*regexp.Regexp, sources []string) (int, bool) {
	for _, src := range sources {
		for _, re := range patterns {
			for _, m := range re.FindAllStringSubmatch(src, -1) {
				if v, err := atoi(m[1]); err == nil {
					return v, true
				}
			}
		}
	}
	return 0, false
}

func optionalInt(re *regexp.Regexp, sources []string) *int {
	v, ok := firstInt([]*regexp.Regexp{re}, sources)
	if !ok {
		return nil
	}
	return &v
}

func atoi(s string) (int, error) {
	return strconv.Atoi(strings.ReplaceAll(s, " ", ""))
}
