package flame

import (
	"fmt"
	"sort"
	"strings"
)

// Stat names one of the fixed flame stat lines the bot can read.
type Stat string

const (
	StatSTR   Stat = "STR"
	StatDEX   Stat = "DEX"
	StatINT   Stat = "INT"
	StatLUK   Stat = "LUK"
	StatWA    Stat = "WA"
	StatMA    Stat = "MA"
	StatMaxHP Stat = "MaxHP"
	StatMaxMP Stat = "MaxMP"
	StatDEF   Stat = "DEF"
	StatSPEED Stat = "SPEED"
	// StatAllPercent is the "All Stats" line. Its value is a percentage.
	StatAllPercent Stat = "STATS%"
)

var allStats = []Stat{
	StatSTR, StatDEX, StatINT, StatLUK, StatWA, StatMA,
	StatMaxHP, StatMaxMP, StatDEF, StatSPEED, StatAllPercent,
}

// AllStats returns the fixed stat enumeration in display order.
func AllStats() []Stat {
	out := make([]Stat, len(allStats))
	copy(out, allStats)
	return out
}

// Valid reports whether s belongs to the fixed enumeration.
func (s Stat) Valid() bool {
	for _, v := range allStats {
		if v == s {
			return true
		}
	}
	return false
}

// Percent reports whether the stat value carries an implicit percent unit.
func (s Stat) Percent() bool { return s == StatAllPercent }

// Label returns the human readable label.
func (s Stat) Label() string {
	if s == StatAllPercent {
		return "All Stats"
	}
	return string(s)
}

// FormatValue renders v for s, adding the % suffix for percentage stats.
func (s Stat) FormatValue(v int) string {
	if s.Percent() {
		return fmt.Sprintf("%d%%", v)
	}
	return fmt.Sprintf("%d", v)
}

// ParsedStats is the structured interpretation of one OCR reading.
// Stats only holds detected lines; an absent key means "not detected".
type ParsedStats struct {
	Stats          map[Stat]int
	AttackIncrease *int
	CPIncrease     *int
	CurrentlyOwned *int
	Remaining      *int
	// RawText is the normalized text the values were read from.
	RawText string
	// OriginalText is the recognizer output before normalization.
	OriginalText string
}

// Value returns the parsed value for stat and whether it was detected.
func (p ParsedStats) Value(stat Stat) (int, bool) {
	if p.Stats == nil {
		return 0, false
	}
	v, ok := p.Stats[stat]
	return v, ok
}

// Empty reports whether no stat line was detected.
func (p ParsedStats) Empty() bool { return len(p.Stats) == 0 }

// Summary renders the detected values in enumeration order, e.g. "STR: 12, All Stats: 5%".
func (p ParsedStats) Summary() string {
	if p.Empty() && p.AttackIncrease == nil && p.CPIncrease == nil {
		return "no stats detected"
	}
	var parts []string
	for _, s := range allStats {
		if v, ok := p.Stats[s]; ok {
			parts = append(parts, s.Label()+": "+s.FormatValue(v))
		}
	}
	if p.AttackIncrease != nil {
		parts = append(parts, fmt.Sprintf("Attack Increase: %+d", *p.AttackIncrease))
	}
	if p.CPIncrease != nil {
		parts = append(parts, fmt.Sprintf("CP Increase: %+d", *p.CPIncrease))
	}
	return strings.Join(parts, ", ")
}

// ThresholdSet maps each enabled stat to its minimum acceptable value.
type ThresholdSet map[Stat]int

// Validate checks that every key is a known stat with a non-negative minimum.
func (t ThresholdSet) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("no thresholds enabled")
	}
	for s, v := range t {
		if !s.Valid() {
			return fmt.Errorf("unknown stat %q", s)
		}
		if v < 0 {
			return fmt.Errorf("threshold for %s must be non-negative, got %d", s, v)
		}
	}
	return nil
}

// Stats returns the enabled stats in enumeration order.
func (t ThresholdSet) Stats() []Stat {
	out := make([]Stat, 0, len(t))
	for s := range t {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return statIndex(out[i]) < statIndex(out[j]) })
	return out
}

// Clone returns an independent copy.
func (t ThresholdSet) Clone() ThresholdSet {
	if t == nil {
		return nil
	}
	out := make(ThresholdSet, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

func statIndex(s Stat) int {
	for i, v := range allStats {
		if v == s {
			return i
		}
	}
	return len(allStats)
}
