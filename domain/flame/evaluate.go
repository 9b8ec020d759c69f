package flame

import "fmt"

// Shortfall describes one threshold that a reading did not satisfy.
type Shortfall struct {
	Stat     Stat
	Required int
	Observed int
	Missing  bool
}

func (s Shortfall) String() string {
	if s.Missing {
		return fmt.Sprintf("%s: not detected (need %s)", s.Stat.Label(), s.Stat.FormatValue(s.Required))
	}
	return fmt.Sprintf("%s: %s < %s", s.Stat.Label(), s.Stat.FormatValue(s.Observed), s.Stat.FormatValue(s.Required))
}

// Evaluation is the outcome of comparing a reading against thresholds.
type Evaluation struct {
	Met       bool
	Satisfied int
	Unmet     []Shortfall
}

// Evaluate compares p against every enabled threshold. A stat missing from
// the reading counts as unmet, and an empty threshold set is never met.
func Evaluate(p ParsedStats, t ThresholdSet) Evaluation {
	var ev Evaluation
	if len(t) == 0 {
		return ev
	}
	for _, stat := range t.Stats() {
		need := t[stat]
		got, ok := p.Value(stat)
		switch {
		case !ok:
			ev.Unmet = append(ev.Unmet, Shortfall{Stat: stat, Required: need, Missing: true})
		case got < need:
			ev.Unmet = append(ev.Unmet, Shortfall{Stat: stat, Required: need, Observed: got})
		default:
			ev.Satisfied++
		}
	}
	ev.Met = len(ev.Unmet) == 0
	return ev
}

// Met reports whether p satisfies every threshold in t.
func Met(p ParsedStats, t ThresholdSet) bool { return Evaluate(p, t).Met }

// Better reports whether candidate is closer to meeting t than current.
// Readings are ranked by satisfied thresholds, then by the summed values of
// the enabled stats.
func Better(candidate, current ParsedStats, t ThresholdSet) bool {
	a, b := Evaluate(candidate, t), Evaluate(current, t)
	if a.Satisfied != b.Satisfied {
		return a.Satisfied > b.Satisfied
	}
	return enabledSum(candidate, t) > enabledSum(current, t)
}

func enabledSum(p ParsedStats, t ThresholdSet) int {
	sum := 0
	for stat := range t {
		if v, ok := p.Value(stat); ok {
			sum += v
		}
	}
	return sum
}
