package flame

import "testing"

func TestNormalize_CanonicalTextUnchanged(t *testing.T) {
	inputs := []string{
		"STR+12",
		"STR +12 DEX +7",
		"All Stats +5%",
		"Attack Increase: -3 CP Increase: +120",
		"Currently owned: 57 Remaining: 3",
		"MaxHP +1200 MaxMP +900 SPEED +4",
	}
	for _, in := range inputs {
		if got := Normalize(in); got != in {
			t.Fatalf("Normalize(%q) = %q, want unchanged", in, got)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"5TR +l2",
		"DEV: 7 lNT +1O",
		"Attack lncrease: -3",
		"Remainlng: 12",
		"A11 Stats+5%",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Fatalf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNormalize_FixesKnownConfusions(t *testing.T) {
	cases := map[string]string{
		"5TR +l2":             "STR +12",
		"DEV: 7":              "DEX: 7",
		"lNT +1O":             "INT +10",
		"STF l+25":            "STR +25",
		"Attack lncrease: -3": "Attack Increase: -3",
		"Increa5e":            "Increase",
		"Remainlng: 12":       "Remaining: 12",
		"Attaek Increase: 4":  "Attack Increase: 4",
		"  STR\n+12  ":        "STR +12",
		"1NT+5":               "INT+5",
		"5TF+3":               "STR+3",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalize_LeavesAlphabeticWordsAlone(t *testing.T) {
	cases := []string{"Currently owned: 4", "Owned Items", "increse lol", "Inventory"}
	for _, in := range cases {
		if got := Normalize(in); got != in {
			t.Fatalf("Normalize(%q) = %q, want unchanged", in, got)
		}
	}
}

func TestNormalize_MalformedInputDoesNotPanic(t *testing.T) {
	inputs := []string{"", "   ", "\x00\xff\xfe", "+++ ::: %%%", "l|I0o", "ÄÖÜ STR+1"}
	for _, in := range inputs {
		_ = Normalize(in)
	}
}
