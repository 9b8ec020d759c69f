package model

import (
	"testing"
	"time"

	"github.com/soocke/flame-bot-go/config"
	"github.com/soocke/flame-bot-go/domain/flame"
)

func TestSessionModel_RunLifecycle(t *testing.T) {
	m := NewSessionModel()
	base := time.Unix(0, 0)

	m.OnTick(true, base)
	m.OnTick(true, base.Add(5*time.Second))
	run, total := m.Values()
	if run != 5*time.Second || total != 5*time.Second {
		t.Fatalf("expected 5s run & total; got run=%v total=%v", run, total)
	}

	m.OnTick(false, base.Add(5*time.Second))
	m.OnTick(false, base.Add(7*time.Second))
	run2, total2 := m.Values()
	if run2 != run || total2 != total {
		t.Fatalf("idle ticks must not change durations: run=%v total=%v", run2, total2)
	}

	m.OnTick(true, base.Add(10*time.Second))
	m.OnTick(true, base.Add(13*time.Second))
	run3, total3 := m.Values()
	if run3 != 3*time.Second || total3 != 8*time.Second {
		t.Fatalf("second run expected 3s/8s, got %v/%v", run3, total3)
	}
	m.OnTick(false, base.Add(13*time.Second))
	if m.Runs() != 2 {
		t.Fatalf("expected 2 runs, got %d", m.Runs())
	}
}

func TestSettingsModel_CopiesAndVersions(t *testing.T) {
	s := config.DefaultSettings()
	s.Thresholds = flame.ThresholdSet{flame.StatSTR: 10}
	m := NewSettingsModel(s)
	got := m.Get()
	got.Thresholds[flame.StatSTR] = 99
	if m.Get().Thresholds[flame.StatSTR] != 10 {
		t.Fatalf("Get must return a copy")
	}
	v := m.Version()
	next := m.Get()
	next.Tries = 42
	m.Set(next)
	if m.Version() != v+1 || m.Get().Tries != 42 {
		t.Fatalf("set not applied: version=%d tries=%d", m.Version(), m.Get().Tries)
	}
}

func TestReadingModel_Sequence(t *testing.T) {
	m := NewReadingModel()
	if m.Latest().Seq != 0 {
		t.Fatalf("expected empty model")
	}
	p := flame.ParsedStats{OriginalText: "5TR +12"}
	if seq := m.Set(nil, p, "STR: 12"); seq != 1 {
		t.Fatalf("seq %d", seq)
	}
	if m.RawText() != "5TR +12" || m.Latest().Summary != "STR: 12" {
		t.Fatalf("unexpected reading %+v", m.Latest())
	}
}
