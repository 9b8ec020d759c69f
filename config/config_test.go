package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/soocke/flame-bot-go/domain/capture"
	"github.com/soocke/flame-bot-go/domain/flame"
)

func sample() *Settings {
	s := DefaultSettings()
	s.FlameType = "eternal"
	s.Thresholds = flame.ThresholdSet{flame.StatSTR: 40, flame.StatAllPercent: 6}
	s.Tries = 25
	s.RerollPosition = capture.Point{X: 0.4871, Y: 0.6123}
	s.CaptureRegion = capture.Region{Left: 0.31, Top: 0.42, Right: 0.69, Bottom: 0.71}
	s.Delays = Delays{Parse: 1.75, Action: 0.35}
	return s
}

func TestSettings_RoundTripLossless(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)
	orig := sample()
	if err := orig.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	first, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(first, orig) {
		t.Fatalf("first load differs:\n got %+v\nwant %+v", first, orig)
	}
	if err := first.Save(path); err != nil {
		t.Fatalf("second save: %v", err)
	}
	second, err := Load(path)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("second load differs:\n got %+v\nwant %+v", second, first)
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if !reflect.DeepEqual(s, DefaultSettings()) {
		t.Fatalf("expected defaults, got %+v", s)
	}
}

func TestLoad_SchemaViolationReturnsDefaultsAndError(t *testing.T) {
	cases := map[string]string{
		"unknown stat":   `{"thresholds": {"HP": 5}}`,
		"fraction range": `{"capture_region": {"left": 0.1, "top": 0.1, "right": 1.5, "bottom": 0.5}}`,
		"wrong type":     `{"tries": "ten"}`,
		"negative":       `{"thresholds": {"STR": -1}}`,
	}
	for name, doc := range cases {
		path := filepath.Join(t.TempDir(), "s.json")
		if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
			t.Fatal(err)
		}
		s, err := Load(path)
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		if !reflect.DeepEqual(s, DefaultSettings()) {
			t.Fatalf("%s: expected defaults on error", name)
		}
	}
}

func TestDecode_PartialDocumentKeepsDefaults(t *testing.T) {
	s, err := Decode([]byte(`{"thresholds": {"STATS%": 5}, "tries": 3}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Tries != 3 || s.Thresholds[flame.StatAllPercent] != 5 {
		t.Fatalf("unexpected %+v", s)
	}
	if s.Delays != (Delays{Parse: 1.5, Action: 0.5}) || s.CaptureRegion != capture.DefaultRegion() {
		t.Fatalf("defaults lost: %+v", s)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("expected valid settings, got %v", err)
	}
}

func TestSettings_Validate(t *testing.T) {
	s := DefaultSettings()
	err := s.Validate()
	if !errors.Is(err, ErrInvalidSettings) {
		t.Fatalf("defaults without thresholds must be invalid, got %v", err)
	}
	s = sample()
	s.Tries = 0
	if err := s.Validate(); !errors.Is(err, ErrInvalidSettings) {
		t.Fatalf("zero tries must be invalid")
	}
	s = sample()
	s.Delays.Parse = 0
	if err := s.Validate(); err == nil {
		t.Fatalf("zero delay must be invalid")
	}
	s = sample()
	s.CaptureRegion.Left = 0.9
	if err := s.Validate(); err == nil {
		t.Fatalf("inverted region must be invalid")
	}
	if err := sample().Validate(); err != nil {
		t.Fatalf("sample must be valid: %v", err)
	}
}

func TestSettings_CloneIsIndependent(t *testing.T) {
	s := sample()
	c := s.Clone()
	c.Thresholds[flame.StatSTR] = 1
	if s.Thresholds[flame.StatSTR] != 40 {
		t.Fatalf("clone shares thresholds map")
	}
}

func TestLoadRuntime_EnvFileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	env := filepath.Join(dir, ".env")
	content := "FLAME_WINDOW_TITLE=MapleStory Test\nOCR_TIMEOUT_SEC=7\nSAVE_SCREENSHOTS=false\n"
	if err := os.WriteFile(env, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FLAME_WINDOW_TITLE", "")
	t.Setenv("OCR_TIMEOUT_SEC", "")
	t.Setenv("SAVE_SCREENSHOTS", "")
	t.Setenv("STOP_KEY", "f12")
	os.Unsetenv("FLAME_WINDOW_TITLE")
	os.Unsetenv("OCR_TIMEOUT_SEC")
	os.Unsetenv("SAVE_SCREENSHOTS")
	r := LoadRuntime(env)
	if r.WindowTitle != "MapleStory Test" {
		t.Fatalf("window title %q", r.WindowTitle)
	}
	if r.OCRTimeout != 7*time.Second {
		t.Fatalf("ocr timeout %v", r.OCRTimeout)
	}
	if r.SaveScreenshots {
		t.Fatalf("expected screenshots disabled")
	}
	if r.StopKey != "f12" {
		t.Fatalf("stop key %q", r.StopKey)
	}
	if r.ConfirmKey != "enter" {
		t.Fatalf("confirm key default lost: %q", r.ConfirmKey)
	}
}

func TestWatch_ReloadsOnSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultPath)
	if err := sample().Save(path); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan *Settings, 4)
	if err := Watch(ctx, path, 20*time.Millisecond, nil, func(s *Settings) { got <- s }); err != nil {
		t.Fatalf("watch: %v", err)
	}
	next := sample()
	next.Tries = 99
	if err := next.Save(path); err != nil {
		t.Fatal(err)
	}
	select {
	case s := <-got:
		if s.Tries != 99 {
			t.Fatalf("reloaded tries %d", s.Tries)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("timeout waiting for reload")
	}
}
