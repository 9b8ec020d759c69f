package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/soocke/flame-bot-go/domain/capture"
	"github.com/soocke/flame-bot-go/domain/flame"
)

// DefaultPath is the settings file used when no -config flag is given.
const DefaultPath = "flame_settings.json"

// ErrInvalidSettings wraps every validation failure.
var ErrInvalidSettings = errors.New("invalid settings")

// Delays are the pauses of one reroll action, in seconds.
type Delays struct {
	// Parse is the settle time between the last key press and the capture.
	Parse float64 `json:"parse"`
	// Action is the pause between the click and each confirmation key.
	Action float64 `json:"action"`
}

// Settings is the persisted per-user configuration of a reroll run.
type Settings struct {
	FlameType      string             `json:"flame_type"`
	Thresholds     flame.ThresholdSet `json:"thresholds"`
	Tries          int                `json:"tries"`
	RerollPosition capture.Point      `json:"reroll_position"`
	CaptureRegion  capture.Region     `json:"capture_region"`
	Delays         Delays             `json:"delays"`
}

// DefaultSettings returns Settings populated with standard defaults.
// Thresholds start empty; a run needs at least one.
func DefaultSettings() *Settings {
	return &Settings{
		FlameType:      "powerful",
		Thresholds:     flame.ThresholdSet{},
		Tries:          10,
		RerollPosition: capture.Point{X: 0.5, Y: 0.5},
		CaptureRegion:  capture.DefaultRegion(),
		Delays:         Delays{Parse: 1.5, Action: 0.5},
	}
}

// Clone returns a deep copy so a run can hold settings immune to later edits.
func (s *Settings) Clone() *Settings {
	if s == nil {
		return nil
	}
	c := *s
	c.Thresholds = s.Thresholds.Clone()
	return &c
}

// Validate reports every problem that would prevent a run from starting.
func (s *Settings) Validate() error {
	var errs []error
	if s.Tries <= 0 {
		errs = append(errs, fmt.Errorf("tries must be positive, got %d", s.Tries))
	}
	if err := s.Thresholds.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := s.RerollPosition.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("reroll %w", err))
	}
	if err := s.CaptureRegion.Validate(); err != nil {
		errs = append(errs, err)
	}
	if !positive(s.Delays.Parse) || !positive(s.Delays.Action) {
		errs = append(errs, fmt.Errorf("delays must be positive, got parse=%v action=%v", s.Delays.Parse, s.Delays.Action))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidSettings, errors.Join(errs...))
}

func positive(v float64) bool { return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v) }

// Load reads settings from path. A missing file yields DefaultSettings and no
// error. Malformed or schema-violating content yields defaults and the error.
// Values are not range-checked here; callers run Validate before starting.
func Load(path string) (*Settings, error) {
	def := DefaultSettings()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return def, nil
		}
		return def, err
	}
	s, err := Decode(data)
	if err != nil {
		return def, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Decode parses and schema-checks a settings document. Fields absent from the
// document keep their defaults.
func Decode(data []byte) (*Settings, error) {
	if err := ValidateDocument(data); err != nil {
		return nil, err
	}
	s := DefaultSettings()
	s.Thresholds = nil
	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}
	if s.Thresholds == nil {
		s.Thresholds = flame.ThresholdSet{}
	}
	return s, nil
}

// Save writes the settings to path as indented JSON, replacing the file atomically.
func (s *Settings) Save(path string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".flame_settings-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
