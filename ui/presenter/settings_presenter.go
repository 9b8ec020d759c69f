package presenter

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strconv"
	"strings"

	"github.com/soocke/flame-bot-go/config"
	"github.com/soocke/flame-bot-go/domain/capture"
	"github.com/soocke/flame-bot-go/domain/flame"
)

// Form field ids. Threshold fields are ThresholdField(stat).
const (
	FieldFlameType   = "flameType"
	FieldTries       = "tries"
	FieldParseDelay  = "parseDelay"
	FieldActionDelay = "actionDelay"
)

// ThresholdField returns the form id of a stat's threshold entry.
func ThresholdField(s flame.Stat) string { return "threshold." + string(s) }

// SettingsStore holds the live settings.
type SettingsStore interface {
	Get() *config.Settings
	Set(s *config.Settings)
}

// SettingsPresenter converts between the settings form and config.Settings
// and persists every accepted change.
type SettingsPresenter struct {
	store  SettingsStore
	path   string
	logger *slog.Logger
}

func NewSettingsPresenter(store SettingsStore, path string, logger *slog.Logger) *SettingsPresenter {
	return &SettingsPresenter{store: store, path: path, logger: logger}
}

// Fields renders the current settings as form text. Disabled thresholds are blank.
func (p *SettingsPresenter) Fields() map[string]string {
	s := p.store.Get()
	out := map[string]string{
		FieldFlameType:   s.FlameType,
		FieldTries:       strconv.Itoa(s.Tries),
		FieldParseDelay:  strconv.FormatFloat(s.Delays.Parse, 'f', -1, 64),
		FieldActionDelay: strconv.FormatFloat(s.Delays.Action, 'f', -1, 64),
	}
	for _, st := range flame.AllStats() {
		v, ok := s.Thresholds[st]
		if ok {
			out[ThresholdField(st)] = strconv.Itoa(v)
		} else {
			out[ThresholdField(st)] = ""
		}
	}
	return out
}

// Apply parses the form and saves the result. Nothing is stored when any
// field is invalid. An empty threshold set is accepted here; Start rejects it.
func (p *SettingsPresenter) Apply(fields map[string]string) error {
	s := p.store.Get()
	var errs []error
	if v := strings.TrimSpace(fields[FieldFlameType]); v != "" {
		s.FlameType = v
	}
	if v, ok := fields[FieldTries]; ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("tries: %q is not a number", v))
		} else {
			s.Tries = n
		}
	}
	parseFloat := func(id, name string, dst *float64) {
		v, ok := fields[id]
		if !ok {
			return
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not a number", name, v))
			return
		}
		*dst = f
	}
	parseFloat(FieldParseDelay, "parse delay", &s.Delays.Parse)
	parseFloat(FieldActionDelay, "action delay", &s.Delays.Action)

	thresholds := flame.ThresholdSet{}
	for _, st := range flame.AllStats() {
		v := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(fields[ThresholdField(st)]), "%"))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not a whole number", st.Label(), v))
			continue
		}
		thresholds[st] = n
	}
	s.Thresholds = thresholds
	if err := errors.Join(errs...); err != nil {
		return err
	}
	if err := validateEditable(s); err != nil {
		return err
	}
	return p.commit(s)
}

// SetRegion stores the capture region selected on screen, relative to the
// game client area.
func (p *SettingsPresenter) SetRegion(abs, client image.Rectangle) error {
	r := capture.RegionFrom(abs, client)
	if err := r.Validate(); err != nil {
		return err
	}
	s := p.store.Get()
	s.CaptureRegion = r
	return p.commit(s)
}

// SetPosition stores the reroll button position picked on screen.
func (p *SettingsPresenter) SetPosition(pt image.Point, client image.Rectangle) error {
	if !pt.In(client) {
		return fmt.Errorf("point %v is outside the game window %v", pt, client)
	}
	s := p.store.Get()
	s.RerollPosition = capture.PointFrom(pt, client)
	return p.commit(s)
}

func (p *SettingsPresenter) commit(s *config.Settings) error {
	if p.path != "" {
		if err := s.Save(p.path); err != nil {
			if p.logger != nil {
				p.logger.Error("settings save failed", "path", p.path, "error", err)
			}
			return err
		}
	}
	p.store.Set(s)
	if p.logger != nil {
		p.logger.Info("settings saved", "path", p.path, "thresholds", len(s.Thresholds), "tries", s.Tries)
	}
	return nil
}

// validateEditable runs Settings.Validate but tolerates an empty threshold set
// so partial edits can be saved.
func validateEditable(s *config.Settings) error {
	if len(s.Thresholds) > 0 {
		return s.Validate()
	}
	probe := s.Clone()
	probe.Thresholds = flame.ThresholdSet{flame.StatSTR: 0}
	return probe.Validate()
}
