package view

import (
	"strings"

	"github.com/soocke/flame-bot-go/domain/flame"
	"github.com/soocke/flame-bot-go/ui/presenter"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// ConfigPanel is the settings form: general fields on the left, one threshold
// entry per stat on the right. A blank threshold disables that stat.
type ConfigPanel interface {
	Build(startRow int) (endRow int)
	SetEditable(enabled bool)
	// Refresh replaces every field's text, e.g. after an external reload.
	Refresh(fields map[string]string)
}

type configPanel struct {
	fields   map[string]string
	onApply  func(fields map[string]string)
	applyBtn *ButtonWidget
	widgets  map[string]*TextWidget
}

// NewConfigPanel creates the form with initial field values. onApply receives
// the edited values when the user presses Save.
func NewConfigPanel(fields map[string]string, onApply func(map[string]string)) ConfigPanel {
	return &configPanel{fields: fields, onApply: onApply, widgets: make(map[string]*TextWidget)}
}

func (v *configPanel) Build(startRow int) int {
	entry := func(id, label string, row, col int) {
		lbl := Label(Txt(label), Anchor("w"))
		Grid(lbl, Row(row), Column(col), Sticky("w"), Padx("0.4m"), Pady("0.15m"))
		w := Text(Height(1), Width(12))
		Grid(w, Row(row), Column(col+1), Sticky("we"), Padx("0.4m"), Pady("0.15m"))
		v.widgets[id] = w
	}
	general := []struct{ id, label string }{
		{presenter.FieldFlameType, "Flame Type"},
		{presenter.FieldTries, "Max Tries"},
		{presenter.FieldParseDelay, "Parse Delay (s)"},
		{presenter.FieldActionDelay, "Action Delay (s)"},
	}
	for i, g := range general {
		entry(g.id, g.label, startRow+i, 0)
	}
	stats := flame.AllStats()
	for i, st := range stats {
		label := "Min " + st.Label()
		if st.Percent() {
			label += " (%)"
		}
		entry(presenter.ThresholdField(st), label, startRow+i, 2)
	}
	v.Refresh(v.fields)
	row := startRow + max(len(general), len(stats))
	v.applyBtn = Button(Txt("Save Settings"), Command(v.apply))
	Grid(v.applyBtn, Row(row), Column(0), Columnspan(4), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	return row + 1
}

func (v *configPanel) Refresh(fields map[string]string) {
	v.fields = fields
	for id, w := range v.widgets {
		w.Delete("1.0", END)
		w.Insert("1.0", fields[id])
	}
}

func (v *configPanel) SetEditable(enabled bool) {
	state := "disabled"
	if enabled {
		state = "normal"
	}
	for _, w := range v.widgets {
		w.Configure(State(state))
	}
	if v.applyBtn != nil {
		v.applyBtn.Configure(State(state))
	}
}

func (v *configPanel) apply() {
	if v.onApply == nil {
		return
	}
	out := make(map[string]string, len(v.widgets))
	for id, w := range v.widgets {
		out[id] = strings.TrimSpace(strings.Join(w.Get("1.0", END), ""))
	}
	v.onApply(out)
}
