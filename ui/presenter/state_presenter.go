package presenter

import (
	"fmt"
	"strings"
	"sync"

	"github.com/soocke/flame-bot-go/domain/reroll"
	"github.com/soocke/flame-bot-go/ui/model"
)

// SnapshotSource provides engine progress.
type SnapshotSource interface {
	Snapshot() reroll.Snapshot
}

// StateView shows run state, progress and the latest reading.
type StateView interface {
	SetStateLabel(text string)
	SetStatus(text string)
	SetProgress(text string)
	SetResult(text string)
	ConfigEditable(bool)
}

// StatePresenter receives engine transitions from the worker goroutine and
// reflects them on the next Tick.
type StatePresenter struct {
	src      SnapshotSource
	view     StateView
	readings *model.ReadingModel

	mu      sync.Mutex
	pending []reroll.State

	latest      reroll.State
	lastSession string
	lastAttempt int
}

func NewStatePresenter(src SnapshotSource, view StateView, readings *model.ReadingModel) *StatePresenter {
	return &StatePresenter{src: src, view: view, readings: readings}
}

// OnState is registered as an engine listener.
func (p *StatePresenter) OnState(_, next reroll.State) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.pending = append(p.pending, next)
	p.mu.Unlock()
}

// Tick pushes the newest state and any new attempt to the view.
func (p *StatePresenter) Tick() {
	if p == nil || p.src == nil || p.view == nil {
		return
	}
	p.mu.Lock()
	changed := len(p.pending) > 0
	p.pending = p.pending[:0]
	p.mu.Unlock()

	snap := p.src.Snapshot()
	if snap.SessionID != p.lastSession || snap.Attempt != p.lastAttempt {
		p.lastSession, p.lastAttempt = snap.SessionID, snap.Attempt
		if snap.Attempt > 0 {
			p.view.SetProgress(fmt.Sprintf("Attempt %d / %d", snap.Attempt, snap.Tries))
			p.view.SetResult(resultText(snap))
			p.readings.Set(nil, snap.Last, snap.Last.Summary())
		} else {
			p.view.SetProgress("")
		}
	}
	if changed || snap.State != p.latest {
		p.latest = snap.State
		p.view.SetStateLabel("State: " + snap.State.String())
		p.view.SetStatus(snap.Status)
		if snap.State.Terminal() {
			p.view.ConfigEditable(true)
		}
	}
}

// resultText renders the last and best readings with unmet thresholds.
func resultText(s reroll.Snapshot) string {
	if s.Attempt == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Last: %s\n", s.Last.Summary())
	if s.HasBest {
		fmt.Fprintf(&b, "Best: %s\n", s.Best.Summary())
	}
	for _, u := range s.LastEval.Unmet {
		fmt.Fprintf(&b, "  %s\n", u.String())
	}
	return strings.TrimRight(b.String(), "\n")
}
