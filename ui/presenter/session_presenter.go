package presenter

import (
	"time"

	"github.com/soocke/flame-bot-go/ui/model"
)

// RunningSource reports whether a run is in progress.
type RunningSource interface{ Running() bool }

// SessionView displays formatted run and total durations.
type SessionView interface {
	SetSession(run, total time.Duration)
}

// SessionPresenter formats run durations from the model to the view.
type SessionPresenter struct {
	sess *model.SessionModel
	src  RunningSource
	view SessionView
}

// NewSessionPresenter returns a new SessionPresenter.
func NewSessionPresenter(sess *model.SessionModel, src RunningSource, view SessionView) *SessionPresenter {
	return &SessionPresenter{sess: sess, src: src, view: view}
}

// Tick advances the session model and pushes values to the view.
func (p *SessionPresenter) Tick(now time.Time) {
	if p == nil || p.sess == nil || p.src == nil || p.view == nil {
		return
	}
	p.sess.OnTick(p.src.Running(), now)
	run, total := p.sess.Values()
	p.view.SetSession(run, total)
}
