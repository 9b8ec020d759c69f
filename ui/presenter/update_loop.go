package presenter

import "time"

// Loop aggregates feature presenters and drives periodic updates on the Tk
// thread. The zero value is usable (methods are nil-safe).
type Loop struct {
	Session  *SessionPresenter
	State    *StatePresenter
	Run      *RunPresenter
	Preview  *PreviewPresenter
	Schedule func()
}

func NewLoop(sess *SessionPresenter, state *StatePresenter, run *RunPresenter, preview *PreviewPresenter, schedule func()) *Loop {
	return &Loop{Session: sess, State: state, Run: run, Preview: preview, Schedule: schedule}
}

func (l *Loop) Tick() {
	if l == nil {
		return
	}
	now := time.Now()
	if l.State != nil {
		l.State.Tick()
	}
	// after State so probe messages are not overwritten by the run status
	if l.Run != nil {
		l.Run.Tick()
	}
	if l.Session != nil {
		l.Session.Tick(now)
	}
	if l.Preview != nil {
		l.Preview.Tick()
	}
	if l.Schedule != nil {
		l.Schedule()
	}
}
