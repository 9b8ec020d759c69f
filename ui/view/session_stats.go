package view

import (
	"fmt"
	"time"

	//lint:ignore ST1001 Dot import for concise Tk widget DSL.
	. "modernc.org/tk9.0"
)

// SessionStats shows how long the current and all runs have been rolling.
type SessionStats interface {
	SetSession(run, total time.Duration)
}

type sessionStats struct {
	runLbl   *LabelWidget
	totalLbl *LabelWidget
}

// NewSessionStats grids the run label at (row, col) and the total at col+1.
func NewSessionStats(parent *FrameWidget, row, col int) SessionStats {
	s := &sessionStats{runLbl: Label(Width(14)), totalLbl: Label(Width(14))}
	Grid(s.runLbl, In(parent), Row(row), Column(col), Sticky("w"), Padx("0.2m"))
	Grid(s.totalLbl, In(parent), Row(row), Column(col+1), Sticky("w"), Padx("0.2m"))
	s.SetSession(0, 0)
	return s
}

func (s *sessionStats) SetSession(run, total time.Duration) {
	if s == nil || s.runLbl == nil || s.totalLbl == nil {
		return
	}
	s.runLbl.Configure(Txt("Run: " + clock(run)))
	s.totalLbl.Configure(Txt("Total: " + clock(total)))
}

func clock(d time.Duration) string {
	sec := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", sec/60, sec%60)
}
