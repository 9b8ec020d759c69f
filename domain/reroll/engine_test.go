package reroll

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/soocke/flame-bot-go/config"
	"github.com/soocke/flame-bot-go/domain/action"
	"github.com/soocke/flame-bot-go/domain/capture"
	"github.com/soocke/flame-bot-go/domain/flame"
	"github.com/soocke/flame-bot-go/domain/history"
	"github.com/soocke/flame-bot-go/domain/ocr"
)

var discardLogger = slog.New(slog.NewTextHandler(&discardWriter{}, nil))

type discardWriter struct{}

func (d *discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// fakeInjector counts input and can fail, panic or run a hook on a given click.
type fakeInjector struct {
	mu      sync.Mutex
	clicks  int
	moves   []image.Point
	keys    []string
	onClick func(n int) error
}

func (f *fakeInjector) MoveTo(x, y int) error {
	f.mu.Lock()
	f.moves = append(f.moves, image.Pt(x, y))
	f.mu.Unlock()
	return nil
}

func (f *fakeInjector) Click(x, y int, _ action.Button) error {
	f.mu.Lock()
	f.clicks++
	n := f.clicks
	hook := f.onClick
	f.mu.Unlock()
	if hook != nil {
		return hook(n)
	}
	return nil
}

func (f *fakeInjector) KeyDown(key string) error {
	f.mu.Lock()
	f.keys = append(f.keys, "down:"+key)
	f.mu.Unlock()
	return nil
}

func (f *fakeInjector) KeyUp(key string) error {
	f.mu.Lock()
	f.keys = append(f.keys, "up:"+key)
	f.mu.Unlock()
	return nil
}

func (f *fakeInjector) Clicks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clicks
}

type fakeGrabber struct {
	calls atomic.Int32
	rects []image.Rectangle
	mu    sync.Mutex
	err   error
}

func (g *fakeGrabber) Capture(rect image.Rectangle) (*image.RGBA, error) {
	g.calls.Add(1)
	g.mu.Lock()
	g.rects = append(g.rects, rect)
	g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	return image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy())), nil
}

// scripted returns texts in order and repeats the last one.
func scripted(texts ...string) ocr.Extractor {
	var n atomic.Int32
	return ocr.ExtractorFunc(func(ctx context.Context, img image.Image) ocr.Result {
		i := int(n.Add(1)) - 1
		if i >= len(texts) {
			i = len(texts) - 1
		}
		return ocr.Result{Text: texts[i]}
	})
}

type fakeLocator struct {
	win       action.Window
	err       error
	activated atomic.Int32
	title     string
}

func (l *fakeLocator) Locate(title string) (action.Window, error) {
	l.title = title
	if l.err != nil {
		return action.Window{}, l.err
	}
	return l.win, nil
}

func (l *fakeLocator) Activate(action.Window) error {
	l.activated.Add(1)
	return nil
}

type fakeJournal struct {
	mu      sync.Mutex
	began   []string
	entries []history.Entry
}

func (j *fakeJournal) Begin(id string) {
	j.mu.Lock()
	j.began = append(j.began, id)
	j.mu.Unlock()
}

func (j *fakeJournal) Record(e history.Entry) error {
	j.mu.Lock()
	j.entries = append(j.entries, e)
	j.mu.Unlock()
	return nil
}

func fastOptions() Options {
	o := DefaultOptions()
	o.Delays = config.Delays{}
	o.KeyHold = 0
	return o
}

func newTestEngine(in *fakeInjector, g *fakeGrabber, ex ocr.Extractor) *Engine {
	return NewEngine(Deps{Injector: in, Grabber: g, Extractor: ex}, fastOptions(), discardLogger)
}

func allStatsRequest(tries int) StartRequest {
	return StartRequest{
		Thresholds: flame.ThresholdSet{flame.StatAllPercent: 5},
		Tries:      tries,
		Click:      image.Pt(500, 400),
		Capture:    image.Rect(100, 100, 300, 200),
	}
}

// waitForState waits up to timeout for the engine to reach expected state.
func waitForState(t *testing.T, e *Engine, expected State, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if e.Current() == expected {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for state %v (got %v)", expected, e.Current())
}

type transitionRecorder struct {
	mu  sync.Mutex
	seq []State
}

func (r *transitionRecorder) listener(prev, next State) {
	r.mu.Lock()
	r.seq = append(r.seq, next)
	r.mu.Unlock()
}

func (r *transitionRecorder) states() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.seq...)
}

func TestEngine_SucceedsOnThirdAttempt(t *testing.T) {
	in := &fakeInjector{}
	g := &fakeGrabber{}
	e := newTestEngine(in, g, scripted("All Stats +4%", "All Stats +4%", "All Stats +6%"))
	r := &transitionRecorder{}
	e.AddListener(r.listener)
	if err := e.Start(context.Background(), allStatsRequest(3)); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.Wait()
	snap := e.Snapshot()
	if snap.State != StateSucceeded {
		t.Fatalf("expected succeeded, got %v (%s)", snap.State, snap.Status)
	}
	if snap.Attempt != 3 || in.Clicks() != 3 || g.calls.Load() != 3 {
		t.Fatalf("expected exactly 3 attempts, got attempt=%d clicks=%d captures=%d", snap.Attempt, in.Clicks(), g.calls.Load())
	}
	if snap.Status != "Thresholds met after 3 attempt(s)" {
		t.Fatalf("status %q", snap.Status)
	}
	if v, _ := snap.Last.Value(flame.StatAllPercent); v != 6 {
		t.Fatalf("last reading %v", snap.Last.Stats)
	}
	if v, _ := snap.Best.Value(flame.StatAllPercent); v != 6 {
		t.Fatalf("best reading %v", snap.Best.Stats)
	}
	if seq := r.states(); len(seq) != 2 || seq[0] != StateRunning || seq[1] != StateSucceeded {
		t.Fatalf("unexpected transitions %v", seq)
	}
}

func TestEngine_ExhaustedAfterTries(t *testing.T) {
	in := &fakeInjector{}
	g := &fakeGrabber{}
	e := newTestEngine(in, g, scripted("All Stats +2%"))
	if err := e.Start(context.Background(), allStatsRequest(2)); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.Wait()
	snap := e.Snapshot()
	if snap.State != StateExhausted {
		t.Fatalf("expected exhausted, got %v", snap.State)
	}
	if in.Clicks() != 2 || g.calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got clicks=%d captures=%d", in.Clicks(), g.calls.Load())
	}
	if snap.Status != "Maximum number of tries (2) reached without meeting thresholds" {
		t.Fatalf("status %q", snap.Status)
	}
	if snap.Remaining != 0 {
		t.Fatalf("remaining %d", snap.Remaining)
	}
}

func TestEngine_StopDuringSecondAttempt(t *testing.T) {
	in := &fakeInjector{}
	g := &fakeGrabber{}
	e := newTestEngine(in, g, scripted("All Stats +1%"))
	in.onClick = func(n int) error {
		if n == 2 {
			e.Stop()
		}
		return nil
	}
	if err := e.Start(context.Background(), allStatsRequest(5)); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.Wait()
	snap := e.Snapshot()
	if snap.State != StateCancelled {
		t.Fatalf("expected cancelled, got %v", snap.State)
	}
	if in.Clicks() != 2 {
		t.Fatalf("attempt 3 must not start, got %d clicks", in.Clicks())
	}
	if g.calls.Load() != 1 {
		t.Fatalf("expected 1 capture, got %d", g.calls.Load())
	}
	if snap.Status != "Roll process stopped by user after 2 attempt(s)" {
		t.Fatalf("status %q", snap.Status)
	}
	if snap.Err != nil {
		t.Fatalf("cancellation is not an error: %v", snap.Err)
	}
}

func TestEngine_ContextCancelStopsRun(t *testing.T) {
	in := &fakeInjector{}
	g := &fakeGrabber{}
	e := newTestEngine(in, g, scripted("All Stats +1%"))
	ctx, cancel := context.WithCancel(context.Background())
	in.onClick = func(n int) error {
		if n == 1 {
			cancel()
		}
		return nil
	}
	if err := e.Start(ctx, allStatsRequest(5)); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.Wait()
	if st := e.Current(); st != StateCancelled {
		t.Fatalf("expected cancelled, got %v", st)
	}
	if g.calls.Load() != 0 {
		t.Fatalf("no capture expected after cancel, got %d", g.calls.Load())
	}
}

func TestEngine_InjectorErrorFails(t *testing.T) {
	in := &fakeInjector{}
	boom := errors.New("input blocked")
	in.onClick = func(n int) error {
		if n == 2 {
			return boom
		}
		return nil
	}
	e := newTestEngine(in, &fakeGrabber{}, scripted("All Stats +1%"))
	if err := e.Start(context.Background(), allStatsRequest(5)); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.Wait()
	snap := e.Snapshot()
	if snap.State != StateFailed || !errors.Is(snap.Err, boom) {
		t.Fatalf("expected failed with injector error, got %v %v", snap.State, snap.Err)
	}
	if snap.Status != "Roll process failed on attempt 2: click reroll: input blocked" {
		t.Fatalf("status %q", snap.Status)
	}
}

func TestEngine_CaptureErrorFails(t *testing.T) {
	g := &fakeGrabber{err: errors.New("no display")}
	e := newTestEngine(&fakeInjector{}, g, scripted("All Stats +9%"))
	if err := e.Start(context.Background(), allStatsRequest(3)); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.Wait()
	if st := e.Current(); st != StateFailed {
		t.Fatalf("expected failed, got %v", st)
	}
}

func TestEngine_PanicFailsAndEngineRecovers(t *testing.T) {
	in := &fakeInjector{}
	in.onClick = func(n int) error {
		if n == 1 {
			panic("driver crashed")
		}
		return nil
	}
	e := newTestEngine(in, &fakeGrabber{}, scripted("All Stats +9%"))
	if err := e.Start(context.Background(), allStatsRequest(3)); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.Wait()
	if st := e.Current(); st != StateFailed {
		t.Fatalf("expected failed after panic, got %v", st)
	}
	// a new run can start afterwards
	if err := e.Start(context.Background(), allStatsRequest(1)); err != nil {
		t.Fatalf("restart: %v", err)
	}
	e.Wait()
	if st := e.Current(); st != StateSucceeded {
		t.Fatalf("expected succeeded on restart, got %v", st)
	}
}

func TestEngine_OCRErrorIsRecoverable(t *testing.T) {
	var n atomic.Int32
	ex := ocr.ExtractorFunc(func(context.Context, image.Image) ocr.Result {
		if n.Add(1) == 1 {
			return ocr.Result{Err: ocr.ErrTimeout}
		}
		return ocr.Result{Text: "All Stats +7%"}
	})
	e := newTestEngine(&fakeInjector{}, &fakeGrabber{}, ex)
	if err := e.Start(context.Background(), allStatsRequest(3)); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.Wait()
	snap := e.Snapshot()
	if snap.State != StateSucceeded || snap.Attempt != 2 {
		t.Fatalf("expected success on attempt 2, got %v after %d", snap.State, snap.Attempt)
	}
}

func TestEngine_OCRErrorIsJournaled(t *testing.T) {
	var n atomic.Int32
	ex := ocr.ExtractorFunc(func(context.Context, image.Image) ocr.Result {
		if n.Add(1) == 1 {
			return ocr.Result{Err: ocr.ErrTimeout}
		}
		return ocr.Result{Text: "All Stats +7%"}
	})
	j := &fakeJournal{}
	e := NewEngine(Deps{Injector: &fakeInjector{}, Grabber: &fakeGrabber{}, Extractor: ex, Journal: j}, fastOptions(), discardLogger)
	if err := e.Start(context.Background(), allStatsRequest(3)); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.Wait()
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(j.entries))
	}
	first := j.entries[0]
	if first.OCRError == "" || !strings.Contains(first.Parsed.RawText, "ocr error") {
		t.Fatalf("ocr failure not recorded: %+v", first)
	}
	if j.entries[1].OCRError != "" {
		t.Fatalf("unexpected ocr error on second entry: %q", j.entries[1].OCRError)
	}
}

func TestEngine_StopAsSoonAsRunningCancels(t *testing.T) {
	stopped := make(chan struct{})
	in := &fakeInjector{onClick: func(int) error {
		<-stopped
		return nil
	}}
	e := newTestEngine(in, &fakeGrabber{}, scripted("All Stats +7%"))
	go func() {
		for !e.Running() {
			time.Sleep(time.Millisecond)
		}
		e.Stop()
		close(stopped)
	}()
	if err := e.Start(context.Background(), allStatsRequest(5)); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.Wait()
	if got := e.Current(); got != StateCancelled {
		t.Fatalf("expected cancelled, got %v", got)
	}
}

func TestEngine_RejectsSecondStart(t *testing.T) {
	release := make(chan struct{})
	in := &fakeInjector{}
	in.onClick = func(int) error {
		<-release
		return nil
	}
	e := newTestEngine(in, &fakeGrabber{}, scripted("All Stats +9%"))
	if err := e.Start(context.Background(), allStatsRequest(1)); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitForState(t, e, StateRunning, time.Second)
	if err := e.Start(context.Background(), allStatsRequest(1)); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	close(release)
	e.Wait()
	if in.Clicks() != 1 {
		t.Fatalf("rejected start must have no side effects, got %d clicks", in.Clicks())
	}
}

func TestEngine_RejectsInvalidRequest(t *testing.T) {
	e := newTestEngine(&fakeInjector{}, &fakeGrabber{}, scripted(""))
	cases := map[string]StartRequest{
		"no thresholds": {Tries: 1, Capture: image.Rect(0, 0, 10, 10)},
		"zero tries":    {Thresholds: flame.ThresholdSet{flame.StatSTR: 1}, Capture: image.Rect(0, 0, 10, 10)},
		"empty capture": {Thresholds: flame.ThresholdSet{flame.StatSTR: 1}, Tries: 1},
		"unknown stat":  {Thresholds: flame.ThresholdSet{"HP": 1}, Tries: 1, Capture: image.Rect(0, 0, 10, 10)},
	}
	for name, req := range cases {
		if err := e.Start(context.Background(), req); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("%s: expected ErrInvalidRequest, got %v", name, err)
		}
	}
	if e.Current() != StateIdle {
		t.Fatalf("invalid requests must not leave idle")
	}
}

func TestEngine_RerollSequence(t *testing.T) {
	in := &fakeInjector{}
	e := newTestEngine(in, &fakeGrabber{}, scripted("All Stats +9%"))
	if err := e.Start(context.Background(), allStatsRequest(1)); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.Wait()
	want := []string{"down:enter", "up:enter", "down:enter", "up:enter"}
	if len(in.keys) != len(want) {
		t.Fatalf("keys %v", in.keys)
	}
	for i := range want {
		if in.keys[i] != want[i] {
			t.Fatalf("keys %v", in.keys)
		}
	}
	if len(in.moves) != 1 || in.moves[0] != image.Pt(500, 400) {
		t.Fatalf("moves %v", in.moves)
	}
}

func TestEngine_StartFromSettings(t *testing.T) {
	loc := &fakeLocator{win: action.Window{Handle: 1, Title: "MapleStory", Client: image.Rect(100, 50, 1100, 850)}}
	g := &fakeGrabber{}
	in := &fakeInjector{}
	j := &fakeJournal{}
	e := NewEngine(Deps{Injector: in, Grabber: g, Extractor: scripted("STR +40"), Locator: loc, Journal: j}, fastOptions(), discardLogger)
	s := config.DefaultSettings()
	s.Thresholds = flame.ThresholdSet{flame.StatSTR: 30}
	s.Delays = config.Delays{Parse: 0.001, Action: 0.001}
	if err := e.StartFromSettings(context.Background(), s); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.Wait()
	if st := e.Current(); st != StateSucceeded {
		t.Fatalf("expected succeeded, got %v", st)
	}
	wantClick := capture.Point{X: 0.5, Y: 0.5}.Resolve(loc.win.Client)
	if in.moves[0] != wantClick {
		t.Fatalf("click %v want %v", in.moves[0], wantClick)
	}
	if g.rects[0] != capture.DefaultRegion().Resolve(loc.win.Client) {
		t.Fatalf("capture rect %v", g.rects[0])
	}
	if loc.activated.Load() != 1 {
		t.Fatalf("window should be activated before the reroll")
	}
	if len(j.began) != 1 || len(j.entries) != 1 || j.entries[0].SessionID != j.began[0] || !j.entries[0].Met {
		t.Fatalf("journal %+v / %v", j.entries, j.began)
	}
}

func TestEngine_StartFromSettingsWindowMissing(t *testing.T) {
	in := &fakeInjector{}
	loc := &fakeLocator{err: action.ErrWindowNotFound}
	e := NewEngine(Deps{Injector: in, Grabber: &fakeGrabber{}, Extractor: scripted(""), Locator: loc}, fastOptions(), discardLogger)
	s := config.DefaultSettings()
	s.Thresholds = flame.ThresholdSet{flame.StatSTR: 30}
	if err := e.StartFromSettings(context.Background(), s); !errors.Is(err, action.ErrWindowNotFound) {
		t.Fatalf("expected ErrWindowNotFound, got %v", err)
	}
	if e.Current() != StateIdle || in.Clicks() != 0 {
		t.Fatalf("no attempt may run without a window")
	}
}

func TestEngine_Probe(t *testing.T) {
	loc := &fakeLocator{win: action.Window{Client: image.Rect(0, 0, 1000, 800)}}
	in := &fakeInjector{}
	e := NewEngine(Deps{Injector: in, Grabber: &fakeGrabber{}, Extractor: scripted("DEX +8 All Stats +3%"), Locator: loc}, fastOptions(), discardLogger)
	s := config.DefaultSettings()
	s.Thresholds = flame.ThresholdSet{flame.StatAllPercent: 5}
	res, err := e.Probe(context.Background(), s)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if v, _ := res.Parsed.Value(flame.StatDEX); v != 8 {
		t.Fatalf("parsed %v", res.Parsed.Stats)
	}
	if res.Eval.Met || len(res.Eval.Unmet) != 1 {
		t.Fatalf("eval %+v", res.Eval)
	}
	if res.Rect != image.Rect(300, 320, 700, 560) {
		t.Fatalf("rect %v", res.Rect)
	}
	if in.Clicks() != 0 {
		t.Fatalf("probe must not send input")
	}
}

func TestEngine_SetWindowTitle(t *testing.T) {
	loc := &fakeLocator{win: action.Window{Client: image.Rect(0, 0, 100, 100)}}
	e := NewEngine(Deps{Injector: &fakeInjector{}, Grabber: &fakeGrabber{}, Extractor: scripted(""), Locator: loc}, fastOptions(), discardLogger)
	e.SetWindowTitle("MapleStory Reboot")
	if _, err := e.Probe(context.Background(), config.DefaultSettings()); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if loc.title != "MapleStory Reboot" || e.WindowTitle() != "MapleStory Reboot" {
		t.Fatalf("locator searched %q", loc.title)
	}
}

func TestStatusMessagesAreDistinct(t *testing.T) {
	seen := map[string]State{}
	for _, st := range []State{StateSucceeded, StateExhausted, StateCancelled, StateFailed} {
		msg := statusMessage(st, 2, 5, errors.New("x"))
		if prev, ok := seen[msg]; ok {
			t.Fatalf("%v and %v share message %q", st, prev, msg)
		}
		seen[msg] = st
	}
}
