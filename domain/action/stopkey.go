package action

import (
	"context"
	"log/slog"
	"sync"

	gohook "github.com/robotn/gohook"
)

// hookMu serializes use of the process-wide keyboard hook.
var hookMu sync.Mutex

// WatchStopKey installs a global keyboard hook and calls onStop each time key
// is pressed, regardless of which window has focus. The hook is removed when
// ctx is done.
func WatchStopKey(ctx context.Context, key string, logger *slog.Logger, onStop func()) error {
	vk, err := ParseVK(key)
	if err != nil {
		return err
	}
	hookMu.Lock()
	events := gohook.Start()
	go func() {
		defer hookMu.Unlock()
		defer func() {
			if r := recover(); r != nil && logger != nil {
				logger.Error("stop key watcher panic", "error", r)
			}
		}()
		go func() {
			<-ctx.Done()
			gohook.End()
		}()
		for ev := range events {
			if ev.Kind != gohook.KeyDown {
				continue
			}
			if matchesKey(ev, vk) {
				if logger != nil {
					logger.Info("stop key pressed", "key", key)
				}
				onStop()
			}
		}
	}()
	if logger != nil {
		logger.Debug("stop key watcher started", "key", key)
	}
	return nil
}

// matchesKey compares the raw virtual-key code and, for printable keys, the
// reported character.
func matchesKey(ev gohook.Event, vk byte) bool {
	if ev.Rawcode == uint16(vk) {
		return true
	}
	switch vk {
	case 0x1B, 0x0D, 0x20:
		return ev.Keychar == rune(vk)
	}
	return false
}
