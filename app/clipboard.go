package app

import (
	"sync"

	"golang.design/x/clipboard"
)

var (
	clipOnce sync.Once
	clipErr  error
	clipMu   sync.Mutex
)

// copyText puts text on the system clipboard, initializing it on first use.
func copyText(text string) error {
	clipOnce.Do(func() { clipErr = clipboard.Init() })
	if clipErr != nil {
		return clipErr
	}
	clipMu.Lock()
	defer clipMu.Unlock()
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
