package action

import (
	"fmt"
	"strings"
)

var namedKeys = map[string]byte{
	"enter":     0x0D,
	"return":    0x0D,
	"esc":       0x1B,
	"escape":    0x1B,
	"space":     0x20,
	"tab":       0x09,
	"backspace": 0x08,
	"shift":     0x10,
	"ctrl":      0x11,
	"alt":       0x12,
	"left":      0x25,
	"up":        0x26,
	"right":     0x27,
	"down":      0x28,
	"delete":    0x2E,
}

// ParseVK converts a key name ("enter", "esc", "F3", "R", "7") into a Windows
// virtual-key code.
func ParseVK(key string) (byte, error) {
	k := strings.ToLower(strings.TrimSpace(key))
	if vk, ok := namedKeys[k]; ok {
		return vk, nil
	}
	if len(k) == 1 {
		c := k[0]
		switch {
		case c >= 'a' && c <= 'z':
			return c - 'a' + 'A', nil
		case c >= '0' && c <= '9':
			return c, nil
		}
	}
	if len(k) >= 2 && k[0] == 'f' {
		var n int
		if _, err := fmt.Sscanf(k[1:], "%d", &n); err == nil && n >= 1 && n <= 24 && fmt.Sprint(n) == k[1:] {
			return byte(0x70 + n - 1), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKey, key)
}
