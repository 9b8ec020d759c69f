package action

import (
	"errors"
	"image"
	"testing"
)

func TestParseVK(t *testing.T) {
	cases := map[string]byte{
		"enter": 0x0D,
		"ESC":   0x1B,
		"F1":    0x70,
		"f12":   0x7B,
		"F24":   0x87,
		"r":     'R',
		"Z":     'Z',
		"7":     '7',
	}
	for in, want := range cases {
		got, err := ParseVK(in)
		if err != nil || got != want {
			t.Fatalf("ParseVK(%q) = %#x,%v want %#x", in, got, err, want)
		}
	}
	for _, bad := range []string{"", "F0", "F25", "F1x", "hyper"} {
		if _, err := ParseVK(bad); !errors.Is(err, ErrUnknownKey) {
			t.Fatalf("ParseVK(%q) expected ErrUnknownKey, got %v", bad, err)
		}
	}
}

func TestStaticLocator(t *testing.T) {
	if _, err := (StaticLocator{}).Locate("x"); !errors.Is(err, ErrWindowNotFound) {
		t.Fatalf("empty static locator should report not found")
	}
	w := Window{Title: "desktop", Client: image.Rect(0, 0, 1920, 1080)}
	got, err := StaticLocator{Window: w}.Locate("anything")
	if err != nil || got != w {
		t.Fatalf("unexpected %+v %v", got, err)
	}
}
