// Package envinfo captures a static snapshot of the host environment.
package envinfo

import (
	"os"
	"runtime"
	"strings"

	"golang.org/x/term"
)

const fallbackWidth = 80

// Snapshot describes the environment a session ran in. It is captured
// once at session creation and treated as opaque afterward.
type Snapshot struct {
	DeviceType      string `json:"deviceType"`
	Terminal        string `json:"terminal"`
	TerminalVersion string `json:"terminalVersion"`
	OS              string `json:"os"`
	ScreenWidth     int    `json:"screenWidth"`
	ScreenHeight    int    `json:"screenHeight"`
	KeyboardLayout  string `json:"keyboardLayout"`
	InputMethod     string `json:"inputMethod"`
}

// Capture reads the current environment. It never fails: fields that
// cannot be determined fall back to empty strings or defaults.
func Capture() Snapshot {
	s := Snapshot{
		DeviceType:     "desktop",
		OS:             runtime.GOOS + "/" + runtime.GOARCH,
		Terminal:       terminalName(),
		KeyboardLayout: keyboardLayout(),
		InputMethod:    "physical keyboard",
		ScreenWidth:    fallbackWidth,
	}
	s.TerminalVersion = os.Getenv("TERM_PROGRAM_VERSION")
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		s.ScreenWidth = w
		s.ScreenHeight = h
	}
	return s
}

func terminalName() string {
	if v := os.Getenv("TERM_PROGRAM"); v != "" {
		return v
	}
	return os.Getenv("TERM")
}

// keyboardLayout derives a layout hint from the locale, e.g. "de" from
// "de_DE.UTF-8". The exact value is informational only.
func keyboardLayout() string {
	for _, key := range []string{"LC_ALL", "LANG"} {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		if idx := strings.IndexAny(v, "_."); idx > 0 {
			return v[:idx]
		}
		return v
	}
	return ""
}
