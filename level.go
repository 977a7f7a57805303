package kittyimg

import (
	"fmt"
	"strings"
)

// Level is the terminal's support for the Kitty graphics protocol
type Level int

const (
	// LevelNone means the terminal does not speak the Kitty graphics protocol
	LevelNone Level = iota
	// LevelRemote means the protocol is understood but image bytes must be sent inline
	LevelRemote
	// LevelLocal means the terminal can read images from a local file path
	LevelLocal
)

func (l Level) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelRemote:
		return "remote"
	case LevelLocal:
		return "local"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// Supported reports whether images can be drawn at all
func (l Level) Supported() bool {
	return l == LevelRemote || l == LevelLocal
}

// ParseLevel parses the textual form of a Level
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return LevelNone, nil
	case "remote":
		return LevelRemote, nil
	case "local":
		return LevelLocal, nil
	default:
		return LevelNone, fmt.Errorf("unknown kitty support level: %q", s)
	}
}
