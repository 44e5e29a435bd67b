package log

import (
	"strings"
)

// Level is a log severity. Lower values are more severe; a message at level
// L passes a threshold T when L <= T.
type Level uint8

// Log level constants
const (
	LevelNone Level = iota
	LevelError
	LevelWarning
	LevelInfo
	LevelDebug
	LevelTrace
	LevelAll

	// LevelUnknown is returned for unrecognized level text. Boundary code
	// must reject it instead of substituting a default.
	LevelUnknown Level = 255
)

// DefaultLevel is the initial process-wide threshold.
const DefaultLevel = LevelInfo

var levelCodes = [...]string{
	LevelNone:    "---",
	LevelError:   "ERR",
	LevelWarning: "WRN",
	LevelInfo:    "INF",
	LevelDebug:   "DBG",
	LevelTrace:   "TRC",
	LevelAll:     "ALL",
}

// String returns the fixed 3-character code of the level.
func (l Level) String() string {
	if int(l) < len(levelCodes) {
		return levelCodes[l]
	}
	return "???"
}

// Valid reports whether l is one of the defined levels.
func (l Level) Valid() bool {
	return l <= LevelAll
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmtErrorf("invalid level %d", uint8(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	parsed := ParseLevel(string(text))
	if parsed == LevelUnknown {
		return fmtErrorf("invalid level string: '%s' (use ---, ERR, WRN, INF, DBG, TRC, ALL)", text)
	}
	*l = parsed
	return nil
}

// ParseLevel converts a level code to a Level. Matching ignores case and
// surrounding space; the long names ("error", "warning", ...) are accepted
// too. Anything else yields LevelUnknown.
func ParseLevel(text string) Level {
	switch strings.ToUpper(strings.TrimSpace(text)) {
	case "---", "NONE":
		return LevelNone
	case "ERR", "ERROR":
		return LevelError
	case "WRN", "WARN", "WARNING":
		return LevelWarning
	case "INF", "INFO":
		return LevelInfo
	case "DBG", "DEBUG":
		return LevelDebug
	case "TRC", "TRACE":
		return LevelTrace
	case "ALL":
		return LevelAll
	default:
		return LevelUnknown
	}
}
