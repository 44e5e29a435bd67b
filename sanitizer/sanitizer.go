// Package sanitizer provides a composable rune sanitizer driven by bitwise
// filter and transform flags.
//
// Its main job in this module is keeping reserved bytes out of log entry
// bodies: stored entries are delimited by a separator byte, so a message that
// contained it would split into two entries in ring-buffer storage.
package sanitizer

import (
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Filter flags for character matching
const (
	FilterNonPrintable   uint64 = 1 << iota // Runes not printable per strconv.IsPrint
	FilterControl                           // unicode.IsControl
	FilterLineBreak                         // '\n', '\r', U+0085, U+2028, U+2029
	FilterNull                              // NUL
	FilterFieldDelimiter                    // '|', the entry header field delimiter
)

// Transform flags for character transformation
const (
	TransformStrip     uint64 = 1 << iota // Removes the character
	TransformHexEncode                    // Encodes the UTF-8 bytes as "<XXYY>"
	TransformSpace                        // Replaces the character with a single space
	TransformEscape                       // Backslash escapes for \n \r \t, hex for the rest
)

// PolicyPreset names a pre-configured rule set
type PolicyPreset string

const (
	PolicyRaw      PolicyPreset = "raw"      // No-op passthrough
	PolicyEntry    PolicyPreset = "entry"    // Log entry bodies: line breaks escaped, other controls hex encoded
	PolicyCategory PolicyPreset = "category" // Category names: controls and delimiters stripped
	PolicyConfig   PolicyPreset = "config"   // Config values: line breaks replaced by spaces
)

type rule struct {
	filter    uint64
	transform uint64
}

var policyRules = map[PolicyPreset][]rule{
	PolicyRaw: {},
	PolicyEntry: {
		{filter: FilterLineBreak, transform: TransformEscape},
		{filter: FilterNull | FilterControl, transform: TransformHexEncode},
	},
	PolicyCategory: {
		{filter: FilterControl | FilterLineBreak | FilterFieldDelimiter | FilterNonPrintable, transform: TransformStrip},
	},
	PolicyConfig: {
		{filter: FilterLineBreak | FilterNull, transform: TransformSpace},
	},
}

// filterOrder fixes the evaluation order of filter checks.
var filterOrder = []uint64{FilterNull, FilterLineBreak, FilterFieldDelimiter, FilterControl, FilterNonPrintable}

var filterCheckers = map[uint64]func(rune) bool{
	FilterNonPrintable: func(r rune) bool { return !strconv.IsPrint(r) },
	FilterControl:      unicode.IsControl,
	FilterLineBreak: func(r rune) bool {
		switch r {
		case '\n', '\r', '\u0085', '\u2028', '\u2029':
			return true
		}
		return false
	},
	FilterNull:           func(r rune) bool { return r == 0 },
	FilterFieldDelimiter: func(r rune) bool { return r == '|' },
}

// Sanitizer applies its rules in insertion order; the first matching rule wins.
// It reuses an internal buffer and is not safe for concurrent use.
type Sanitizer struct {
	rules []rule
	buf   []byte
}

// New creates a passthrough Sanitizer.
func New() *Sanitizer {
	return &Sanitizer{
		rules: []rule{},
		buf:   make([]byte, 0, 256),
	}
}

// Rule appends a custom rule.
func (s *Sanitizer) Rule(filter uint64, transform uint64) *Sanitizer {
	s.rules = append(s.rules, rule{filter: filter, transform: transform})
	return s
}

// Policy appends the rules of a preset.
func (s *Sanitizer) Policy(preset PolicyPreset) *Sanitizer {
	if rules, ok := policyRules[preset]; ok {
		s.rules = append(s.rules, rules...)
	}
	return s
}

// Sanitize returns data with all rules applied.
func (s *Sanitizer) Sanitize(data string) string {
	if !s.needsWork(data) {
		return data
	}
	s.buf = s.AppendSanitized(s.buf[:0], data)
	return string(s.buf)
}

// AppendSanitized appends the sanitized form of data to dst.
func (s *Sanitizer) AppendSanitized(dst []byte, data string) []byte {
	for _, r := range data {
		dst = s.appendRune(dst, r)
	}
	return dst
}

// AppendLimited is AppendSanitized that stops once dst holds limit bytes.
// A rune, or the escape replacing it, is appended whole or not at all, so
// the result stays valid UTF-8 and dst is never reallocated when
// cap(dst) >= limit.
func (s *Sanitizer) AppendLimited(dst []byte, data string, limit int) []byte {
	var tmp [16]byte
	for _, r := range data {
		out := s.appendRune(tmp[:0], r)
		if len(out) > limit-len(dst) {
			break
		}
		dst = append(dst, out...)
	}
	return dst
}

func (s *Sanitizer) appendRune(dst []byte, r rune) []byte {
	for _, rl := range s.rules {
		if matchesFilter(r, rl.filter) {
			return applyTransform(dst, r, rl.transform)
		}
	}
	return utf8.AppendRune(dst, r)
}

// needsWork reports whether any rune of data matches any rule.
func (s *Sanitizer) needsWork(data string) bool {
	if len(s.rules) == 0 {
		return false
	}
	for _, r := range data {
		for _, rl := range s.rules {
			if matchesFilter(r, rl.filter) {
				return true
			}
		}
	}
	return false
}

func matchesFilter(r rune, filterMask uint64) bool {
	for _, flag := range filterOrder {
		if (filterMask&flag) != 0 && filterCheckers[flag](r) {
			return true
		}
	}
	return false
}

const hexDigits = "0123456789abcdef"

func appendHex(dst []byte, r rune) []byte {
	var runeBytes [utf8.UTFMax]byte
	n := utf8.EncodeRune(runeBytes[:], r)
	dst = append(dst, '<')
	for _, b := range runeBytes[:n] {
		dst = append(dst, hexDigits[b>>4], hexDigits[b&0x0f])
	}
	return append(dst, '>')
}

func applyTransform(dst []byte, r rune, transformMask uint64) []byte {
	switch {
	case (transformMask & TransformStrip) != 0:
		return dst

	case (transformMask & TransformHexEncode) != 0:
		return appendHex(dst, r)

	case (transformMask & TransformSpace) != 0:
		return append(dst, ' ')

	case (transformMask & TransformEscape) != 0:
		switch r {
		case '\n':
			return append(dst, '\\', 'n')
		case '\r':
			return append(dst, '\\', 'r')
		case '\t':
			return append(dst, '\\', 't')
		default:
			return appendHex(dst, r)
		}
	}
	return utf8.AppendRune(dst, r)
}
