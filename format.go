package iotcore

import (
	"strings"

	"github.com/lixenwraith/iotcore/sanitizer"
)

// ConfigText is configuration in its text encoding: entries of the form
// "name=value;", conventionally one per line. Whitespace around entries is
// ignored. Values cannot contain the entry terminator.
type ConfigText string

// Parse feeds every entry to processEntry in order and stops at the first
// malformed or rejected one. An empty text parses successfully.
func (t ConfigText) Parse(processEntry func(name, value string) bool) bool {
	rest := string(t)
	for {
		entry, tail, found := strings.Cut(rest, string(ConfigEnd))
		entry = strings.TrimSpace(entry)
		if !found {
			// Trailing text without terminator is only accepted when blank
			return entry == ""
		}
		rest = tail
		if entry == "" {
			continue
		}
		name, value, ok := strings.Cut(entry, string(ConfigSeparator))
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return false
		}
		if !processEntry(name, value) {
			return false
		}
	}
}

// ConfigBuffer accumulates config entries in text encoding. Its Write method
// satisfies ConfigWriter.
type ConfigBuffer struct {
	buf    []byte
	values *sanitizer.Sanitizer
}

// NewConfigBuffer creates an empty buffer.
func NewConfigBuffer() *ConfigBuffer {
	return &ConfigBuffer{
		buf:    make([]byte, 0, 256),
		values: sanitizer.New().Policy(sanitizer.PolicyConfig),
	}
}

// Write appends one "name=value;" line. Line breaks in value become spaces
// and terminators are dropped so the entry parses back as written.
func (c *ConfigBuffer) Write(name, value string) {
	c.buf = append(c.buf, name...)
	c.buf = append(c.buf, ConfigSeparator)
	value = c.values.Sanitize(value)
	if strings.IndexByte(value, ConfigEnd) >= 0 {
		value = strings.ReplaceAll(value, string(ConfigEnd), "")
	}
	c.buf = append(c.buf, value...)
	c.buf = append(c.buf, ConfigEnd, '\n')
}

// Bytes returns the encoded entries.
func (c *ConfigBuffer) Bytes() []byte {
	return c.buf
}

// String returns the encoded entries.
func (c *ConfigBuffer) String() string {
	return string(c.buf)
}

// Len returns the number of encoded bytes.
func (c *ConfigBuffer) Len() int {
	return len(c.buf)
}

// Reset empties the buffer for reuse.
func (c *ConfigBuffer) Reset() {
	c.buf = c.buf[:0]
}

// EncodeConfig renders every field of c.
func EncodeConfig(c Configurable) []byte {
	b := NewConfigBuffer()
	c.GetConfig(b.Write)
	return b.Bytes()
}
