package api

import (
	"errors"

	"github.com/goccy/go-json"
)

var errUnbalanced = errors.New("api: section closed without being opened")

// JSONCollector renders diagnostics as one JSON object: a section becomes a
// nested object and a value a string property.
type JSONCollector struct {
	buf []byte
	// members records, per open object, whether it has a member yet
	members []bool
	err     error
}

// NewJSONCollector opens the root object.
func NewJSONCollector() *JSONCollector {
	return &JSONCollector{
		buf:     append(make([]byte, 0, 1024), '{'),
		members: []bool{false},
	}
}

// BeginSection implements iotcore.DiagnosticsCollector.
func (c *JSONCollector) BeginSection(name string) {
	if !c.property(name) {
		return
	}
	c.buf = append(c.buf, '{')
	c.members = append(c.members, false)
}

// AddValue implements iotcore.DiagnosticsCollector.
func (c *JSONCollector) AddValue(name, value string) {
	if c.property(name) {
		c.appendString(value)
	}
}

// EndSection implements iotcore.DiagnosticsCollector. The root object is
// closed by Finish only.
func (c *JSONCollector) EndSection() {
	if len(c.members) <= 1 {
		c.fail(errUnbalanced)
		return
	}
	c.closeObject()
}

// Finish closes every open object and returns the document. The error is
// the first problem met while writing.
func (c *JSONCollector) Finish() ([]byte, error) {
	for len(c.members) > 0 {
		c.closeObject()
	}
	return c.buf, c.err
}

func (c *JSONCollector) property(name string) bool {
	top := len(c.members) - 1
	if top < 0 {
		c.fail(errors.New("api: collector already finished"))
		return false
	}
	if c.members[top] {
		c.buf = append(c.buf, ',')
	}
	c.members[top] = true
	c.appendString(name)
	c.buf = append(c.buf, ':')
	return true
}

func (c *JSONCollector) appendString(s string) {
	encoded, err := json.Marshal(s)
	if err != nil {
		c.fail(err)
		encoded = []byte(`""`)
	}
	c.buf = append(c.buf, encoded...)
}

func (c *JSONCollector) closeObject() {
	c.buf = append(c.buf, '}')
	c.members = c.members[:len(c.members)-1]
}

func (c *JSONCollector) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}
