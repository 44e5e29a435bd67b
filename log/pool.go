package log

import (
	"strings"
)

// Pool interns strings that must outlive the call that supplied them, such
// as category names used as map keys. Interned strings are never released;
// keep the key set small and bounded by the program, not by input.
type Pool struct {
	strings map[string]string
}

// Intern returns the pooled copy of s, adding one on first use.
func (p *Pool) Intern(s string) string {
	if interned, ok := p.strings[s]; ok {
		return interned
	}
	if p.strings == nil {
		p.strings = make(map[string]string)
	}
	interned := strings.Clone(s)
	p.strings[interned] = interned
	return interned
}

// Len returns the number of interned strings.
func (p *Pool) Len() int {
	return len(p.strings)
}
