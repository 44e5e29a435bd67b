// Package store persists component configuration blobs, one per component
// name.
package store

import (
	"fmt"
	"strings"
)

// fmtErrorf wrapper
func fmtErrorf(format string, args ...any) error {
	if !strings.HasPrefix(format, "store: ") {
		format = "store: " + format
	}
	return fmt.Errorf(format, args...)
}

// validName rejects names that could escape the store directory.
func validName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmtErrorf("invalid config name '%s'", name)
	case strings.ContainsAny(name, `/\`+"\x00"):
		return fmtErrorf("config name '%s' contains a path separator", name)
	}
	return nil
}
