package iotcore

import (
	"fmt"
	"strings"
)

// fmtErrorf wrapper
func fmtErrorf(format string, args ...any) error {
	if !strings.HasPrefix(format, "iotcore: ") {
		format = "iotcore: " + format
	}
	return fmt.Errorf(format, args...)
}

// combineErrors helper
func combineErrors(err1, err2 error) error {
	if err1 == nil {
		return err2
	}
	if err2 == nil {
		return err1
	}
	return fmt.Errorf("%v; %w", err1, err2)
}

// parseKeyValue splits a "key=value" string.
func parseKeyValue(arg string) (string, string, error) {
	parts := strings.SplitN(strings.TrimSpace(arg), "=", 2)
	if len(parts) != 2 {
		return "", "", fmtErrorf("invalid format in override string '%s', expected key=value", arg)
	}
	key := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])
	if key == "" {
		return "", "", fmtErrorf("key cannot be empty in override string '%s'", arg)
	}
	return key, value, nil
}

// splitCompoundKey splits "<component>.<field>" at the first dot.
func splitCompoundKey(path string) (component, field string, ok bool) {
	component, field, ok = strings.Cut(path, ".")
	if !ok || component == "" || field == "" {
		return "", "", false
	}
	return component, field, true
}

// hostname derives the network hostname "<name>-<id>", capped at 32 bytes.
func hostname(name, id string) string {
	h := name + "-" + id
	if len(h) > 32 {
		h = h[:32]
	}
	return h
}
