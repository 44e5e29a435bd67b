package iotcore

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// ApplyOverride applies "key=value" overrides, keyed by toml tag, to a clone
// of the configuration and returns the validated result. c is not modified.
//
// Example:
//
//	cfg, err := iotcore.DefaultConfig().ApplyOverride(
//	    "name=greenhouse",
//	    "initial_level=DBG",
//	    "remote_enabled=true",
//	)
func (c *Config) ApplyOverride(overrides ...string) (*Config, error) {
	cfg := c.Clone()

	var errors []error

	for _, override := range overrides {
		key, value, err := parseKeyValue(override)
		if err != nil {
			errors = append(errors, err)
			continue
		}

		if err := applyConfigField(cfg, key, value); err != nil {
			errors = append(errors, err)
		}
	}

	if len(errors) > 0 {
		return nil, combineConfigErrors(errors)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// combineConfigErrors combines multiple configuration errors into a single error.
func combineConfigErrors(errors []error) error {
	if len(errors) == 0 {
		return nil
	}
	if len(errors) == 1 {
		return errors[0]
	}

	var sb strings.Builder
	sb.WriteString("iotcore: multiple configuration errors:")
	for i, err := range errors {
		errMsg := strings.TrimPrefix(err.Error(), "iotcore: ")
		sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, errMsg))
	}
	return fmt.Errorf("%s", sb.String())
}

// applyConfigField parses value into the field tagged key.
func applyConfigField(cfg *Config, key, value string) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Tag.Get("toml") != key {
			continue
		}
		field := v.Field(i)

		switch field.Kind() {
		case reflect.String:
			field.SetString(value)
		case reflect.Int64:
			intVal, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmtErrorf("invalid integer value for %s '%s': %w", key, value, err)
			}
			field.SetInt(intVal)
		case reflect.Bool:
			boolVal, err := strconv.ParseBool(value)
			if err != nil {
				return fmtErrorf("invalid boolean value for %s '%s': %w", key, value, err)
			}
			field.SetBool(boolVal)
		default:
			return fmtErrorf("unsupported field type for %s: %v", key, field.Kind())
		}
		return nil
	}

	return fmtErrorf("unknown configuration key '%s'", key)
}
