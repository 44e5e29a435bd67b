package iotcore

// fieldSnapshot holds the configuration of a component before a change.
type fieldSnapshot struct {
	component Configurable
	fields    [][2]string
}

func snapshot(c Configurable) fieldSnapshot {
	snap := fieldSnapshot{component: c}
	c.GetConfig(func(name, value string) {
		snap.fields = append(snap.fields, [2]string{name, value})
	})
	return snap
}

// restore re-applies the captured fields. Fields the component rejects are
// skipped; a component that accepted a value once accepts it again.
func (f fieldSnapshot) restore() {
	for _, field := range f.fields {
		f.component.Configure(field[0], field[1])
	}
}

// Configure applies every entry of parser to the component named category.
// On success the component's full configuration is persisted. On failure,
// including an unknown component or a failed save, nothing new is persisted
// and the component's previous configuration is restored.
func (s *System) Configure(category string, parser ConfigParser) bool {
	r := s.find(category)
	if r == nil {
		s.logger.Debug("Configure: unknown component '%s'.", category)
		return false
	}

	snap := snapshot(r.component)
	if !parser.Parse(r.component.Configure) {
		snap.restore()
		s.logger.Warn("Rejected config for '%s'.", category)
		return false
	}

	if !s.persistConfiguration(r.component) {
		snap.restore()
		return false
	}
	return true
}

// GetConfig writes the configuration of the component named category. It
// reports false when no such component exists.
func (s *System) GetConfig(category string, writer ConfigWriter) bool {
	r := s.find(category)
	if r == nil {
		return false
	}
	r.component.GetConfig(writer)
	return true
}

// ConfigureAll applies entries keyed "<component>.<field>". Every touched
// component is persisted on success. On failure every touched component is
// restored; when a save failed, components already saved are saved again with
// their restored configuration.
func (s *System) ConfigureAll(parser ConfigParser) bool {
	var touched []fieldSnapshot
	seen := make(map[string]bool)

	ok := parser.Parse(func(path, value string) bool {
		category, name, ok := splitCompoundKey(path)
		if !ok {
			return false
		}
		r := s.find(category)
		if r == nil {
			return false
		}
		if !seen[category] {
			seen[category] = true
			touched = append(touched, snapshot(r.component))
		}
		return r.component.Configure(name, value)
	})

	if !ok {
		for _, snap := range touched {
			snap.restore()
		}
		s.logger.Warn("Rejected bulk config.")
		return false
	}

	for i, snap := range touched {
		if s.persistConfiguration(snap.component) {
			continue
		}
		for _, t := range touched {
			t.restore()
		}
		for _, saved := range touched[:i] {
			s.persistConfiguration(saved.component)
		}
		s.logger.Warn("Rolled back bulk config.")
		return false
	}
	return true
}

// GetAllConfig writes the configuration of every component with field names
// prefixed "<component>.".
func (s *System) GetAllConfig(writer ConfigWriter) {
	for _, r := range s.components {
		prefix := r.name + "."
		r.component.GetConfig(func(name, value string) {
			writer(prefix+name, value)
		})
	}
}
