package iotcore

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/iotcore/clock"
	"github.com/lixenwraith/iotcore/store"
)

// fakePlatform is a scriptable Platform.
type fakePlatform struct {
	id          string
	connected   bool
	credentials bool
	eraseErr    error

	hostname  string
	services  int
	erased    int
	restarts  int
	onService func()
}

func (p *fakePlatform) ID() string { return p.id }

func (p *fakePlatform) Connect(hostname string) bool {
	p.hostname = hostname
	return p.connected
}

func (p *fakePlatform) Connected() bool { return p.connected }

func (p *fakePlatform) Service() {
	p.services++
	if p.onService != nil {
		p.onService()
	}
}

func (p *fakePlatform) CredentialsSaved() bool { return p.credentials }

func (p *fakePlatform) EraseCredentials() error {
	p.erased++
	p.credentials = false
	return p.eraseErr
}

func (p *fakePlatform) Restart() { p.restarts++ }

func (p *fakePlatform) Diagnostics(collector DiagnosticsCollector) {
	collector.AddValue("platform", "fake")
}

// fakeComponent records its calls and accepts configuration for the fields
// it was created with. Values starting with "bad" are rejected.
type fakeComponent struct {
	name   string
	order  []string
	fields map[string]string

	setups []bool
	loops  []ConnectionStatus
	onLoop func()
}

func newFakeComponent(name string, fields ...string) *fakeComponent {
	c := &fakeComponent{name: name, fields: make(map[string]string)}
	for i := 0; i+1 < len(fields); i += 2 {
		c.order = append(c.order, fields[i])
		c.fields[fields[i]] = fields[i+1]
	}
	return c
}

func (c *fakeComponent) Name() string { return c.name }

func (c *fakeComponent) Configure(name, value string) bool {
	if _, ok := c.fields[name]; !ok || strings.HasPrefix(value, "bad") {
		return false
	}
	c.fields[name] = value
	return true
}

func (c *fakeComponent) GetConfig(writer ConfigWriter) {
	for _, name := range c.order {
		writer(name, c.fields[name])
	}
}

func (c *fakeComponent) GetDiagnostics(collector DiagnosticsCollector) {
	collector.AddValue("loops", fmt.Sprint(len(c.loops)))
}

func (c *fakeComponent) Setup(connected bool) { c.setups = append(c.setups, connected) }

func (c *fakeComponent) Loop(status ConnectionStatus) {
	c.loops = append(c.loops, status)
	if c.onLoop != nil {
		c.onLoop()
	}
}

type fakeInput struct {
	active    bool
	unchanged bool
}

func (i *fakeInput) Active() bool { return i.active }

func (i *fakeInput) UnchangedFor(uint32) bool { return i.unchanged }

type fakeOutput struct {
	on      bool
	sets    []bool
	toggles []uint32
}

func (o *fakeOutput) Set(on bool) {
	o.on = on
	o.sets = append(o.sets, on)
}

func (o *fakeOutput) ToggleIfUnchangedFor(ms uint32) {
	o.on = !o.on
	o.toggles = append(o.toggles, ms)
}

// recordingCollector flattens diagnostics into lines.
type recordingCollector struct {
	lines []string
	depth int
}

func (r *recordingCollector) BeginSection(name string) {
	r.lines = append(r.lines, strings.Repeat(" ", r.depth)+name+":")
	r.depth++
}

func (r *recordingCollector) AddValue(name, value string) {
	r.lines = append(r.lines, strings.Repeat(" ", r.depth)+name+"="+value)
}

func (r *recordingCollector) EndSection() {
	r.depth--
}

func (r *recordingCollector) has(line string) bool {
	return slices.Contains(r.lines, line)
}

type fakeOTA struct {
	hooks   OTAHooks
	handled int
	err     error
}

func (o *fakeOTA) Begin(hooks OTAHooks) error {
	o.hooks = hooks
	return o.err
}

func (o *fakeOTA) Handle() { o.handled++ }

// testSystem bundles a System with its fakes.
type testSystem struct {
	*System
	platform *fakePlatform
	store    *store.MemoryStore
	clock    *clock.Manual
	led      *fakeOutput
}

// createTestSystem builds an unset-up System on a manual clock, with an
// initially connected fake platform and the given components.
func createTestSystem(t *testing.T, components ...Component) *testSystem {
	t.Helper()
	return createTestSystemWith(t, nil, components...)
}

// createTestSystemWith is createTestSystem with a hook to customize the
// builder before Build.
func createTestSystemWith(t *testing.T, configure func(*Builder), components ...Component) *testSystem {
	t.Helper()

	ts := &testSystem{
		platform: &fakePlatform{id: "00c0ffee", connected: true},
		store:    store.NewMemoryStore(),
		clock:    clock.NewManual(),
		led:      &fakeOutput{},
	}
	ts.clock.AdvanceMillis(100)

	b := NewBuilder().
		Name("test").
		Version("1.0.0", "abc123").
		Platform(ts.platform).
		Store(ts.store).
		Clock(ts.clock).
		Pins(Pins{StatusLED: ts.led})
	for _, c := range components {
		b.Component(c)
	}
	if configure != nil {
		configure(b)
	}

	s, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	ts.System = s
	return ts
}

// logs returns the local ring contents as strings.
func (ts *testSystem) logs() []string {
	var out []string
	ts.LocalSink().Output(func(entry []byte) {
		out = append(out, string(entry))
	})
	return out
}

func (ts *testSystem) loopFor(n int, advanceMs uint32) {
	for i := 0; i < n; i++ {
		ts.clock.AdvanceMillis(advanceMs)
		ts.Loop()
	}
}

var errErase = errors.New("flash busy")
