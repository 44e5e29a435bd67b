package platform

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/iotcore"
	"github.com/lixenwraith/iotcore/clock"
	"github.com/lixenwraith/iotcore/store"
)

type valueCollector map[string]string

func (v valueCollector) BeginSection(string)         {}
func (v valueCollector) AddValue(name, value string) { v[name] = value }
func (v valueCollector) EndSection()                 {}

func TestDeviceID(t *testing.T) {
	id := DeviceID("machine-a")
	assert.Len(t, id, 8)
	assert.Equal(t, id, DeviceID("machine-a"), "stable")
	assert.NotEqual(t, id, DeviceID("machine-b"))
}

func TestHost(t *testing.T) {
	link := true
	restarted := 0
	dir := t.TempDir()
	fileStore, err := store.NewFileStore(filepath.Join(dir, "config"))
	require.NoError(t, err)

	h, err := NewHost(dir,
		WithDeviceID("cafe0001"),
		WithLink(func() bool { return link }),
		WithRestart(func() { restarted++ }),
		WithStoreUsage(fileStore),
	)
	require.NoError(t, err)

	var _ iotcore.Platform = h

	t.Run("identity and link", func(t *testing.T) {
		assert.Equal(t, "cafe0001", h.ID())
		assert.True(t, h.Connect("dev-cafe0001"))
		assert.True(t, h.Connected())

		link = false
		assert.True(t, h.Connected(), "cached until the next service call")
		checks := h.LinkChecks()
		for i := 0; i < 100; i++ {
			h.Connected()
		}
		assert.Equal(t, checks, h.LinkChecks(), "reading the state does not check the link")

		h.Service()
		assert.False(t, h.Connected())
		link = true
		h.Service()
		assert.True(t, h.Connected())
	})

	t.Run("credentials", func(t *testing.T) {
		assert.False(t, h.CredentialsSaved())
		assert.NoError(t, h.EraseCredentials(), "erasing nothing is fine")
		require.NoError(t, h.SaveCredentials("home-ap"))
		assert.True(t, h.CredentialsSaved())
		require.NoError(t, h.EraseCredentials())
		assert.False(t, h.CredentialsSaved())
	})

	t.Run("restart", func(t *testing.T) {
		h.Restart()
		assert.Equal(t, 1, restarted)
		assert.Equal(t, uint64(1), h.Restarts())
	})

	t.Run("diagnostics", func(t *testing.T) {
		require.NoError(t, fileStore.Save("led", []byte("pin=4;\n")))

		values := valueCollector{}
		h.Diagnostics(values)
		assert.Equal(t, "dev-cafe0001", values["hostname"])
		assert.Equal(t, "2", values["services"])
		assert.Equal(t, "1", values["configFiles"])
		assert.Equal(t, "7", values["configBytes"])
		assert.NotEmpty(t, values["goVersion"])
	})
}

func TestNewHostDerivesID(t *testing.T) {
	h, err := NewHost(t.TempDir())
	require.NoError(t, err)
	assert.Len(t, h.ID(), 8)
}

func TestInput(t *testing.T) {
	c := clock.NewManual()
	in := NewInput(c)
	var _ iotcore.Input = in

	assert.False(t, in.Active())
	in.SetActive(true)
	c.AdvanceMillis(4999)
	assert.False(t, in.UnchangedFor(5000))
	in.SetActive(true)
	c.AdvanceMillis(1)
	assert.True(t, in.UnchangedFor(5000), "setting the same level is not a change")

	in.SetActive(false)
	assert.False(t, in.UnchangedFor(1))
}

func TestOutput(t *testing.T) {
	c := clock.NewManual()
	var changes []bool
	out := NewOutput(c, func(on bool) { changes = append(changes, on) })
	var _ iotcore.Output = out

	out.Set(false)
	assert.Empty(t, changes, "no change")

	for i := 0; i < 5; i++ {
		c.AdvanceMillis(250)
		out.ToggleIfUnchangedFor(500)
	}
	// toggles at 500 and 1000 ms
	assert.Equal(t, []bool{true, false}, changes)
	assert.False(t, out.On())
}
