package iotcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/iotcore/clock"
	"github.com/lixenwraith/iotcore/log"
	"github.com/lixenwraith/iotcore/store"
)

func TestBuilder_Build(t *testing.T) {
	t.Run("successful build returns configured system", func(t *testing.T) {
		platform := &fakePlatform{id: "beef"}
		c := newFakeComponent("sensor")

		s, err := NewBuilder().
			Name("greenhouse").
			Version("2.1.0", "deadbeef").
			InitialLevel(log.LevelDebug).
			LocalLevel(log.LevelTrace).
			EntryLength(64).
			RingSize(1024).
			LoopIntervalMs(5).
			Heartbeat(1, 30000).
			Platform(platform).
			Store(store.NewMemoryStore()).
			Clock(clock.NewManual()).
			Component(c).
			Build()
		require.NoError(t, err)
		defer s.Close()

		cfg := s.Config()
		assert.Equal(t, "greenhouse", cfg.Name)
		assert.Equal(t, "DBG", cfg.InitialLevel)
		assert.Equal(t, int64(64), cfg.EntryLength)
		assert.Equal(t, int64(5), cfg.LoopIntervalMs)
		assert.Equal(t, int64(1), cfg.HeartbeatLevel)
		assert.Equal(t, VersionInfo{Version: "2.1.0", Commit: "deadbeef"}, s.Version())
		assert.Equal(t, "greenhouse-beef", s.Hostname())
		assert.Equal(t, log.LevelDebug, s.Logs().InitialLevel())
		assert.Equal(t, log.LevelTrace, s.LocalSink().Level())
		assert.Equal(t, 1024, s.LocalSink().Capacity())

		got, ok := s.Component("sensor")
		require.True(t, ok)
		assert.Same(t, c, got)
	})

	t.Run("builder error accumulation", func(t *testing.T) {
		s, err := NewBuilder().
			InitialLevel(log.LevelUnknown).
			Platform(&fakePlatform{}).
			Build()
		assert.Nil(t, s)
		assert.ErrorContains(t, err, "invalid log level 255")
	})

	t.Run("override errors stop the chain", func(t *testing.T) {
		_, err := NewBuilder().
			Override("ring_size=tiny").
			Override("name=ignored").
			Platform(&fakePlatform{}).
			Build()
		assert.ErrorContains(t, err, "invalid integer value for ring_size")
	})

	t.Run("overrides apply", func(t *testing.T) {
		s, err := NewBuilder().
			Override("name=overridden", "local_level=WRN").
			Platform(&fakePlatform{}).
			Clock(clock.NewManual()).
			Build()
		require.NoError(t, err)
		defer s.Close()
		assert.Equal(t, "overridden", s.Name())
		assert.Equal(t, log.LevelWarning, s.LocalSink().Level())
	})

	t.Run("missing platform", func(t *testing.T) {
		_, err := NewBuilder().Build()
		assert.Error(t, err)
	})

	t.Run("duplicate components", func(t *testing.T) {
		_, err := NewBuilder().
			Platform(&fakePlatform{}).
			Clock(clock.NewManual()).
			Component(newFakeComponent("x")).
			Component(newFakeComponent("x")).
			Build()
		assert.ErrorContains(t, err, "duplicate component name 'x'")
	})

	t.Run("invalid config rejected at build", func(t *testing.T) {
		_, err := NewBuilder().
			EntryLength(8).
			Platform(&fakePlatform{}).
			Build()
		assert.ErrorContains(t, err, "entry_length")
	})
}
