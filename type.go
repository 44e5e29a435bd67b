package iotcore

import (
	"github.com/lixenwraith/iotcore/timing"
)

// VersionInfo identifies the application build.
type VersionInfo struct {
	Version string
	Commit  string
}

// registration is a component registry entry with its own timing ring.
type registration struct {
	component Component
	name      string
	timing    *timing.Statistics
}

// job is a function handed to the loop goroutine by Dispatch or Post.
type job struct {
	fn   func()
	done chan struct{}
}
