// Package platform runs the iotcore System on an ordinary host: device
// identity, link state, credential storage and restart are mapped onto the
// operating system.
package platform

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/lixenwraith/iotcore"
	"github.com/lixenwraith/iotcore/formatter"
	"github.com/lixenwraith/iotcore/store"
)

const credentialsFile = "credentials"

// Host is an iotcore.Platform backed by the local machine.
type Host struct {
	id        string
	dataDir   string
	hostname  string
	link      func() bool
	onRestart func()
	usage     func() (store.Usage, error)

	up         atomic.Bool
	linkChecks atomic.Uint64
	connects   atomic.Uint64
	restarts   atomic.Uint64
	services   atomic.Uint64
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithDeviceID sets the device identifier instead of deriving it.
func WithDeviceID(id string) HostOption {
	return func(h *Host) {
		h.id = id
	}
}

// WithLink replaces interface inspection as the connectivity check.
func WithLink(link func() bool) HostOption {
	return func(h *Host) {
		h.link = link
	}
}

// WithRestart sets the function called when the device must restart.
func WithRestart(f func()) HostOption {
	return func(h *Host) {
		h.onRestart = f
	}
}

// WithStoreUsage adds config store disk usage to the diagnostics.
func WithStoreUsage(fileStore *store.FileStore) HostOption {
	return func(h *Host) {
		if fileStore != nil {
			h.usage = fileStore.Usage
		}
	}
}

// NewHost creates a Host keeping its network credentials in dataDir.
func NewHost(dataDir string, opts ...HostOption) (*Host, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmtErrorf("failed to create data directory '%s': %w", dataDir, err)
	}
	h := &Host{
		dataDir: dataDir,
		link:    interfacesUp,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.id == "" {
		h.id = DeviceID(machineName())
	}
	return h, nil
}

// DeviceID derives a stable 8 hex digit identifier from seed.
func DeviceID(seed string) string {
	u := uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed))
	return strings.ReplaceAll(u.String(), "-", "")[:8]
}

// ID implements iotcore.Platform.
func (h *Host) ID() string {
	return h.id
}

// Connect records the hostname and reports the current link state. Host
// networking is managed by the operating system.
func (h *Host) Connect(hostname string) bool {
	h.hostname = hostname
	h.connects.Add(1)
	return h.checkLink()
}

// Connected reports the link state seen by the last Connect or Service call.
// It is read for every forwarded log entry, so it never checks the link itself.
func (h *Host) Connected() bool {
	return h.up.Load()
}

// Service implements iotcore.Platform. It refreshes the link state once per
// yield.
func (h *Host) Service() {
	h.services.Add(1)
	h.checkLink()
}

// LinkChecks returns the number of link state checks made.
func (h *Host) LinkChecks() uint64 {
	return h.linkChecks.Load()
}

func (h *Host) checkLink() bool {
	h.linkChecks.Add(1)
	up := h.link()
	h.up.Store(up)
	return up
}

// SaveCredentials persists a network identity, e.g. an access point name.
func (h *Host) SaveCredentials(identity string) error {
	path := filepath.Join(h.dataDir, credentialsFile)
	if err := os.WriteFile(path, []byte(identity), 0600); err != nil {
		return fmtErrorf("failed to save credentials: %w", err)
	}
	return nil
}

// CredentialsSaved implements iotcore.Platform.
func (h *Host) CredentialsSaved() bool {
	_, err := os.Stat(filepath.Join(h.dataDir, credentialsFile))
	return err == nil
}

// EraseCredentials implements iotcore.Platform.
func (h *Host) EraseCredentials() error {
	err := os.Remove(filepath.Join(h.dataDir, credentialsFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmtErrorf("failed to erase credentials: %w", err)
	}
	return nil
}

// Restart implements iotcore.Platform. On a host it only notifies the
// restart hook; the caller decides how to start over.
func (h *Host) Restart() {
	h.restarts.Add(1)
	if h.onRestart != nil {
		h.onRestart()
	}
}

// Restarts returns the number of requested restarts.
func (h *Host) Restarts() uint64 {
	return h.restarts.Load()
}

// Diagnostics implements iotcore.Platform.
func (h *Host) Diagnostics(collector iotcore.DiagnosticsCollector) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	collector.AddValue("platform", runtime.GOOS+"/"+runtime.GOARCH)
	collector.AddValue("goVersion", runtime.Version())
	collector.AddValue("cpus", formatter.FormatInt(runtime.NumCPU()))
	collector.AddValue("goroutines", formatter.FormatInt(runtime.NumGoroutine()))
	collector.AddValue("heapAlloc", formatter.FormatInt(mem.HeapAlloc))
	collector.AddValue("heapSys", formatter.FormatInt(mem.HeapSys))
	collector.AddValue("numGC", formatter.FormatInt(mem.NumGC))
	collector.AddValue("hostname", h.hostname)
	collector.AddValue("ip", localIP())
	collector.AddValue("services", formatter.FormatInt(h.services.Load()))

	if h.usage != nil {
		if usage, err := h.usage(); err == nil {
			collector.AddValue("configFiles", formatter.FormatInt(usage.Files))
			collector.AddValue("configBytes", formatter.FormatInt(usage.Bytes))
			collector.AddValue("diskFree", formatter.FormatInt(usage.FreeBytes))
		}
	}
}

func machineName() string {
	for _, path := range []string{"/etc/machine-id", "/var/lib/dbus/machine-id"} {
		if data, err := os.ReadFile(path); err == nil {
			if id := strings.TrimSpace(string(data)); id != "" {
				return id
			}
		}
	}
	name, _ := os.Hostname()
	return name
}

// interfacesUp reports whether a non-loopback interface is up with an address.
func interfacesUp() bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		return false
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if addrs, err := iface.Addrs(); err == nil && len(addrs) > 0 {
			return true
		}
	}
	return false
}

func localIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, addr := range addrs {
		if ipNet, ok := addr.(*net.IPNet); ok && !ipNet.IP.IsLoopback() && ipNet.IP.To4() != nil {
			return ipNet.IP.String()
		}
	}
	return ""
}

// fmtErrorf wrapper
func fmtErrorf(format string, args ...any) error {
	if !strings.HasPrefix(format, "platform: ") {
		format = "platform: " + format
	}
	return fmt.Errorf(format, args...)
}
