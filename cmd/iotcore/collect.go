package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/panjf2000/gnet/v2"
	"github.com/spf13/cobra"

	"github.com/lixenwraith/iotcore/clock"
	"github.com/lixenwraith/iotcore/compat"
	"github.com/lixenwraith/iotcore/log"
)

const collectTick = time.Second

func newCollectCmd() *cobra.Command {
	var (
		listen string
		level  string
	)

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Print log entries forwarded by devices over UDP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := log.ParseLevel(level)
			if filter == log.LevelUnknown {
				return fmt.Errorf("invalid --level '%s' (use ---, ERR, WRN, INF, DBG, TRC, ALL)", level)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runCollector(ctx, listen, filter, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&listen, "listen", log.DefaultUDPDestination, "UDP address to collect on")
	cmd.Flags().StringVar(&level, "level", "ALL", "most verbose level to print")
	return cmd
}

// collector prints received entries. Every callback runs on the single
// gnet event loop, which also owns the collector's own log service.
type collector struct {
	gnet.BuiltinEventEngine
	ctx    context.Context
	out    io.Writer
	filter log.Level

	uptime *clock.Uptime
	logs   *log.Service
	logger log.Logger

	mu     sync.Mutex
	engine gnet.Engine
	booted bool

	received uint64
	filtered uint64
}

func newCollector(ctx context.Context, out, diagnostics io.Writer, filter log.Level) *collector {
	uptime := clock.NewUptime(clock.NewMonotonic())
	logs := log.NewService(uptime)
	console := log.NewWriterSink(diagnostics)
	console.Enable(true)
	logs.AddSink(console)

	return &collector{
		ctx:    ctx,
		out:    out,
		filter: filter,
		uptime: uptime,
		logs:   logs,
		logger: logs.Logger("collect"),
	}
}

func runCollector(ctx context.Context, address string, filter log.Level, out, diagnostics io.Writer) error {
	c := newCollector(ctx, out, diagnostics, filter)

	gnetLogger, err := compat.NewBuilder().WithService(c.logs).WithCategory("gnet").BuildGnet()
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		c.stop()
	}()

	return gnet.Run(c, "udp://"+address,
		gnet.WithMulticore(false),
		gnet.WithTicker(true),
		gnet.WithLogger(gnetLogger),
	)
}

func (c *collector) OnBoot(eng gnet.Engine) gnet.Action {
	c.mu.Lock()
	c.engine = eng
	c.booted = true
	c.mu.Unlock()

	if c.ctx.Err() != nil {
		return gnet.Shutdown
	}
	c.uptime.Update()
	c.logger.Info("Collecting.")
	return gnet.None
}

func (c *collector) OnTraffic(conn gnet.Conn) gnet.Action {
	packet, err := conn.Next(-1)
	if err != nil {
		return gnet.None
	}
	c.receive(conn.RemoteAddr().String(), packet)
	return gnet.None
}

func (c *collector) OnTick() (time.Duration, gnet.Action) {
	c.uptime.Update()
	c.logs.Drain()
	return collectTick, gnet.None
}

func (c *collector) OnShutdown(gnet.Engine) {
	c.uptime.Update()
	c.logs.Drain()
	c.logger.Info("Stopped after %d entries, %d filtered.", c.received, c.filtered)
}

// receive prints one datagram as "<from> <entry>".
func (c *collector) receive(from string, packet []byte) {
	c.received++
	if level := entryLevel(packet); level != log.LevelUnknown && level > c.filter {
		c.filtered++
		return
	}
	line := make([]byte, 0, len(from)+1+len(packet)+1)
	line = append(line, from...)
	line = append(line, ' ')
	line = append(line, bytes.TrimRight(packet, "\n")...)
	line = append(line, '\n')
	_, _ = c.out.Write(line)
}

func (c *collector) stop() {
	c.mu.Lock()
	eng, booted := c.engine, c.booted
	c.mu.Unlock()
	if !booted {
		return
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = eng.Stop(shutdown)
}

// entryLevel reads the level code of "[uptime|category|LVL] message". It
// returns log.LevelUnknown for anything else.
func entryLevel(entry []byte) log.Level {
	if len(entry) == 0 || entry[0] != '[' {
		return log.LevelUnknown
	}
	end := bytes.IndexByte(entry, ']')
	if end < 5 || entry[end-4] != '|' {
		return log.LevelUnknown
	}
	return log.ParseLevel(string(entry[end-3 : end]))
}
