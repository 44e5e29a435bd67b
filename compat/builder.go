package compat

import (
	"fmt"

	"github.com/lixenwraith/iotcore/log"
)

// DefaultCategory is the log category used when none is given
const DefaultCategory = "net"

// Builder creates logger adapters for gnet and fasthttp bound to one log
// service. Adapters log through an async handle: both libraries call their
// loggers from their own goroutines, never from the loop goroutine.
type Builder struct {
	service  *log.Service
	category string
	err      error
}

// NewBuilder creates a new adapter builder
func NewBuilder() *Builder {
	return &Builder{category: DefaultCategory}
}

// WithService specifies the log service the adapters write to
func (b *Builder) WithService(s *log.Service) *Builder {
	if s == nil {
		b.err = fmt.Errorf("compat: provided log service cannot be nil")
		return b
	}
	b.service = s
	return b
}

// WithCategory sets the log category of the adapters
func (b *Builder) WithCategory(category string) *Builder {
	if category == "" {
		b.err = fmt.Errorf("compat: category cannot be empty")
		return b
	}
	b.category = category
	return b
}

// getLogger resolves the async handle shared by the adapters
func (b *Builder) getLogger() (log.Logger, error) {
	if b.err != nil {
		return log.Logger{}, b.err
	}
	if b.service == nil {
		return log.Logger{}, fmt.Errorf("compat: log service not set")
	}
	return b.service.Logger(b.category).Async(), nil
}

// BuildGnet creates a gnet adapter
func (b *Builder) BuildGnet(opts ...GnetOption) (*GnetAdapter, error) {
	l, err := b.getLogger()
	if err != nil {
		return nil, err
	}
	return NewGnetAdapter(l, opts...), nil
}

// BuildFastHTTP creates a fasthttp adapter
func (b *Builder) BuildFastHTTP(opts ...FastHTTPOption) (*FastHTTPAdapter, error) {
	l, err := b.getLogger()
	if err != nil {
		return nil, err
	}
	return NewFastHTTPAdapter(l, opts...), nil
}

// --- Example Usage ---
//
//	system, err := iotcore.NewBuilder().Platform(host).Build()
//	if err != nil { /* handle error */ }
//
//	builder := compat.NewBuilder().WithService(system.Logs()).WithCategory("api")
//
//	fasthttpLogger, err := builder.BuildFastHTTP()
//	if err != nil { /* handle error */ }
//	server := &fasthttp.Server{Handler: handler, Logger: fasthttpLogger}
//
//	gnetLogger, err := builder.BuildGnet()
//	if err != nil { /* handle error */ }
//	go gnet.Run(events, "udp://:5141", gnet.WithLogger(gnetLogger))
