package events

import (
	"log/slog"
	"sync"

	"github.com/mkarev/nftmarket/internal/model"
)

// Dispatcher fans marketplace events out to named subscribers.
type Dispatcher struct {
	logger *slog.Logger

	mu        sync.RWMutex
	subs      map[string]*GrowableBuffer[model.Event]
	published int64
	dropped   int64
	closed    bool
}

// DispatcherStats contains fan-out counters.
type DispatcherStats struct {
	Subscribers int
	Published   int64
	Dropped     int64
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		logger: logger,
		subs:   make(map[string]*GrowableBuffer[model.Event]),
	}
}

// Subscribe registers a named consumer and returns its buffer. Subscribing
// twice under one name replaces the previous buffer (the old one is closed).
func (d *Dispatcher) Subscribe(name string, size int) *GrowableBuffer[model.Event] {
	d.mu.Lock()
	defer d.mu.Unlock()

	if prev, ok := d.subs[name]; ok {
		prev.Close()
	}

	buf := NewGrowableBuffer[model.Event](size)
	d.subs[name] = buf

	d.logger.Debug("subscriber registered", "name", name, "buffer", size)
	return buf
}

// Publish delivers the event to every subscriber.
func (d *Dispatcher) Publish(ev model.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		d.dropped++
		return
	}
	d.published++

	for name, buf := range d.subs {
		if !buf.Send(ev) {
			d.dropped++
			d.logger.Warn("event dropped, subscriber closed", "name", name, "type", ev.Type)
		}
	}
}

// Close closes every subscriber buffer; further publishes are dropped.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	for _, buf := range d.subs {
		buf.Close()
	}
}

// Stats returns fan-out counters.
func (d *Dispatcher) Stats() DispatcherStats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return DispatcherStats{
		Subscribers: len(d.subs),
		Published:   d.published,
		Dropped:     d.dropped,
	}
}
