package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// Dispatcher asynchronously forwards audit events to a sink.
//
// Emit never blocks a request path when DropIfFull is set; events that do not
// fit the buffer are counted and discarded.
type Dispatcher struct {
	cfg       Config
	sink      Sink
	ch        chan Event
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	delivered atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once

	// dropsByType maps EventType to *atomic.Uint64.
	dropsByType sync.Map
}

// Stats is a point-in-time view of dispatcher throughput.
type Stats struct {
	Delivered uint64
	Dropped   uint64
	Pending   int
	// DroppedByType breaks Dropped down by EventType. High-volume gateway
	// outcomes are the usual casualties of a slow sink.
	DroppedByType map[string]uint64
}

// NewDispatcher starts the relay goroutine. A disabled config yields a nil
// Dispatcher whose methods are all no-ops.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		cfg:  cfg,
		sink: sink,
		ch:   make(chan Event, cfg.BufferSize),
		done: make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case event := <-d.ch:
			d.deliver(event)
		case <-d.done:
			for {
				select {
				case event := <-d.ch:
					d.deliver(event)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(event Event) {
	d.sink.Emit(context.Background(), event)
	d.delivered.Add(1)
}

func (d *Dispatcher) drop(eventType string) {
	d.dropped.Add(1)
	c, ok := d.dropsByType.Load(eventType)
	if !ok {
		c, _ = d.dropsByType.LoadOrStore(eventType, new(atomic.Uint64))
	}
	c.(*atomic.Uint64).Add(1)
}

// Emit queues event for delivery and stamps it when Timestamp is zero.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	if d.cfg.DropIfFull {
		select {
		case d.ch <- event:
		case <-d.done:
		default:
			d.drop(event.EventType)
		}
		return
	}

	select {
	case d.ch <- event:
	case <-ctx.Done():
	case <-d.done:
	}
}

// Close stops accepting events and drains what is already buffered.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

// Dropped reports how many events were discarded because the buffer was full.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// Stats reports delivery counters. A nil Dispatcher reports zeros.
func (d *Dispatcher) Stats() Stats {
	if d == nil {
		return Stats{DroppedByType: map[string]uint64{}}
	}
	st := Stats{
		Delivered:     d.delivered.Load(),
		Dropped:       d.dropped.Load(),
		Pending:       len(d.ch),
		DroppedByType: map[string]uint64{},
	}
	d.dropsByType.Range(func(k, v any) bool {
		st.DroppedByType[k.(string)] = v.(*atomic.Uint64).Load()
		return true
	})
	return st
}
