package progress

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Config controls buffering and flushing for the Hub. Zero values pick
// defaults sized for a single batch run, where the event stream is one
// RUN_START, a few hundred URL events, and one RUN_DONE.
type Config struct {
	// QueueSize is how many pending events Emit accepts before dropping.
	QueueSize int
	// FlushAt flushes as soon as this many events are buffered.
	FlushAt int
	// FlushEvery flushes whatever is buffered at this interval.
	FlushEvery time.Duration
	// SinkTimeout is the per-sink budget for one Consume call.
	SinkTimeout time.Duration
	// Logger receives sink failures and the dropped-event total.
	Logger *zap.Logger
}

const (
	defaultQueueSize   = 1024
	defaultFlushAt     = 64
	defaultFlushEvery  = 250 * time.Millisecond
	defaultSinkTimeout = 5 * time.Second
)

// Hub collects events from the worker pool and hands them to sinks in small
// batches. Emit never blocks a worker: when the queue is full the event is
// counted and dropped, and the total is logged once at Close. Sinks must not
// retain the batch slice past Consume.
type Hub struct {
	sinks   []Sink
	events  chan Event
	flushAt int
	every   time.Duration
	timeout time.Duration
	logger  *zap.Logger

	dropped  atomic.Int64
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewHub starts the flushing goroutine and returns a Hub ready for Emit.
func NewHub(cfg Config, sinks ...Sink) *Hub {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.FlushAt <= 0 {
		cfg.FlushAt = defaultFlushAt
	}
	if cfg.FlushEvery <= 0 {
		cfg.FlushEvery = defaultFlushEvery
	}
	if cfg.SinkTimeout <= 0 {
		cfg.SinkTimeout = defaultSinkTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		sinks:   append([]Sink(nil), sinks...),
		events:  make(chan Event, cfg.QueueSize),
		flushAt: cfg.FlushAt,
		every:   cfg.FlushEvery,
		timeout: cfg.SinkTimeout,
		logger:  logger,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go h.run()
	return h
}

// Emit queues an event without blocking. Invalid events are discarded;
// events arriving after Close begins are dropped.
func (h *Hub) Emit(evt Event) {
	if h == nil {
		return
	}
	if err := evt.Validate(); err != nil {
		h.logger.Debug("discarding invalid progress event", zap.Error(err))
		return
	}
	select {
	case <-h.stop:
	case h.events <- evt:
	default:
		h.dropped.Add(1)
	}
}

// Close drains the queue, flushes the sinks, and waits for the flushing
// goroutine to exit. Safe to call more than once.
func (h *Hub) Close(ctx context.Context) error {
	if h == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	h.stopOnce.Do(func() { close(h.stop) })
	select {
	case <-h.done:
		if n := h.dropped.Load(); n > 0 {
			h.logger.Warn("progress events dropped", zap.Int64("dropped", n))
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("close progress hub: %w", ctx.Err())
	}
}

func (h *Hub) run() {
	defer close(h.done)
	ticker := time.NewTicker(h.every)
	defer ticker.Stop()

	batch := make([]Event, 0, h.flushAt)
	for {
		select {
		case evt := <-h.events:
			batch = append(batch, evt)
			if len(batch) >= h.flushAt {
				h.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				h.flush(batch)
				batch = batch[:0]
			}
		case <-h.stop:
			h.drain(batch)
			return
		}
	}
}

// drain empties whatever reached the queue before Close, then closes sinks.
func (h *Hub) drain(batch []Event) {
	for {
		select {
		case evt := <-h.events:
			batch = append(batch, evt)
		default:
			h.flush(batch)
			h.closeSinks()
			return
		}
	}
}

func (h *Hub) flush(batch []Event) {
	if len(batch) == 0 {
		return
	}
	for _, sink := range h.sinks {
		if sink == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		if err := sink.Consume(ctx, batch); err != nil {
			h.logger.Warn("progress sink consume failed", zap.Error(err))
		}
		cancel()
	}
}

func (h *Hub) closeSinks() {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	for _, sink := range h.sinks {
		if sink == nil {
			continue
		}
		if err := sink.Close(ctx); err != nil {
			h.logger.Warn("progress sink close failed", zap.Error(err))
		}
	}
}
