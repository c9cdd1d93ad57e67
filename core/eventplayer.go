package navigation

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/microsoft/soundscape-core/core/events"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// eventPlayer runs queued events and functions one at a time on its own
// goroutine. Everything the navigator owns is only touched from there.
type eventPlayer struct {
	mu     sync.Mutex
	queue  []queueItem
	signal chan struct{}

	closeCh chan struct{}
	done    chan struct{}

	startOnce sync.Once
	endOnce   sync.Once

	started atomic.Bool
}

type queueItem struct {
	event    events.Event
	fn       func()
	queuedAt time.Time
}

func newEventPlayer() *eventPlayer {
	return &eventPlayer{
		signal:  make(chan struct{}, 1),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (p *eventPlayer) CanIngest() bool {
	if p == nil {
		return false
	}

	select {
	case <-p.closeCh:
		return false
	default:
		return true
	}
}

// StartLoop starts processing. It stops when ctx is done or Stop is
// called; items still queued are dropped.
func (p *eventPlayer) StartLoop(ctx context.Context, process func(context.Context, events.Event)) (started bool) {
	if p == nil || process == nil || !p.CanIngest() {
		return false
	}

	p.startOnce.Do(func() {
		started = true
		p.started.Store(true)
		go func() {
			defer close(p.done)

			for {
				select {
				case <-p.closeCh:
					return
				case <-ctx.Done():
					p.Stop()
					return
				case <-p.signal:
				}

				for {
					item, ok := p.next()
					if !ok || !p.CanIngest() {
						break
					}
					p.processQueuedItem(ctx, item, process)
				}
			}
		}()
	})

	return started
}

func (p *eventPlayer) Stop() {
	if p == nil {
		return
	}

	p.endOnce.Do(func() { close(p.closeCh) })
}

func (p *eventPlayer) AwaitDone() {
	if p == nil {
		return
	}

	if p.started.Load() {
		<-p.done
	}
}

func (p *eventPlayer) Ingest(event events.Event) bool {
	return p.push(queueItem{event: event, queuedAt: time.Now()})
}

func (p *eventPlayer) IngestFunc(fn func()) bool {
	return p.push(queueItem{fn: fn, queuedAt: time.Now()})
}

func (p *eventPlayer) push(item queueItem) bool {
	if p == nil || !p.CanIngest() {
		return false
	}

	p.mu.Lock()
	p.queue = append(p.queue, item)
	p.mu.Unlock()

	select {
	case p.signal <- struct{}{}:
	default:
	}
	return true
}

func (p *eventPlayer) next() (queueItem, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.queue) == 0 {
		return queueItem{}, false
	}
	item := p.queue[0]
	p.queue[0] = queueItem{}
	p.queue = p.queue[1:]
	return item, true
}

func (p *eventPlayer) processQueuedItem(ctx context.Context, item queueItem, process func(context.Context, events.Event)) {
	if item.fn != nil {
		if err := panicSafe("dispatched function", item.fn); err != nil {
			logger.Error("dispatched function failed", "error", err)
		}
		return
	}

	ctx, span := tracer.Start(ctx, "process event", trace.WithAttributes(
		attribute.String("event.kind", string(item.event.Kind())),
		attribute.String("event.class", item.event.Class().String()),
	))
	defer span.End()

	queuedTime := time.Since(item.queuedAt).Seconds()
	span.AddEvent("taken out of queue", trace.WithAttributes(attribute.Float64("event.queued_time", queuedTime)))
	span.SetAttributes(attribute.Float64("event.queued_time", queuedTime))

	if err := panicSafe("event processing", func() { process(ctx, item.event) }); err != nil {
		err = fmt.Errorf("failed to process %s: %w", item.event.Kind(), err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("event processing failed", "error", err)
	}
}

func (p *eventPlayer) queuedEventCount() int {
	if p == nil {
		return 0
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}
