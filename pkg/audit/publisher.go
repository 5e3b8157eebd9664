package audit

import (
	"context"
	"log/slog"
	"sync"

	"caseflow/pkg/requestcontext"
)

// Publisher fans audit events out to a store and an optional sink.
//
// Emit is synchronous by default; WithAsyncBuffer switches to a buffered
// channel drained by a single goroutine, trading delivery latency for not
// blocking the request path. Events are enriched with category, timestamp,
// and request ID before fan-out.
type Publisher struct {
	store  Store
	sink   Sink
	logger *slog.Logger

	ch     chan Event
	wg     sync.WaitGroup
	closed sync.Once
}

type PublisherOption func(*Publisher)

// WithAsyncBuffer enables asynchronous delivery with the given buffer size.
// When the buffer is full, Emit drops the event and logs a warning rather
// than blocking the caller.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		p.ch = make(chan Event, size)
	}
}

// WithSink attaches an out-of-process sink (Kafka producer).
func WithSink(sink Sink) PublisherOption {
	return func(p *Publisher) {
		p.sink = sink
	}
}

// WithLogger attaches a logger for delivery failures.
func WithLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.ch != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records an event. Failures are logged, never returned to the domain
// operation that triggered the event: auditing must not break the business
// path it observes.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Category == "" {
		event.Category = CategoryOf(event.Action)
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	if p.ch != nil {
		select {
		case p.ch <- event:
		default:
			p.logger.Warn("audit buffer full, dropping event", "action", event.Action)
		}
		return nil
	}

	p.deliver(context.WithoutCancel(ctx), event)
	return nil
}

// List returns events recorded for a user.
func (p *Publisher) List(ctx context.Context, userID string) ([]Event, error) {
	return p.store.ListByUser(ctx, userID)
}

// Close stops the async drain goroutine and closes the sink.
func (p *Publisher) Close() {
	p.closed.Do(func() {
		if p.ch != nil {
			close(p.ch)
			p.wg.Wait()
		}
		if p.sink != nil {
			p.sink.Close()
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.ch {
		p.deliver(context.Background(), event)
	}
}

func (p *Publisher) deliver(ctx context.Context, event Event) {
	if err := p.store.Append(ctx, event); err != nil {
		p.logger.Error("audit store append failed", "action", event.Action, "error", err)
	}
	if p.sink != nil {
		if err := p.sink.Send(ctx, event); err != nil {
			p.logger.Error("audit sink send failed", "action", event.Action, "error", err)
		}
	}
}
