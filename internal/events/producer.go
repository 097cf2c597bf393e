// Package events publishes analysis status changes as cloudevents.
package events

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	AnalysisStatusMessageKind string = "speakwell.analysis.status"
	defaultTopic              string = "speakwell.analysis.events"
	defaultSource             string = "speakwell.analysis.pipeline"
)

var ErrProducerClosed = errors.New("event producer is closed")

// Writer is the interface to be implemented by the underlying writer.
type Writer interface {
	Write(ctx context.Context, topic string, e cloudevents.Event) error
	Close(ctx context.Context) error
}

// EventProducer is a wrapper around a Writer with a buffer, so callers are never
// blocked by a slow writer.
type EventProducer struct {
	// lock orders every push before the close of doneCh, so the final drain sees it.
	lock      sync.Mutex
	closed    bool
	buffer    *buffer
	wakeCh    chan struct{}
	doneCh    chan struct{}
	drainedCh chan struct{}
	writer    Writer
	topic     string
	source    string
}

func NewEventProducer(w Writer, opts ...ProducerOptions) *EventProducer {
	ep := &EventProducer{
		buffer:    newBuffer(),
		wakeCh:    make(chan struct{}, 1),
		doneCh:    make(chan struct{}),
		drainedCh: make(chan struct{}),
		writer:    w,
		topic:     defaultTopic,
		source:    defaultSource,
	}

	for _, o := range opts {
		o(ep)
	}

	go ep.run()
	return ep
}

func (ep *EventProducer) Write(ctx context.Context, kind string, body io.Reader) error {
	d, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	ep.lock.Lock()
	defer ep.lock.Unlock()

	if ep.closed {
		return ErrProducerClosed
	}

	if prev := ep.buffer.PushBack(&message{Kind: kind, Data: d}); prev == 0 {
		select {
		case ep.wakeCh <- struct{}{}:
		default:
		}
	}

	return nil
}

// Close flushes the pending events and closes the writer. Later calls are no-ops.
func (ep *EventProducer) Close() error {
	ep.lock.Lock()
	if ep.closed {
		ep.lock.Unlock()
		return nil
	}
	ep.closed = true
	close(ep.doneCh)
	ep.lock.Unlock()

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	g, ctx := errgroup.WithContext(closeCtx)
	g.Go(func() error {
		select {
		case <-ep.drainedCh:
		case <-ctx.Done():
			return ctx.Err()
		}
		return ep.writer.Close(ctx)
	})
	if err := g.Wait(); err != nil {
		zap.S().Named("event_producer").Errorf("event producer closed with error: %s", err)
		return err
	}

	zap.S().Named("event_producer").Info("event producer closed")

	return nil
}

func (ep *EventProducer) run() {
	defer close(ep.drainedCh)
	for {
		if msg := ep.buffer.Pop(); msg != nil {
			ep.send(msg)
			continue
		}

		select {
		case <-ep.wakeCh:
		case <-ep.doneCh:
			for msg := ep.buffer.Pop(); msg != nil; msg = ep.buffer.Pop() {
				ep.send(msg)
			}
			return
		}
	}
}

func (ep *EventProducer) send(msg *message) {
	e := cloudevents.NewEvent()
	e.SetID(uuid.NewString())
	e.SetSource(ep.source)
	e.SetType(msg.Kind)
	e.SetTime(time.Now().UTC())
	_ = e.SetData(*cloudevents.StringOfApplicationJSON(), msg.Data)

	if err := ep.writer.Write(context.TODO(), ep.topic, e); err != nil {
		zap.S().Named("event_producer").Errorw("failed to send message", "error", err, "type", msg.Kind)
	}
}
