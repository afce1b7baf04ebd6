package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"

	"FeedScanner/internal/domain"
	"FeedScanner/internal/ports"
)

// Fanout delivers every broadcast to all sinks. A failing sink does not stop
// the others; their errors are joined.
type Fanout struct {
	sinks []namedSink
}

type namedSink struct {
	name string
	sink ports.Notifier
}

var _ ports.Notifier = (*Fanout)(nil)

// NewFanout creates an empty fan-out.
func NewFanout() *Fanout {
	return &Fanout{}
}

// Add registers a sink under name. Nil sinks are ignored.
func (f *Fanout) Add(name string, sink ports.Notifier) *Fanout {
	if sink != nil {
		f.sinks = append(f.sinks, namedSink{name: name, sink: sink})
	}
	return f
}

// Names lists the registered sinks in delivery order.
func (f *Fanout) Names() []string {
	return lo.Map(f.sinks, func(s namedSink, _ int) string { return s.name })
}

func (f *Fanout) Broadcast(ctx context.Context, event string, item domain.ContentItem) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.sink.Broadcast(ctx, event, item); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}
