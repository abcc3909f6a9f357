package announcer

import (
	"context"
	"errors"
	"fmt"
)

// Fanout dispatches announcements to all configured sinks.
type Fanout struct {
	sinks []Sink
}

// NewFanout builds a dispatcher that fans announcements out across sinks.
func NewFanout(sinks []Sink) *Fanout {
	cp := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s == nil {
			continue
		}
		cp = append(cp, s)
	}
	return &Fanout{sinks: cp}
}

// AnnounceContent forwards the announcement to every registered sink. The
// aggregated error is non-nil when any sink failed; Result counts the sinks
// that accepted the event.
func (f *Fanout) AnnounceContent(ctx context.Context, a Announcement) (Result, error) {
	if f == nil || len(f.sinks) == 0 {
		return Result{}, errors.New("no announcement sinks configured")
	}

	var errs []error
	delivered := 0
	for _, s := range f.sinks {
		if err := s.Send(ctx, a); err != nil {
			errs = append(errs, fmt.Errorf("%s announcer[%s]: %w", s.Type(), s.ID(), err))
		} else {
			delivered++
		}
	}
	return Result{Delivered: delivered}, errors.Join(errs...)
}

// Size returns the number of active sinks.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.sinks)
}
