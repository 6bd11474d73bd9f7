package application

import (
	"context"

	"fly-voice/internal/domain"
)

// FrameSink receives captured frames. It is called from the capture source's
// own goroutine or callback thread and must not block.
type FrameSink func(domain.Frame)

type FrameSource interface {
	Start(ctx context.Context, sink FrameSink) error
	Stop() error
	Name() string
}

// ControlSource yields user control events. Next returns an error once the
// source is exhausted (io.EOF) or ctx is done; the recorder treats either as shutdown.
type ControlSource interface {
	Next(ctx context.Context) (domain.ControlEvent, error)
	Close() error
}
