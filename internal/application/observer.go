package application

import "time"

// Observer receives pipeline events for metrics.
type Observer interface {
	FrameCaptured()
	FrameDropped()
	QueueDepth(n int)
	TranscriptionDone(d time.Duration, err error)
	ReplyDone(engine string, d time.Duration, err error)
	EngineReady(role string, ready bool)
}

type NoopObserver struct{}

func (NoopObserver) FrameCaptured()                         {}
func (NoopObserver) FrameDropped()                          {}
func (NoopObserver) QueueDepth(int)                         {}
func (NoopObserver) TranscriptionDone(time.Duration, error) {}
func (NoopObserver) ReplyDone(string, time.Duration, error) {}
func (NoopObserver) EngineReady(string, bool)               {}
