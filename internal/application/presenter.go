package application

import (
	"context"
	"errors"
	"fmt"
	"io"

	"fly-voice/internal/domain"
)

type Presenter interface {
	Present(ctx context.Context, transcript domain.Transcript, reply string) error
}

type NoopPresenter struct{}

func (n *NoopPresenter) Present(_ context.Context, _ domain.Transcript, _ string) error {
	return nil
}

// WriterPresenter prints the transcript and reply as console lines.
type WriterPresenter struct {
	w       io.Writer
	speaker string
}

func NewWriterPresenter(w io.Writer, speaker string) *WriterPresenter {
	return &WriterPresenter{w: w, speaker: speaker}
}

func (p *WriterPresenter) Present(_ context.Context, transcript domain.Transcript, reply string) error {
	if _, err := fmt.Fprintf(p.w, "You: %s\n", transcript.Text); err != nil {
		return err
	}
	if reply == "" {
		return nil
	}
	_, err := fmt.Fprintf(p.w, "%s: %s\n", p.speaker, reply)
	return err
}

// Presenters fans out to every presenter and joins their errors.
type Presenters []Presenter

func (ps Presenters) Present(ctx context.Context, transcript domain.Transcript, reply string) error {
	var errs []error
	for _, p := range ps {
		if err := p.Present(ctx, transcript, reply); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
