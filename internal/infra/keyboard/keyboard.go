// Package keyboard turns console input into recorder control events.
package keyboard

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"fly-voice/internal/domain"
)

const (
	keyCtrlC = 3
	keyCtrlD = 4
)

type result struct {
	event domain.ControlEvent
	err   error
}

// Controls reads single keys from a raw terminal, or whole lines when the
// input is not a terminal.
type Controls struct {
	events chan result

	fd    int
	state *term.State
	once  sync.Once
}

// Open puts f into raw mode when it is a terminal and starts reading from it.
// Close must be called to restore the terminal.
func Open(f *os.File) (*Controls, error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return NewLineControls(f), nil
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("setting raw terminal mode: %w", err)
	}

	c := &Controls{events: make(chan result), fd: fd, state: state}
	go c.readKeys(f)
	return c, nil
}

// NewKeyControls reads single keys from r as if it were a raw terminal.
func NewKeyControls(r io.Reader) *Controls {
	c := &Controls{events: make(chan result)}
	go c.readKeys(r)
	return c
}

// NewLineControls reads newline-terminated commands from r. An empty line
// toggles recording.
func NewLineControls(r io.Reader) *Controls {
	c := &Controls{events: make(chan result)}
	go c.readLines(r)
	return c
}

// Raw reports whether the terminal is in raw mode.
func (c *Controls) Raw() bool {
	return c.state != nil
}

func (c *Controls) Next(ctx context.Context) (domain.ControlEvent, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r, ok := <-c.events:
		if !ok {
			return "", io.EOF
		}
		return r.event, r.err
	}
}

func (c *Controls) Close() error {
	var err error
	c.once.Do(func() {
		if c.state != nil {
			err = term.Restore(c.fd, c.state)
		}
	})
	return err
}

// Writer adapts w for output while the terminal is raw, where a bare
// newline no longer returns the carriage.
func (c *Controls) Writer(w io.Writer) io.Writer {
	if !c.Raw() {
		return w
	}
	return crlfWriter{w: w}
}

// KeyEvent maps one key to a control event.
func KeyEvent(b byte) (domain.ControlEvent, bool) {
	switch b {
	case ' ', '\r', '\n':
		return domain.EventToggle, true
	case 'r', 'R':
		return domain.EventStart, true
	case 's', 'S':
		return domain.EventStop, true
	case 'q', 'Q', keyCtrlC, keyCtrlD:
		return domain.EventQuit, true
	}
	return "", false
}

// LineEvent maps one input line to a control event.
func LineEvent(line string) (domain.ControlEvent, bool) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
		return domain.EventToggle, true
	case "r", "start":
		return domain.EventStart, true
	case "s", "stop":
		return domain.EventStop, true
	case "q", "quit", "exit":
		return domain.EventQuit, true
	}
	return "", false
}

func (c *Controls) readKeys(r io.Reader) {
	defer close(c.events)

	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n == 1 {
			if ev, ok := KeyEvent(buf[0]); ok {
				c.events <- result{event: ev}
				if ev == domain.EventQuit {
					return
				}
			}
		}
		if err != nil {
			if err != io.EOF {
				c.events <- result{err: fmt.Errorf("reading key: %w", err)}
			}
			return
		}
	}
}

func (c *Controls) readLines(r io.Reader) {
	defer close(c.events)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		ev, ok := LineEvent(scanner.Text())
		if !ok {
			continue
		}
		c.events <- result{event: ev}
		if ev == domain.EventQuit {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		c.events <- result{err: fmt.Errorf("reading line: %w", err)}
	}
}

type crlfWriter struct {
	w io.Writer
}

func (cw crlfWriter) Write(p []byte) (int, error) {
	if _, err := cw.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}
