package domain

import "fmt"

type State int32

const (
	StateIdle State = iota
	StateRecording
	StateExiting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateExiting:
		return "exiting"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

type ControlEvent string

const (
	EventToggle ControlEvent = "toggle"
	EventStart  ControlEvent = "start"
	EventStop   ControlEvent = "stop"
	EventQuit   ControlEvent = "quit"
)

// Transition returns the state reached by applying event to current.
// Exiting is terminal; quit is accepted from every state.
func Transition(current State, event ControlEvent) (State, error) {
	if event == EventQuit {
		return StateExiting, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventStart, EventToggle:
			return StateRecording, nil
		}
	case StateRecording:
		switch event {
		case EventStop, EventToggle:
			return StateIdle, nil
		}
	case StateExiting:
		return current, fmt.Errorf("session already exiting, ignoring %s", event)
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
	return current, fmt.Errorf("invalid transition: %s --(%s)--> ?", current, event)
}
