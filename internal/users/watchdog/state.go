// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package watchdog

// State is the lifecycle position of one watchdog instance.
type State int

const (
	// Idle is the state before Run is called.
	Idle State = iota
	// Polling means checks are scheduled and results are acted on.
	Polling
	// Transitioning means an invalid session was seen and the logout sequence runs.
	Transitioning
	// LoggedOut is terminal: the logout sequence completed.
	LoggedOut
	// Stopped is terminal: the watchdog was torn down before logging out.
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Polling:
		return "polling"
	case Transitioning:
		return "transitioning"
	case LoggedOut:
		return "logged_out"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions can leave s.
func (s State) Terminal() bool {
	return s == LoggedOut || s == Stopped
}

// Event drives [Next].
type Event int

const (
	EventMounted Event = iota
	EventCheckValid
	EventCheckInvalid
	EventCheckFailed
	EventLogoutDone
	EventUnmounted
)

func (e Event) String() string {
	switch e {
	case EventMounted:
		return "mounted"
	case EventCheckValid:
		return "check_valid"
	case EventCheckInvalid:
		return "check_invalid"
	case EventCheckFailed:
		return "check_failed"
	case EventLogoutDone:
		return "logout_done"
	case EventUnmounted:
		return "unmounted"
	default:
		return "unknown"
	}
}

/*
Next is the pure transition function of the watchdog.

Only Polling reacts to check results, so once an invalid result has moved the
machine to Transitioning, later results (from overlapping checks) are ignored.
Check failures never leave Polling. Terminal states absorb every event.
*/
func Next(state State, event Event) State {
	if state.Terminal() {
		return state
	}

	if event == EventUnmounted {
		return Stopped
	}

	switch state {
	case Idle:
		if event == EventMounted {
			return Polling
		}
	case Polling:
		if event == EventCheckInvalid {
			return Transitioning
		}
	case Transitioning:
		if event == EventLogoutDone {
			return LoggedOut
		}
	}

	return state
}
