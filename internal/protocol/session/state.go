package session

import "fmt"

// State is the session lifecycle. StateConnecting only describes Dial
// before it returns: a failed connect yields no Session, so every Session
// value starts in StateOpen.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}
