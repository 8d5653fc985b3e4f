package session

// State is the connection orchestrator's lifecycle state. Disconnected and
// Error are reachable from every state; the happy path is
// Idle → Connecting → WaitingPassword → Authenticating → Streaming.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateWaitingPassword
	StateAuthenticating
	StateStreaming
	StateDisconnected
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateWaitingPassword:
		return "waiting_password"
	case StateAuthenticating:
		return "authenticating"
	case StateStreaming:
		return "streaming"
	case StateDisconnected:
		return "disconnected"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// terminal reports whether the session has ended.
func (s State) terminal() bool {
	return s == StateDisconnected || s == StateError
}
