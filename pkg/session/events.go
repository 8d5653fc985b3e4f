package session

import "github.com/fleetlink/fleetlink-go/pkg/proto"

// EventKind classifies an event on the session's event stream.
type EventKind int

const (
	// EventStateChange reports every state transition.
	EventStateChange EventKind = iota

	// EventLog is a human-readable progress line for the caller's session
	// log pane, mirroring the structured log.
	EventLog

	// EventError carries a terminal failure reason, surfaced verbatim.
	EventError

	// EventPasswordRequired asks the caller to collect a credential and
	// call Authenticate.
	EventPasswordRequired

	// EventLoginError carries the server's literal login error; the
	// session is back in StateWaitingPassword and Authenticate may be
	// retried without limit.
	EventLoginError

	// EventPeerInfo describes the remote device after login.
	EventPeerInfo

	// EventStats is the fixed-cadence session statistics publication.
	EventStats

	// EventChat is an inbound chat message.
	EventChat

	// EventLatency reports a keep-alive round-trip measurement.
	EventLatency

	// EventPermission reports the remote granting or revoking a session
	// capability.
	EventPermission
)

// Event is one entry on the session event stream consumed by the UI layer.
// Only the fields relevant to Kind are populated.
type Event struct {
	Kind       EventKind
	State      State
	Reason     string
	PeerInfo   *proto.PeerInfo
	Stats      *Stats
	Text       string
	LatencyMS  int64
	Permission *proto.PermissionNotice
}
