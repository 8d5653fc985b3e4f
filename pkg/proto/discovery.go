// Package proto implements the two tagged-union message families carried by
// the framing layer: discovery/handshake messages on the first channel and
// peer-session messages on the relay channel. The families share nothing but
// the framing; their numbering spaces are independent.
//
// Codecs are hand-written over protowire so that unknown fields and unknown
// union arms decode to explicit unknowns instead of failing. The schema
// grows additively and old clients must survive new servers.
package proto

import (
	"errors"

	"google.golang.org/protobuf/encoding/protowire"
)

var ErrMalformed = errors.New("malformed message")

// DiscoveryKind identifies the arm of a decoded discovery message.
type DiscoveryKind uint16

const (
	DiscoveryUnknown DiscoveryKind = iota
	DiscoveryConnectRequest
	DiscoveryConnectResponse
	DiscoveryRelayJoinRequest
	DiscoveryRelayJoinResponse
)

// DiscoveryMessage is the discovery-channel union. Exactly one arm is
// non-nil on a well-formed message; none on a forward-compatible unknown.
type DiscoveryMessage struct {
	ConnectRequest    *ConnectRequest
	ConnectResponse   *ConnectResponse
	RelayJoinRequest  *RelayJoinRequest
	RelayJoinResponse *RelayJoinResponse
}

// Kind reports which arm is populated.
func (m *DiscoveryMessage) Kind() DiscoveryKind {
	switch {
	case m.ConnectRequest != nil:
		return DiscoveryConnectRequest
	case m.ConnectResponse != nil:
		return DiscoveryConnectResponse
	case m.RelayJoinRequest != nil:
		return DiscoveryRelayJoinRequest
	case m.RelayJoinResponse != nil:
		return DiscoveryRelayJoinResponse
	default:
		return DiscoveryUnknown
	}
}

// ConnectRequest asks the discovery service to locate a target device.
type ConnectRequest struct {
	Target     string // registered device id
	Token      []byte // correlation token, echoed by the relay join
	Caps       uint64 // capability flags (Cap*)
	ForceRelay bool
}

// ConnectResponse answers a ConnectRequest. Failure != FailureNone makes
// the response terminal for the attempt.
type ConnectResponse struct {
	Failure       FailureCode
	Reason        string // server's literal reason, optional
	RelayEndpoint string
	SessionToken  []byte
	PeerPublicKey []byte // remote ephemeral public key, informational
}

// RelayJoinRequest asks the relay to pair this connection with the target's.
type RelayJoinRequest struct {
	Target       string
	SessionToken []byte
	Token        []byte
}

// RelayJoinResponse completes the relay handoff.
type RelayJoinResponse struct {
	OK     bool
	Reason string
}

// Marshal encodes the populated arm of the union.
func (m *DiscoveryMessage) Marshal() ([]byte, error) {
	var b []byte
	switch {
	case m.ConnectRequest != nil:
		b = appendMessage(b, fieldConnectRequest, m.ConnectRequest.marshal(nil))
	case m.ConnectResponse != nil:
		b = appendMessage(b, fieldConnectResponse, m.ConnectResponse.marshal(nil))
	case m.RelayJoinRequest != nil:
		b = appendMessage(b, fieldRelayJoinRequest, m.RelayJoinRequest.marshal(nil))
	case m.RelayJoinResponse != nil:
		b = appendMessage(b, fieldRelayJoinResponse, m.RelayJoinResponse.marshal(nil))
	default:
		return nil, ErrMalformed
	}
	return b, nil
}

// UnmarshalDiscovery decodes one discovery-channel payload. An unrecognized
// union arm yields DiscoveryUnknown, not an error.
func UnmarshalDiscovery(b []byte) (*DiscoveryMessage, error) {
	m := &DiscoveryMessage{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, ErrMalformed
		}
		b = b[n:]

		if typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, ErrMalformed
			}
			b = b[n:]
			continue
		}

		body, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return nil, ErrMalformed
		}
		b = b[n:]

		var err error
		switch num {
		case fieldConnectRequest:
			m.ConnectRequest = &ConnectRequest{}
			err = m.ConnectRequest.unmarshal(body)
		case fieldConnectResponse:
			m.ConnectResponse = &ConnectResponse{}
			err = m.ConnectResponse.unmarshal(body)
		case fieldRelayJoinRequest:
			m.RelayJoinRequest = &RelayJoinRequest{}
			err = m.RelayJoinRequest.unmarshal(body)
		case fieldRelayJoinResponse:
			m.RelayJoinResponse = &RelayJoinResponse{}
			err = m.RelayJoinResponse.unmarshal(body)
		}
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *ConnectRequest) marshal(b []byte) []byte {
	if m.Target != "" {
		b = appendString(b, 1, m.Target)
	}
	if len(m.Token) > 0 {
		b = appendBytes(b, 2, m.Token)
	}
	if m.Caps != 0 {
		b = appendVarint(b, 3, m.Caps)
	}
	if m.ForceRelay {
		b = appendBool(b, 4, true)
	}
	return b
}

func (m *ConnectRequest) unmarshal(b []byte) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			m.Target = v
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			m.Token = cloneBytes(v)
			return n, nil
		case num == 3 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Caps = v
			return n, nil
		case num == 4 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.ForceRelay = v != 0
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func (m *ConnectResponse) marshal(b []byte) []byte {
	if m.Failure != FailureNone {
		b = appendVarint(b, 1, uint64(m.Failure))
	}
	if m.Reason != "" {
		b = appendString(b, 2, m.Reason)
	}
	if m.RelayEndpoint != "" {
		b = appendString(b, 3, m.RelayEndpoint)
	}
	if len(m.SessionToken) > 0 {
		b = appendBytes(b, 4, m.SessionToken)
	}
	if len(m.PeerPublicKey) > 0 {
		b = appendBytes(b, 5, m.PeerPublicKey)
	}
	return b
}

func (m *ConnectResponse) unmarshal(b []byte) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Failure = FailureCode(v)
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			m.Reason = v
			return n, nil
		case num == 3 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			m.RelayEndpoint = v
			return n, nil
		case num == 4 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			m.SessionToken = cloneBytes(v)
			return n, nil
		case num == 5 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			m.PeerPublicKey = cloneBytes(v)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

// FailureText returns the server's reason if it sent one, otherwise the
// failure code name. Callers surface this verbatim.
func (m *ConnectResponse) FailureText() string {
	if m.Reason != "" {
		return m.Reason
	}
	return m.Failure.String()
}

func (m *RelayJoinRequest) marshal(b []byte) []byte {
	if m.Target != "" {
		b = appendString(b, 1, m.Target)
	}
	if len(m.SessionToken) > 0 {
		b = appendBytes(b, 2, m.SessionToken)
	}
	if len(m.Token) > 0 {
		b = appendBytes(b, 3, m.Token)
	}
	return b
}

func (m *RelayJoinRequest) unmarshal(b []byte) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			m.Target = v
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			m.SessionToken = cloneBytes(v)
			return n, nil
		case num == 3 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			m.Token = cloneBytes(v)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func (m *RelayJoinResponse) marshal(b []byte) []byte {
	if m.OK {
		b = appendBool(b, 1, true)
	}
	if m.Reason != "" {
		b = appendString(b, 2, m.Reason)
	}
	return b
}

func (m *RelayJoinResponse) unmarshal(b []byte) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.OK = v != 0
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			m.Reason = v
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}
