package proto

import "google.golang.org/protobuf/encoding/protowire"

// PeerKind identifies the arm of a decoded peer-session message.
type PeerKind uint16

const (
	PeerUnknown PeerKind = iota
	PeerSignedID
	PeerKeyExchange
	PeerCredentialChallenge
	PeerLoginRequest
	PeerLoginResponse
	PeerKeepAlive
	PeerVideoFrame
	PeerAudioFrame
	PeerCursorData
	PeerCursorPosition
	PeerClipboard
	PeerMouseEvent
	PeerKeyEvent
	PeerChat
	PeerSwitchDisplay
	PeerControl
)

// PeerMessage is the relay-channel union. Exactly one arm is non-nil on a
// well-formed message; none on a forward-compatible unknown, which the
// dispatcher drops silently.
type PeerMessage struct {
	SignedID            *SignedID
	KeyExchange         *KeyExchange
	CredentialChallenge *CredentialChallenge
	LoginRequest        *LoginRequest
	LoginResponse       *LoginResponse
	KeepAlive           *KeepAlive
	VideoFrame          *VideoFrame
	AudioFrame          *AudioFrame
	CursorData          *CursorData
	CursorPosition      *CursorPosition
	Clipboard           *Clipboard
	MouseEvent          *MouseEvent
	KeyEvent            *KeyEvent
	Chat                *Chat
	SwitchDisplay       *SwitchDisplay
	Control             *Control
}

// Kind reports which arm is populated.
func (m *PeerMessage) Kind() PeerKind {
	switch {
	case m.SignedID != nil:
		return PeerSignedID
	case m.KeyExchange != nil:
		return PeerKeyExchange
	case m.CredentialChallenge != nil:
		return PeerCredentialChallenge
	case m.LoginRequest != nil:
		return PeerLoginRequest
	case m.LoginResponse != nil:
		return PeerLoginResponse
	case m.KeepAlive != nil:
		return PeerKeepAlive
	case m.VideoFrame != nil:
		return PeerVideoFrame
	case m.AudioFrame != nil:
		return PeerAudioFrame
	case m.CursorData != nil:
		return PeerCursorData
	case m.CursorPosition != nil:
		return PeerCursorPosition
	case m.Clipboard != nil:
		return PeerClipboard
	case m.MouseEvent != nil:
		return PeerMouseEvent
	case m.KeyEvent != nil:
		return PeerKeyEvent
	case m.Chat != nil:
		return PeerChat
	case m.SwitchDisplay != nil:
		return PeerSwitchDisplay
	case m.Control != nil:
		return PeerControl
	default:
		return PeerUnknown
	}
}

// SignedID carries the remote's identity proof: a signed blob over an
// IdentityRecord, verified by pkg/secure against the configured long-lived
// key. The blob is opaque at this layer.
type SignedID struct {
	Blob []byte
}

// KeyExchange carries the local ephemeral public key and the session key
// sealed to the remote's ephemeral public key.
type KeyExchange struct {
	PublicKey []byte
	SealedKey []byte
}

// CredentialChallenge asks the operator for a credential. Salt and
// Challenge feed the two-stage credential hash.
type CredentialChallenge struct {
	Salt      []byte
	Challenge []byte
}

// LoginRequest answers a CredentialChallenge. The raw credential never
// appears on the wire, only the double hash.
type LoginRequest struct {
	Target           string
	HashedCredential []byte
	SessionID        []byte
	Version          string
}

// LoginResponse reports login outcome. A non-empty Error is the server's
// literal error string; PeerInfo is present on success.
type LoginResponse struct {
	Error    string
	PeerInfo *PeerInfo
}

// PeerInfo describes the remote device after a successful login.
type PeerInfo struct {
	Hostname       string
	Username       string
	Platform       string
	Version        string
	Displays       []DisplayInfo
	CurrentDisplay uint32
}

// DisplayInfo describes one remote display.
type DisplayInfo struct {
	X      int32
	Y      int32
	Width  uint32
	Height uint32
	Name   string
}

// KeepAlive is the fixed-interval liveness probe; the remote echoes it back
// unchanged, which doubles as the latency measurement.
type KeepAlive struct {
	TimestampMS   uint64
	LastLatencyMS uint64
}

// VideoFrame is one codec-tagged video frame, possibly split into several
// encoded chunks.
type VideoFrame struct {
	Display     uint32
	Codec       VideoCodec
	TimestampMS uint64
	Chunks      []EncodedChunk
}

// EncodedChunk is one sub-frame of a VideoFrame.
type EncodedChunk struct {
	Data []byte
	Key  bool
	PTS  uint64
}

// AudioFrame is one encoded audio packet.
type AudioFrame struct {
	Data        []byte
	TimestampMS uint64
}

// CursorData carries a cursor image keyed by id; CursorPosition moves it.
type CursorData struct {
	ID     uint64
	HotX   int32
	HotY   int32
	Width  uint32
	Height uint32
	Pixels []byte // RGBA
}

type CursorPosition struct {
	X int32
	Y int32
}

// Clipboard pushes clipboard content in either direction.
type Clipboard struct {
	Compressed bool
	Content    []byte
}

// MouseEvent is one pointer event. Mask packs button and wheel state the
// way the remote input injector expects.
type MouseEvent struct {
	Mask      uint32
	X         int32
	Y         int32
	Modifiers []uint32
}

// KeyEvent is one keyboard event. Chr carries a unicode scalar for
// character keys; ControlKey one of the Key* values for the rest.
type KeyEvent struct {
	Down       bool
	Press      bool
	Chr        uint32
	ControlKey uint32
	Modifiers  []uint32
}

// Chat is an operator/device text message.
type Chat struct {
	Text string
}

// SwitchDisplay announces the remote switched the captured display.
type SwitchDisplay struct {
	Display uint32
	Width   uint32
	Height  uint32
}

// Marshal encodes the populated arm of the union.
func (m *PeerMessage) Marshal() ([]byte, error) {
	var b []byte
	switch {
	case m.SignedID != nil:
		b = appendMessage(b, fieldSignedID, m.SignedID.marshal(nil))
	case m.KeyExchange != nil:
		b = appendMessage(b, fieldKeyExchange, m.KeyExchange.marshal(nil))
	case m.CredentialChallenge != nil:
		b = appendMessage(b, fieldCredentialChallenge, m.CredentialChallenge.marshal(nil))
	case m.LoginRequest != nil:
		b = appendMessage(b, fieldLoginRequest, m.LoginRequest.marshal(nil))
	case m.LoginResponse != nil:
		b = appendMessage(b, fieldLoginResponse, m.LoginResponse.marshal(nil))
	case m.KeepAlive != nil:
		b = appendMessage(b, fieldKeepAlive, m.KeepAlive.marshal(nil))
	case m.VideoFrame != nil:
		b = appendMessage(b, fieldVideoFrame, m.VideoFrame.marshal(nil))
	case m.AudioFrame != nil:
		b = appendMessage(b, fieldAudioFrame, m.AudioFrame.marshal(nil))
	case m.CursorData != nil:
		b = appendMessage(b, fieldCursorData, m.CursorData.marshal(nil))
	case m.CursorPosition != nil:
		b = appendMessage(b, fieldCursorPosition, m.CursorPosition.marshal(nil))
	case m.Clipboard != nil:
		b = appendMessage(b, fieldClipboard, m.Clipboard.marshal(nil))
	case m.MouseEvent != nil:
		b = appendMessage(b, fieldMouseEvent, m.MouseEvent.marshal(nil))
	case m.KeyEvent != nil:
		b = appendMessage(b, fieldKeyEvent, m.KeyEvent.marshal(nil))
	case m.Chat != nil:
		b = appendMessage(b, fieldChat, m.Chat.marshal(nil))
	case m.SwitchDisplay != nil:
		b = appendMessage(b, fieldSwitchDisplay, m.SwitchDisplay.marshal(nil))
	case m.Control != nil:
		b = appendMessage(b, fieldControl, m.Control.marshal(nil))
	default:
		return nil, ErrMalformed
	}
	return b, nil
}

// UnmarshalPeer decodes one relay-channel payload. An unrecognized union
// arm yields PeerUnknown, not an error.
func UnmarshalPeer(b []byte) (*PeerMessage, error) {
	m := &PeerMessage{}
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
		case fieldSignedID:
			m.SignedID = &SignedID{}
			err = m.SignedID.unmarshal(body)
		case fieldKeyExchange:
			m.KeyExchange = &KeyExchange{}
			err = m.KeyExchange.unmarshal(body)
		case fieldCredentialChallenge:
			m.CredentialChallenge = &CredentialChallenge{}
			err = m.CredentialChallenge.unmarshal(body)
		case fieldLoginRequest:
			m.LoginRequest = &LoginRequest{}
			err = m.LoginRequest.unmarshal(body)
		case fieldLoginResponse:
			m.LoginResponse = &LoginResponse{}
			err = m.LoginResponse.unmarshal(body)
		case fieldKeepAlive:
			m.KeepAlive = &KeepAlive{}
			err = m.KeepAlive.unmarshal(body)
		case fieldVideoFrame:
			m.VideoFrame = &VideoFrame{}
			err = m.VideoFrame.unmarshal(body)
		case fieldAudioFrame:
			m.AudioFrame = &AudioFrame{}
			err = m.AudioFrame.unmarshal(body)
		case fieldCursorData:
			m.CursorData = &CursorData{}
			err = m.CursorData.unmarshal(body)
		case fieldCursorPosition:
			m.CursorPosition = &CursorPosition{}
			err = m.CursorPosition.unmarshal(body)
		case fieldClipboard:
			m.Clipboard = &Clipboard{}
			err = m.Clipboard.unmarshal(body)
		case fieldMouseEvent:
			m.MouseEvent = &MouseEvent{}
			err = m.MouseEvent.unmarshal(body)
		case fieldKeyEvent:
			m.KeyEvent = &KeyEvent{}
			err = m.KeyEvent.unmarshal(body)
		case fieldChat:
			m.Chat = &Chat{}
			err = m.Chat.unmarshal(body)
		case fieldSwitchDisplay:
			m.SwitchDisplay = &SwitchDisplay{}
			err = m.SwitchDisplay.unmarshal(body)
		case fieldControl:
			m.Control = &Control{}
			err = m.Control.unmarshal(body)
		}
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *SignedID) marshal(b []byte) []byte {
	if len(m.Blob) > 0 {
		b = appendBytes(b, 1, m.Blob)
	}
	return b
}

func (m *SignedID) unmarshal(b []byte) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 && typ == protowire.BytesType {
			v, n := protowire.ConsumeBytes(b)
			m.Blob = cloneBytes(v)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func (m *KeyExchange) marshal(b []byte) []byte {
	if len(m.PublicKey) > 0 {
		b = appendBytes(b, 1, m.PublicKey)
	}
	if len(m.SealedKey) > 0 {
		b = appendBytes(b, 2, m.SealedKey)
	}
	return b
}

func (m *KeyExchange) unmarshal(b []byte) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			m.PublicKey = cloneBytes(v)
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			m.SealedKey = cloneBytes(v)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func (m *CredentialChallenge) marshal(b []byte) []byte {
	if len(m.Salt) > 0 {
		b = appendBytes(b, 1, m.Salt)
	}
	if len(m.Challenge) > 0 {
		b = appendBytes(b, 2, m.Challenge)
	}
	return b
}

func (m *CredentialChallenge) unmarshal(b []byte) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			m.Salt = cloneBytes(v)
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			m.Challenge = cloneBytes(v)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func (m *LoginRequest) marshal(b []byte) []byte {
	if m.Target != "" {
		b = appendString(b, 1, m.Target)
	}
	if len(m.HashedCredential) > 0 {
		b = appendBytes(b, 2, m.HashedCredential)
	}
	if len(m.SessionID) > 0 {
		b = appendBytes(b, 3, m.SessionID)
	}
	if m.Version != "" {
		b = appendString(b, 4, m.Version)
	}
	return b
}

func (m *LoginRequest) unmarshal(b []byte) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			m.Target = v
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			m.HashedCredential = cloneBytes(v)
			return n, nil
		case num == 3 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			m.SessionID = cloneBytes(v)
			return n, nil
		case num == 4 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			m.Version = v
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func (m *LoginResponse) marshal(b []byte) []byte {
	if m.Error != "" {
		b = appendString(b, 1, m.Error)
	}
	if m.PeerInfo != nil {
		b = appendMessage(b, 2, m.PeerInfo.marshal(nil))
	}
	return b
}

func (m *LoginResponse) unmarshal(b []byte) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			m.Error = v
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			m.PeerInfo = &PeerInfo{}
			return n, m.PeerInfo.unmarshal(v)
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func (m *PeerInfo) marshal(b []byte) []byte {
	if m.Hostname != "" {
		b = appendString(b, 1, m.Hostname)
	}
	if m.Username != "" {
		b = appendString(b, 2, m.Username)
	}
	if m.Platform != "" {
		b = appendString(b, 3, m.Platform)
	}
	if m.Version != "" {
		b = appendString(b, 4, m.Version)
	}
	for i := range m.Displays {
		b = appendMessage(b, 5, m.Displays[i].marshal(nil))
	}
	if m.CurrentDisplay != 0 {
		b = appendVarint(b, 6, uint64(m.CurrentDisplay))
	}
	return b
}

func (m *PeerInfo) unmarshal(b []byte) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			m.Hostname = v
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			m.Username = v
			return n, nil
		case num == 3 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			m.Platform = v
			return n, nil
		case num == 4 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			m.Version = v
			return n, nil
		case num == 5 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			var d DisplayInfo
			if err := d.unmarshal(v); err != nil {
				return 0, err
			}
			m.Displays = append(m.Displays, d)
			return n, nil
		case num == 6 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.CurrentDisplay = uint32(v)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func (m *DisplayInfo) marshal(b []byte) []byte {
	if m.X != 0 {
		b = appendSint(b, 1, m.X)
	}
	if m.Y != 0 {
		b = appendSint(b, 2, m.Y)
	}
	if m.Width != 0 {
		b = appendVarint(b, 3, uint64(m.Width))
	}
	if m.Height != 0 {
		b = appendVarint(b, 4, uint64(m.Height))
	}
	if m.Name != "" {
		b = appendString(b, 5, m.Name)
	}
	return b
}

func (m *DisplayInfo) unmarshal(b []byte) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := consumeSint(b)
			m.X = v
			return n, nil
		case num == 2 && typ == protowire.VarintType:
			v, n := consumeSint(b)
			m.Y = v
			return n, nil
		case num == 3 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Width = uint32(v)
			return n, nil
		case num == 4 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Height = uint32(v)
			return n, nil
		case num == 5 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			m.Name = v
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func (m *KeepAlive) marshal(b []byte) []byte {
	if m.TimestampMS != 0 {
		b = appendVarint(b, 1, m.TimestampMS)
	}
	if m.LastLatencyMS != 0 {
		b = appendVarint(b, 2, m.LastLatencyMS)
	}
	return b
}

func (m *KeepAlive) unmarshal(b []byte) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.TimestampMS = v
			return n, nil
		case num == 2 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.LastLatencyMS = v
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func (m *VideoFrame) marshal(b []byte) []byte {
	if m.Display != 0 {
		b = appendVarint(b, 1, uint64(m.Display))
	}
	if m.Codec != CodecVP9 {
		b = appendVarint(b, 2, uint64(m.Codec))
	}
	if m.TimestampMS != 0 {
		b = appendVarint(b, 3, m.TimestampMS)
	}
	for i := range m.Chunks {
		b = appendMessage(b, 4, m.Chunks[i].marshal(nil))
	}
	return b
}

func (m *VideoFrame) unmarshal(b []byte) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Display = uint32(v)
			return n, nil
		case num == 2 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Codec = VideoCodec(v)
			return n, nil
		case num == 3 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.TimestampMS = v
			return n, nil
		case num == 4 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			var c EncodedChunk
			if err := c.unmarshal(v); err != nil {
				return 0, err
			}
			m.Chunks = append(m.Chunks, c)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func (m *EncodedChunk) marshal(b []byte) []byte {
	if len(m.Data) > 0 {
		b = appendBytes(b, 1, m.Data)
	}
	if m.Key {
		b = appendBool(b, 2, true)
	}
	if m.PTS != 0 {
		b = appendVarint(b, 3, m.PTS)
	}
	return b
}

func (m *EncodedChunk) unmarshal(b []byte) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			m.Data = cloneBytes(v)
			return n, nil
		case num == 2 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Key = v != 0
			return n, nil
		case num == 3 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.PTS = v
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func (m *AudioFrame) marshal(b []byte) []byte {
	if len(m.Data) > 0 {
		b = appendBytes(b, 1, m.Data)
	}
	if m.TimestampMS != 0 {
		b = appendVarint(b, 2, m.TimestampMS)
	}
	return b
}

func (m *AudioFrame) unmarshal(b []byte) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			m.Data = cloneBytes(v)
			return n, nil
		case num == 2 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.TimestampMS = v
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func (m *CursorData) marshal(b []byte) []byte {
	if m.ID != 0 {
		b = appendVarint(b, 1, m.ID)
	}
	if m.HotX != 0 {
		b = appendSint(b, 2, m.HotX)
	}
	if m.HotY != 0 {
		b = appendSint(b, 3, m.HotY)
	}
	if m.Width != 0 {
		b = appendVarint(b, 4, uint64(m.Width))
	}
	if m.Height != 0 {
		b = appendVarint(b, 5, uint64(m.Height))
	}
	if len(m.Pixels) > 0 {
		b = appendBytes(b, 6, m.Pixels)
	}
	return b
}

func (m *CursorData) unmarshal(b []byte) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.ID = v
			return n, nil
		case num == 2 && typ == protowire.VarintType:
			v, n := consumeSint(b)
			m.HotX = v
			return n, nil
		case num == 3 && typ == protowire.VarintType:
			v, n := consumeSint(b)
			m.HotY = v
			return n, nil
		case num == 4 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Width = uint32(v)
			return n, nil
		case num == 5 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Height = uint32(v)
			return n, nil
		case num == 6 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			m.Pixels = cloneBytes(v)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func (m *CursorPosition) marshal(b []byte) []byte {
	if m.X != 0 {
		b = appendSint(b, 1, m.X)
	}
	if m.Y != 0 {
		b = appendSint(b, 2, m.Y)
	}
	return b
}

func (m *CursorPosition) unmarshal(b []byte) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := consumeSint(b)
			m.X = v
			return n, nil
		case num == 2 && typ == protowire.VarintType:
			v, n := consumeSint(b)
			m.Y = v
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func (m *Clipboard) marshal(b []byte) []byte {
	if m.Compressed {
		b = appendBool(b, 1, true)
	}
	if len(m.Content) > 0 {
		b = appendBytes(b, 2, m.Content)
	}
	return b
}

func (m *Clipboard) unmarshal(b []byte) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Compressed = v != 0
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			m.Content = cloneBytes(v)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func (m *MouseEvent) marshal(b []byte) []byte {
	if m.Mask != 0 {
		b = appendVarint(b, 1, uint64(m.Mask))
	}
	if m.X != 0 {
		b = appendSint(b, 2, m.X)
	}
	if m.Y != 0 {
		b = appendSint(b, 3, m.Y)
	}
	for _, mod := range m.Modifiers {
		b = appendVarint(b, 4, uint64(mod))
	}
	return b
}

func (m *MouseEvent) unmarshal(b []byte) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Mask = uint32(v)
			return n, nil
		case num == 2 && typ == protowire.VarintType:
			v, n := consumeSint(b)
			m.X = v
			return n, nil
		case num == 3 && typ == protowire.VarintType:
			v, n := consumeSint(b)
			m.Y = v
			return n, nil
		case num == 4 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Modifiers = append(m.Modifiers, uint32(v))
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func (m *KeyEvent) marshal(b []byte) []byte {
	if m.Down {
		b = appendBool(b, 1, true)
	}
	if m.Press {
		b = appendBool(b, 2, true)
	}
	if m.Chr != 0 {
		b = appendVarint(b, 3, uint64(m.Chr))
	}
	if m.ControlKey != 0 {
		b = appendVarint(b, 4, uint64(m.ControlKey))
	}
	for _, mod := range m.Modifiers {
		b = appendVarint(b, 5, uint64(mod))
	}
	return b
}

func (m *KeyEvent) unmarshal(b []byte) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Down = v != 0
			return n, nil
		case num == 2 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Press = v != 0
			return n, nil
		case num == 3 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Chr = uint32(v)
			return n, nil
		case num == 4 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.ControlKey = uint32(v)
			return n, nil
		case num == 5 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Modifiers = append(m.Modifiers, uint32(v))
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func (m *Chat) marshal(b []byte) []byte {
	if m.Text != "" {
		b = appendString(b, 1, m.Text)
	}
	return b
}

func (m *Chat) unmarshal(b []byte) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 && typ == protowire.BytesType {
			v, n := protowire.ConsumeString(b)
			m.Text = v
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func (m *SwitchDisplay) marshal(b []byte) []byte {
	if m.Display != 0 {
		b = appendVarint(b, 1, uint64(m.Display))
	}
	if m.Width != 0 {
		b = appendVarint(b, 2, uint64(m.Width))
	}
	if m.Height != 0 {
		b = appendVarint(b, 3, uint64(m.Height))
	}
	return b
}

func (m *SwitchDisplay) unmarshal(b []byte) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Display = uint32(v)
			return n, nil
		case num == 2 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Width = uint32(v)
			return n, nil
		case num == 3 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Height = uint32(v)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}
