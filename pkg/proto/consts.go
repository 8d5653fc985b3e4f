package proto

import "google.golang.org/protobuf/encoding/protowire"

// Field numbers are frozen: schema evolution is additive only, and decoders
// skip anything they do not recognize.

// Discovery-channel union fields.
const (
	fieldConnectRequest    protowire.Number = 1
	fieldConnectResponse   protowire.Number = 2
	fieldRelayJoinRequest  protowire.Number = 3
	fieldRelayJoinResponse protowire.Number = 4
)

// Relay-channel (peer) union fields.
const (
	fieldSignedID            protowire.Number = 1
	fieldKeyExchange         protowire.Number = 2
	fieldCredentialChallenge protowire.Number = 3
	fieldLoginRequest        protowire.Number = 4
	fieldLoginResponse       protowire.Number = 5
	fieldKeepAlive           protowire.Number = 6
	fieldVideoFrame          protowire.Number = 7
	fieldAudioFrame          protowire.Number = 8
	fieldCursorData          protowire.Number = 9
	fieldCursorPosition      protowire.Number = 10
	fieldClipboard           protowire.Number = 11
	fieldMouseEvent          protowire.Number = 12
	fieldKeyEvent            protowire.Number = 13
	fieldChat                protowire.Number = 14
	fieldSwitchDisplay       protowire.Number = 15
	fieldControl             protowire.Number = 16
)

// FailureCode classifies a negative discovery response.
type FailureCode uint32

const (
	FailureNone FailureCode = iota
	FailureIDNotFound
	FailureOffline
	FailureQuotaExceeded
	FailureLicenseMismatch
	FailureProtocolMismatch
)

// String returns the wire-stable name reported to callers.
func (c FailureCode) String() string {
	switch c {
	case FailureNone:
		return "none"
	case FailureIDNotFound:
		return "id_not_found"
	case FailureOffline:
		return "offline"
	case FailureQuotaExceeded:
		return "quota_exceeded"
	case FailureLicenseMismatch:
		return "license_mismatch"
	case FailureProtocolMismatch:
		return "protocol_mismatch"
	default:
		return "unknown"
	}
}

// VideoCodec tags the encoding of a video frame.
type VideoCodec uint32

const (
	CodecVP9 VideoCodec = iota
	CodecVP8
	CodecAV1
	CodecH264
	CodecH265
)

func (c VideoCodec) String() string {
	switch c {
	case CodecVP9:
		return "vp9"
	case CodecVP8:
		return "vp8"
	case CodecAV1:
		return "av1"
	case CodecH264:
		return "h264"
	case CodecH265:
		return "h265"
	default:
		return "unknown"
	}
}

// ImageQuality selects the remote encoder's rate/quality tradeoff.
type ImageQuality uint32

const (
	QualityBalanced ImageQuality = iota
	QualityBest
	QualitySpeed
	QualityCustom
)

// Permission identifies a session capability the remote may grant or revoke
// mid-session.
type Permission uint32

const (
	PermKeyboard Permission = iota
	PermClipboard
	PermAudio
	PermFile
	PermRestart
	PermRecording
)

// ControlKey values carried by KeyEvent for non-character keys.
const (
	KeyNone uint32 = iota
	KeyCtrlAltDel
	KeyLockScreen
	KeyBackspace
	KeyTab
	KeyReturn
	KeyEscape
	KeyDelete
)

// Capability flags advertised in a connection request.
const (
	CapVideo uint64 = 1 << iota
	CapAudio
	CapClipboard
	CapInput
)
