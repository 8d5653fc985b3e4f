package proto

// Builders assemble well-formed outbound messages from semantic intent so
// callers never hand-construct wire shapes.

// NewConnectRequest builds a discovery connection request for a target id.
func NewConnectRequest(target string, token []byte, caps uint64, forceRelay bool) *DiscoveryMessage {
	return &DiscoveryMessage{ConnectRequest: &ConnectRequest{
		Target:     target,
		Token:      token,
		Caps:       caps,
		ForceRelay: forceRelay,
	}}
}

// NewRelayJoin builds the request pairing a relay connection with the
// session token returned by discovery.
func NewRelayJoin(target string, sessionToken, token []byte) *DiscoveryMessage {
	return &DiscoveryMessage{RelayJoinRequest: &RelayJoinRequest{
		Target:       target,
		SessionToken: sessionToken,
		Token:        token,
	}}
}

// NewKeyExchange builds the unencrypted key-exchange message: the local
// ephemeral public key and the sealed session key.
func NewKeyExchange(publicKey, sealedKey []byte) *PeerMessage {
	return &PeerMessage{KeyExchange: &KeyExchange{
		PublicKey: publicKey,
		SealedKey: sealedKey,
	}}
}

// NewLoginRequest builds a login request carrying the hashed credential.
func NewLoginRequest(target string, hashedCredential, sessionID []byte, version string) *PeerMessage {
	return &PeerMessage{LoginRequest: &LoginRequest{
		Target:           target,
		HashedCredential: hashedCredential,
		SessionID:        sessionID,
		Version:          version,
	}}
}

// NewKeepAlive builds the periodic liveness probe. lastLatencyMS is the
// most recent measured round trip, zero if none yet.
func NewKeepAlive(timestampMS, lastLatencyMS uint64) *PeerMessage {
	return &PeerMessage{KeepAlive: &KeepAlive{
		TimestampMS:   timestampMS,
		LastLatencyMS: lastLatencyMS,
	}}
}

// NewClipboard builds a clipboard push.
func NewClipboard(content []byte, compressed bool) *PeerMessage {
	return &PeerMessage{Clipboard: &Clipboard{
		Compressed: compressed,
		Content:    content,
	}}
}

// NewChat builds a chat message.
func NewChat(text string) *PeerMessage {
	return &PeerMessage{Chat: &Chat{Text: text}}
}

// NewMouseEvent builds one pointer event.
func NewMouseEvent(mask uint32, x, y int32, modifiers ...uint32) *PeerMessage {
	return &PeerMessage{MouseEvent: &MouseEvent{
		Mask:      mask,
		X:         x,
		Y:         y,
		Modifiers: modifiers,
	}}
}

// NewKeyEvent builds one keyboard event for a unicode character.
func NewKeyEvent(down bool, chr uint32, modifiers ...uint32) *PeerMessage {
	return &PeerMessage{KeyEvent: &KeyEvent{
		Down:      down,
		Chr:       chr,
		Modifiers: modifiers,
	}}
}

// NewControlKeyEvent builds a press of a non-character key (Key* values),
// used for remote shortcut injection such as ctrl-alt-del.
func NewControlKeyEvent(key uint32) *PeerMessage {
	return &PeerMessage{KeyEvent: &KeyEvent{
		Press:      true,
		ControlKey: key,
	}}
}

// NewImageQuality builds a quality-preference change.
func NewImageQuality(q ImageQuality) *PeerMessage {
	return &PeerMessage{Control: &Control{ImageQuality: &q}}
}

// NewCustomFPS builds an FPS-cap change.
func NewCustomFPS(fps uint32) *PeerMessage {
	return &PeerMessage{Control: &Control{CustomFPS: &fps}}
}

// NewRefresh asks the remote to resend a full video frame.
func NewRefresh() *PeerMessage {
	return &PeerMessage{Control: &Control{Refresh: true}}
}

// NewSwitchDisplay asks the remote to capture a different display.
func NewSwitchDisplay(display uint32) *PeerMessage {
	return &PeerMessage{SwitchDisplay: &SwitchDisplay{Display: display}}
}
