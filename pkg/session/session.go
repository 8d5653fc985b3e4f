// Package session drives one remote-control attempt end to end: discovery,
// relay handoff, identity verification, key exchange, credential challenge
// and the live encrypted session. All session state is owned by a single
// event loop per Session; the public API posts commands to it and never
// touches state directly, so no locks guard the handshake material.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fleetlink/fleetlink-go/pkg/peerstore"
	"github.com/fleetlink/fleetlink-go/pkg/proto"
	"github.com/fleetlink/fleetlink-go/pkg/secure"
	"github.com/fleetlink/fleetlink-go/pkg/transport"
	"github.com/fleetlink/fleetlink-go/pkg/wire"
)

var (
	ErrSessionClosed         = errors.New("session closed")
	ErrNotAwaitingCredential = errors.New("no credential challenge pending")
	ErrNotStreaming          = errors.New("session is not streaming")
	ErrDiscoveryTimeout      = errors.New("discovery response timeout")
	ErrRelayJoinTimeout      = errors.New("relay join response timeout")
)

// Options configures one Session.
type Options struct {
	Target            string // registered device id to reach
	DiscoveryEndpoint string
	DiscoveryTimeout  time.Duration
	KeepAliveInterval time.Duration
	StatsInterval     time.Duration
	Version           string
	Caps              uint64
	ForceRelay        bool

	// Per-peer preferences, typically loaded from the peer store. Applied
	// to the remote right after a successful login.
	Quality   proto.ImageQuality
	CustomFPS uint32

	// Store, when set, records successful sessions.
	Store *peerstore.Store
}

type cmdKind int

const (
	cmdConnect cmdKind = iota
	cmdAuthenticate
	cmdDisconnect
	cmdSend
	cmdClose
)

type command struct {
	kind       cmdKind
	ctx        context.Context
	credential string
	msg        *proto.PeerMessage
	reply      chan error
}

// Session is one attempt to reach one target device. Create with New,
// drive with Connect/Authenticate/Disconnect, observe via Events.
type Session struct {
	opts     Options
	dialer   transport.Dialer
	verifier *secure.Verifier
	consumer Consumer
	log      *zap.Logger

	cmds   chan command
	events chan Event
	done   chan struct{}

	// Everything below is owned exclusively by the run loop.
	state        State
	token        []byte
	sessionToken []byte

	disc        transport.Conn
	relay       transport.Conn
	discReader  *wire.Reader
	relayReader *wire.Reader
	joined      bool

	channel   *secure.Channel
	identity  *secure.PeerIdentity
	salt      []byte
	challenge []byte

	awaitTimer  *time.Timer
	awaitC      <-chan time.Time
	awaitReason string // which exchange the timer guards
	keepalive  *time.Ticker
	keepaliveC <-chan time.Time
	statsTick  *time.Ticker
	statsC     <-chan time.Time

	lastLatencyMS  int64
	bytesReceived  uint64
	videoFrames    uint64
	intervalBytes  uint64
	intervalFrames uint64
	released       bool

	// stateVal mirrors state for lock-free reads from other goroutines.
	stateVal atomic.Int32
}

// New creates an idle Session and starts its event loop.
func New(opts Options, dialer transport.Dialer, verifier *secure.Verifier, consumer Consumer, log *zap.Logger) *Session {
	if opts.DiscoveryTimeout <= 0 {
		opts.DiscoveryTimeout = 30 * time.Second
	}
	if opts.KeepAliveInterval <= 0 {
		opts.KeepAliveInterval = 3 * time.Second
	}
	if opts.StatsInterval <= 0 {
		opts.StatsInterval = time.Second
	}
	if consumer == nil {
		consumer = NopConsumer{}
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &Session{
		opts:     opts,
		dialer:   dialer,
		verifier: verifier,
		consumer: consumer,
		log:      log.With(zap.String("target", opts.Target)),
		cmds:     make(chan command),
		events:   make(chan Event, 128),
		done:     make(chan struct{}),
		state:    StateIdle,
		released: true, // nothing to release until an attempt starts
	}
	go s.run()
	return s
}

// Events is the session event stream. It is closed by Close.
func (s *Session) Events() <-chan Event {
	return s.events
}

// State reports the current session state.
func (s *Session) State() State {
	return State(s.stateVal.Load())
}

// Connect starts a connection attempt to the target. It returns once the
// discovery request is in flight; progress and failures arrive as events.
// Calling Connect on a session with open channels tears them down first.
func (s *Session) Connect(ctx context.Context) error {
	return s.post(command{kind: cmdConnect, ctx: ctx})
}

// Authenticate answers a pending credential challenge. Only valid in
// StateWaitingPassword; the raw credential never leaves the process.
func (s *Session) Authenticate(credential string) error {
	return s.post(command{kind: cmdAuthenticate, credential: credential})
}

// Disconnect tears the session down. It is synchronous, idempotent, and
// safe to call from an event handler: on return all timers are cleared,
// channels closed, and the state is StateDisconnected.
func (s *Session) Disconnect() error {
	return s.post(command{kind: cmdDisconnect})
}

// Close disconnects, stops the event loop and closes the event stream.
func (s *Session) Close() error {
	err := s.post(command{kind: cmdClose})
	if errors.Is(err, ErrSessionClosed) {
		return nil
	}
	return err
}

// SendClipboard pushes clipboard content to the remote.
func (s *Session) SendClipboard(content []byte) error {
	return s.send(proto.NewClipboard(content, false))
}

// SendCtrlAltDel injects the secure-attention shortcut on the remote.
func (s *Session) SendCtrlAltDel() error {
	return s.send(proto.NewControlKeyEvent(proto.KeyCtrlAltDel))
}

// SendChat sends a chat line to the remote operator.
func (s *Session) SendChat(text string) error {
	return s.send(proto.NewChat(text))
}

// SendMouse injects one pointer event.
func (s *Session) SendMouse(mask uint32, x, y int32) error {
	return s.send(proto.NewMouseEvent(mask, x, y))
}

// SendKey injects one character key event.
func (s *Session) SendKey(down bool, chr uint32) error {
	return s.send(proto.NewKeyEvent(down, chr))
}

// SetQuality changes the remote encoder's quality preference.
func (s *Session) SetQuality(q proto.ImageQuality) error {
	return s.send(proto.NewImageQuality(q))
}

// SetCustomFPS caps the remote capture rate.
func (s *Session) SetCustomFPS(fps uint32) error {
	return s.send(proto.NewCustomFPS(fps))
}

// SwitchDisplay asks the remote to capture a different display.
func (s *Session) SwitchDisplay(display uint32) error {
	return s.send(proto.NewSwitchDisplay(display))
}

// Refresh asks the remote for a full video frame.
func (s *Session) Refresh() error {
	return s.send(proto.NewRefresh())
}

func (s *Session) send(m *proto.PeerMessage) error {
	return s.post(command{kind: cmdSend, msg: m})
}

func (s *Session) post(c command) error {
	c.reply = make(chan error, 1)
	select {
	case s.cmds <- c:
	case <-s.done:
		return ErrSessionClosed
	}
	select {
	case err := <-c.reply:
		return err
	case <-s.done:
		return ErrSessionClosed
	}
}

// run is the session event loop. Every mutation of session state happens
// here, in strict arrival order; the crypto counters depend on that.
func (s *Session) run() {
	defer close(s.done)

	for {
		var discEvents, relayEvents <-chan transport.Event
		if s.disc != nil {
			discEvents = s.disc.Events()
		}
		if s.relay != nil {
			relayEvents = s.relay.Events()
		}

		select {
		case cmd := <-s.cmds:
			if s.handleCommand(cmd) {
				return
			}
		case ev, ok := <-discEvents:
			s.onDiscoveryEvent(ev, ok)
		case ev, ok := <-relayEvents:
			s.onRelayEvent(ev, ok)
		case <-s.awaitC:
			s.fail(StateError, s.awaitReason)
		case <-s.keepaliveC:
			s.sendKeepAlive()
		case <-s.statsC:
			s.publishStats()
		}
	}
}

// handleCommand returns true when the loop must exit.
func (s *Session) handleCommand(cmd command) bool {
	switch cmd.kind {
	case cmdConnect:
		cmd.reply <- s.handleConnect(cmd.ctx)
	case cmdAuthenticate:
		cmd.reply <- s.handleAuthenticate(cmd.credential)
	case cmdDisconnect:
		s.teardown()
		s.setState(StateDisconnected)
		cmd.reply <- nil
	case cmdSend:
		if s.state != StateStreaming {
			cmd.reply <- ErrNotStreaming
			return false
		}
		cmd.reply <- s.sendPeer(cmd.msg)
	case cmdClose:
		s.teardown()
		if !s.state.terminal() {
			s.setState(StateDisconnected)
		}
		cmd.reply <- nil
		close(s.events)
		return true
	}
	return false
}

func (s *Session) handleConnect(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// A second connect on the same session starts clean.
	s.teardown()
	s.released = false
	s.identity = nil
	s.channel = nil
	s.setState(StateConnecting)

	token := uuid.New()
	s.token = token[:]

	dialCtx, cancel := context.WithTimeout(ctx, s.opts.DiscoveryTimeout)
	conn, err := s.dialer.Dial(dialCtx, s.opts.DiscoveryEndpoint)
	cancel()
	if err != nil {
		s.fail(StateError, fmt.Sprintf("discovery dial failed: %v", err))
		return err
	}

	s.disc = conn
	s.discReader = wire.NewReader()

	req := proto.NewConnectRequest(s.opts.Target, s.token, s.opts.Caps, s.opts.ForceRelay)
	if err := s.sendDiscovery(req); err != nil {
		s.fail(StateError, fmt.Sprintf("connection request failed: %v", err))
		return err
	}

	s.armAwaitTimer(ErrDiscoveryTimeout.Error())
	s.note("discovery request sent")
	return nil
}

func (s *Session) handleAuthenticate(credential string) error {
	if s.state != StateWaitingPassword {
		return ErrNotAwaitingCredential
	}

	hashed := secure.HashCredential(credential, s.salt, s.challenge)
	req := proto.NewLoginRequest(s.opts.Target, hashed, s.token, s.opts.Version)
	if err := s.sendPeer(req); err != nil {
		s.fatal(fmt.Sprintf("login request failed: %v", err))
		return err
	}

	s.setState(StateAuthenticating)
	return nil
}

func (s *Session) onDiscoveryEvent(ev transport.Event, ok bool) {
	if !ok || ev.Err != nil {
		s.fatal("discovery channel closed unexpectedly")
		return
	}

	for _, payload := range s.discReader.Feed(ev.Data) {
		msg, err := proto.UnmarshalDiscovery(payload)
		if err != nil {
			s.fatal(fmt.Sprintf("malformed discovery message: %v", err))
			return
		}

		switch msg.Kind() {
		case proto.DiscoveryConnectResponse:
			s.onConnectResponse(msg.ConnectResponse)
		default:
			s.log.Debug("ignoring discovery message", zap.Uint16("kind", uint16(msg.Kind())))
		}
	}
}

func (s *Session) onConnectResponse(resp *proto.ConnectResponse) {
	if s.state != StateConnecting {
		s.log.Warn("late discovery response ignored")
		return
	}

	s.disarmAwaitTimer()

	// A negative response is terminal for this attempt, surfaced verbatim
	// and never retried here; the caller may start a fresh attempt.
	if resp.Failure != proto.FailureNone {
		s.fail(StateError, resp.FailureText())
		return
	}
	if resp.RelayEndpoint == "" {
		s.fail(StateError, "discovery response missing relay endpoint")
		return
	}

	s.sessionToken = resp.SessionToken

	// Discovery is done with; the session continues on the relay channel.
	s.disc.Close()
	s.disc = nil
	s.discReader = nil

	dialCtx, cancel := context.WithTimeout(context.Background(), s.opts.DiscoveryTimeout)
	conn, err := s.dialer.Dial(dialCtx, resp.RelayEndpoint)
	cancel()
	if err != nil {
		s.fail(StateError, fmt.Sprintf("relay dial failed: %v", err))
		return
	}

	s.relay = conn
	s.relayReader = wire.NewReader()
	s.joined = false

	join := proto.NewRelayJoin(s.opts.Target, s.sessionToken, s.token)
	b, err := join.Marshal()
	if err != nil {
		s.fail(StateError, fmt.Sprintf("relay join failed: %v", err))
		return
	}
	if err := s.sendRaw(s.relay, b); err != nil {
		s.fail(StateError, fmt.Sprintf("relay join failed: %v", err))
		return
	}

	s.armAwaitTimer(ErrRelayJoinTimeout.Error())
	s.note("relay join sent", zap.String("endpoint", resp.RelayEndpoint))
}

func (s *Session) onRelayEvent(ev transport.Event, ok bool) {
	if !ok || ev.Err != nil {
		s.fatal("relay channel closed unexpectedly")
		return
	}

	for _, payload := range s.relayReader.Feed(ev.Data) {
		s.bytesReceived += uint64(len(payload))
		s.intervalBytes += uint64(len(payload))

		if s.channel != nil && s.channel.Active() {
			plain, err := s.channel.Decrypt(payload)
			if err != nil {
				// Counter desync or tampering; neither is recoverable.
				s.fatal("message authentication failed")
				return
			}
			payload = plain
		}

		if !s.joined {
			if !s.onRelayJoinPayload(payload) {
				return
			}
			continue
		}

		msg, err := proto.UnmarshalPeer(payload)
		if err != nil {
			s.fatal(fmt.Sprintf("malformed peer message: %v", err))
			return
		}
		if !s.dispatchPeer(msg) {
			return
		}
	}
}

// onRelayJoinPayload handles the single discovery-family exchange that
// opens the relay channel. Returns false when the session failed.
func (s *Session) onRelayJoinPayload(payload []byte) bool {
	msg, err := proto.UnmarshalDiscovery(payload)
	if err != nil {
		s.fatal(fmt.Sprintf("malformed relay join response: %v", err))
		return false
	}

	resp := msg.RelayJoinResponse
	if resp == nil {
		s.log.Debug("ignoring pre-join relay message")
		return true
	}
	if !resp.OK {
		reason := resp.Reason
		if reason == "" {
			reason = "relay join refused"
		}
		s.fail(StateError, reason)
		return false
	}

	s.joined = true
	s.disarmAwaitTimer()
	s.note("relay joined, awaiting identity proof")
	return true
}

// dispatchPeer routes one decoded peer message. Returns false when the
// session failed and the loop must stop processing buffered payloads.
func (s *Session) dispatchPeer(m *proto.PeerMessage) bool {
	switch m.Kind() {
	case proto.PeerSignedID:
		return s.onSignedID(m.SignedID)

	case proto.PeerKeyExchange:
		// The exchange is client-initiated and happens exactly once; a
		// remote-initiated one is never honored as a re-handshake.
		s.log.Warn("unexpected key-exchange message ignored")

	case proto.PeerCredentialChallenge:
		// Before the proof is verified and the channel enabled, the
		// challenge is unauthenticated: answering it would send the
		// credential hash in the clear to an unverified peer.
		if s.identity == nil || s.channel == nil || !s.channel.Active() {
			s.fail(StateError, "credential challenge before identity proof")
			return false
		}
		s.salt = m.CredentialChallenge.Salt
		s.challenge = m.CredentialChallenge.Challenge
		s.setState(StateWaitingPassword)
		s.emit(Event{Kind: EventPasswordRequired})

	case proto.PeerLoginResponse:
		s.onLoginResponse(m.LoginResponse)

	case proto.PeerKeepAlive:
		s.onKeepAliveEcho(m.KeepAlive)

	case proto.PeerVideoFrame:
		s.videoFrames++
		s.intervalFrames++
		s.consumer.OnVideoFrame(m.VideoFrame)

	case proto.PeerAudioFrame:
		s.consumer.OnAudioFrame(m.AudioFrame)

	case proto.PeerCursorData:
		s.consumer.OnCursorData(m.CursorData)

	case proto.PeerCursorPosition:
		s.consumer.OnCursorPosition(m.CursorPosition)

	case proto.PeerClipboard:
		s.consumer.OnClipboard(m.Clipboard)

	case proto.PeerSwitchDisplay:
		s.consumer.OnSwitchDisplay(m.SwitchDisplay)

	case proto.PeerChat:
		s.emit(Event{Kind: EventChat, Text: m.Chat.Text})

	case proto.PeerControl:
		s.onControl(m.Control)

	default:
		// Forward-compatible: unmodeled kinds are dropped.
	}
	return true
}

func (s *Session) onSignedID(sid *proto.SignedID) bool {
	if s.identity != nil {
		s.log.Warn("duplicate identity proof ignored")
		return true
	}

	identity, err := s.verifier.OpenProof(sid.Blob)
	if err != nil {
		// Never proceed unauthenticated.
		s.fail(StateError, fmt.Sprintf("identity verification failed: %v", err))
		return false
	}
	if identity.ID != s.opts.Target {
		s.fail(StateError, fmt.Sprintf("identity mismatch: proof is for %q", identity.ID))
		return false
	}
	s.identity = identity

	channel, err := secure.NewChannel()
	if err != nil {
		s.fail(StateError, fmt.Sprintf("session key generation failed: %v", err))
		return false
	}

	localPub, sealed, err := channel.SealKeyTo(&identity.EphemeralKey)
	if err != nil {
		s.fail(StateError, fmt.Sprintf("session key sealing failed: %v", err))
		return false
	}

	// The key exchange is the first outbound peer message, sent in the
	// clear; everything after it is encrypted.
	if err := s.sendPeer(proto.NewKeyExchange(localPub[:], sealed)); err != nil {
		s.fatal(fmt.Sprintf("key exchange send failed: %v", err))
		return false
	}

	s.channel = channel
	s.channel.Enable()
	s.note("session encryption enabled", zap.String("peer", identity.ID))
	return true
}

func (s *Session) onLoginResponse(resp *proto.LoginResponse) {
	if s.state != StateAuthenticating {
		s.log.Warn("unsolicited login response ignored")
		return
	}

	if resp.Error != "" {
		// Recoverable: back to the credential prompt, unlimited retries.
		s.emit(Event{Kind: EventLoginError, Reason: resp.Error})
		s.setState(StateWaitingPassword)
		return
	}

	s.setState(StateStreaming)
	if resp.PeerInfo != nil {
		s.emit(Event{Kind: EventPeerInfo, PeerInfo: resp.PeerInfo})
	}

	s.keepalive = time.NewTicker(s.opts.KeepAliveInterval)
	s.keepaliveC = s.keepalive.C
	s.statsTick = time.NewTicker(s.opts.StatsInterval)
	s.statsC = s.statsTick.C

	s.applyPreferences()

	if s.opts.Store != nil {
		if err := s.opts.Store.Touch(s.opts.Target, time.Now()); err != nil {
			s.log.Warn("peer store update failed", zap.Error(err))
		}
	}
	s.note("login accepted, streaming")
}

// applyPreferences pushes the per-peer quality settings once streaming.
func (s *Session) applyPreferences() {
	if s.opts.Quality != proto.QualityBalanced {
		if err := s.sendPeer(proto.NewImageQuality(s.opts.Quality)); err != nil {
			s.log.Warn("quality preference send failed", zap.Error(err))
		}
	}
	if s.opts.CustomFPS > 0 {
		if err := s.sendPeer(proto.NewCustomFPS(s.opts.CustomFPS)); err != nil {
			s.log.Warn("fps preference send failed", zap.Error(err))
		}
	}
}

func (s *Session) onKeepAliveEcho(ka *proto.KeepAlive) {
	if ka.TimestampMS == 0 {
		return
	}
	latency := time.Now().UnixMilli() - int64(ka.TimestampMS)
	if latency < 0 {
		return
	}
	s.lastLatencyMS = latency
	s.emit(Event{Kind: EventLatency, LatencyMS: latency})
}

func (s *Session) onControl(ctl *proto.Control) {
	switch ctl.Kind() {
	case proto.ControlPermission:
		s.emit(Event{Kind: EventPermission, Permission: ctl.Permission})
	case proto.ControlOption:
		s.log.Info("session option changed",
			zap.String("name", ctl.Option.Name),
			zap.String("value", ctl.Option.Value))
	default:
		s.log.Debug("ignoring control message", zap.Uint16("kind", uint16(ctl.Kind())))
	}
}

func (s *Session) sendKeepAlive() {
	probe := proto.NewKeepAlive(uint64(time.Now().UnixMilli()), uint64(s.lastLatencyMS))
	if err := s.sendPeer(probe); err != nil {
		s.fatal(fmt.Sprintf("keep-alive send failed: %v", err))
	}
}

func (s *Session) publishStats() {
	interval := s.opts.StatsInterval.Seconds()
	stats := &Stats{
		BytesReceived: s.bytesReceived,
		VideoFrames:   s.videoFrames,
		FPS:           float64(s.intervalFrames) / interval,
		Speed:         formatSpeed(float64(s.intervalBytes) / interval),
	}
	s.intervalBytes = 0
	s.intervalFrames = 0
	s.emit(Event{Kind: EventStats, Stats: stats})
}

func (s *Session) sendDiscovery(m *proto.DiscoveryMessage) error {
	b, err := m.Marshal()
	if err != nil {
		return err
	}
	return s.sendRaw(s.disc, b)
}

func (s *Session) sendPeer(m *proto.PeerMessage) error {
	b, err := m.Marshal()
	if err != nil {
		return err
	}
	if s.channel != nil {
		b = s.channel.Encrypt(b)
	}
	return s.sendRaw(s.relay, b)
}

// sendRaw frames an already-serialized (and, post-enable, encrypted)
// payload. The frame header itself is never encrypted.
func (s *Session) sendRaw(conn transport.Conn, payload []byte) error {
	if conn == nil {
		return transport.ErrClosed
	}
	frame, err := wire.Encode(payload)
	if err != nil {
		return err
	}
	return conn.Send(frame)
}

// fatal handles transport closure and decrypt failure: teardown and
// StateDisconnected.
func (s *Session) fatal(reason string) {
	if s.state.terminal() {
		return
	}
	s.fail(StateDisconnected, reason)
}

// fail converges every fatal path on the same idempotent cleanup.
func (s *Session) fail(next State, reason string) {
	s.teardown()
	s.emit(Event{Kind: EventError, Reason: reason})
	s.setState(next)
	s.log.Warn("session ended", zap.String("reason", reason))
}

// teardown releases all session-scoped resources: pending timers first,
// then open channels, then presentation resources. Idempotent; every exit
// path funnels through it.
func (s *Session) teardown() {
	s.disarmAwaitTimer()
	if s.keepalive != nil {
		s.keepalive.Stop()
		s.keepalive = nil
		s.keepaliveC = nil
	}
	if s.statsTick != nil {
		s.statsTick.Stop()
		s.statsTick = nil
		s.statsC = nil
	}
	if s.disc != nil {
		s.disc.Close()
		s.disc = nil
	}
	if s.relay != nil {
		s.relay.Close()
		s.relay = nil
	}
	s.discReader = nil
	s.relayReader = nil
	s.joined = false
	s.salt = nil
	s.challenge = nil
	if !s.released {
		s.consumer.Release()
		s.released = true
	}
}

func (s *Session) armAwaitTimer(reason string) {
	s.disarmAwaitTimer()
	s.awaitTimer = time.NewTimer(s.opts.DiscoveryTimeout)
	s.awaitC = s.awaitTimer.C
	s.awaitReason = reason
}

func (s *Session) disarmAwaitTimer() {
	if s.awaitTimer != nil {
		s.awaitTimer.Stop()
		s.awaitTimer = nil
		s.awaitC = nil
	}
}

func (s *Session) setState(next State) {
	if s.state == next {
		return
	}
	s.state = next
	s.stateVal.Store(int32(next))
	s.emit(Event{Kind: EventStateChange, State: next})
}

// note logs a session milestone and mirrors it onto the event stream for
// the caller's log pane.
func (s *Session) note(text string, fields ...zap.Field) {
	s.log.Info(text, fields...)
	s.emit(Event{Kind: EventLog, Text: text})
}

// emit never blocks the event loop; a caller that stops draining loses
// events rather than stalling the wire.
func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
		s.log.Warn("event dropped", zap.Int("kind", int(ev.Kind)))
	}
}
