package secure

import (
	"crypto/rand"
	"encoding/binary"
	"errors"

	"golang.org/x/crypto/nacl/box"
	"golang.org/x/crypto/nacl/secretbox"
)

var (
	ErrDecrypt = errors.New("message authentication failed")
	ErrSeal    = errors.New("session key sealing failed")
)

// KeySize is the symmetric session key length.
const KeySize = 32

// Channel holds one session's key material: the symmetric session key and
// the two independent monotonic counters used as nonces. One Channel per
// session, never shared or reused.
//
// Before Enable, Encrypt and Decrypt pass payloads through untouched;
// the handshake itself travels unencrypted. After Enable, every payload is
// authenticated-encrypted, counters starting at 0 and advancing by exactly
// one per message per direction. Both ends process messages strictly FIFO,
// so any authentication failure means counter desync or tampering; neither
// is recoverable and the counters are never rewound.
type Channel struct {
	key     [KeySize]byte
	sendSeq uint64
	recvSeq uint64
	active  bool
}

// NewChannel returns a Channel with a fresh random session key.
func NewChannel() (*Channel, error) {
	c := &Channel{}
	if _, err := rand.Read(c.key[:]); err != nil {
		return nil, err
	}
	return c, nil
}

// NewChannelWithKey returns a Channel around an existing session key, as
// recovered by the responder from a sealed key exchange.
func NewChannelWithKey(key [KeySize]byte) *Channel {
	return &Channel{key: key}
}

// SealKeyTo seals the session key to the remote's ephemeral public key
// using a fresh local ephemeral keypair. The zero nonce is safe only
// because the keypair is generated here and used for exactly this one seal.
func (c *Channel) SealKeyTo(peerKey *[32]byte) (localPublic [32]byte, sealed []byte, err error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return localPublic, nil, err
	}

	var nonce [24]byte
	sealed = box.Seal(nil, c.key[:], &nonce, peerKey, priv)

	return *pub, sealed, nil
}

// OpenSealedKey recovers a session key sealed by SealKeyTo, given the
// sealer's ephemeral public key and the recipient's private key. This is
// the responder side of the exchange.
func OpenSealedKey(sealed []byte, sealerPublic, recipientPrivate *[32]byte) ([KeySize]byte, error) {
	var key [KeySize]byte
	var nonce [24]byte

	raw, ok := box.Open(nil, sealed, &nonce, sealerPublic, recipientPrivate)
	if !ok || len(raw) != KeySize {
		return key, ErrSeal
	}
	copy(key[:], raw)
	return key, nil
}

// Enable switches the channel from pass-through to authenticated
// encryption. Called exactly once per session, strictly after the remote's
// identity is verified and key material exchanged.
func (c *Channel) Enable() {
	c.active = true
	c.sendSeq = 0
	c.recvSeq = 0
}

// Active reports whether encryption is enabled.
func (c *Channel) Active() bool {
	return c.active
}

// Encrypt transforms one outgoing payload, consuming the next send counter.
func (c *Channel) Encrypt(plaintext []byte) []byte {
	if !c.active {
		return plaintext
	}

	nonce := counterNonce(c.sendSeq)
	c.sendSeq++
	return secretbox.Seal(nil, plaintext, &nonce, &c.key)
}

// Decrypt transforms one incoming payload, consuming the next receive
// counter. Failure is fatal for the session: the counter is spent either
// way and is never rewound, so a replayed or reordered message can never
// decrypt as valid.
func (c *Channel) Decrypt(ciphertext []byte) ([]byte, error) {
	if !c.active {
		return ciphertext, nil
	}

	nonce := counterNonce(c.recvSeq)
	c.recvSeq++

	plaintext, ok := secretbox.Open(nil, ciphertext, &nonce, &c.key)
	if !ok {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

// counterNonce expands a message counter into a 24-byte secretbox nonce.
func counterNonce(seq uint64) [24]byte {
	var nonce [24]byte
	binary.LittleEndian.PutUint64(nonce[:8], seq)
	return nonce
}
