// Package secure implements the session crypto handshake: verification of
// the remote's signed identity proof, sealing of a fresh symmetric session
// key to the remote's ephemeral public key, and the counter-synchronized
// authenticated cipher applied to every peer payload once enabled.
package secure

import (
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/nacl/sign"

	"github.com/fleetlink/fleetlink-go/pkg/proto"
)

var (
	ErrBadIdentityKey   = errors.New("invalid identity verification key")
	ErrIdentityRejected = errors.New("identity proof verification failed")
	ErrMalformedProof   = errors.New("malformed identity proof")
)

// PeerIdentity is the verified outcome of the remote's identity proof:
// its claimed id and ephemeral public key. Derived once per session, from
// the first unencrypted message; immutable afterward.
type PeerIdentity struct {
	ID           string
	EphemeralKey [32]byte
}

// Verifier checks identity proofs against the long-lived identity key
// obtained out of band at configuration time.
type Verifier struct {
	key [32]byte
}

// NewVerifier parses a base64-encoded long-lived public identity key.
func NewVerifier(encodedKey string) (*Verifier, error) {
	raw, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadIdentityKey, err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("%w: got %d bytes, want 32", ErrBadIdentityKey, len(raw))
	}

	v := &Verifier{}
	copy(v.key[:], raw)
	return v, nil
}

// OpenProof verifies a signed identity blob and returns the identity it
// asserts. Verification failure aborts the session; there is no
// unauthenticated fallback.
func (v *Verifier) OpenProof(blob []byte) (*PeerIdentity, error) {
	record, ok := sign.Open(nil, blob, &v.key)
	if !ok {
		return nil, ErrIdentityRejected
	}

	rec, err := proto.UnmarshalIdentityRecord(record)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedProof, err)
	}
	if rec.ID == "" || len(rec.PublicKey) != 32 {
		return nil, ErrMalformedProof
	}

	id := &PeerIdentity{ID: rec.ID}
	copy(id.EphemeralKey[:], rec.PublicKey)
	return id, nil
}
