package secure

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"golang.org/x/crypto/nacl/box"
	"golang.org/x/crypto/nacl/sign"

	"github.com/fleetlink/fleetlink-go/pkg/proto"
)

// signProof builds a signed identity blob the way the remote does.
func signProof(t *testing.T, priv *[64]byte, id string, ephemeral []byte) []byte {
	t.Helper()
	record := proto.MarshalIdentityRecord(&proto.IdentityRecord{
		ID:        id,
		PublicKey: ephemeral,
	})
	return sign.Sign(nil, record, priv)
}

func TestOpenProof(t *testing.T) {
	pub, priv, err := sign.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	v, err := NewVerifier(base64.StdEncoding.EncodeToString(pub[:]))
	if err != nil {
		t.Fatalf("NewVerifier() error = %v", err)
	}

	ephemeral := make([]byte, 32)
	rand.Read(ephemeral)
	blob := signProof(t, priv, "928374650", ephemeral)

	identity, err := v.OpenProof(blob)
	if err != nil {
		t.Fatalf("OpenProof() error = %v", err)
	}
	if identity.ID != "928374650" {
		t.Errorf("ID = %q", identity.ID)
	}
	if !bytes.Equal(identity.EphemeralKey[:], ephemeral) {
		t.Error("ephemeral key mismatch")
	}
}

func TestOpenProofRejectsTampering(t *testing.T) {
	pub, priv, _ := sign.GenerateKey(rand.Reader)
	v, _ := NewVerifier(base64.StdEncoding.EncodeToString(pub[:]))

	ephemeral := make([]byte, 32)
	rand.Read(ephemeral)
	blob := signProof(t, priv, "928374650", ephemeral)

	// Flip one bit inside the signed record.
	blob[len(blob)-1] ^= 0x01
	if _, err := v.OpenProof(blob); err != ErrIdentityRejected {
		t.Errorf("tampered proof: error = %v, want ErrIdentityRejected", err)
	}
}

func TestOpenProofRejectsWrongSigner(t *testing.T) {
	pub, _, _ := sign.GenerateKey(rand.Reader)
	_, otherPriv, _ := sign.GenerateKey(rand.Reader)
	v, _ := NewVerifier(base64.StdEncoding.EncodeToString(pub[:]))

	ephemeral := make([]byte, 32)
	rand.Read(ephemeral)
	blob := signProof(t, otherPriv, "928374650", ephemeral)

	if _, err := v.OpenProof(blob); err != ErrIdentityRejected {
		t.Errorf("wrong signer: error = %v, want ErrIdentityRejected", err)
	}
}

func TestOpenProofRejectsMalformedRecord(t *testing.T) {
	pub, priv, _ := sign.GenerateKey(rand.Reader)
	v, _ := NewVerifier(base64.StdEncoding.EncodeToString(pub[:]))

	// Valid signature over a record with a truncated public key.
	blob := signProof(t, priv, "928374650", []byte{1, 2, 3})
	if _, err := v.OpenProof(blob); err == nil {
		t.Error("short ephemeral key accepted")
	}
}

func TestNewVerifierRejectsBadKey(t *testing.T) {
	if _, err := NewVerifier("not base64!!"); err == nil {
		t.Error("invalid base64 accepted")
	}
	if _, err := NewVerifier(base64.StdEncoding.EncodeToString([]byte("short"))); err == nil {
		t.Error("short key accepted")
	}
}

func TestPassthroughBeforeEnable(t *testing.T) {
	c, err := NewChannel()
	if err != nil {
		t.Fatal(err)
	}

	payload := []byte("handshake traffic")
	if got := c.Encrypt(payload); !bytes.Equal(got, payload) {
		t.Error("Encrypt modified payload before Enable")
	}
	got, err := c.Decrypt(payload)
	if err != nil || !bytes.Equal(got, payload) {
		t.Error("Decrypt modified payload before Enable")
	}
}

func TestSealAndOpenSessionKey(t *testing.T) {
	// The remote's ephemeral box keypair.
	remotePub, remotePriv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	c, err := NewChannel()
	if err != nil {
		t.Fatal(err)
	}

	localPub, sealed, err := c.SealKeyTo(remotePub)
	if err != nil {
		t.Fatalf("SealKeyTo() error = %v", err)
	}

	key, err := OpenSealedKey(sealed, &localPub, remotePriv)
	if err != nil {
		t.Fatalf("OpenSealedKey() error = %v", err)
	}

	// Both sides now encrypt/decrypt against each other.
	c.Enable()
	remote := NewChannelWithKey(key)
	remote.Enable()

	msg := []byte("post-handshake message")
	out, err := remote.Decrypt(c.Encrypt(msg))
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if !bytes.Equal(out, msg) {
		t.Error("round-trip through sealed key failed")
	}
}

func TestOpenSealedKeyRejectsWrongRecipient(t *testing.T) {
	remotePub, _, _ := box.GenerateKey(rand.Reader)
	_, wrongPriv, _ := box.GenerateKey(rand.Reader)

	c, _ := NewChannel()
	localPub, sealed, err := c.SealKeyTo(remotePub)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := OpenSealedKey(sealed, &localPub, wrongPriv); err != ErrSeal {
		t.Errorf("error = %v, want ErrSeal", err)
	}
}

func TestCounterMonotonicity(t *testing.T) {
	var key [KeySize]byte
	rand.Read(key[:])

	sender := NewChannelWithKey(key)
	receiver := NewChannelWithKey(key)
	sender.Enable()
	receiver.Enable()

	const n = 16
	for i := 0; i < n; i++ {
		msg := []byte{byte(i)}
		ct := sender.Encrypt(msg)

		got, err := receiver.Decrypt(ct)
		if err != nil {
			t.Fatalf("message %d: Decrypt() error = %v", i, err)
		}
		if !bytes.Equal(got, msg) {
			t.Fatalf("message %d corrupted", i)
		}
	}
}

func TestReplayFailsClosed(t *testing.T) {
	var key [KeySize]byte
	rand.Read(key[:])

	sender := NewChannelWithKey(key)
	receiver := NewChannelWithKey(key)
	sender.Enable()
	receiver.Enable()

	first := sender.Encrypt([]byte("one"))
	if _, err := receiver.Decrypt(first); err != nil {
		t.Fatal(err)
	}

	// Replaying the consumed counter must fail, and the failure must not
	// rewind the counter: subsequent legitimate traffic stays broken.
	if _, err := receiver.Decrypt(first); err != ErrDecrypt {
		t.Fatalf("replay: error = %v, want ErrDecrypt", err)
	}
	second := sender.Encrypt([]byte("two"))
	if _, err := receiver.Decrypt(second); err != ErrDecrypt {
		t.Fatalf("post-desync message decrypted; counters were rewound")
	}
}

func TestOutOfOrderFailsClosed(t *testing.T) {
	var key [KeySize]byte
	rand.Read(key[:])

	sender := NewChannelWithKey(key)
	receiver := NewChannelWithKey(key)
	sender.Enable()
	receiver.Enable()

	first := sender.Encrypt([]byte("one"))
	second := sender.Encrypt([]byte("two"))

	if _, err := receiver.Decrypt(second); err != ErrDecrypt {
		t.Fatalf("out-of-order: error = %v, want ErrDecrypt", err)
	}
	_ = first
}

func TestHashCredential(t *testing.T) {
	salt := []byte("device-salt")
	challenge := []byte("one-time-challenge")

	got := HashCredential("secret", salt, challenge)

	first := sha256.Sum256(append([]byte("secret"), salt...))
	want := sha256.Sum256(append(first[:], challenge...))
	if !bytes.Equal(got, want[:]) {
		t.Error("hash construction mismatch")
	}

	// Any input change must change the digest.
	if bytes.Equal(got, HashCredential("Secret", salt, challenge)) {
		t.Error("credential not bound")
	}
	if bytes.Equal(got, HashCredential("secret", salt, []byte("other"))) {
		t.Error("challenge not bound")
	}
}
