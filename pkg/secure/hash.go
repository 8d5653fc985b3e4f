package secure

import "crypto/sha256"

// HashCredential derives the login challenge-response: the credential is
// hashed with the per-device salt, then that digest is hashed with the
// server's one-time challenge. The raw credential never leaves the client.
func HashCredential(credential string, salt, challenge []byte) []byte {
	first := sha256.Sum256(append([]byte(credential), salt...))
	second := sha256.Sum256(append(first[:], challenge...))
	return second[:]
}
