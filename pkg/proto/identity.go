package proto

import "google.golang.org/protobuf/encoding/protowire"

// IdentityRecord is the plaintext inside the remote's signed identity blob:
// its claimed device id and its ephemeral public key. pkg/secure opens the
// signature; this codec only handles the record layout.
type IdentityRecord struct {
	ID        string
	PublicKey []byte
}

// MarshalIdentityRecord serializes the record for signing.
func MarshalIdentityRecord(r *IdentityRecord) []byte {
	var b []byte
	if r.ID != "" {
		b = appendString(b, 1, r.ID)
	}
	if len(r.PublicKey) > 0 {
		b = appendBytes(b, 2, r.PublicKey)
	}
	return b
}

// UnmarshalIdentityRecord parses a record recovered from a verified blob.
func UnmarshalIdentityRecord(b []byte) (*IdentityRecord, error) {
	r := &IdentityRecord{}
	err := eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			r.ID = v
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			r.PublicKey = cloneBytes(v)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}
