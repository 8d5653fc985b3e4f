package proto

import "google.golang.org/protobuf/encoding/protowire"

// Append helpers keep the per-message encoders to one line per field.

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	u := uint64(0)
	if v {
		u = 1
	}
	return appendVarint(b, num, u)
}

func appendSint(b []byte, num protowire.Number, v int32) []byte {
	return appendVarint(b, num, protowire.EncodeZigZag(int64(v)))
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendMessage(b []byte, num protowire.Number, body []byte) []byte {
	return appendBytes(b, num, body)
}

func consumeSint(b []byte) (int32, int) {
	v, n := protowire.ConsumeVarint(b)
	return int32(protowire.DecodeZigZag(v)), n
}

// eachField walks every field of a serialized message, handing each to fn.
// fn returns how many value bytes it consumed; negative means malformed.
// Fields fn does not recognize must be skipped with ConsumeFieldValue, which
// is what keeps decoding forward-compatible.
func eachField(b []byte, fn func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return ErrMalformed
		}
		b = b[n:]

		n, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if n < 0 {
			return ErrMalformed
		}
		b = b[n:]
	}
	return nil
}

// cloneBytes copies v out of the shared decode buffer.
func cloneBytes(v []byte) []byte {
	out := make([]byte, len(v))
	copy(out, v)
	return out
}
