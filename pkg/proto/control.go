package proto

import "google.golang.org/protobuf/encoding/protowire"

// ControlKind identifies the arm of a decoded control message.
type ControlKind uint16

const (
	ControlUnknown ControlKind = iota
	ControlImageQuality
	ControlCustomFPS
	ControlRefresh
	ControlPermission
	ControlOption
	ControlElevation
)

// Control is the catch-all union for session tuning and notices: quality
// and FPS changes, refresh requests, permission and option notices, and
// elevation state. New arms are added here rather than widening the peer
// union.
type Control struct {
	ImageQuality *ImageQuality
	CustomFPS    *uint32
	Refresh      bool
	Permission   *PermissionNotice
	Option       *OptionChange
	Elevation    *bool
}

// PermissionNotice announces the remote granted or revoked a capability.
type PermissionNotice struct {
	Permission Permission
	Enabled    bool
}

// OptionChange is a named session option toggle.
type OptionChange struct {
	Name  string
	Value string
}

// Kind reports which arm is populated.
func (m *Control) Kind() ControlKind {
	switch {
	case m.ImageQuality != nil:
		return ControlImageQuality
	case m.CustomFPS != nil:
		return ControlCustomFPS
	case m.Refresh:
		return ControlRefresh
	case m.Permission != nil:
		return ControlPermission
	case m.Option != nil:
		return ControlOption
	case m.Elevation != nil:
		return ControlElevation
	default:
		return ControlUnknown
	}
}

func (m *Control) marshal(b []byte) []byte {
	switch {
	case m.ImageQuality != nil:
		b = appendVarint(b, 1, uint64(*m.ImageQuality))
	case m.CustomFPS != nil:
		b = appendVarint(b, 2, uint64(*m.CustomFPS))
	case m.Refresh:
		b = appendBool(b, 3, true)
	case m.Permission != nil:
		body := appendVarint(nil, 1, uint64(m.Permission.Permission))
		body = appendBool(body, 2, m.Permission.Enabled)
		b = appendMessage(b, 4, body)
	case m.Option != nil:
		body := appendString(nil, 1, m.Option.Name)
		body = appendString(body, 2, m.Option.Value)
		b = appendMessage(b, 5, body)
	case m.Elevation != nil:
		b = appendBool(b, 6, *m.Elevation)
	}
	return b
}

func (m *Control) unmarshal(b []byte) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			q := ImageQuality(v)
			m.ImageQuality = &q
			return n, nil
		case num == 2 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			fps := uint32(v)
			m.CustomFPS = &fps
			return n, nil
		case num == 3 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Refresh = v != 0
			return n, nil
		case num == 4 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			m.Permission = &PermissionNotice{}
			return n, m.Permission.unmarshal(v)
		case num == 5 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			m.Option = &OptionChange{}
			return n, m.Option.unmarshal(v)
		case num == 6 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			e := v != 0
			m.Elevation = &e
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func (m *PermissionNotice) unmarshal(b []byte) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Permission = Permission(v)
			return n, nil
		case num == 2 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Enabled = v != 0
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func (m *OptionChange) unmarshal(b []byte) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			m.Name = v
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			m.Value = v
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}
