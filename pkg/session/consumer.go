package session

import "github.com/fleetlink/fleetlink-go/pkg/proto"

// Consumer is the presentation pipeline's receiving side: decoder, renderer
// and cursor/clipboard integration live behind it. Methods are called from
// the session's event loop, one at a time, in wire order. Release is called
// exactly once during teardown.
type Consumer interface {
	OnVideoFrame(*proto.VideoFrame)
	OnAudioFrame(*proto.AudioFrame)
	OnCursorData(*proto.CursorData)
	OnCursorPosition(*proto.CursorPosition)
	OnClipboard(*proto.Clipboard)
	OnSwitchDisplay(*proto.SwitchDisplay)
	Release()
}

// NopConsumer discards all media, for headless probing and tests.
type NopConsumer struct{}

func (NopConsumer) OnVideoFrame(*proto.VideoFrame)         {}
func (NopConsumer) OnAudioFrame(*proto.AudioFrame)         {}
func (NopConsumer) OnCursorData(*proto.CursorData)         {}
func (NopConsumer) OnCursorPosition(*proto.CursorPosition) {}
func (NopConsumer) OnClipboard(*proto.Clipboard)           {}
func (NopConsumer) OnSwitchDisplay(*proto.SwitchDisplay)   {}
func (NopConsumer) Release()                               {}
