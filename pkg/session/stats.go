package session

import "fmt"

// Stats is one fixed-cadence snapshot of session throughput.
type Stats struct {
	BytesReceived uint64  // total payload bytes since connect
	VideoFrames   uint64  // total decoded video frames since connect
	FPS           float64 // frames in the last stats interval, scaled to 1s
	Speed         string  // human-readable receive rate over the last interval
}

// formatSpeed renders a bytes-per-second rate.
func formatSpeed(bytesPerSec float64) string {
	switch {
	case bytesPerSec >= 1<<20:
		return fmt.Sprintf("%.1f MB/s", bytesPerSec/(1<<20))
	case bytesPerSec >= 1<<10:
		return fmt.Sprintf("%.1f KB/s", bytesPerSec/(1<<10))
	default:
		return fmt.Sprintf("%.0f B/s", bytesPerSec)
	}
}
