//go:build !unix

package progress

import "time"

// processCPUTime на платформах без getrusage использует настенное время.
func processCPUTime() time.Duration {
	return wallClock()
}
