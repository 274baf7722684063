//go:build unix

package progress

import (
	"time"

	"golang.org/x/sys/unix"
)

// processCPUTime возвращает суммарное пользовательское и системное
// процессорное время процесса.
func processCPUTime() time.Duration {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return wallClock()
	}
	return time.Duration(ru.Utime.Nano() + ru.Stime.Nano())
}
