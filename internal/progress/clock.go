package progress

import "time"

// processStart - момент загрузки пакета, точка отсчёта для wallClock.
var processStart = time.Now()

// wallClock возвращает настенное время с момента запуска процесса.
func wallClock() time.Duration {
	return time.Since(processStart)
}
