package storage

import "time"

// Status определяет статус запуска или файла.
type Status string

const (
	// StatusInProgress - запуск выполняется.
	StatusInProgress Status = "in_progress"
	// StatusOK - успешно завершено.
	StatusOK Status = "ok"
	// StatusFailed - файл завершился с ошибкой.
	StatusFailed Status = "failed"
	// StatusInterrupted - запуск прерван (сигнал или аварийное завершение).
	StatusInterrupted Status = "interrupted"
)

// Run представляет один запуск генерации миниатюр.
type Run struct {
	// ID - уникальный идентификатор запуска.
	ID int64

	// Root - корневая директория.
	Root string

	// Workers - размер пула.
	Workers int

	// Status - статус запуска.
	Status Status

	// StartedAt - время начала.
	StartedAt time.Time

	// FinishedAt - время завершения (нулевое, если не завершён).
	FinishedAt time.Time

	// Totals - итоги запуска.
	Totals RunTotals
}

// RunTotals содержит итоговые счётчики запуска.
type RunTotals struct {
	Dispatched int64
	Succeeded  int64
	Failed     int64
	Skipped    int64
	Variants   int64
}

// FileRecord - результат обработки одного файла в журнале.
type FileRecord struct {
	// RunID - запуск, в котором обработан файл.
	RunID int64

	// Path - путь к исходному файлу.
	Path string

	// Kind - класс формата (standard, raw).
	Kind string

	// Size - размер исходного файла в байтах.
	Size int64

	// Status - StatusOK или StatusFailed.
	Status Status

	// Written - количество записанных миниатюр.
	Written int

	// Skipped - все миниатюры уже были.
	Skipped bool

	// Error - сообщение об ошибке (если есть).
	Error string

	// DurationMs - время обработки в миллисекундах.
	DurationMs int64

	// ProcessedAt - время записи.
	ProcessedAt time.Time
}

// Stats - сводная статистика журнала.
type Stats struct {
	// Runs - количество запусков.
	Runs int64

	// Files - количество записей о файлах.
	Files int64

	// OK - успешно обработанных записей.
	OK int64

	// Failed - записей с ошибкой.
	Failed int64

	// Skipped - записей, где миниатюры уже были.
	Skipped int64

	// Variants - всего записано миниатюр.
	Variants int64

	// LastRun - последний запуск (nil, если запусков не было).
	LastRun *Run
}
