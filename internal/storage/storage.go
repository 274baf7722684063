// Package storage ведёт журнал запусков в SQLite: итоги каждого запуска
// и результат по каждому файлу. Журнал необязателен и не влияет на то,
// какие миниатюры создаются.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Storage предоставляет методы для работы с журналом.
type Storage struct {
	db *sql.DB
}

// New создаёт новое подключение к SQLite и выполняет миграции.
func New(dbPath string) (*Storage, error) {
	// Создаём директорию для БД, если не существует
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию для БД: %w", err)
	}

	// Открываем/создаём БД с параметрами для concurrent доступа
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть БД: %w", err)
	}

	// Проверяем подключение
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("не удалось подключиться к БД: %w", err)
	}

	// Воркеры пишут параллельно, SQLite - один писатель
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Storage{db: db}

	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("не удалось выполнить миграции: %w", err)
	}

	return s, nil
}

// migrate выполняет все SQL-миграции.
func (s *Storage) migrate() error {
	for i, m := range GetMigrations() {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("миграция %d: %w", i+1, err)
		}
	}
	return nil
}

// Close закрывает подключение к БД.
func (s *Storage) Close() error {
	return s.db.Close()
}

// StartRun создаёт запись о запуске со статусом in_progress.
func (s *Storage) StartRun(root string, workers int) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO runs (root, workers, status, started_at) VALUES (?, ?, ?, ?)",
		root, workers, StatusInProgress, time.Now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("не удалось создать запуск: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("не удалось получить ID запуска: %w", err)
	}
	return id, nil
}

// RecordFile сохраняет результат обработки файла.
func (s *Storage) RecordFile(runID int64, rec FileRecord) error {
	processedAt := rec.ProcessedAt
	if processedAt.IsZero() {
		processedAt = time.Now()
	}

	var errMsg *string
	if rec.Error != "" {
		errMsg = &rec.Error
	}

	_, err := s.db.Exec(`
		INSERT INTO files (run_id, path, kind, size, status, written, skipped, error, duration_ms, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, rec.Path, rec.Kind, rec.Size, rec.Status, rec.Written, rec.Skipped,
		errMsg, rec.DurationMs, processedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("не удалось записать файл %s: %w", rec.Path, err)
	}
	return nil
}

// FinishRun сохраняет итоги и финальный статус запуска.
func (s *Storage) FinishRun(runID int64, status Status, totals RunTotals) error {
	_, err := s.db.Exec(`
		UPDATE runs SET status = ?, finished_at = ?, dispatched = ?, succeeded = ?,
		                failed = ?, skipped = ?, variants = ?
		WHERE id = ?`,
		status, time.Now().Unix(), totals.Dispatched, totals.Succeeded,
		totals.Failed, totals.Skipped, totals.Variants, runID,
	)
	if err != nil {
		return fmt.Errorf("не удалось обновить запуск: %w", err)
	}
	return nil
}

// CleanupInProgress помечает незавершённые запуски как прерванные.
// Вызывается при старте для очистки после аварийного завершения.
func (s *Storage) CleanupInProgress() (int64, error) {
	result, err := s.db.Exec(
		"UPDATE runs SET status = ? WHERE status = ?",
		StatusInterrupted, StatusInProgress,
	)
	if err != nil {
		return 0, fmt.Errorf("не удалось очистить in_progress: %w", err)
	}
	return result.RowsAffected()
}

// GetStats возвращает сводную статистику журнала.
func (s *Storage) GetStats() (*Stats, error) {
	st := &Stats{}

	if err := s.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&st.Runs); err != nil {
		return nil, fmt.Errorf("не удалось получить статистику: %w", err)
	}

	err := s.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(status = ?), 0),
		       COALESCE(SUM(status = ?), 0),
		       COALESCE(SUM(skipped), 0),
		       COALESCE(SUM(written), 0)
		FROM files`, StatusOK, StatusFailed,
	).Scan(&st.Files, &st.OK, &st.Failed, &st.Skipped, &st.Variants)
	if err != nil {
		return nil, fmt.Errorf("не удалось получить статистику: %w", err)
	}

	runs, err := s.RecentRuns(1)
	if err != nil {
		return nil, err
	}
	if len(runs) > 0 {
		st.LastRun = &runs[0]
	}

	return st, nil
}

// RecentRuns возвращает последние запуски, новые первыми.
func (s *Storage) RecentRuns(limit int) ([]Run, error) {
	rows, err := s.db.Query(`
		SELECT id, root, workers, status, started_at, finished_at,
		       dispatched, succeeded, failed, skipped, variants
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("не удалось получить запуски: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var (
			r          Run
			startedAt  int64
			finishedAt sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.Root, &r.Workers, &r.Status, &startedAt, &finishedAt,
			&r.Totals.Dispatched, &r.Totals.Succeeded, &r.Totals.Failed,
			&r.Totals.Skipped, &r.Totals.Variants); err != nil {
			return nil, fmt.Errorf("не удалось прочитать запуск: %w", err)
		}
		r.StartedAt = time.Unix(startedAt, 0)
		if finishedAt.Valid {
			r.FinishedAt = time.Unix(finishedAt.Int64, 0)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// FailedFiles возвращает файлы, последняя попытка обработки которых
// завершилась ошибкой.
func (s *Storage) FailedFiles(limit int) ([]FileRecord, error) {
	rows, err := s.db.Query(`
		SELECT f.run_id, f.path, f.kind, f.size, f.status, f.written, f.skipped,
		       f.error, f.duration_ms, f.processed_at
		FROM files f
		WHERE f.status = ?
		  AND f.id = (SELECT MAX(g.id) FROM files g WHERE g.path = f.path)
		ORDER BY f.path
		LIMIT ?`, StatusFailed, limit)
	if err != nil {
		return nil, fmt.Errorf("не удалось получить ошибки: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []FileRecord
	for rows.Next() {
		var (
			rec         FileRecord
			errMsg      sql.NullString
			processedAt int64
		)
		if err := rows.Scan(&rec.RunID, &rec.Path, &rec.Kind, &rec.Size, &rec.Status,
			&rec.Written, &rec.Skipped, &errMsg, &rec.DurationMs, &processedAt); err != nil {
			return nil, fmt.Errorf("не удалось прочитать запись: %w", err)
		}
		rec.Error = errMsg.String
		rec.ProcessedAt = time.Unix(processedAt, 0)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ErrNoRun - журнал привязан к несуществующему запуску.
var ErrNoRun = errors.New("запуск не начат")

// RunJournal пишет результаты файлов в конкретный запуск.
type RunJournal struct {
	s     *Storage
	runID int64
}

// Journal возвращает журнал для запуска runID.
func (s *Storage) Journal(runID int64) *RunJournal {
	return &RunJournal{s: s, runID: runID}
}

// RunID возвращает идентификатор запуска.
func (j *RunJournal) RunID() int64 {
	return j.runID
}

// RecordFile сохраняет результат файла в запуск.
func (j *RunJournal) RecordFile(rec FileRecord) error {
	if j.runID == 0 {
		return ErrNoRun
	}
	rec.RunID = j.runID
	return j.s.RecordFile(j.runID, rec)
}

/*
Возможные расширения:
- Добавить метод для экспорта статистики в JSON
- Добавить метод для очистки старых запусков
*/
