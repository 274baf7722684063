package storage

// migrations содержит SQL-миграции в порядке выполнения.
var migrations = []string{
	// Миграция 1: Таблица запусков
	`CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		root TEXT NOT NULL,
		workers INTEGER NOT NULL,
		status TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER,
		dispatched INTEGER NOT NULL DEFAULT 0,
		succeeded INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		variants INTEGER NOT NULL DEFAULT 0
	);`,

	// Миграция 2: Результаты по файлам
	`CREATE TABLE IF NOT EXISTS files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		path TEXT NOT NULL,
		kind TEXT NOT NULL,
		size INTEGER NOT NULL,
		status TEXT NOT NULL,
		written INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		error TEXT,
		duration_ms INTEGER NOT NULL,
		processed_at INTEGER NOT NULL
	);`,

	// Миграция 3: Индексы для статистики и поиска последней попытки по пути
	`CREATE INDEX IF NOT EXISTS ix_files_run ON files (run_id);`,
	`CREATE INDEX IF NOT EXISTS ix_files_path ON files (path);`,
	`CREATE INDEX IF NOT EXISTS ix_files_status ON files (status);`,

	// Миграция 4: Таблица метаданных для версионирования схемы
	`CREATE TABLE IF NOT EXISTS schema_info (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`,

	// Миграция 5: Запись версии схемы
	`INSERT OR REPLACE INTO schema_info (key, value) VALUES ('version', '1');`,
}

// GetMigrations возвращает список SQL-миграций.
func GetMigrations() []string {
	return migrations
}
