package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/artemshloyda/synothumb/internal/storage"
)

// newStatsCmd создаёт команду stats.
func newStatsCmd() *cobra.Command {
	var (
		dbPath string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Показать статистику журнала запусков",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.New(dbPath)
			if err != nil {
				return fmt.Errorf("не удалось открыть БД: %w", err)
			}
			defer func() { _ = store.Close() }()

			st, err := store.GetStats()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "📊 Статистика журнала:\n")
			fmt.Fprintf(out, "   Запусков: %d\n", st.Runs)
			fmt.Fprintf(out, "   Записей о файлах: %d\n", st.Files)
			fmt.Fprintf(out, "   Успешно: %d\n", st.OK)
			fmt.Fprintf(out, "   Пропущено (миниатюры уже были): %d\n", st.Skipped)
			fmt.Fprintf(out, "   Ошибок: %d\n", st.Failed)
			fmt.Fprintf(out, "   Записано миниатюр: %d\n", st.Variants)

			if r := st.LastRun; r != nil {
				fmt.Fprintf(out, "\n🕐 Последний запуск #%d (%s):\n", r.ID, r.Status)
				fmt.Fprintf(out, "   Директория: %s\n", r.Root)
				fmt.Fprintf(out, "   Начат: %s\n", r.StartedAt.Format(time.DateTime))
				if !r.FinishedAt.IsZero() {
					fmt.Fprintf(out, "   Длительность: %s\n", r.FinishedAt.Sub(r.StartedAt))
				}
				fmt.Fprintf(out, "   Файлов: %d, ошибок: %d, миниатюр: %d\n",
					r.Totals.Dispatched, r.Totals.Failed, r.Totals.Variants)
			}

			failed, err := store.FailedFiles(limit)
			if err != nil {
				return err
			}
			if len(failed) > 0 {
				fmt.Fprintf(out, "\n❌ Файлы с ошибкой в последней попытке:\n")
				for _, rec := range failed {
					fmt.Fprintf(out, "   %s: %s\n", rec.Path, rec.Error)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "Путь к SQLite журналу")
	cmd.Flags().IntVar(&limit, "limit", 20, "Максимум файлов с ошибками в выводе")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}
