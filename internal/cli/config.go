package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artemshloyda/synothumb/internal/config"
)

// newConfigCmd создаёт команду config.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Работа с файлом конфигурации",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigPathsCmd())

	return cmd
}

// newConfigInitCmd создаёт команду config init.
func newConfigInitCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Вывести пример файла конфигурации",
		Long: `Выводит пример файла конфигурации synothumb.yaml.

Примеры:
  synothumb config init > synothumb.yaml
  synothumb config init --output ~/.config/synothumb/config.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			example := config.GenerateExampleConfig()

			if output == "" {
				fmt.Fprint(cmd.OutOrStdout(), example)
				return nil
			}

			if _, err := os.Stat(output); err == nil {
				return fmt.Errorf("файл уже существует: %s", output)
			}
			if err := os.WriteFile(output, []byte(example), 0644); err != nil {
				return fmt.Errorf("не удалось записать %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Создан файл конфигурации: %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Записать в файл вместо stdout")

	return cmd
}

// newConfigPathsCmd создаёт команду config paths.
func newConfigPathsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Показать пути поиска файла конфигурации",
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range config.DefaultConfigPaths() {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
		},
	}
}
