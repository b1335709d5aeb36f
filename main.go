// Пакет main реализует утилиту strcheck для проверки строк набором именованных валидаторов.
// Режимы работы:
//   - check: однократная проверка строк из аргументов или файла
//   - batch: параллельная проверка нескольких файлов
//   - serve: HTTP-сервер для проверки (/check?s=...)
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	rulesFile  string
	format     string
	verbose    bool

	cfg    *AppConfig
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "strcheck",
	Short: "Check strings against a set of named validators",
	Long: `strcheck runs every input string through every registered validator
and reports match / no match for each pair.

Built-in validators: "ZIP code" (exactly five digits) and "Letters only"
(one or more ASCII letters). A rules file (--rules) can define others,
including base-N number and regular expression validators.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("rules") {
			c.RulesFile = rulesFile
		}
		if cmd.Flags().Changed("format") {
			c.Format = format
			if err := c.Validate(); err != nil {
				return err
			}
		}
		if verbose {
			c.LogLevel = "debug"
		}

		l, err := newLogger(c.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		cfg, logger = c, l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	config := zap.NewProductionConfig()
	config.Level = lvl
	return config.Build()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (YAML/JSON/TOML)")
	rootCmd.PersistentFlags().StringVar(&rulesFile, "rules", "", "Path to validator rules file (default: built-in ZIP code and Letters only)")
	rootCmd.PersistentFlags().StringVar(&format, "format", "text", "Report format: text, yaml or json")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
