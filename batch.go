package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"strcheck/internal/report"
	"strcheck/internal/utils"
	"strcheck/internal/validator"
)

var batchOutDir string

var batchCmd = &cobra.Command{
	Use:   "batch FILE...",
	Short: "Check several input files concurrently",
	Long: `Checks every line of every FILE against the registry. Files are processed
concurrently; reports are printed in argument order, or written to --out DIR
as report_<n>_<name>.<format>.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := validator.LoadRules(cfg.RulesFile)
		if err != nil {
			return err
		}
		return runBatch(cmd.Context(), cmd.OutOrStdout(), args, reg, cfg.Format, batchOutDir)
	},
}

func init() {
	batchCmd.Flags().StringVarP(&batchOutDir, "out", "o", "", "Directory for report files (default: print to stdout)")
}

// fileReport содержит отчёт по одному входному файлу.
type fileReport struct {
	File  string        `json:"file" yaml:"file"`
	Lines []report.Line `json:"lines" yaml:"lines"`

	saved string
	err   error
}

func runBatch(ctx context.Context, w io.Writer, files []string, reg *validator.Registry, format, outDir string) error {
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	results := make([]fileReport, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := &results[i]
			res.File = file
			inputs, err := utils.LoadLines(file, nil)
			if err != nil {
				res.err = fmt.Errorf("load %s: %w", file, err)
				return nil
			}
			res.Lines = report.Run(inputs, reg)
			if outDir != "" {
				res.saved, res.err = writeReportFile(outDir, i, file, res.Lines, format)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var ok []fileReport
	failed := 0
	for _, res := range results {
		if res.err != nil {
			failed++
			logger.Error("Process failed", zap.String("file", res.File), zap.Error(res.err))
			continue
		}
		if res.saved != "" {
			logger.Info("Report saved", zap.String("file", res.File), zap.String("report", res.saved))
			continue
		}
		ok = append(ok, res)
	}

	if outDir == "" {
		if err := writeBatch(w, ok, format); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

func writeBatch(w io.Writer, reports []fileReport, format string) error {
	if format != report.FormatText && format != "" {
		if reports == nil {
			reports = []fileReport{}
		}
		return report.Encode(w, reports, format)
	}
	for _, r := range reports {
		if _, err := fmt.Fprintf(w, "# %s\n", r.File); err != nil {
			return err
		}
		if err := report.Write(w, r.Lines, format); err != nil {
			return err
		}
	}
	return nil
}

func writeReportFile(outDir string, idx int, file string, lines []report.Line, format string) (string, error) {
	name := utils.SanitizeFilename(file)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	ext := format
	if ext == report.FormatText || ext == "" {
		ext = "txt"
	}
	path := filepath.Join(outDir, fmt.Sprintf("report_%d_%s.%s", idx+1, name, ext))
	if !utils.IsPathSafe(path, outDir) {
		return "", fmt.Errorf("unsafe report path for %s", file)
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, lines, format); err != nil {
		return "", err
	}
	if err := utils.WriteFileAtomic(path, buf.Bytes()); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
