package main

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"strcheck/internal/report"
	"strcheck/internal/utils"
	"strcheck/internal/validator"
)

var sampleInputs = []string{"Hello", "98052", "101"}

var inputFile string

var checkCmd = &cobra.Command{
	Use:   "check [strings...]",
	Short: "Check strings against every registered validator",
	Long: `Checks each string from the arguments and from --input against every
validator in registry order and prints one line per (string, validator) pair.

Without arguments and --input the sample strings "Hello", "98052" and "101" are used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		inputs, err := collectInputs(args, inputFile)
		if err != nil {
			return err
		}
		reg, err := validator.LoadRules(cfg.RulesFile)
		if err != nil {
			return err
		}
		return runCheck(cmd.OutOrStdout(), inputs, reg, cfg.Format)
	},
}

func init() {
	checkCmd.Flags().StringVarP(&inputFile, "input", "i", "", "File with one input string per line")
}

func collectInputs(args []string, inputFile string) ([]string, error) {
	inputs := slices.Clone(args)
	if inputFile != "" {
		lines, err := utils.LoadLines(inputFile, nil)
		if err != nil {
			return nil, fmt.Errorf("load inputs: %w", err)
		}
		inputs = append(inputs, lines...)
	}
	if len(inputs) == 0 {
		return slices.Clone(sampleInputs), nil
	}
	return inputs, nil
}

func runCheck(w io.Writer, inputs []string, reg *validator.Registry, format string) error {
	lines := report.Run(inputs, reg)
	for _, t := range report.Summarize(lines) {
		logger.Debug("Validator summary",
			zap.String("validator", t.Validator),
			zap.Int("matched", t.Matched),
			zap.Int("total", t.Total))
	}
	return report.Write(w, lines, format)
}
