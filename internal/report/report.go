// Package report прогоняет входные строки через все валидаторы реестра
// и форматирует результат.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"

	"gopkg.in/yaml.v3"

	"strcheck/internal/validator"
)

const (
	FormatText = "text"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

var ErrUnknownFormat = errors.New("unknown report format")

// Source описывает любой набор именованных валидаторов; *validator.Registry ему удовлетворяет.
type Source interface {
	All() iter.Seq2[string, validator.Validator]
}

// Line хранит результат проверки одной строки одним валидатором.
type Line struct {
	Input     string `json:"input" yaml:"input"`
	Validator string `json:"validator" yaml:"validator"`
	Match     bool   `json:"match" yaml:"match"`
}

func (l Line) String() string {
	verdict := "does not match"
	if l.Match {
		verdict = "matches"
	}
	return fmt.Sprintf("%q %s %q.", l.Input, verdict, l.Validator)
}

// Run проверяет каждую строку каждым валидатором, без досрочного выхода.
// Порядок: строки в порядке inputs, для каждой строки валидаторы идут в порядке обхода src.
func Run(inputs []string, src Source) []Line {
	var lines []Line
	for _, s := range inputs {
		for name, v := range src.All() {
			lines = append(lines, Line{Input: s, Validator: name, Match: v.IsAcceptable(s)})
		}
	}
	return lines
}

// Tally показывает, сколько строк прошло конкретный валидатор.
type Tally struct {
	Validator string `json:"validator" yaml:"validator"`
	Matched   int    `json:"matched" yaml:"matched"`
	Total     int    `json:"total" yaml:"total"`
}

// Summarize считает совпадения по валидаторам в порядке их первого появления.
func Summarize(lines []Line) []Tally {
	var tallies []Tally
	index := make(map[string]int)
	for _, l := range lines {
		i, ok := index[l.Validator]
		if !ok {
			i = len(tallies)
			index[l.Validator] = i
			tallies = append(tallies, Tally{Validator: l.Validator})
		}
		tallies[i].Total++
		if l.Match {
			tallies[i].Matched++
		}
	}
	return tallies
}

// Write выводит строки отчёта в формате text, yaml или json. Пустой format означает text.
func Write(w io.Writer, lines []Line, format string) error {
	if format != FormatText && format != "" {
		if lines == nil {
			lines = []Line{}
		}
		return Encode(w, lines, format)
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l.String()); err != nil {
			return err
		}
	}
	return nil
}

// Encode сериализует произвольное значение в yaml или json.
func Encode(w io.Writer, v any, format string) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// ContentType возвращает MIME-тип для формата отчёта.
func ContentType(format string) string {
	switch format {
	case FormatYAML:
		return "application/yaml; charset=utf-8"
	case FormatJSON:
		return "application/json; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}
