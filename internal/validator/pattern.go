package validator

import (
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"
)

var ErrInvalidRule = errors.New("invalid rule")

// PatternValidator проверяет строку регулярным выражением и ограничениями длины из Rule.
// Выражение всегда применяется ко всей строке целиком. Длина считается в символах (рунах).
type PatternValidator struct {
	rule Rule
	re   *regexp.Regexp
}

func NewPatternValidator(rule Rule) (*PatternValidator, error) {
	if rule.Length < 0 || rule.MinLength < 0 || rule.MaxLength < 0 {
		return nil, fmt.Errorf("%w: negative length", ErrInvalidRule)
	}
	if rule.Length > 0 && (rule.MinLength > 0 || rule.MaxLength > 0) {
		return nil, fmt.Errorf("%w: length cannot be combined with min_length/max_length", ErrInvalidRule)
	}
	if rule.MaxLength > 0 && rule.MinLength > rule.MaxLength {
		return nil, fmt.Errorf("%w: min_length %d > max_length %d", ErrInvalidRule, rule.MinLength, rule.MaxLength)
	}
	if rule.Pattern == "" && rule.Length == 0 && rule.MinLength == 0 && rule.MaxLength == 0 {
		return nil, fmt.Errorf("%w: pattern rule has no constraints", ErrInvalidRule)
	}

	pv := &PatternValidator{rule: rule}
	if rule.Pattern != "" {
		re, err := regexp.Compile(`^(?:` + rule.Pattern + `)$`)
		if err != nil {
			return nil, fmt.Errorf("%w: compile pattern: %w", ErrInvalidRule, err)
		}
		pv.re = re
	}
	return pv, nil
}

func (pv *PatternValidator) IsAcceptable(s string) bool {
	// 1. Длина
	n := utf8.RuneCountInString(s)
	if pv.rule.Length > 0 && n != pv.rule.Length {
		return false
	}
	if n < pv.rule.MinLength {
		return false
	}
	if pv.rule.MaxLength > 0 && n > pv.rule.MaxLength {
		return false
	}

	// 2. Шаблон
	if pv.re != nil && !pv.re.MatchString(s) {
		return false
	}
	return true
}

// Build создаёт валидатор по правилу из файла.
func Build(rule Rule) (Validator, error) {
	switch rule.Kind {
	case KindLetters:
		return NewLettersOnlyValidator(), nil
	case KindZip:
		return NewZipCodeValidator(), nil
	case KindHost:
		return NewHostnameValidator(), nil
	case KindBase:
		bv, err := NewBaseValidator(rule.Base)
		if err != nil {
			return nil, err
		}
		return bv, nil
	case KindPattern:
		pv, err := NewPatternValidator(rule)
		if err != nil {
			return nil, err
		}
		return pv, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidRule, rule.Kind)
	}
}
