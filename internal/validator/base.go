package validator

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// baseDigits задаёт алфавит цифр; основание n использует первые n символов.
const baseDigits = "0123456789ABCDEF"

var (
	ErrBaseOutOfRange  = errors.New("base out of range")
	ErrDigitOutOfRange = errors.New("digit out of range")
	ErrEmptyInput      = errors.New("empty input")
	ErrOverflow        = errors.New("value overflows uint64")
)

// BaseValidator принимает числа, записанные в системе счисления с заданным основанием (1–16).
// Символ, не являющийся цифрой этого основания (в том числе цифра >= base), отклоняется.
// Строчные a–f считаются равными A–F.
type BaseValidator struct {
	base int
}

// NewBaseValidator возвращает ошибку для основания вне диапазона 1–16;
// частично созданный валидатор наружу не отдаётся.
func NewBaseValidator(base int) (*BaseValidator, error) {
	if base <= 0 || base > len(baseDigits) {
		return nil, fmt.Errorf("%w: %d (allowed 1..%d)", ErrBaseOutOfRange, base, len(baseDigits))
	}
	return &BaseValidator{base: base}, nil
}

func (bv *BaseValidator) Base() int {
	return bv.base
}

func (bv *BaseValidator) IsAcceptable(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if bv.digit(s[i]) < 0 {
			return false
		}
	}
	return true
}

// Parse вычисляет значение строки в системе счисления валидатора.
func (bv *BaseValidator) Parse(s string) (uint64, error) {
	if s == "" {
		return 0, ErrEmptyInput
	}
	base := uint64(bv.base)
	var value uint64
	for i := 0; i < len(s); i++ {
		d := bv.digit(s[i])
		if d < 0 {
			return 0, fmt.Errorf("%w: %q at position %d for base %d", ErrDigitOutOfRange, s[i], i, bv.base)
		}
		if value > (math.MaxUint64-uint64(d))/base {
			return 0, fmt.Errorf("%w: %q", ErrOverflow, s)
		}
		value = value*base + uint64(d)
	}
	return value, nil
}

// digit возвращает значение цифры c или -1, если c не цифра этого основания.
func (bv *BaseValidator) digit(c byte) int {
	if c >= 'a' && c <= 'f' {
		c -= 'a' - 'A'
	}
	idx := strings.IndexByte(baseDigits, c)
	if idx >= bv.base {
		return -1
	}
	return idx
}
