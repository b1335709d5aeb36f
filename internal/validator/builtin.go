package validator

import (
	"net"
	"regexp"
	"strings"
)

// Имена встроенных валидаторов в реестре по умолчанию.
const (
	ZipCodeName     = "ZIP code"
	LettersOnlyName = "Letters only"
)

const zipCodeLength = 5

var (
	lettersRe = regexp.MustCompile(`^[A-Za-z]+$`)
	digitsRe  = regexp.MustCompile(`^[0-9]+$`)
	// hostRe валидирует доменные имена (включая Punycode xn--)
	hostRe = regexp.MustCompile(`^([a-z0-9]([a-z0-9-]*[a-z0-9])?\.)+[a-z0-9]([a-z0-9-]*[a-z0-9])?$|^xn--([a-z0-9-]+\.)+[a-z0-9-]+$`)
)

const (
	maxHostnameLength = 253
	maxLabelLength    = 63
)

// LettersOnlyValidator принимает непустые строки только из латинских букв A–Z, a–z.
type LettersOnlyValidator struct{}

func NewLettersOnlyValidator() *LettersOnlyValidator {
	return &LettersOnlyValidator{}
}

func (lv *LettersOnlyValidator) IsAcceptable(s string) bool {
	return lettersRe.MatchString(s)
}

// ZipCodeValidator принимает ровно пять цифр 0–9.
type ZipCodeValidator struct{}

func NewZipCodeValidator() *ZipCodeValidator {
	return &ZipCodeValidator{}
}

func (zv *ZipCodeValidator) IsAcceptable(s string) bool {
	return len(s) == zipCodeLength && digitsRe.MatchString(s)
}

// HostnameValidator принимает доменное имя из двух и более меток либо IP-адрес.
// Одиночные имена вроде localhost не принимаются, метка длиннее 63 байт тоже.
type HostnameValidator struct{}

func NewHostnameValidator() *HostnameValidator {
	return &HostnameValidator{}
}

func (hv *HostnameValidator) IsAcceptable(s string) bool {
	if s == "" || len(s) > maxHostnameLength {
		return false
	}
	if ip := net.ParseIP(s); ip != nil {
		return true
	}
	if !hostRe.MatchString(strings.ToLower(s)) {
		return false
	}
	for label := range strings.SplitSeq(s, ".") {
		if len(label) > maxLabelLength {
			return false
		}
	}
	return true
}
