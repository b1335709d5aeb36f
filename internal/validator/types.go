// Package validator содержит строковые валидаторы, их реестр
// и загрузку набора валидаторов из файла правил (rules.yaml).
package validator

// Виды валидаторов, допустимые в поле kind файла правил.
const (
	KindLetters = "letters"
	KindZip     = "zip"
	KindBase    = "base"
	KindPattern = "pattern"
	KindHost    = "hostname"
)

// Rule описывает один именованный валидатор из файла правил.
// Какие поля используются, зависит от Kind.
type Rule struct {
	Name      string `mapstructure:"name"`
	Kind      string `mapstructure:"kind"`
	Base      int    `mapstructure:"base"`
	Pattern   string `mapstructure:"pattern"`
	Length    int    `mapstructure:"length"`
	MinLength int    `mapstructure:"min_length"`
	MaxLength int    `mapstructure:"max_length"`
}
