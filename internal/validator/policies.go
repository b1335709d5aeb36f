package validator

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

var ErrNoRules = errors.New("rules file defines no validators")

// LoadRules загружает набор валидаторов из YAML/JSON/TOML файла.
// Валидаторы перечисляются списком под ключом validators и регистрируются в порядке файла.
// Пустой путь означает реестр по умолчанию.
func LoadRules(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	ext := filepath.Ext(path)
	if ext == ".yaml" || ext == ".yml" {
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var rules []Rule
	if err := v.UnmarshalKey("validators", &rules); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoRules)
	}

	reg := NewRegistry()
	for i, rule := range rules {
		val, err := Build(rule)
		if err != nil {
			return nil, fmt.Errorf("rule #%d %q: %w", i+1, rule.Name, err)
		}
		if err := reg.Register(rule.Name, val); err != nil {
			return nil, fmt.Errorf("rule #%d: %w", i+1, err)
		}
	}
	return reg, nil
}
