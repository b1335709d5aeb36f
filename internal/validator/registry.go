package validator

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"
)

var ErrInvalidEntry = errors.New("invalid registry entry")

type entry struct {
	name      string
	validator Validator
}

// Registry хранит упорядоченное отображение «имя → валидатор».
// Повторная регистрация имени заменяет валидатор, сохраняя позицию записи.
type Registry struct {
	mu      sync.RWMutex
	entries []entry
	index   map[string]int
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Default возвращает реестр с двумя встроенными валидаторами: ZIP code и Letters only.
func Default() *Registry {
	r := NewRegistry()
	r.mustRegister(ZipCodeName, NewZipCodeValidator())
	r.mustRegister(LettersOnlyName, NewLettersOnlyValidator())
	return r
}

func (r *Registry) Register(name string, v Validator) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidEntry)
	}
	if v == nil {
		return fmt.Errorf("%w: nil validator for %q", ErrInvalidEntry, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if i, exists := r.index[name]; exists {
		r.entries[i].validator = v
		return nil
	}
	r.index[name] = len(r.entries)
	r.entries = append(r.entries, entry{name: name, validator: v})
	return nil
}

func (r *Registry) mustRegister(name string, v Validator) {
	if err := r.Register(name, v); err != nil {
		panic(err)
	}
}

// Get возвращает валидатор по имени или nil.
func (r *Registry) Get(name string) Validator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i, exists := r.index[name]; exists {
		return r.entries[i].validator
	}
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Names возвращает имена в порядке регистрации.
func (r *Registry) Names() []string {
	names := make([]string, 0, r.Len())
	for name := range r.All() {
		names = append(names, name)
	}
	return names
}

// All возвращает ленивую последовательность пар (имя, валидатор) в порядке регистрации.
// Каждый вызов начинает обход заново, со снимка записей на момент старта обхода.
func (r *Registry) All() iter.Seq2[string, Validator] {
	return func(yield func(string, Validator) bool) {
		r.mu.RLock()
		snapshot := slices.Clone(r.entries)
		r.mu.RUnlock()
		for _, e := range snapshot {
			if !yield(e.name, e.validator) {
				return
			}
		}
	}
}
