package validator

// Validator отвечает на один вопрос: подходит ли строка под правило.
// Реализации не паникуют ни на каком входе: отсутствие совпадения означает false, а не ошибку.
type Validator interface {
	IsAcceptable(s string) bool
}
