// Package validation собирает валидатор с правилами состава реквизитов.
//
// Правила проверяются только на границе HTTP при регистрации и создании
// пользователей. Резервная административная запись создается в обход
// этих правил и им не подчиняется.
package validation

import (
	"strings"
	"unicode"

	"github.com/go-playground/validator"
)

// specialChars — символы, считающиеся специальными в пароле.
const specialChars = `!@#$%^&*(),.?":{}|<>`

// New возвращает валидатор с зарегистрированными правилами
// logincreds и passcreds.
func New() *validator.Validate {
	v := validator.New()
	// Регистрация не может вернуть ошибку для корректной пары тег/функция.
	_ = v.RegisterValidation("logincreds", validUsername)
	_ = v.RegisterValidation("passcreds", validPassword)
	return v
}

// validUsername требует не менее 3 букв и не менее 3 цифр.
func validUsername(fl validator.FieldLevel) bool {
	letters, digits := countClasses(fl.Field().String())
	return letters >= 3 && digits >= 3
}

// validPassword требует не менее 3 букв, 3 цифр и одного спецсимвола.
func validPassword(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	letters, digits := countClasses(value)
	return letters >= 3 && digits >= 3 && strings.ContainsAny(value, specialChars)
}

func countClasses(value string) (letters, digits int) {
	for _, r := range value {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r):
			digits++
		}
	}
	return letters, digits
}
