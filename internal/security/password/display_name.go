package password

import (
	"errors"
	"strings"
)

// ErrInvalidDisplayName es genérico a propósito: no itemiza qué caracter falló.
var ErrInvalidDisplayName = errors.New("numbers and special characters are not allowed")

// CheckDisplayName rechaza nombres vacíos o con dígitos o caracteres especiales.
func CheckDisplayName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidDisplayName
	}
	if strings.IndexFunc(name, func(r rune) bool { return isDigitASCII(r) || IsSpecial(r) }) >= 0 {
		return ErrInvalidDisplayName
	}
	return nil
}
